// Package npy reads and writes one-dimensional float64 arrays in the NumPy
// .npy version 1.0 format. The face recognizer on the door controller loads
// encodings with numpy.load, so the files written here must stay
// byte-compatible with numpy.save.
package npy

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"strings"
)

var magic = []byte("\x93NUMPY")

// headerAlignment is the boundary the numpy format pads headers to.
const headerAlignment = 64

// Write stores a 1-D float64 vector at path in .npy v1.0 format.
func Write(path string, vector []float64) error {
	data, err := Marshal(vector)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// Read loads a 1-D float64 vector from a .npy file at path.
func Read(path string) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	vec, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return vec, nil
}

// Marshal serializes a 1-D float64 vector into .npy v1.0 bytes.
func Marshal(vector []float64) ([]byte, error) {
	header := fmt.Sprintf("{'descr': '<f8', 'fortran_order': False, 'shape': (%d,), }", len(vector))

	// Total of magic (6) + version (2) + header length field (2) + header
	// must be a multiple of 64; the header is space-padded and ends with \n.
	unpadded := len(magic) + 2 + 2 + len(header) + 1
	padding := (headerAlignment - unpadded%headerAlignment) % headerAlignment
	header = header + strings.Repeat(" ", padding) + "\n"

	if len(header) > math.MaxUint16 {
		return nil, errors.New("npy header too large for version 1.0")
	}

	var buf bytes.Buffer
	buf.Write(magic)
	buf.WriteByte(1) // major version
	buf.WriteByte(0) // minor version
	if err := binary.Write(&buf, binary.LittleEndian, uint16(len(header))); err != nil {
		return nil, fmt.Errorf("writing header length: %w", err)
	}
	buf.WriteString(header)
	if err := binary.Write(&buf, binary.LittleEndian, vector); err != nil {
		return nil, fmt.Errorf("writing array data: %w", err)
	}
	return buf.Bytes(), nil
}

var shapeRe = regexp.MustCompile(`'shape':\s*\((\d+),?\)`)

// Unmarshal parses .npy v1.0 bytes into a 1-D float64 vector.
func Unmarshal(data []byte) ([]float64, error) {
	if len(data) < 10 || !bytes.Equal(data[:6], magic) {
		return nil, errors.New("not a npy file")
	}
	if data[6] != 1 {
		return nil, fmt.Errorf("unsupported npy version %d.%d", data[6], data[7])
	}

	headerLen := int(binary.LittleEndian.Uint16(data[8:10]))
	if len(data) < 10+headerLen {
		return nil, errors.New("truncated npy header")
	}
	header := string(data[10 : 10+headerLen])

	if !strings.Contains(header, "'descr': '<f8'") {
		return nil, fmt.Errorf("unsupported dtype in header %q", strings.TrimSpace(header))
	}
	if strings.Contains(header, "'fortran_order': True") {
		return nil, errors.New("fortran order arrays are not supported")
	}

	m := shapeRe.FindStringSubmatch(header)
	if m == nil {
		return nil, fmt.Errorf("missing 1-D shape in header %q", strings.TrimSpace(header))
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil, fmt.Errorf("parsing shape: %w", err)
	}

	body := data[10+headerLen:]
	if len(body) < n*8 {
		return nil, fmt.Errorf("array data truncated: want %d bytes, have %d", n*8, len(body))
	}

	vector := make([]float64, n)
	if err := binary.Read(bytes.NewReader(body), binary.LittleEndian, vector); err != nil {
		return nil, fmt.Errorf("reading array data: %w", err)
	}
	return vector, nil
}
