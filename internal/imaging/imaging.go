// Package imaging prepares uploaded face captures for encoding. Browser
// captures arrive as base64 data URLs in arbitrary formats; the face engine
// and the on-disk convention both expect plain RGB JPEG.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	"github.com/kozaktomas/door-dashboard/internal/constants"
)

// DecodeBase64Image decodes a raw base64 string or a data URL
// (data:image/...;base64,...) into image bytes.
func DecodeBase64Image(s string) ([]byte, error) {
	if s == "" {
		return nil, fmt.Errorf("empty image data")
	}
	if strings.HasPrefix(s, "data:image") {
		idx := strings.Index(s, ",")
		if idx < 0 {
			return nil, fmt.Errorf("malformed data URL")
		}
		s = s[idx+1:]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decoding base64 image: %w", err)
	}
	return data, nil
}

// NormalizeJPEG decodes image data (JPEG, PNG, GIF or BMP), scales it down
// to constants.MaxImageDimension when larger, and re-encodes it as an RGB
// JPEG. This mirrors the capture pipeline's expectation of a standard
// pixel-array color format regardless of what the browser sent.
func NormalizeJPEG(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > constants.MaxImageDimension || height > constants.MaxImageDimension {
		var newWidth, newHeight int
		if width > height {
			newWidth = constants.MaxImageDimension
			newHeight = int(float64(height) * float64(constants.MaxImageDimension) / float64(width))
		} else {
			newHeight = constants.MaxImageDimension
			newWidth = int(float64(width) * float64(constants.MaxImageDimension) / float64(height))
		}
		resized := image.NewRGBA(image.Rect(0, 0, newWidth, newHeight))
		draw.BiLinear.Scale(resized, resized.Bounds(), img, bounds, draw.Over, nil)
		img = resized
	} else {
		// Re-draw onto RGBA to strip alpha/palette formats.
		rgba := image.NewRGBA(bounds)
		draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)
		img = rgba
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: constants.JPEGQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}
	return buf.Bytes(), nil
}
