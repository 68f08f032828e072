// Package registry keeps the face image directory and the user database in
// step. The directory layout is the contract shared with the door
// controller: one <name>_1.jpg capture and one <name>_encoding.npy
// embedding per user, usernames recoverable from filenames.
package registry

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Registry handles filesystem bookkeeping for the known faces directory.
type Registry struct {
	dir string
}

// NewRegistry creates a registry rooted at dir. The directory is created
// lazily on first write.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir}
}

// Dir returns the known faces directory path.
func (r *Registry) Dir() string {
	return r.dir
}

// ImagePath returns the capture path for a user: <dir>/<name>_1.jpg.
func (r *Registry) ImagePath(name string) string {
	return filepath.Join(r.dir, name+"_1.jpg")
}

// EncodingPath returns the embedding path for a user:
// <dir>/<name>_encoding.npy.
func (r *Registry) EncodingPath(name string) string {
	return filepath.Join(r.dir, name+"_encoding.npy")
}

// userFile reports whether a directory entry belongs to the given user.
// The rule matches any file starting with "<name>_" and ending in ".jpg"
// or "_encoding.npy".
func userFile(filename, name string) bool {
	return strings.HasPrefix(filename, name+"_") &&
		(strings.HasSuffix(filename, ".jpg") || strings.HasSuffix(filename, "_encoding.npy"))
}

// HasFiles reports whether any file for the given name exists on disk.
// This check, not the database, enforces name uniqueness.
func (r *Registry) HasFiles(name string) (bool, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("reading faces directory: %w", err)
	}
	for _, e := range entries {
		if userFile(e.Name(), name) {
			return true, nil
		}
	}
	return false, nil
}

// SaveImage writes a user's capture to <name>_1.jpg, creating the faces
// directory if needed.
func (r *Registry) SaveImage(name string, data []byte) error {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("creating faces directory: %w", err)
	}
	if err := os.WriteFile(r.ImagePath(name), data, 0o644); err != nil {
		return fmt.Errorf("writing face image: %w", err)
	}
	return nil
}

// RemoveImage deletes a user's capture file if present.
func (r *Registry) RemoveImage(name string) {
	_ = os.Remove(r.ImagePath(name))
}

// RemoveFiles deletes every file belonging to a user. A missing directory
// or file is not an error; deletion is idempotent.
func (r *Registry) RemoveFiles(name string) error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading faces directory: %w", err)
	}
	for _, e := range entries {
		if userFile(e.Name(), name) {
			if err := os.Remove(filepath.Join(r.dir, e.Name())); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("removing %s: %w", e.Name(), err)
			}
		}
	}
	return nil
}

// UserFromImageFile recovers a username from a capture filename by
// dropping the trailing _<index> segment: "jan_novak_1.jpg" -> "jan_novak".
// Usernames may themselves contain underscores, so everything up to the
// last underscore is the name. Returns "" for filenames without an
// underscore.
func UserFromImageFile(filename string) string {
	base := strings.TrimSuffix(filename, ".jpg")
	idx := strings.LastIndex(base, "_")
	if idx < 0 {
		return ""
	}
	return base[:idx]
}

// UserFromEncodingFile recovers a username from an encoding filename:
// "jan_novak_encoding.npy" -> "jan_novak".
func UserFromEncodingFile(filename string) string {
	return strings.TrimSuffix(filename, "_encoding.npy")
}
