// Package constants provides shared constants used across the codebase.
// Centralizing these values ensures consistency and makes them easier to modify.
package constants

// File upload constants
const (
	// MaxUploadSize is the maximum request body size for uploads in bytes (16MB)
	MaxUploadSize = 16 << 20
)

// Image processing constants
const (
	// MaxImageDimension is the maximum dimension (width or height) for stored
	// face images; larger uploads are scaled down before encoding
	MaxImageDimension = 1920

	// JPEGQuality is the quality used when re-encoding face images
	JPEGQuality = 85
)

// Access log constants
const (
	// RecentLogLimit is the number of access log entries served by /logs
	RecentLogLimit = 100
)

// Processing constants
const (
	// DefaultConcurrency is the default number of parallel workers for
	// batch re-encoding
	DefaultConcurrency = 5
)
