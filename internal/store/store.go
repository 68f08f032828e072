// Package store defines the persistence contract for users and access logs.
// Two SQL backends exist: PostgreSQL (with a pgvector embedding mirror) and
// MariaDB (embeddings as a JSON column). The mock subpackage backs tests.
package store

import (
	"context"
	"strings"
)

// Store provides access to users and the access log.
type Store interface {
	// AddUser inserts a user row with a fresh UID and returns it.
	// Adding a name that already exists is an error.
	AddUser(ctx context.Context, name string) (User, error)

	// DeleteUser removes a user row. Deleting an absent user is not an error.
	DeleteUser(ctx context.Context, name string) error

	// GetAllUsers returns all user rows ordered by creation time.
	GetAllUsers(ctx context.Context) ([]User, error)

	// RecentAccessLogs returns up to limit access log rows, newest first.
	RecentAccessLogs(ctx context.Context, limit int) ([]AccessLog, error)

	// SaveEmbedding mirrors a user's face embedding into the database so
	// the recognizer can load it without touching the filesystem.
	SaveEmbedding(ctx context.Context, name string, vector []float64) error

	// DeleteEmbedding clears the mirrored embedding for a user. Clearing
	// an absent user or embedding is not an error.
	DeleteEmbedding(ctx context.Context, name string) error

	// Close releases the underlying connection pool.
	Close() error
}

// IsPostgresURL reports whether a database URL selects the PostgreSQL
// backend. Anything else is treated as a MySQL DSN.
func IsPostgresURL(url string) bool {
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}
