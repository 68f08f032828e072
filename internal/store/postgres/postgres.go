// Package postgres implements the store on PostgreSQL via lib/pq. Face
// embeddings are mirrored into a pgvector column so the recognizer can run
// similarity queries directly in SQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/kozaktomas/door-dashboard/internal/config"
)

// Store is a PostgreSQL-backed store.Store implementation.
type Store struct {
	db  *sql.DB
	dim int
}

// New creates a new PostgreSQL store and verifies connectivity.
func New(cfg *config.DatabaseConfig, embeddingDim int) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("database URL is required")
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Configure connection pool.
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	// Verify connection.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db, dim: embeddingDim}, nil
}

// DB returns the underlying sql.DB for direct access.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the connection pool.
func (s *Store) Close() error {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			return fmt.Errorf("closing database connection: %w", err)
		}
	}
	return nil
}
