// Package mariadb implements the store on MariaDB/MySQL. Deployments that
// run the door controller against MariaDB point DATABASE_URL at a MySQL DSN;
// embeddings are mirrored as a JSON array column.
package mariadb

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/kozaktomas/door-dashboard/internal/config"
	"github.com/kozaktomas/door-dashboard/internal/store"
)

// Store is a MariaDB-backed store.Store implementation.
type Store struct {
	db *sql.DB
}

// parseDSN parses a MySQL DSN and forces time columns to be scanned as
// time.Time. Parameters already present in the DSN are preserved.
func parseDSN(dsn string) (*mysql.Config, error) {
	dsnCfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("invalid MariaDB DSN: %w", err)
	}
	dsnCfg.ParseTime = true
	return dsnCfg, nil
}

// New creates a new MariaDB store, verifies connectivity and ensures the
// schema exists.
func New(cfg *config.DatabaseConfig) (*Store, error) {
	if cfg.URL == "" {
		return nil, errors.New("MariaDB DSN is required")
	}

	dsnCfg, err := parseDSN(cfg.URL)
	if err != nil {
		return nil, err
	}
	connector, err := mysql.NewConnector(dsnCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open MariaDB: %w", err)
	}
	db := sql.OpenDB(connector)

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Hour)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping MariaDB: %w", err)
	}

	s := &Store{db: db}
	if err := s.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			uid CHAR(36) NOT NULL UNIQUE,
			name VARCHAR(255) NOT NULL UNIQUE,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			last_seen TIMESTAMP NULL,
			access_count INT NOT NULL DEFAULT 0,
			embedding JSON NULL
		)`,
		`CREATE TABLE IF NOT EXISTS access_logs (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			timestamp TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
			event_type VARCHAR(64) NOT NULL,
			person_name VARCHAR(255) NULL,
			INDEX idx_access_logs_timestamp (timestamp)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
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

// AddUser inserts a user row with a fresh UID.
func (s *Store) AddUser(ctx context.Context, name string) (store.User, error) {
	uid := uuid.NewString()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (uid, name) VALUES (?, ?)", uid, name)
	if err != nil {
		return store.User{}, fmt.Errorf("insert user %q: %w", name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return store.User{}, fmt.Errorf("insert user %q: %w", name, err)
	}

	var u store.User
	err = s.db.QueryRowContext(ctx, `
		SELECT id, uid, name, created_at, last_seen, access_count
		FROM users WHERE id = ?
	`, id).Scan(&u.ID, &u.UID, &u.Name, &u.CreatedAt, &u.LastSeen, &u.AccessCount)
	if err != nil {
		return store.User{}, fmt.Errorf("read back user %q: %w", name, err)
	}
	return u, nil
}

// DeleteUser removes a user row, tolerating absent names.
func (s *Store) DeleteUser(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE name = ?", name); err != nil {
		return fmt.Errorf("delete user %q: %w", name, err)
	}
	return nil
}

// GetAllUsers returns all user rows ordered by creation time.
func (s *Store) GetAllUsers(ctx context.Context) ([]store.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, uid, name, created_at, last_seen, access_count
		FROM users
		ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []store.User
	for rows.Next() {
		var u store.User
		if err := rows.Scan(&u.ID, &u.UID, &u.Name, &u.CreatedAt, &u.LastSeen, &u.AccessCount); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}

// RecentAccessLogs returns up to limit access log rows, newest first.
func (s *Store) RecentAccessLogs(ctx context.Context, limit int) ([]store.AccessLog, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, timestamp, event_type, person_name
		FROM access_logs
		ORDER BY timestamp DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query access logs: %w", err)
	}
	defer rows.Close()

	var logs []store.AccessLog
	for rows.Next() {
		var l store.AccessLog
		if err := rows.Scan(&l.ID, &l.Timestamp, &l.EventType, &l.PersonName); err != nil {
			return nil, fmt.Errorf("scan access log: %w", err)
		}
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate access logs: %w", err)
	}
	return logs, nil
}

// SaveEmbedding mirrors a user's face embedding as a JSON array.
func (s *Store) SaveEmbedding(ctx context.Context, name string, vector []float64) error {
	payload, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal embedding for %q: %w", name, err)
	}
	_, err = s.db.ExecContext(ctx,
		"UPDATE users SET embedding = ? WHERE name = ?", payload, name)
	if err != nil {
		return fmt.Errorf("save embedding for %q: %w", name, err)
	}
	return nil
}

// DeleteEmbedding clears the mirrored embedding for a user.
func (s *Store) DeleteEmbedding(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET embedding = NULL WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("delete embedding for %q: %w", name, err)
	}
	return nil
}
