package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/kozaktomas/door-dashboard/internal/store"
)

// AddUser inserts a user row with a fresh UID.
func (s *Store) AddUser(ctx context.Context, name string) (store.User, error) {
	var u store.User
	u.UID = uuid.NewString()
	u.Name = name

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO users (uid, name)
		VALUES ($1, $2)
		RETURNING id, created_at, access_count
	`, u.UID, u.Name).Scan(&u.ID, &u.CreatedAt, &u.AccessCount)
	if err != nil {
		return store.User{}, fmt.Errorf("insert user %q: %w", name, err)
	}
	return u, nil
}

// DeleteUser removes a user row, tolerating absent names.
func (s *Store) DeleteUser(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE name = $1", name); err != nil {
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
		LIMIT $1
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

// SaveEmbedding mirrors a user's face embedding into the pgvector column.
func (s *Store) SaveEmbedding(ctx context.Context, name string, vector []float64) error {
	vec := make([]float32, len(vector))
	for i, v := range vector {
		vec[i] = float32(v)
	}
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET embedding = $1 WHERE name = $2", pgvector.NewVector(vec), name)
	if err != nil {
		return fmt.Errorf("save embedding for %q: %w", name, err)
	}
	return nil
}

// DeleteEmbedding clears the mirrored embedding for a user.
func (s *Store) DeleteEmbedding(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx,
		"UPDATE users SET embedding = NULL WHERE name = $1", name)
	if err != nil {
		return fmt.Errorf("delete embedding for %q: %w", name, err)
	}
	return nil
}
