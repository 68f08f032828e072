//go:build integration

package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kozaktomas/door-dashboard/internal/config"
)

func setupTestContainer(t *testing.T) (*Store, func()) {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "pgvector/pgvector:pg16",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Skipf("Docker not available or container failed to start, skipping integration test: %v", err)
		return nil, func() {}
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	cfg := &config.DatabaseConfig{
		URL:          fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port()),
		MaxOpenConns: 5,
		MaxIdleConns: 2,
	}

	s, err := New(cfg, 128)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}

	cleanup := func() {
		s.Close()
		_ = container.Terminate(ctx)
	}
	return s, cleanup
}

func TestUserLifecycle(t *testing.T) {
	s, cleanup := setupTestContainer(t)
	defer cleanup()

	ctx := context.Background()

	u, err := s.AddUser(ctx, "alice")
	if err != nil {
		t.Fatalf("AddUser failed: %v", err)
	}
	if u.UID == "" {
		t.Error("expected a UID to be assigned")
	}
	if u.AccessCount != 0 {
		t.Errorf("expected access count 0, got %d", u.AccessCount)
	}

	// Duplicate name must hit the unique constraint.
	if _, err := s.AddUser(ctx, "alice"); err == nil {
		t.Error("expected duplicate insert to fail")
	}

	users, err := s.GetAllUsers(ctx)
	if err != nil {
		t.Fatalf("GetAllUsers failed: %v", err)
	}
	if len(users) != 1 || users[0].Name != "alice" {
		t.Fatalf("unexpected users: %+v", users)
	}

	vec := make([]float64, 128)
	for i := range vec {
		vec[i] = float64(i) / 128
	}
	if err := s.SaveEmbedding(ctx, "alice", vec); err != nil {
		t.Fatalf("SaveEmbedding failed: %v", err)
	}
	if err := s.DeleteEmbedding(ctx, "alice"); err != nil {
		t.Fatalf("DeleteEmbedding failed: %v", err)
	}

	if err := s.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("DeleteUser failed: %v", err)
	}
	// Deleting again is not an error.
	if err := s.DeleteUser(ctx, "alice"); err != nil {
		t.Fatalf("repeated DeleteUser failed: %v", err)
	}
}

func TestRecentAccessLogs(t *testing.T) {
	s, cleanup := setupTestContainer(t)
	defer cleanup()

	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO access_logs (timestamp, event_type, person_name)
			VALUES (NOW() + ($1 || ' seconds')::interval, 'access_granted', $2)
		`, i, fmt.Sprintf("user%d", i))
		if err != nil {
			t.Fatalf("failed to seed log: %v", err)
		}
	}
	if _, err := s.db.ExecContext(ctx,
		"INSERT INTO access_logs (event_type) VALUES ('unknown_face')"); err != nil {
		t.Fatalf("failed to seed anonymous log: %v", err)
	}

	logs, err := s.RecentAccessLogs(ctx, 3)
	if err != nil {
		t.Fatalf("RecentAccessLogs failed: %v", err)
	}
	if len(logs) != 3 {
		t.Fatalf("expected 3 logs, got %d", len(logs))
	}
	if logs[0].PersonName == nil || *logs[0].PersonName != "user4" {
		t.Errorf("expected newest row first, got %+v", logs[0])
	}
}
