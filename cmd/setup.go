package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/kozaktomas/door-dashboard/internal/config"
	"github.com/kozaktomas/door-dashboard/internal/faceengine"
	"github.com/kozaktomas/door-dashboard/internal/registry"
	"github.com/kozaktomas/door-dashboard/internal/store"
	"github.com/kozaktomas/door-dashboard/internal/store/mariadb"
	"github.com/kozaktomas/door-dashboard/internal/store/postgres"
)

// openStore connects to the configured database. PostgreSQL URLs get
// migrations applied on startup; anything else is treated as a MariaDB DSN.
func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Database.URL == "" {
		return nil, errors.New("DATABASE_URL environment variable is required")
	}

	if store.IsPostgresURL(cfg.Database.URL) {
		fmt.Println("Connecting to PostgreSQL...")
		st, err := postgres.New(&cfg.Database, cfg.Faces.Dim)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
		return st, nil
	}

	fmt.Println("Connecting to MariaDB...")
	st, err := mariadb.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MariaDB: %w", err)
	}
	return st, nil
}

// buildService wires the filesystem registry, database store and face
// engine client into a registry service. The caller owns the returned
// store and must close it.
func buildService(ctx context.Context, cfg *config.Config) (*registry.Service, store.Store, error) {
	st, err := openStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	engine := faceengine.NewClient(cfg.Faces.EngineURL)
	svc := registry.NewService(registry.NewRegistry(cfg.Faces.Dir), st, engine, &cfg.Events)
	return svc, st, nil
}
