// Package store opens the snapshot repository for a configured backend.
package store

import (
	"context"
	"fmt"

	"github.com/ghuser/pharmacy/pkg/app"
	"github.com/ghuser/pharmacy/pkg/cache"
	"github.com/ghuser/pharmacy/pkg/config"
	"github.com/ghuser/pharmacy/pkg/database"
	"github.com/ghuser/pharmacy/pkg/events"
	"github.com/ghuser/pharmacy/pkg/migrator"
	domainevents "github.com/ghuser/pharmacy/services/pharmacy/domain/events"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/repositories"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/file"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/migrations"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/postgres"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/redis"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/sqlite"
)

// Repository is a PharmacyRepository that can also report its health.
type Repository interface {
	repositories.PharmacyRepository
	Ping(ctx context.Context) error
}

// Open returns the repository for backend, connecting the infrastructure it
// needs and registering it on a for Close. Connections already present on a
// are reused.
func Open(ctx context.Context, backend string, a *app.Application) (Repository, error) {
	cfg := a.Config
	switch backend {
	case config.BackendFile:
		repo, err := file.NewPharmacyRepository(cfg.SnapshotDir, cfg.SnapshotExtension)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return repo, nil

	case config.BackendSQLite:
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		a.OnClose(repo.Close)
		return repo, nil

	case config.BackendPostgres:
		if err := connectPostgres(ctx, a); err != nil {
			return nil, err
		}
		repo, err := postgres.NewPharmacyRepository(a.Db, a.Outbox, a.Logger)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return repo, nil

	case config.BackendRedis:
		if a.Redis == nil {
			client, err := cache.NewRedisClient(ctx, cfg.RedisURL)
			if err != nil {
				return nil, fmt.Errorf("open redis store: %w", err)
			}
			a.Redis = client
			a.OnClose(client.Close)
			a.Logger.Info("redis connected")
		}
		return redis.NewPharmacyRepository(a.Redis, cfg.RedisSnapshotTTL), nil

	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}

// connectPostgres migrates the schema, opens the pool and, when an event bus
// is present, starts relaying outbox messages to it.
func connectPostgres(ctx context.Context, a *app.Application) error {
	if a.Db != nil {
		return nil
	}
	if err := migrator.RunMigrations(a.Config.DatabaseURL, migrations.Postgres()); err != nil {
		return fmt.Errorf("migrate postgres store: %w", err)
	}

	db, err := database.NewPool(ctx, a.Config.DatabaseURL, a.Logger)
	if err != nil {
		return fmt.Errorf("open postgres store: %w", err)
	}
	a.Db = db
	a.OnClose(func() error { db.Close(); return nil })
	a.Logger.Info("database pool connected")

	if a.EventBus == nil {
		return nil
	}
	outbox, err := events.NewOutbox(db.DB(), a.Config.ServiceName+"-relay", a.Logger)
	if err != nil {
		return err
	}
	a.Outbox = outbox
	a.OnClose(outbox.Close)

	if err := outbox.Initialize(domainevents.TopicSnapshotSaved); err != nil {
		return fmt.Errorf("initialize outbox: %w", err)
	}
	return outbox.Relay(ctx, domainevents.TopicSnapshotSaved, a.EventBus)
}
