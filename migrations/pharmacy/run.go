package main

import (
	"log/slog"

	"github.com/ghuser/pharmacy/pkg/config"
	"github.com/ghuser/pharmacy/pkg/migrator"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/migrations"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/sqlite"
)

// Applies the snapshot schema for STORE_BACKEND. The file and redis backends
// have no schema.
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	switch cfg.StoreBackend {
	case config.BackendPostgres:
		if err := migrator.RunMigrations(cfg.DatabaseURL, migrations.Postgres()); err != nil {
			panic(err)
		}
	case config.BackendSQLite:
		repo, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			panic(err)
		}
		v, err := repo.SchemaVersion()
		_ = repo.Close()
		if err != nil {
			panic(err)
		}
		slog.Info("sqlite schema ready", "path", cfg.SQLitePath, "version", v)
		return
	default:
		slog.Info("nothing to migrate", "backend", cfg.StoreBackend)
		return
	}
	slog.Info("postgres schema ready")
}
