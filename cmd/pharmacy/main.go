package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghuser/pharmacy/pkg/app"
	"github.com/ghuser/pharmacy/pkg/config"
	"github.com/ghuser/pharmacy/pkg/errcli"
	"github.com/ghuser/pharmacy/pkg/events"
	"github.com/ghuser/pharmacy/pkg/health"
	"github.com/ghuser/pharmacy/pkg/httpx"
	"github.com/ghuser/pharmacy/pkg/instrument"
	"github.com/ghuser/pharmacy/pkg/logger"
	"github.com/ghuser/pharmacy/pkg/telemetry"
	"github.com/ghuser/pharmacy/services/pharmacy/application/console"
	"github.com/ghuser/pharmacy/services/pharmacy/application/services"
	"github.com/ghuser/pharmacy/services/pharmacy/application/subscribers"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/snapshot"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/store"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/teardown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return errcli.ExitUsage
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		return errcli.ExitUsage
	}

	// stdout belongs to the menu
	log := logger.NewWithWriter(os.Stderr, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry: OTel metrics (+ traces when OTEL_ENDPOINT is set)
	tel, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		return errcli.ExitInternal
	}
	defer tel.Shutdown(context.Background()) //nolint:errcheck

	// Crash reporting: Sentry (optional, log and continue on failure)
	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()
	defer telemetry.RecoverAndReport()

	eventBus := events.NewEventBus(log)
	a := &app.Application{
		Config:    cfg,
		Logger:    log,
		EventBus:  eventBus,
		Recorder:  instrument.NewRecorder(log),
		Telemetry: tel,
	}
	a.OnClose(eventBus.Close)
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	if err := subscribers.Register(ctx, eventBus, log); err != nil {
		log.Error("failed to register subscribers", "error", err)
		return errcli.ExitInternal
	}

	repo, err := store.Open(ctx, cfg.StoreBackend, a)
	if err != nil {
		log.Error("failed to open snapshot store", "backend", cfg.StoreBackend, "error", err)
		telemetry.CaptureError("open_store", err)
		return errcli.ExitInternal
	}

	svc, restored, err := services.OpenPharmacyService(ctx, cfg.PharmacyName, services.Options{
		Repository: repo,
		Backend:    cfg.StoreBackend,
		Files:      snapshot.NewFiles(cfg.SnapshotExtension),
		Bus:        eventBus,
		Recorder:   a.Recorder,
		Logger:     log,
		MedicineSink: teardown.Multi{
			teardown.NewFileSink(cfg.MedicineDeletedLog),
			teardown.NewLogSink(log),
		},
		PharmacySink: teardown.Multi{
			teardown.NewFileSink(cfg.PharmacyDeletedLog),
			teardown.NewLogSink(log),
		},
	})
	if err != nil {
		log.Error("failed to start pharmacy", "name", cfg.PharmacyName, "error", err)
		telemetry.CaptureError("open_pharmacy", err)
		errcli.WriteError(os.Stderr, err)
		return errcli.ExitCode(err)
	}
	defer svc.Close()
	log.Info("pharmacy ready", "name", svc.Name(), "backend", cfg.StoreBackend, "restored", restored)

	checks := healthChecks(a, repo)

	if cfg.MetricsAddr != "" {
		srv := httpx.NewServer(cfg.MetricsAddr, httpx.NewOpsRouter(log, cfg.ServiceName, tel.Handler(), checks))
		go func() {
			if err := httpx.Serve(ctx, srv, log); err != nil {
				log.Error("ops server error", "error", err)
			}
		}()
	}

	err = console.New(svc, os.Stdin, os.Stdout, console.Options{
		Health:  checks,
		Metrics: tel.WriteMetrics,
		Logger:  log,
	}).Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("interrupted")
		return errcli.ExitOK
	}
	if err != nil {
		telemetry.CaptureError("console", err)
		errcli.WriteError(os.Stderr, err)
		return errcli.ExitCode(err)
	}
	return errcli.ExitOK
}

// healthChecks lists only the dependencies the selected backend connected.
func healthChecks(a *app.Application, repo store.Repository) map[string]health.Checker {
	checks := map[string]health.Checker{"store": repo}
	if a.Db != nil {
		checks["database"] = a.Db
	}
	if a.Redis != nil {
		checks["redis"] = a.Redis
	}
	return checks
}
