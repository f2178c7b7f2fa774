package app

import (
	"errors"

	"github.com/ghuser/pharmacy/pkg/cache"
	"github.com/ghuser/pharmacy/pkg/config"
	"github.com/ghuser/pharmacy/pkg/database"
	"github.com/ghuser/pharmacy/pkg/events"
	"github.com/ghuser/pharmacy/pkg/instrument"
	"github.com/ghuser/pharmacy/pkg/logger"
	"github.com/ghuser/pharmacy/pkg/telemetry"
)

// Application holds shared infrastructure dependencies for the pharmacy binaries.
// Db, Outbox and Redis are nil unless the selected store backend needs them.
//
// Logging: app.Logger is backed by a trace-aware handler; use slog's context methods
// and trace_id, span_id, and operation_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "medicine added", "medicine_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config    *config.Config
	Logger    logger.Logger
	EventBus  *events.EventBus
	Db        *database.Database
	Outbox    *events.Outbox
	Redis     *cache.RedisClient
	Recorder  *instrument.Recorder
	Telemetry *telemetry.Telemetry

	closers []func() error
}

// OnClose registers fn to run during Close. Closers run in reverse order.
func (a *Application) OnClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// Close runs the registered closers, newest first, and joins their errors.
func (a *Application) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
