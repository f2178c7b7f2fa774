// Command snapshot copies or lists pharmacy snapshots across store backends.
//
//	snapshot -from file -to postgres -name Main
//	snapshot -from sqlite -list
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghuser/pharmacy/pkg/app"
	"github.com/ghuser/pharmacy/pkg/config"
	"github.com/ghuser/pharmacy/pkg/errcli"
	"github.com/ghuser/pharmacy/pkg/logger"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/store"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return errcli.ExitUsage
	}

	fs := flag.NewFlagSet("snapshot", flag.ContinueOnError)
	fs.SetOutput(stderr)
	from := fs.String("from", cfg.StoreBackend, "source backend (file, sqlite, postgres, redis)")
	to := fs.String("to", "", "destination backend")
	name := fs.String("name", cfg.PharmacyName, "pharmacy name")
	list := fs.Bool("list", false, "list snapshot names stored in -from and exit")
	if err := fs.Parse(args); err != nil {
		return errcli.ExitUsage
	}
	if !*list && (*to == "" || *to == *from) {
		fmt.Fprintln(stderr, "snapshot: -to must name a backend other than -from")
		return errcli.ExitUsage
	}

	log := logger.NewWithWriter(stderr, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app.Application{Config: cfg, Logger: log}
	defer func() {
		if err := a.Close(); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	if err := execute(ctx, a, *from, *to, *name, *list, stdout); err != nil {
		errcli.WriteError(stderr, err)
		return errcli.ExitCode(err)
	}
	return errcli.ExitOK
}

func execute(ctx context.Context, a *app.Application, from, to, name string, list bool, stdout io.Writer) error {
	src, err := store.Open(ctx, from, a)
	if err != nil {
		return err
	}

	if list {
		names, err := src.List(ctx)
		if err != nil {
			return fmt.Errorf("list %s snapshots: %w", from, err)
		}
		for _, n := range names {
			fmt.Fprintln(stdout, n)
		}
		return nil
	}

	dst, err := store.Open(ctx, to, a)
	if err != nil {
		return err
	}

	p, err := src.Load(ctx, name, models.NewIDSequence())
	if err != nil {
		return fmt.Errorf("read %s from %s: %w", name, from, err)
	}
	if err := dst.Save(ctx, p); err != nil {
		return fmt.Errorf("write %s to %s: %w", name, to, err)
	}

	a.Logger.InfoContext(ctx, "snapshot copied", "name", p.Name(), "from", from, "to", to)
	fmt.Fprintf(stdout, "copied %s (%d medicines, %d suppliers) from %s to %s\n",
		p.Name(), len(p.Medicines()), len(p.Suppliers()), from, to)
	return nil
}
