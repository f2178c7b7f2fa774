// Package health probes infrastructure dependencies for the console status screen.
package health

import (
	"context"
	"sort"
	"time"
)

// Checker is satisfied by any infrastructure dependency that exposes
// a Ping method (Database, RedisClient and the snapshot repositories all qualify).
type Checker interface {
	Ping(ctx context.Context) error
}

// Report is the outcome of probing a set of named checkers.
type Report struct {
	Status     string
	Components map[string]string
}

// Names returns the component names in sorted order.
func (r Report) Names() []string {
	names := make([]string, 0, len(r.Components))
	for n := range r.Components {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Probe pings every checker with a 2s deadline and reports degraded status
// if any of them fail. Nil checkers are skipped.
func Probe(ctx context.Context, checks map[string]Checker) Report {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	report := Report{Status: "ok", Components: make(map[string]string, len(checks))}
	for name, c := range checks {
		if c == nil {
			continue
		}
		if err := c.Ping(ctx); err != nil {
			report.Status = "degraded"
			report.Components[name] = "unreachable"
			continue
		}
		report.Components[name] = "ok"
	}
	return report
}
