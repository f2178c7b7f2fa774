// Package instrument counts and times named operations. Every observation is
// also exported through the global OpenTelemetry meter provider.
package instrument

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/ghuser/pharmacy/pkg/logger"
)

const meterName = "github.com/ghuser/pharmacy/pkg/instrument"

// Stats is the accumulated record for one operation name.
type Stats struct {
	Name  string
	Calls int
	Total time.Duration
	Last  time.Duration
}

// Recorder keeps per-operation call counts and durations.
type Recorder struct {
	mu       sync.Mutex
	stats    map[string]*Stats
	calls    metric.Int64Counter
	duration metric.Float64Histogram
	log      logger.Logger
}

// NewRecorder creates a Recorder whose instruments come from the current global
// meter provider. Instrument creation errors fall back to no-op instruments.
func NewRecorder(log logger.Logger) *Recorder {
	meter := otel.Meter(meterName)
	calls, err := meter.Int64Counter("pharmacy.calls",
		metric.WithDescription("Number of pharmacy operations invoked"))
	if err != nil {
		log.Warn("instrument: counter unavailable", "error", err)
	}
	duration, err := meter.Float64Histogram("pharmacy.call.duration",
		metric.WithDescription("Duration of pharmacy operations"),
		metric.WithUnit("s"))
	if err != nil {
		log.Warn("instrument: histogram unavailable", "error", err)
	}
	return &Recorder{
		stats:    make(map[string]*Stats),
		calls:    calls,
		duration: duration,
		log:      log,
	}
}

// Track counts a call to name and returns a func that records its duration:
//
//	defer rec.Track("add_medicine")()
func (r *Recorder) Track(name string) func() {
	start := time.Now()
	r.mu.Lock()
	s, ok := r.stats[name]
	if !ok {
		s = &Stats{Name: name}
		r.stats[name] = s
	}
	s.Calls++
	r.mu.Unlock()

	attrs := metric.WithAttributes(attribute.String("operation", name))
	if r.calls != nil {
		r.calls.Add(context.Background(), 1, attrs)
	}

	return func() {
		elapsed := time.Since(start)
		r.mu.Lock()
		s.Total += elapsed
		s.Last = elapsed
		r.mu.Unlock()

		if r.duration != nil {
			r.duration.Record(context.Background(), elapsed.Seconds(), attrs)
		}
		r.log.Debug("operation finished", "operation", name, "duration", elapsed)
	}
}

// CallCount returns how many times name has been tracked.
func (r *Recorder) CallCount(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.stats[name]; ok {
		return s.Calls
	}
	return 0
}

// Snapshot returns a copy of every operation's stats ordered by name.
func (r *Recorder) Snapshot() []Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Stats, 0, len(r.stats))
	for _, s := range r.stats {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
