package models

// TeardownSink receives a single event when a medicine or pharmacy is closed.
// attrs are slog-style key/value pairs. Errors are reported but callers in
// this package discard them.
type TeardownSink interface {
	Record(event string, attrs ...any) error
}

// TeardownFunc adapts a plain function to TeardownSink.
type TeardownFunc func(event string, attrs ...any) error

// Record calls f.
func (f TeardownFunc) Record(event string, attrs ...any) error {
	return f(event, attrs...)
}
