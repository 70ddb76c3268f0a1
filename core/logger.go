package core

// Logger is the structured logging contract used by the resilience
// primitives (circuit breaker, retry). It takes a field map rather than
// the variadic pairs pkg/logger.Logger uses; LoggerAdapter bridges the two
// so every component in the PDP server can share one logger instance.
type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	Debug(msg string, fields map[string]interface{})
}

// ComponentAwareLogger lets a logger attribute log lines to a named
// sub-component (e.g. "watchdog", "cache.redis", "opaclient").
type ComponentAwareLogger interface {
	Logger
	WithComponent(component string) Logger
}

// Telemetry is a metrics/span emission contract. Nothing in this module
// accepts or implements it: the resilience package takes a Logger and a
// MetricsCollector instead, and request spans come from otelhttp.
type Telemetry interface {
	StartSpan(name string) Span
	RecordMetric(name string, value float64, labels map[string]string)
}

// Span represents a telemetry span started by Telemetry.StartSpan.
type Span interface {
	End()
	SetAttribute(key string, value interface{})
	RecordError(err error)
}

// NoOpLogger discards everything. Used as the zero-value default so
// resilience primitives never need a nil check.
type NoOpLogger struct{}

func (NoOpLogger) Info(string, map[string]interface{})  {}
func (NoOpLogger) Warn(string, map[string]interface{})  {}
func (NoOpLogger) Error(string, map[string]interface{}) {}
func (NoOpLogger) Debug(string, map[string]interface{}) {}

// FieldLogger is the subset of pkg/logger.Logger that LoggerAdapter wraps.
type FieldLogger interface {
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
	Debug(msg string, fields ...interface{})
}

// LoggerAdapter adapts a variadic-field FieldLogger (pkg/logger.Logger) to
// the map-field Logger interface the resilience package expects.
type LoggerAdapter struct {
	Underlying FieldLogger
}

func NewLoggerAdapter(l FieldLogger) *LoggerAdapter {
	return &LoggerAdapter{Underlying: l}
}

func flatten(fields map[string]interface{}) []interface{} {
	out := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

func (a *LoggerAdapter) Info(msg string, fields map[string]interface{}) {
	a.Underlying.Info(msg, flatten(fields)...)
}

func (a *LoggerAdapter) Warn(msg string, fields map[string]interface{}) {
	a.Underlying.Warn(msg, flatten(fields)...)
}

func (a *LoggerAdapter) Error(msg string, fields map[string]interface{}) {
	a.Underlying.Error(msg, flatten(fields)...)
}

func (a *LoggerAdapter) Debug(msg string, fields map[string]interface{}) {
	a.Underlying.Debug(msg, flatten(fields)...)
}
