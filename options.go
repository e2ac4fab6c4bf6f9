package vecbase

import (
	"log/slog"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	plugins          []Plugin
}

// Option configures VecBase constructor behavior.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
//
// Example with BasicMetricsCollector:
//
//	metrics := &vecbase.BasicMetricsCollector{}
//	db, _ := vecbase.New(cfg, vecbase.WithMetricsCollector(metrics))
//	// ... use db ...
//	stats := metrics.GetStats()
//	fmt.Printf("Inserts: %d, Avg latency: %dns\n", stats.InsertCount, stats.InsertAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
//
// Example with JSON logging:
//
//	logger := vecbase.NewJSONLogger(slog.LevelInfo)
//	db, _ := vecbase.New(cfg, vecbase.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithPlugins registers plugins at construction time, in order. Registration
// follows the same rules as RegisterPlugin: names must be unique and each
// plugin's OnInit must succeed.
func WithPlugins(plugins ...Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugins...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
