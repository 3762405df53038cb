package pipeline

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// Limits bound the work a single job may request. Zero values disable the
// corresponding check.
type Limits struct {
	MaxFileSize int64 // bytes per input file
	MaxFiles    int   // input files per job
	MaxPages    int   // pages per parsed document
}

// Verifier checks serialized output with an independent reader.
type Verifier interface {
	Verify(ctx context.Context, data []byte) error
}

// Observer receives the outcome of every job.
type Observer interface {
	ObserveJob(op string, duration time.Duration, err error)
}

// Options configures an Engine.
type Options struct {
	Workers  int
	Limits   Limits
	Verifier Verifier
	Observer Observer
	Logger   *slog.Logger
}

// OptionFunc modifies Options.
type OptionFunc func(opts *Options)

// NewOptions returns the defaults (one worker per CPU, no limits, the default
// logger) with funcs applied.
func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		Workers: runtime.GOMAXPROCS(0),
		Logger:  slog.Default(),
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

// WithWorkers sets the number of steps that may run at once.
func WithWorkers(workers int) OptionFunc {
	return func(opts *Options) {
		if workers > 0 {
			opts.Workers = workers
		}
	}
}

// WithLimits sets the limits enforced before and while parsing inputs.
func WithLimits(limits Limits) OptionFunc {
	return func(opts *Options) {
		opts.Limits = limits
	}
}

// WithVerifier makes every serialized output pass through verifier before it
// is returned.
func WithVerifier(verifier Verifier) OptionFunc {
	return func(opts *Options) {
		opts.Verifier = verifier
	}
}

// WithObserver reports the outcome and duration of every job to observer.
func WithObserver(observer Observer) OptionFunc {
	return func(opts *Options) {
		opts.Observer = observer
	}
}

// WithLogger sets the logger receiving job events.
func WithLogger(logger *slog.Logger) OptionFunc {
	return func(opts *Options) {
		opts.Logger = logger
	}
}
