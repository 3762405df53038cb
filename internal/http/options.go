package http

import (
	"log/slog"
	"net/http"
	"time"
)

type RateLimit struct {
	Interval     time.Duration
	Burst        int
	CacheSize    int
	CacheTTL     time.Duration
	TrustHeaders bool
}

type Options struct {
	Address        string
	BaseURL        string
	AllowedOrigins []string
	RateLimit      *RateLimit
	Logger         *slog.Logger
	Mounts         map[string]http.Handler
	// Limited lists the mount prefixes subject to RateLimit.
	Limited map[string]bool
}

type OptionFunc func(opts *Options)

func NewOptions(funcs ...OptionFunc) *Options {
	opts := &Options{
		Address: ":3000",
		BaseURL: "",
		Logger:  slog.Default(),
		Mounts:  map[string]http.Handler{},
		Limited: map[string]bool{},
	}
	for _, fn := range funcs {
		fn(opts)
	}
	return opts
}

func WithMount(prefix string, handler http.Handler) OptionFunc {
	return func(opts *Options) {
		opts.Mounts[prefix] = handler
	}
}

// WithLimitedMount mounts handler under prefix behind the rate limiter.
func WithLimitedMount(prefix string, handler http.Handler) OptionFunc {
	return func(opts *Options) {
		opts.Mounts[prefix] = handler
		opts.Limited[prefix] = true
	}
}

func WithBaseURL(baseURL string) OptionFunc {
	return func(opts *Options) {
		opts.BaseURL = baseURL
	}
}

func WithAddress(addr string) OptionFunc {
	return func(opts *Options) {
		opts.Address = addr
	}
}

// WithAllowedOrigins enables CORS for the given origins.
func WithAllowedOrigins(origins ...string) OptionFunc {
	return func(opts *Options) {
		opts.AllowedOrigins = origins
	}
}

// WithRateLimit limits requests per client address on the mounts added
// with WithLimitedMount.
func WithRateLimit(limit RateLimit) OptionFunc {
	return func(opts *Options) {
		opts.RateLimit = &limit
	}
}

func WithLogger(logger *slog.Logger) OptionFunc {
	return func(opts *Options) {
		opts.Logger = logger
	}
}
