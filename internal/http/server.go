package http

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	sloghttp "github.com/samber/slog-http"

	"github.com/pdfwala/pdfops/internal/http/middleware/ratelimit"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	opts *Options
}

func NewServer(funcs ...OptionFunc) *Server {
	return &Server{opts: NewOptions(funcs...)}
}

// Handler returns the server routes wrapped in the middleware chain:
// panic recovery, request logging, error reporting and CORS. Limited mounts
// share one rate limiter.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	limiter := func(h http.Handler) http.Handler { return h }
	if limit := s.opts.RateLimit; limit != nil {
		limiter = ratelimit.Middleware(limit.TrustHeaders, limit.Interval, limit.Burst, limit.CacheSize, limit.CacheTTL)
	}

	base := strings.TrimSuffix(s.opts.BaseURL, "/")
	for prefix, handler := range s.opts.Mounts {
		if s.opts.Limited[prefix] {
			handler = limiter(handler)
		}
		pattern := base + prefix
		stripped := strings.TrimSuffix(pattern, "/")
		if strings.HasSuffix(prefix, "/") {
			mux.Handle(pattern, http.StripPrefix(stripped, handler))
		} else {
			mux.Handle(pattern, handler)
		}
	}

	var handler http.Handler = mux

	if len(s.opts.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost},
			ExposedHeaders: []string{"Content-Disposition", "Retry-After"},
		}).Handler(handler)
	}

	handler = sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle(handler)
	handler = sloghttp.Recovery(handler)
	handler = sloghttp.NewWithConfig(s.opts.Logger, sloghttp.Config{
		DefaultLevel:     slog.LevelInfo,
		ClientErrorLevel: slog.LevelWarn,
		ServerErrorLevel: slog.LevelError,
	})(handler)

	return handler
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 30 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errs := make(chan error, 1)
	go func() {
		s.opts.Logger.InfoContext(ctx, "http server listening", slog.String("address", s.opts.Address))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- errors.WithStack(err)
		}
		close(errs)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "could not shut down http server")
	}
	return nil
}
