package setup

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/afero"

	"github.com/pdfwala/pdfops/internal/config"
	"github.com/pdfwala/pdfops/internal/http"
	"github.com/pdfwala/pdfops/internal/http/handler/api"
	"github.com/pdfwala/pdfops/internal/http/handler/health"
)

func NewHTTPServerFromConfig(ctx context.Context, conf *config.Config, fs afero.Fs) (*http.Server, error) {
	engine := NewEngineFromConfig(ctx, conf)
	stager := NewStagerFromConfig(ctx, conf, fs)

	options := []http.OptionFunc{
		http.WithAddress(conf.HTTP.Address),
		http.WithBaseURL(conf.HTTP.BaseURL),
		http.WithLogger(slog.Default()),
		http.WithAllowedOrigins(conf.HTTP.CORS.AllowedOrigins...),
		http.WithLimitedMount("/api/pdf/", api.NewHandler(engine, stager, conf.HTTP.Development)),
		http.WithMount("/health", health.NewHandler(time.Now())),
		http.WithMount("/metrics", promhttp.Handler()),
	}

	if limit := conf.HTTP.RateLimit; limit.Enabled {
		options = append(options, http.WithRateLimit(http.RateLimit{
			Interval:     limit.Interval,
			Burst:        limit.Burst,
			CacheSize:    limit.CacheSize,
			CacheTTL:     limit.CacheTTL,
			TrustHeaders: limit.TrustHeaders,
		}))
	}

	return http.NewServer(options...), nil
}
