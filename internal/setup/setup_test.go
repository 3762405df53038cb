package setup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/pdfwala/pdfops/internal/config"
)

func TestNewHTTPServerFromConfig(t *testing.T) {
	conf, err := config.Parse()
	if err != nil {
		t.Fatal(err)
	}
	conf.Engine.VerifyOutput = true

	server, err := NewHTTPServerFromConfig(context.Background(), conf, afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("NewHTTPServerFromConfig: %v", err)
	}

	handler := server.Handler()
	for _, path := range []string{"/health", "/metrics"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status %d", path, rec.Code)
		}
	}
}

func TestRateLimitSparesHealthAndMetrics(t *testing.T) {
	conf, err := config.Parse()
	if err != nil {
		t.Fatal(err)
	}
	conf.HTTP.RateLimit.Enabled = true
	conf.HTTP.RateLimit.Burst = 2
	conf.HTTP.RateLimit.Interval = time.Hour

	server, err := NewHTTPServerFromConfig(context.Background(), conf, afero.NewMemMapFs())
	if err != nil {
		t.Fatalf("NewHTTPServerFromConfig: %v", err)
	}
	handler := server.Handler()

	codes := make([]int, 3)
	for i := range codes {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/pdf/merge", nil))
		codes[i] = rec.Code
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Fatalf("api statuses %v, want the third request limited", codes)
	}

	for range 5 {
		for _, path := range []string{"/health", "/metrics"} {
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			if rec.Code != http.StatusOK {
				t.Fatalf("%s: status %d after the api limit was reached", path, rec.Code)
			}
		}
	}
}

func TestEngineLimitsFromConfig(t *testing.T) {
	conf, err := config.Parse()
	if err != nil {
		t.Fatal(err)
	}

	limits := NewEngineFromConfig(context.Background(), conf).Limits()
	if limits.MaxFileSize != int64(conf.Engine.MaxFileSize) || limits.MaxFiles != conf.Engine.MaxFiles || limits.MaxPages != conf.Engine.MaxPages {
		t.Errorf("limits %+v do not match config %+v", limits, conf.Engine)
	}
}
