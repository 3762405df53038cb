package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pdfwala/pdfops/internal/build"
)

type status struct {
	Status  string  `json:"status"`
	Version string  `json:"version"`
	Uptime  float64 `json:"uptime"`
}

// NewHandler reports liveness and the time elapsed since started.
func NewHandler(started time.Time) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(status{
			Status:  "ok",
			Version: build.ShortVersion,
			Uptime:  time.Since(started).Seconds(),
		})
	})
}
