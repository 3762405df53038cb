package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/internal/metrics"
)

type errorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}

// StatusOf maps an error classification to an HTTP status. A corrupt
// document is reported as a server fault.
func StatusOf(err error) int {
	switch pdfops.KindOf(err) {
	case pdfops.ErrValidation, pdfops.ErrIndexOutOfRange:
		return http.StatusBadRequest
	case pdfops.ErrResourceLimit:
		return http.StatusRequestEntityTooLarge
	default:
		return http.StatusInternalServerError
	}
}

// writeError responds with the JSON form of err. Outside development mode
// the message is the classification only. Server faults are reported to
// Sentry.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	status := StatusOf(err)
	kind := pdfops.KindOf(err)

	if status >= http.StatusInternalServerError {
		slog.ErrorContext(ctx, "request failed", slog.Any("error", errors.WithStack(err)))
		if hub := sentry.GetHubFromContext(ctx); hub != nil {
			hub.CaptureException(err)
		}
	} else {
		slog.WarnContext(ctx, "request rejected", slog.Any("error", err))
	}

	message := kind.Error()
	if h.development {
		message = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(errorResponse{Error: message, Kind: metrics.KindLabel(err)}); err != nil {
		slog.ErrorContext(ctx, "could not write error response", slog.Any("error", errors.WithStack(err)))
	}
}
