package api

import (
	"net/http"

	"github.com/pdfwala/pdfops/internal/staging"
	"github.com/pdfwala/pdfops/pipeline"
)

type Handler struct {
	engine      *pipeline.Engine
	stager      *staging.Stager
	development bool
	mux         *http.ServeMux
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// NewHandler serves the document operations. In development mode error
// responses carry the detailed error message.
func NewHandler(engine *pipeline.Engine, stager *staging.Stager, development bool) *Handler {
	h := &Handler{
		engine:      engine,
		stager:      stager,
		development: development,
		mux:         &http.ServeMux{},
	}

	h.mux.HandleFunc("POST /merge", h.handleMerge)
	h.mux.HandleFunc("POST /split", h.handleSplit)
	h.mux.HandleFunc("POST /organize", h.handleOrganize)
	h.mux.HandleFunc("POST /rotate", h.handleRotate)
	h.mux.HandleFunc("POST /watermark", h.handleWatermark)
	h.mux.HandleFunc("POST /page-numbers", h.handlePageNumbers)
	h.mux.HandleFunc("POST /extract-text", h.handleExtractText)
	h.mux.HandleFunc("POST /info", h.handleInfo)

	return h
}

var _ http.Handler = &Handler{}
