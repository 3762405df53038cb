package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pkg/errors"

	"github.com/pdfwala/pdfops/internal/archive"
	"github.com/pdfwala/pdfops/pipeline"
)

const splitArchiveName = "split_pages.zip"

func (h *Handler) handleMerge(w http.ResponseWriter, r *http.Request) {
	u, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer u.Release()

	result, err := h.engine.Merge(r.Context(), u.files)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeResult(w, r, result)
}

func (h *Handler) handleSplit(w http.ResponseWriter, r *http.Request) {
	u, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer u.Release()

	file, err := u.single()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	results, err := h.engine.Split(r.Context(), file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	entries := make([]archive.Entry, len(results))
	for i, res := range results {
		entries[i] = archive.Entry{Name: res.Name, Data: res.Data}
	}

	var buf bytes.Buffer
	if err := archive.WriteZip(&buf, entries); err != nil {
		h.writeError(w, r, err)
		return
	}

	writeAttachment(w, r, splitArchiveName, "application/zip", buf.Bytes())
}

// singleFileHandler adapts the operations taking one file and request
// parameters.
func (h *Handler) singleFileHandler(w http.ResponseWriter, r *http.Request, run func(*upload, pipeline.File) (*pipeline.Result, error)) {
	u, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer u.Release()

	file, err := u.single()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := run(u, file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeResult(w, r, result)
}

func (h *Handler) handleOrganize(w http.ResponseWriter, r *http.Request) {
	h.singleFileHandler(w, r, func(u *upload, file pipeline.File) (*pipeline.Result, error) {
		params, err := pipeline.ParseOrganizeParams(u.values)
		if err != nil {
			return nil, err
		}
		return h.engine.Organize(r.Context(), file, params)
	})
}

func (h *Handler) handleRotate(w http.ResponseWriter, r *http.Request) {
	h.singleFileHandler(w, r, func(u *upload, file pipeline.File) (*pipeline.Result, error) {
		params, err := pipeline.ParseRotateParams(u.values)
		if err != nil {
			return nil, err
		}
		return h.engine.Rotate(r.Context(), file, params)
	})
}

func (h *Handler) handleWatermark(w http.ResponseWriter, r *http.Request) {
	h.singleFileHandler(w, r, func(u *upload, file pipeline.File) (*pipeline.Result, error) {
		params, err := pipeline.ParseWatermarkParams(u.values)
		if err != nil {
			return nil, err
		}
		return h.engine.Watermark(r.Context(), file, params)
	})
}

func (h *Handler) handlePageNumbers(w http.ResponseWriter, r *http.Request) {
	h.singleFileHandler(w, r, func(u *upload, file pipeline.File) (*pipeline.Result, error) {
		params, err := pipeline.ParsePageNumberParams(u.values)
		if err != nil {
			return nil, err
		}
		return h.engine.PageNumbers(r.Context(), file, params)
	})
}

func (h *Handler) handleExtractText(w http.ResponseWriter, r *http.Request) {
	h.singleFileHandler(w, r, func(_ *upload, file pipeline.File) (*pipeline.Result, error) {
		return h.engine.ExtractText(r.Context(), file)
	})
}

func (h *Handler) handleInfo(w http.ResponseWriter, r *http.Request) {
	u, err := h.readUpload(w, r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	defer u.Release()

	file, err := u.single()
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	info, err := h.engine.Inspect(r.Context(), file)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(info); err != nil {
		slog.ErrorContext(r.Context(), "could not write info", slog.Any("error", errors.WithStack(err)))
	}
}

func writeResult(w http.ResponseWriter, r *http.Request, result *pipeline.Result) {
	writeAttachment(w, r, result.Name, result.ContentType, result.Data)
}

func writeAttachment(w http.ResponseWriter, r *http.Request, name, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", fmt.Sprint(len(data)))
	if _, err := w.Write(data); err != nil {
		slog.ErrorContext(r.Context(), "could not write response", slog.Any("error", errors.WithStack(err)))
	}
}
