package api

import (
	"context"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/internal/staging"
	"github.com/pdfwala/pdfops/pipeline"
)

const (
	fieldFiles    = "files"
	maxMemory     = 32 << 20
	formOverhead  = 1 << 20
	defaultMaxLen = 512 << 20
)

// upload is the parsed form of one request. Release removes the staged
// files and the multipart temporary files.
type upload struct {
	files  []pipeline.File
	values url.Values
	scope  *staging.Scope
	form   func() error
	ctx    context.Context
}

// Release removes the staged and temporary files. Failures are logged.
func (u *upload) Release() {
	if u.scope != nil {
		u.scope.Release()
	}
	if u.form != nil {
		if err := u.form(); err != nil {
			slog.ErrorContext(u.ctx, "could not remove multipart temporary files", slog.Any("error", errors.WithStack(err)))
		}
	}
}

// readUpload stages every file of the files field and reads it back.
func (h *Handler) readUpload(w http.ResponseWriter, r *http.Request) (*upload, error) {
	limits := h.engine.Limits()
	maxLen := int64(defaultMaxLen)
	if limits.MaxFileSize > 0 && limits.MaxFiles > 0 {
		maxLen = limits.MaxFileSize*int64(limits.MaxFiles) + formOverhead
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxLen)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var maxBytes *http.MaxBytesError
		if errors.As(err, &maxBytes) {
			return nil, pdfops.Errorf("Upload", pdfops.ErrResourceLimit, "request body exceeds %d bytes", maxBytes.Limit)
		}
		return nil, pdfops.NewError("Upload", pdfops.ErrValidation, errors.Wrap(err, "could not parse multipart form"))
	}

	u := &upload{
		values: url.Values(r.MultipartForm.Value),
		scope:  h.stager.Scope(r.Context()),
		form:   r.MultipartForm.RemoveAll,
		ctx:    r.Context(),
	}

	headers := r.MultipartForm.File[fieldFiles]
	if limits.MaxFiles > 0 && len(headers) > limits.MaxFiles {
		u.Release()
		return nil, pdfops.Errorf("Upload", pdfops.ErrResourceLimit,
			"%d files exceed the limit of %d", len(headers), limits.MaxFiles)
	}

	for _, fh := range headers {
		if err := u.add(fh.Filename, fh.Open); err != nil {
			u.Release()
			return nil, err
		}
	}

	return u, nil
}

func (u *upload) add(name string, open func() (multipart.File, error)) error {
	f, err := open()
	if err != nil {
		return errors.Wrapf(err, "could not open uploaded file %s", name)
	}
	defer f.Close()

	staged, err := u.scope.Stage(name, f)
	if err != nil {
		return err
	}
	data, err := u.scope.ReadFile(staged)
	if err != nil {
		return err
	}
	u.files = append(u.files, pipeline.File{Name: name, Data: data})
	return nil
}

// single returns the only uploaded file.
func (u *upload) single() (pipeline.File, error) {
	switch len(u.files) {
	case 0:
		return pipeline.File{}, pdfops.Errorf("Upload", pdfops.ErrValidation, "no file uploaded")
	case 1:
		return u.files[0], nil
	default:
		return pipeline.File{}, pdfops.Errorf("Upload", pdfops.ErrValidation,
			"expected a single file, got %d", len(u.files))
	}
}
