// Package staging stores uploaded files under unique names for the duration
// of one request and removes expired leftovers in the background.
package staging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/internal/metrics"
)

const MIMETypePDF = "application/pdf"

// Stager writes uploads into Dir on Fs.
type Stager struct {
	Fs      afero.Fs
	Dir     string
	MaxSize int64    // bytes per file; zero disables the check
	Allowed []string // accepted MIME types; empty accepts anything
	Logger  *slog.Logger
}

// StagedFile is an upload stored by a Scope.
type StagedFile struct {
	Name     string // client-supplied name
	Path     string // path on the stager filesystem
	Size     int64
	MIMEType string
}

// Scope tracks the files staged for one request. Release removes them.
type Scope struct {
	stager *Stager
	ctx    context.Context
	mu     sync.Mutex
	files  []string
}

// Scope starts a new set of staged files bound to ctx for logging.
func (s *Stager) Scope(ctx context.Context) *Scope {
	return &Scope{stager: s, ctx: ctx}
}

func (s *Stager) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Stage copies r to a new file. It fails with a resource limit error when r
// is larger than MaxSize and with a validation error when its content type
// is not allowed; in both cases nothing is left on disk.
func (sc *Scope) Stage(name string, r io.Reader) (*StagedFile, error) {
	s := sc.stager

	if err := s.Fs.MkdirAll(s.Dir, 0o750); err != nil {
		return nil, errors.Wrap(err, "could not create upload directory")
	}

	path := filepath.Join(s.Dir, uuid.NewString()+filepath.Ext(name))
	f, err := s.Fs.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return nil, errors.Wrap(err, "could not create staged file")
	}
	sc.track(path)

	src := r
	if s.MaxSize > 0 {
		src = io.LimitReader(r, s.MaxSize+1)
	}
	size, err := io.Copy(f, src)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		sc.remove(path)
		return nil, errors.Wrap(err, "could not write staged file")
	}

	if s.MaxSize > 0 && size > s.MaxSize {
		sc.remove(path)
		return nil, pdfops.Errorf("Stage", pdfops.ErrResourceLimit,
			"%s exceeds the upload limit of %s", name, humanize.IBytes(uint64(s.MaxSize)))
	}

	mtype, err := sc.detect(path)
	if err != nil {
		sc.remove(path)
		return nil, errors.WithStack(err)
	}
	if len(s.Allowed) > 0 && !mimetype.EqualsAny(mtype.String(), s.Allowed...) {
		sc.remove(path)
		return nil, pdfops.Errorf("Stage", pdfops.ErrValidation,
			"%s has unsupported content type %s", name, mtype.String())
	}

	metrics.StagedBytes.Add(float64(size))
	s.logger().DebugContext(sc.ctx, "staged upload",
		slog.String("name", name),
		slog.String("path", path),
		slog.String("size", humanize.Bytes(uint64(size))),
		slog.String("mimeType", mtype.String()))

	return &StagedFile{Name: name, Path: path, Size: size, MIMEType: mtype.String()}, nil
}

func (sc *Scope) detect(path string) (*mimetype.MIME, error) {
	f, err := sc.stager.Fs.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not reopen staged file")
	}
	defer f.Close()

	mtype, err := mimetype.DetectReader(f)
	if err != nil {
		return nil, errors.Wrap(err, "could not detect content type")
	}
	return mtype, nil
}

// ReadFile returns the content of a staged file.
func (sc *Scope) ReadFile(file *StagedFile) ([]byte, error) {
	data, err := afero.ReadFile(sc.stager.Fs, file.Path)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	return data, nil
}

// Release removes every file staged in the scope. Failures are logged.
func (sc *Scope) Release() {
	sc.mu.Lock()
	files := sc.files
	sc.files = nil
	sc.mu.Unlock()

	for _, path := range files {
		if err := sc.stager.Fs.Remove(path); err != nil && !os.IsNotExist(err) {
			sc.stager.logger().ErrorContext(sc.ctx, "could not remove staged file",
				slog.String("path", path),
				slog.Any("error", errors.WithStack(err)))
		}
	}
}

func (sc *Scope) track(path string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.files = append(sc.files, path)
}

func (sc *Scope) remove(path string) {
	if err := sc.stager.Fs.Remove(path); err != nil && !os.IsNotExist(err) {
		sc.stager.logger().ErrorContext(sc.ctx, "could not remove rejected upload",
			slog.String("path", path),
			slog.Any("error", errors.WithStack(err)))
	}
}
