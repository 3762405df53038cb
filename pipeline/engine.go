// Package pipeline runs one document transformation per request: parse the
// inputs, apply exactly one operation, serialize the result.
//
// Steps run on a bounded worker pool shared by every job of an Engine. The
// context only bounds the wait for a pool slot; a started step runs to
// completion. Failures abort the job and are never retried.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/pdfwala/pdfops"
	"github.com/pdfwala/pdfops/document"
)

// File is one uploaded input.
type File struct {
	Name string
	Data []byte
	// Password opens an encrypted input. The HTTP API never sets it.
	Password string
}

// Result is one output of a job.
type Result struct {
	Name        string
	ContentType string
	Data        []byte
}

// Content types of results.
const (
	ContentTypePDF  = "application/pdf"
	ContentTypeText = "text/plain; charset=utf-8"
)

// Engine runs jobs on a worker pool bounded by Options.Workers. It is safe
// for concurrent use.
type Engine struct {
	pool     *semaphore.Weighted
	limits   Limits
	verifier Verifier
	observer Observer
	logger   *slog.Logger
}

// NewEngine returns an Engine configured by funcs.
func NewEngine(funcs ...OptionFunc) *Engine {
	opts := NewOptions(funcs...)
	return &Engine{
		pool:     semaphore.NewWeighted(int64(opts.Workers)),
		limits:   opts.Limits,
		verifier: opts.Verifier,
		observer: opts.Observer,
		logger:   opts.Logger,
	}
}

// Limits returns the limits the engine enforces.
func (e *Engine) Limits() Limits {
	return e.limits
}

// step runs fn on a pool slot. A panic in fn is reported as an internal
// error.
func (e *Engine) step(ctx context.Context, op string, fn func() error) (err error) {
	if err := e.pool.Acquire(ctx, 1); err != nil {
		return pdfops.NewError(op, pdfops.ErrInternal, errors.Wrap(err, "waiting for a worker"))
	}
	defer e.pool.Release(1)

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("recovered from panic",
				slog.String("op", op),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
			err = pdfops.NewError(op, pdfops.ErrInternal, fmt.Errorf("panic: %v", r))
		}
	}()

	return fn()
}

// job wraps a whole operation: it classifies the error, logs and reports
// the outcome.
func (e *Engine) job(ctx context.Context, op string, fn func() error) error {
	start := time.Now()
	e.logger.DebugContext(ctx, "starting job", slog.String("op", op))

	err := classify(op, fn())

	duration := time.Since(start)
	if e.observer != nil {
		e.observer.ObserveJob(op, duration, err)
	}
	if err != nil {
		e.logger.ErrorContext(ctx, "job failed",
			slog.String("op", op),
			slog.Duration("duration", duration),
			slog.Any("error", errors.WithStack(err)))
		return err
	}

	e.logger.DebugContext(ctx, "job done", slog.String("op", op), slog.Duration("duration", duration))
	return nil
}

// classify makes sure err carries one of the pdfops kinds.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}
	var perr *pdfops.Error
	if errors.As(err, &perr) {
		return err
	}
	return pdfops.NewError(op, pdfops.ErrInternal, err)
}

// checkFiles enforces the cardinality and size limits before any parsing.
func (e *Engine) checkFiles(op string, files ...File) error {
	if e.limits.MaxFiles > 0 && len(files) > e.limits.MaxFiles {
		return pdfops.Errorf(op, pdfops.ErrResourceLimit,
			"%d files exceed the limit of %d", len(files), e.limits.MaxFiles)
	}
	for _, f := range files {
		if e.limits.MaxFileSize > 0 && int64(len(f.Data)) > e.limits.MaxFileSize {
			return pdfops.Errorf(op, pdfops.ErrResourceLimit,
				"%s is %d bytes, the limit is %d", f.Name, len(f.Data), e.limits.MaxFileSize)
		}
	}
	return nil
}

func (e *Engine) parse(ctx context.Context, f File) (*document.Document, error) {
	var doc *document.Document
	err := e.step(ctx, "Parse", func() error {
		var err error
		options := []document.ParseOption{document.WithMaxPages(e.limits.MaxPages)}
		if f.Password != "" {
			options = append(options, document.WithPassword(f.Password))
		}
		doc, err = document.Parse(f.Data, options...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Name, err)
	}
	return doc, nil
}

func (e *Engine) serialize(ctx context.Context, name string, doc *document.Document) (*Result, error) {
	var data []byte
	err := e.step(ctx, "Serialize", func() error {
		var err error
		if data, err = doc.Serialize(); err != nil {
			return err
		}
		if e.verifier == nil {
			return nil
		}
		if err := e.verifier.Verify(ctx, data); err != nil {
			return pdfops.NewError("Serialize", pdfops.ErrInternal, errors.Wrap(err, "output failed verification"))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &Result{Name: name, ContentType: ContentTypePDF, Data: data}, nil
}

// transform runs the single-input shape shared by most operations.
func (e *Engine) transform(ctx context.Context, op, name string, file File, fn func(*document.Document) (*document.Document, error)) (*Result, error) {
	var result *Result
	err := e.job(ctx, op, func() error {
		if err := e.checkFiles(op, file); err != nil {
			return err
		}
		doc, err := e.parse(ctx, file)
		if err != nil {
			return err
		}
		var out *document.Document
		if err := e.step(ctx, op, func() error {
			var err error
			out, err = fn(doc)
			return err
		}); err != nil {
			return err
		}
		result, err = e.serialize(ctx, name, out)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
