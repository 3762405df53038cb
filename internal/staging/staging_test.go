package staging

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"

	"github.com/pdfwala/pdfops"
)

var pdfHeader = []byte("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n1 0 obj\n<< >>\nendobj\n")

func newStager(fs afero.Fs, maxSize int64) *Stager {
	return &Stager{
		Fs:      fs,
		Dir:     "uploads",
		MaxSize: maxSize,
		Allowed: []string{MIMETypePDF},
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func countFiles(t *testing.T, fs afero.Fs) int {
	t.Helper()
	entries, err := afero.ReadDir(fs, "uploads")
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	return len(entries)
}

func TestStageAndRelease(t *testing.T) {
	fs := afero.NewMemMapFs()
	scope := newStager(fs, 1<<20).Scope(context.Background())

	a, err := scope.Stage("a.pdf", bytes.NewReader(pdfHeader))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	b, err := scope.Stage("a.pdf", bytes.NewReader(pdfHeader))
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if a.Path == b.Path {
		t.Errorf("two uploads with the same name share path %s", a.Path)
	}
	if a.MIMEType != MIMETypePDF || a.Size != int64(len(pdfHeader)) {
		t.Errorf("unexpected staged file %+v", a)
	}

	data, err := scope.ReadFile(a)
	if err != nil || !bytes.Equal(data, pdfHeader) {
		t.Errorf("ReadFile = %q, %v", data, err)
	}

	if n := countFiles(t, fs); n != 2 {
		t.Fatalf("expected 2 staged files, got %d", n)
	}
	scope.Release()
	if n := countFiles(t, fs); n != 0 {
		t.Errorf("expected no files after release, got %d", n)
	}
	// A second release is a no-op.
	scope.Release()
}

func TestStageTooLarge(t *testing.T) {
	fs := afero.NewMemMapFs()
	scope := newStager(fs, 16).Scope(context.Background())
	defer scope.Release()

	_, err := scope.Stage("big.pdf", bytes.NewReader(pdfHeader))
	if !errors.Is(err, pdfops.ErrResourceLimit) {
		t.Fatalf("expected resource limit error, got %v", err)
	}
	if n := countFiles(t, fs); n != 0 {
		t.Errorf("rejected upload left %d files", n)
	}
}

func TestStageRejectsOtherTypes(t *testing.T) {
	fs := afero.NewMemMapFs()
	scope := newStager(fs, 0).Scope(context.Background())
	defer scope.Release()

	_, err := scope.Stage("notes.pdf", strings.NewReader("just some text"))
	if !errors.Is(err, pdfops.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if n := countFiles(t, fs); n != 0 {
		t.Errorf("rejected upload left %d files", n)
	}
}

func TestSweep(t *testing.T) {
	fs := afero.NewMemMapFs()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := fs.MkdirAll("uploads", 0o750); err != nil {
		t.Fatal(err)
	}

	for name, age := range map[string]time.Duration{
		"old.pdf":    2 * time.Hour,
		"recent.pdf": 10 * time.Minute,
	} {
		path := "uploads/" + name
		if err := afero.WriteFile(fs, path, pdfHeader, 0o640); err != nil {
			t.Fatal(err)
		}
		if err := fs.Chtimes(path, now.Add(-age), now.Add(-age)); err != nil {
			t.Fatal(err)
		}
	}

	sweeper := &Sweeper{Fs: fs, Dir: "uploads", Retention: time.Hour, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	removed, err := sweeper.Sweep(now)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if removed != 1 {
		t.Errorf("removed %d files, want 1", removed)
	}
	if ok, _ := afero.Exists(fs, "uploads/recent.pdf"); !ok {
		t.Error("recent upload was removed")
	}
	if ok, _ := afero.Exists(fs, "uploads/old.pdf"); ok {
		t.Error("expired upload was kept")
	}
}

func TestSweepMissingDirectory(t *testing.T) {
	sweeper := &Sweeper{Fs: afero.NewMemMapFs(), Dir: "nowhere", Retention: time.Hour}
	if removed, err := sweeper.Sweep(time.Now()); err != nil || removed != 0 {
		t.Errorf("Sweep = %d, %v", removed, err)
	}
}
