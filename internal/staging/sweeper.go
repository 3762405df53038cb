package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/pdfwala/pdfops/internal/metrics"
)

// Sweeper removes files of Dir older than Retention. It catches uploads a
// crashed request never released.
type Sweeper struct {
	Fs        afero.Fs
	Dir       string
	Retention time.Duration
	Interval  time.Duration
	Logger    *slog.Logger
}

func (s *Sweeper) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}

// Sweep removes the files modified before now minus the retention window
// and returns how many it removed. Files that vanish concurrently are not
// errors.
func (s *Sweeper) Sweep(now time.Time) (int, error) {
	entries, err := afero.ReadDir(s.Fs, s.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, errors.Wrap(err, "could not list upload directory")
	}

	cutoff := now.Add(-s.Retention)
	removed := 0
	for _, entry := range entries {
		if !entry.Mode().IsRegular() || !entry.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.Dir, entry.Name())
		if err := s.Fs.Remove(path); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			s.logger().Error("could not remove expired upload",
				slog.String("path", path),
				slog.Any("error", errors.WithStack(err)))
			continue
		}
		removed++
	}

	metrics.SweptFiles.Add(float64(removed))
	return removed, nil
}

// Run sweeps every Interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	if s.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			removed, err := s.Sweep(now)
			if err != nil {
				s.logger().ErrorContext(ctx, "upload sweep failed", slog.Any("error", errors.WithStack(err)))
				continue
			}
			if removed > 0 {
				s.logger().InfoContext(ctx, "removed expired uploads", slog.Int("count", removed))
			}
		}
	}
}
