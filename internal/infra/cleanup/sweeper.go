// Package cleanup removes expired uploads, archives and abandoned output
// directories.
package cleanup

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/heenao9k/betmc-ui-generator/internal/infra/metrics"
	"go.uber.org/zap"
)

// Target is one directory whose direct entries expire.
type Target struct {
	Name string
	Dir  string
	// OnRemove runs after an entry was deleted, e.g. to drop its published
	// copy. Errors are logged.
	OnRemove func(ctx context.Context, name string) error
}

type Config struct {
	Retention time.Duration
	Interval  time.Duration
}

type Sweeper struct {
	targets []Target
	cfg     Config
	now     func() time.Time
	logger  *zap.Logger
}

func NewSweeper(logger *zap.Logger, cfg Config, targets ...Target) *Sweeper {
	if cfg.Retention <= 0 {
		cfg.Retention = 24 * time.Hour
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Sweeper{targets: targets, cfg: cfg, now: time.Now, logger: logger}
}

// Run sweeps once immediately and then every Interval until ctx ends.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		s.Sweep(ctx)
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// Sweep deletes every entry last modified before the retention window and
// returns how many were removed.
func (s *Sweeper) Sweep(ctx context.Context) int {
	cutoff := s.now().Add(-s.cfg.Retention)
	removed := 0
	for _, t := range s.targets {
		removed += s.sweepTarget(ctx, t, cutoff)
	}
	if removed > 0 {
		s.logger.Info("retention sweep finished", zap.Int("removed", removed))
	}
	return removed
}

func (s *Sweeper) sweepTarget(ctx context.Context, t Target, cutoff time.Time) int {
	log := s.logger.With(zap.String("target", t.Name), zap.String("dir", t.Dir))

	entries, err := os.ReadDir(t.Dir)
	if errors.Is(err, fs.ErrNotExist) {
		return 0
	}
	if err != nil {
		log.Warn("failed to list directory", zap.Error(err))
		return 0
	}

	removed := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			return removed
		}
		info, err := e.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(t.Dir, e.Name())); err != nil {
			log.Warn("failed to remove expired entry", zap.String("name", e.Name()), zap.Error(err))
			continue
		}
		removed++
		metrics.CleanupRemovedTotal.WithLabelValues(t.Name).Inc()
		log.Debug("removed expired entry", zap.String("name", e.Name()))

		if t.OnRemove != nil {
			if err := t.OnRemove(ctx, e.Name()); err != nil {
				log.Warn("post-remove hook failed", zap.String("name", e.Name()), zap.Error(err))
			}
		}
	}
	return removed
}
