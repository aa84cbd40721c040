package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/tablostudio/guestflow/internal/config"
	"github.com/tablostudio/guestflow/pkg/logger"
)

const janitorLockName = ".janitor.lock"

// SweepTarget is a directory the janitor cleans. With Patterns set only base
// names matching one of them are removed.
type SweepTarget struct {
	Dir      string
	Patterns []string
}

// Janitor periodically deletes expired export artifacts and cached media. A
// file lock keeps concurrent processes (server and worker) from sweeping at
// the same time.
type Janitor struct {
	targets   []SweepTarget
	retention time.Duration
	schedule  string
	lock      *flock.Flock
	scheduler *cron.Cron
	now       func() time.Time
	log       zerolog.Logger
}

func NewJanitor(lockDir, schedule string, retention time.Duration, targets ...SweepTarget) *Janitor {
	return &Janitor{
		targets:   targets,
		retention: retention,
		schedule:  schedule,
		lock:      flock.New(filepath.Join(lockDir, janitorLockName)),
		now:       time.Now,
		log:       logger.Component("janitor"),
	}
}

// NewExportJanitor sweeps finished jobs, leftover export temp files and the
// media download cache. The lock lives in the output directory so every
// process sharing it agrees on one lock file.
func NewExportJanitor(cfg *config.Config) *Janitor {
	return NewJanitor(
		cfg.Export.OutputDir,
		cfg.Export.SweepCron,
		time.Duration(cfg.Export.RetentionHours)*time.Hour,
		SweepTarget{Dir: cfg.Export.OutputDir, Patterns: []string{"*.zip", "*.json"}},
		SweepTarget{Dir: cfg.Export.TempDir, Patterns: []string{"iptc_*", "gallery_*.zip", "monitoring_*.xlsx"}},
		SweepTarget{Dir: cfg.Storage.CacheDir},
	)
}

// Start schedules Sweep on the configured cron expression.
func (j *Janitor) Start() error {
	if err := os.MkdirAll(filepath.Dir(j.lock.Path()), 0755); err != nil {
		return err
	}

	j.scheduler = cron.New()
	if _, err := j.scheduler.AddFunc(j.schedule, func() {
		if _, err := j.Sweep(); err != nil {
			j.log.Error().Err(err).Msg("Sweep failed")
		}
	}); err != nil {
		return fmt.Errorf("schedule sweep %q: %w", j.schedule, err)
	}
	j.scheduler.Start()
	j.log.Info().Str("schedule", j.schedule).Dur("retention", j.retention).Msg("Janitor started")
	return nil
}

// Stop waits for a running sweep to finish.
func (j *Janitor) Stop() {
	if j.scheduler != nil {
		<-j.scheduler.Stop().Done()
	}
}

// Sweep removes files older than the retention period and returns how many
// were deleted. It is a no-op while another process holds the lock.
func (j *Janitor) Sweep() (int, error) {
	locked, err := j.lock.TryLock()
	if err != nil {
		return 0, fmt.Errorf("acquire janitor lock: %w", err)
	}
	if !locked {
		j.log.Debug().Msg("Sweep already running elsewhere")
		return 0, nil
	}
	defer func() {
		if err := j.lock.Unlock(); err != nil {
			j.log.Warn().Err(err).Msg("Failed to release janitor lock")
		}
	}()

	cutoff := j.now().Add(-j.retention)
	removed := 0
	for _, target := range j.targets {
		n, err := j.sweepDir(target, cutoff)
		removed += n
		if err != nil {
			return removed, err
		}
	}
	if removed > 0 {
		j.log.Info().Int("removed", removed).Msg("Expired files removed")
	}
	return removed, nil
}

func (j *Janitor) sweepDir(target SweepTarget, cutoff time.Time) (int, error) {
	removed := 0
	err := filepath.WalkDir(target.Dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || d.Name() == janitorLockName || !matchesAny(d.Name(), target.Patterns) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			j.log.Warn().Err(err).Str("path", p).Msg("Failed to remove expired file")
			return nil
		}
		removed++
		return nil
	})
	return removed, err
}

func matchesAny(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}
