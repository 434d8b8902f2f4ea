package weather

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/banshee-data/humidity.report/internal/fsutil"
	"github.com/banshee-data/humidity.report/internal/monitoring"
	"github.com/banshee-data/humidity.report/internal/timeutil"
)

// DefaultInterval is the time between fetches.
const DefaultInterval = 10 * time.Second

// SchedulerConfig contains configuration for Scheduler.
type SchedulerConfig struct {
	Fetcher *Fetcher
	// Path is the weather data file rows are appended to.
	Path string
	// Interval between fetches (default 10s). After a connection failure
	// the scheduler rests for twice this long.
	Interval time.Duration
	// Timeout bounds one fetch including retries (default Interval).
	Timeout  time.Duration
	Location *time.Location

	FS    fsutil.FileSystem
	Clock timeutil.Clock
}

// Scheduler fetches on a fixed cadence and appends one row per success.
type Scheduler struct {
	cfg  SchedulerConfig
	cron *gocron.Scheduler

	mu        sync.Mutex
	restUntil time.Time
	rows      int
	failures  int
}

// NewScheduler validates cfg and applies defaults.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Fetcher == nil {
		return nil, errors.New("weather scheduler needs a fetcher")
	}
	if !strings.HasSuffix(cfg.Path, ".txt") {
		return nil, fmt.Errorf("data file %q: must have a .txt extension", cfg.Path)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Interval
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.FS == nil {
		cfg.FS = fsutil.OSFileSystem{}
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	return &Scheduler{cfg: cfg}, nil
}

// Rows returns the number of rows written.
func (s *Scheduler) Rows() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rows
}

// Failures returns the number of failed fetches.
func (s *Scheduler) Failures() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failures
}

// Resting reports whether a connection failure is still being sat out.
func (s *Scheduler) Resting() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clock.Now().Before(s.restUntil)
}

// RunOnce performs one scheduled fetch. While resting it does nothing.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s.Resting() {
		monitoring.Debugf("weather: resting after connection failure")
		return nil
	}

	ts := s.cfg.Clock.Now().In(s.cfg.Location)
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	obs, err := s.cfg.Fetcher.Fetch(ctx)
	if err != nil {
		s.mu.Lock()
		s.failures++
		if errors.Is(err, ErrConnection) {
			s.restUntil = s.cfg.Clock.Now().Add(2 * s.cfg.Interval)
			monitoring.Logf("Weather service unreachable; resting for %v", 2*s.cfg.Interval)
		}
		s.mu.Unlock()
		return err
	}

	row := obs.Row(ts)
	if err := s.cfg.FS.AppendFile(s.cfg.Path, []byte(row), 0644); err != nil {
		return fmt.Errorf("append %s: %w", s.cfg.Path, err)
	}
	s.mu.Lock()
	s.rows++
	s.mu.Unlock()
	monitoring.Logf("Weather %s (humidity %%, temperature F, precipitation mm/3h)", strings.TrimSpace(row))
	return nil
}

// Start schedules RunOnce every interval on a gocron scheduler, the first
// run immediately. Overlapping runs are skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	cron := gocron.NewScheduler(s.cfg.Location)
	cron.SingletonModeAll()
	_, err := cron.Every(s.cfg.Interval).Do(func() {
		if err := s.RunOnce(ctx); err != nil {
			monitoring.Logf("weather: fetch failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule weather fetch: %w", err)
	}
	s.cron = cron
	cron.StartAsync()
	return nil
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		s.cron.Stop()
	}
}
