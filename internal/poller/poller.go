// Package poller tails the tracked data files, folds new rows into the series
// store and drives the renderer and statistics on every tick.
package poller

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/banshee-data/humidity.report/internal/fsutil"
	"github.com/banshee-data/humidity.report/internal/ingest"
	"github.com/banshee-data/humidity.report/internal/monitoring"
	"github.com/banshee-data/humidity.report/internal/series"
	"github.com/banshee-data/humidity.report/internal/stats"
	"github.com/banshee-data/humidity.report/internal/timeutil"
)

// ErrTrackedFile is returned when a tracked file disappears or cannot be read.
var ErrTrackedFile = errors.New("tracked file unavailable")

// State is the poller lifecycle state.
type State int

const (
	StateInitialLoad State = iota
	StateSteadyPoll
	StateTerminated
	StateFatal
)

func (s State) String() string {
	switch s {
	case StateInitialLoad:
		return "INITIAL_LOAD"
	case StateSteadyPoll:
		return "STEADY_POLL"
	case StateTerminated:
		return "TERMINATED"
	case StateFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Renderer draws the live figure and writes snapshots. *render.Renderer
// implements it.
type Renderer interface {
	Refresh(st *series.Store, w series.Window) error
	Snapshot(st *series.Store, w series.Window) (string, error)
}

// Config contains configuration for Poller.
type Config struct {
	// Files are the tracked *.txt data files.
	Files []string
	// Renderer receives every refresh and snapshot. Optional.
	Renderer Renderer
	// PollInterval is the time between steady-state passes (default 5s).
	PollInterval time.Duration
	// SnapshotInterval is the minimum time between timestamped snapshots.
	// Zero disables periodic snapshots; the final one is still written.
	SnapshotInterval time.Duration
	// PlotWindow selects the plotted range. Zero means the full span.
	PlotWindow series.WindowSpec
	// StatsWindow selects the statistics range. Zero means PlotWindow.
	StatsWindow series.WindowSpec
	// StatsEnabled prints the statistics table to Out on each refresh.
	StatsEnabled bool
	StatsOptions stats.Options
	// Location interprets the wall-clock timestamps in the files.
	Location *time.Location
	// Watch wakes the loop on file system events between ticks.
	Watch bool
	// StopWhenIdle ends the run after the first pass with no new rows.
	StopWhenIdle bool

	FS    fsutil.FileSystem
	Clock timeutil.Clock
	Out   io.Writer
}

// Poller is the single-threaded polling loop. The store is owned by the loop
// goroutine; nothing else mutates it.
type Poller struct {
	cfg   Config
	store *series.Store
	marks map[string]watermark
	state State

	lastSnapshot time.Time
	snapped      bool
	rendered     bool
	rejected     int
	warnedEmpty  bool
}

// New validates cfg and returns a poller in StateInitialLoad.
func New(cfg Config) (*Poller, error) {
	if len(cfg.Files) == 0 {
		return nil, errors.New("no data files to track")
	}
	for _, f := range cfg.Files {
		if !strings.HasSuffix(f, ".txt") {
			return nil, fmt.Errorf("data file %q: must have a .txt extension", f)
		}
	}
	if err := cfg.PlotWindow.Validate(); err != nil {
		return nil, fmt.Errorf("plot window: %w", err)
	}
	if err := cfg.StatsWindow.Validate(); err != nil {
		return nil, fmt.Errorf("stats window: %w", err)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
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
	if cfg.Out == nil {
		cfg.Out = os.Stdout
	}
	if cfg.StatsWindow.IsZero() {
		cfg.StatsWindow = cfg.PlotWindow
	}
	return &Poller{
		cfg:   cfg,
		store: series.NewStore(),
		marks: make(map[string]watermark, len(cfg.Files)),
	}, nil
}

// State returns the current lifecycle state.
func (p *Poller) State() State { return p.state }

// Store returns the series store the poller fills.
func (p *Poller) Store() *series.Store { return p.store }

// Rejected returns the number of rows dropped by the classifier or normalizer.
func (p *Poller) Rejected() int { return p.rejected }

// Load performs the initial load: every existing complete line of every file
// is ingested, watermarks are captured and the first refresh is drawn.
func (p *Poller) Load() error {
	if p.state != StateInitialLoad {
		return fmt.Errorf("load: poller is in state %s", p.state)
	}
	added, err := p.ingestAll()
	if err != nil {
		p.state = StateFatal
		return err
	}
	monitoring.Logf("Loaded %d rows from %d file(s) (%d rejected)", added, len(p.cfg.Files), p.rejected)

	p.state = StateSteadyPoll
	if err := p.refresh(); err != nil {
		p.state = StateFatal
		return err
	}
	p.maybeSnapshot()
	return nil
}

// Tick runs one steady-state pass and reports how many rows were added.
// With StopWhenIdle a pass that adds nothing moves the poller to
// StateTerminated without refreshing.
func (p *Poller) Tick() (int, error) {
	if p.state != StateSteadyPoll {
		return 0, fmt.Errorf("tick: poller is in state %s", p.state)
	}
	added, err := p.ingestAll()
	if err != nil {
		p.state = StateFatal
		return added, err
	}

	if added == 0 && p.cfg.StopWhenIdle {
		monitoring.Logf("No new data; stopping")
		p.state = StateTerminated
		return 0, nil
	}
	if added > 0 || !p.rendered {
		if err := p.refresh(); err != nil {
			p.state = StateFatal
			return added, err
		}
	}

	p.maybeSnapshot()
	return added, nil
}

// maybeSnapshot writes the startup snapshot once the first figure exists and
// then one per SnapshotInterval.
func (p *Poller) maybeSnapshot() {
	if !p.rendered {
		return
	}
	now := p.cfg.Clock.Now()
	if p.snapped {
		if p.cfg.SnapshotInterval <= 0 || now.Sub(p.lastSnapshot) < p.cfg.SnapshotInterval {
			return
		}
	}
	p.snapshot()
	p.snapped = true
	p.lastSnapshot = now
}

// Run drives the poller until ctx is cancelled, a pass fails, or an idle pass
// ends a StopWhenIdle run. Cancellation and idle endings write a final
// snapshot and return nil; a failing tracked file returns ErrTrackedFile.
func (p *Poller) Run(ctx context.Context) error {
	var wake <-chan struct{}
	if p.cfg.Watch {
		w, err := newWatcher(p.cfg.Files)
		if err != nil {
			monitoring.Logf("File watch disabled: %v", err)
		} else {
			defer w.Close()
			wake = w.Wake()
		}
	}

	if p.state == StateInitialLoad {
		if err := p.Load(); err != nil {
			return err
		}
	}

	ticker := p.cfg.Clock.NewTicker(p.cfg.PollInterval)
	defer ticker.Stop()

	for p.state == StateSteadyPoll {
		select {
		case <-ctx.Done():
			monitoring.Logf("Interrupted; writing final snapshot")
			p.state = StateTerminated
		case <-ticker.C():
			if _, err := p.Tick(); err != nil {
				return err
			}
		case <-wake:
			if _, err := p.Tick(); err != nil {
				return err
			}
		}
	}

	if p.state == StateTerminated {
		p.snapshot()
	}
	return nil
}

func (p *Poller) ingestAll() (int, error) {
	total := 0
	for _, path := range p.cfg.Files {
		n, err := p.ingestFile(path)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (p *Poller) ingestFile(path string) (int, error) {
	data, err := p.cfg.FS.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrTrackedFile, path, err)
	}

	mark := p.marks[path]
	if !mark.valid(data) {
		monitoring.Logf("%s was rewritten; reading it from the start", path)
		mark = watermark{}
	}
	lines, next := mark.advance(data)
	p.marks[path] = next

	added := 0
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		rec, err := ingest.ParseLine(line, p.cfg.Location)
		if err != nil {
			p.rejected++
			monitoring.Debugf("%s: %v", path, err)
			continue
		}
		if err := p.store.Append(rec.Source(), rec); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// refresh resolves both windows, prints the statistics and redraws the live
// figure. An empty store is not an error; there is nothing to draw yet.
func (p *Poller) refresh() error {
	plotWin, err := series.Resolve(p.store, p.cfg.PlotWindow)
	if errors.Is(err, series.ErrNoData) {
		if !p.warnedEmpty {
			monitoring.Logf("No data yet in %s", strings.Join(p.cfg.Files, ", "))
			p.warnedEmpty = true
		}
		return nil
	}
	if err != nil {
		return err
	}

	if p.cfg.StatsEnabled {
		statsWin, err := series.Resolve(p.store, p.cfg.StatsWindow)
		if err != nil {
			return err
		}
		fmt.Fprintf(p.cfg.Out, "\nStatistics %s\n", statsWin)
		if _, err := stats.Summarize(p.store, statsWin, p.cfg.StatsOptions).WriteTo(p.cfg.Out); err != nil {
			return fmt.Errorf("write statistics: %w", err)
		}
	}

	p.rendered = true
	if p.cfg.Renderer == nil {
		return nil
	}
	if err := p.cfg.Renderer.Refresh(p.store, plotWin); err != nil {
		return fmt.Errorf("refresh plot: %w", err)
	}
	return nil
}

// snapshot failures are logged, not fatal: the live loop keeps going.
func (p *Poller) snapshot() {
	if p.cfg.Renderer == nil {
		return
	}
	w, err := series.Resolve(p.store, p.cfg.PlotWindow)
	if err != nil {
		return
	}
	if _, err := p.cfg.Renderer.Snapshot(p.store, w); err != nil {
		monitoring.Logf("Snapshot failed: %v", err)
	}
}
