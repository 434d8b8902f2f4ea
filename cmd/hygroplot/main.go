// Command hygroplot plots humidity and temperature data files and keeps the
// figure up to date while producers append to them.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/banshee-data/humidity.report/internal/config"
	"github.com/banshee-data/humidity.report/internal/fsutil"
	"github.com/banshee-data/humidity.report/internal/monitoring"
	"github.com/banshee-data/humidity.report/internal/poller"
	"github.com/banshee-data/humidity.report/internal/render"
	"github.com/banshee-data/humidity.report/internal/security"
	"github.com/banshee-data/humidity.report/internal/version"
)

var (
	configFile  = flag.String("config", "", "Path to a JSON plot configuration (see "+config.ExampleConfigPath+")")
	once        = flag.Bool("once", false, "Load the files, draw once and exit when no new rows arrive")
	statsFlag   = flag.Bool("stats", false, "Print the statistics table on every refresh")
	outDir      = flag.String("out", "", "Output directory for the live image and snapshots (overrides config)")
	watchFlag   = flag.Bool("watch", false, "Wake on file system events as well as on the poll interval")
	debugFlag   = flag.Bool("debug", false, "Log rejected rows and other debug detail")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// helpArg asks for the extended usage text.
const helpArg = "HELP"

var errHelp = errors.New("help requested")

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] file.txt [file.txt ...]\n", filepath.Base(os.Args[0]))
	flag.PrintDefaults()
}

func extendedUsage(w io.Writer) {
	fmt.Fprint(w, `hygroplot draws relative humidity and temperature from one or more data
files and redraws whenever rows are appended.

Sensor files hold rows of the form
    <port> <YYYY-MM-DD> <HH:MM:SS> <humidity %> <temperature C>
and weather files rows of the form
    <YYYY-MM-DD> <HH:MM:SS> <humidity %> <temperature F> <precipitation mm>

The live image is replaced on every refresh. A timestamped snapshot is
written every snapshot_interval and once more on exit. Interrupt with
Ctrl-C to stop.

`)
	fmt.Fprint(w, "Usage: hygroplot [flags] file.txt [file.txt ...]\n")
}

// checkArgs validates the positional arguments: at least one, and every one
// a *.txt path.
func checkArgs(args []string) ([]string, error) {
	if len(args) == 0 {
		return nil, errors.New("no data files given")
	}
	if len(args) == 1 && args[0] == helpArg {
		return nil, errHelp
	}
	for _, a := range args {
		if !strings.HasSuffix(a, ".txt") {
			return nil, fmt.Errorf("%q is not a .txt data file", a)
		}
	}
	return args, nil
}

// absPaths resolves every file so the watcher can match event names.
func absPaths(files []string) ([]string, error) {
	out := make([]string, len(files))
	for i, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", f, err)
		}
		out[i] = abs
	}
	return out, nil
}

// checkFiles reports the first data file that is missing or is a directory.
func checkFiles(fs fsutil.FileSystem, files []string) error {
	for _, f := range files {
		if !fs.Exists(f) {
			return fmt.Errorf("data file %s does not exist", f)
		}
		info, err := fs.Stat(f)
		if err != nil {
			return fmt.Errorf("stat %s: %w", f, err)
		}
		if info.IsDir() {
			return fmt.Errorf("data file %s is a directory", f)
		}
	}
	return nil
}

// loadConfig reads the config file, if any, and applies flag overrides.
func loadConfig(path string) (*config.PlotConfig, error) {
	cfg := config.EmptyPlotConfig()
	if path != "" {
		var err error
		if cfg, err = config.LoadPlotConfig(path); err != nil {
			return nil, err
		}
	}
	if *outDir != "" {
		cfg.OutputDir = outDir
	}
	if *statsFlag {
		cfg.StatsEnabled = statsFlag
	}
	if *watchFlag {
		cfg.Watch = watchFlag
	}
	if *once {
		cfg.StopWhenIdle = once
	}
	return cfg, cfg.Validate()
}

// buildPoller wires the renderer and poller from cfg.
func buildPoller(cfg *config.PlotConfig, files []string, fs fsutil.FileSystem) (*poller.Poller, error) {
	if err := checkFiles(fs, files); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	plotWindow, err := cfg.PlotWindowSpec(loc)
	if err != nil {
		return nil, err
	}
	statsWindow, err := cfg.StatsWindowSpec(loc)
	if err != nil {
		return nil, err
	}

	r, err := render.New(cfg.AxisConfig(), fs)
	if err != nil {
		return nil, err
	}
	if live := r.LivePath(); live != "" {
		if _, isOS := fs.(fsutil.OSFileSystem); isOS {
			if err := security.ValidatePathWithinDirectory(live, cfg.GetOutputDir()); err != nil {
				return nil, fmt.Errorf("live image: %w", err)
			}
		}
	}

	return poller.New(poller.Config{
		Files:            files,
		Renderer:         r,
		PollInterval:     cfg.GetPollInterval(),
		SnapshotInterval: cfg.GetSnapshotInterval(),
		PlotWindow:       plotWindow,
		StatsWindow:      statsWindow,
		StatsEnabled:     cfg.GetStatsEnabled(),
		StatsOptions:     cfg.StatsOptions(),
		Location:         loc,
		Watch:            cfg.GetWatch(),
		StopWhenIdle:     cfg.GetStopWhenIdle(),
		FS:               fs,
	})
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("hygroplot"))
		return
	}

	files, err := checkArgs(flag.Args())
	if errors.Is(err, errHelp) {
		extendedUsage(os.Stderr)
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}
	if files, err = absPaths(files); err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	monitoring.SetDebug(*debugFlag)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		log.Fatalf("FATAL: configuration: %v", err)
	}
	p, err := buildPoller(cfg, files, fsutil.OSFileSystem{})
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("hygroplot %s tracking %d file(s), output in %s", version.Version, len(files), cfg.GetOutputDir())
	if err := p.Run(ctx); err != nil {
		stop()
		log.Fatalf("FATAL: %v", err)
	}
	log.Printf("Stopped (%s)", p.State())
}
