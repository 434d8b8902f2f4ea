// Command weatherlog polls wttr.in for current outdoor conditions and appends
// one row per observation to a weather data file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/banshee-data/humidity.report/internal/monitoring"
	"github.com/banshee-data/humidity.report/internal/units"
	"github.com/banshee-data/humidity.report/internal/version"
	"github.com/banshee-data/humidity.report/internal/weather"
)

var (
	location    = flag.String("location", "", "wttr.in location (default $WEATHER_LOCATION)")
	interval    = flag.Duration("interval", 0, "Time between fetches (default $WEATHER_INTERVAL or 10s)")
	baseURL     = flag.String("url", "", "Weather service base URL (default $WEATHER_URL or "+weather.DefaultBaseURL+")")
	timezone    = flag.String("timezone", units.LocalTimezone, "Timezone of the written timestamps")
	envFile     = flag.String("env", ".env", "Environment file to load before reading WEATHER_* variables")
	debugFlag   = flag.Bool("debug", false, "Log skipped fetches while resting")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

const helpArg = "HELP"

var errHelp = errors.New("help requested")

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] file.txt\n", filepath.Base(os.Args[0]))
	flag.PrintDefaults()
}

func extendedUsage() {
	fmt.Fprint(os.Stderr, `weatherlog appends the outdoor conditions at a wttr.in location as
    <YYYY-MM-DD> <HH:MM:SS> <humidity %> <temperature F> <precipitation mm>
Settings come from flags, then WEATHER_LOCATION, WEATHER_INTERVAL and
WEATHER_URL in the environment or a .env file. Stop with Ctrl-C.

`)
	usage()
}

func checkArgs(args []string) (string, error) {
	if len(args) == 0 {
		return "", errors.New("no data file given")
	}
	if len(args) == 1 && args[0] == helpArg {
		return "", errHelp
	}
	if len(args) > 1 {
		return "", fmt.Errorf("expected one data file, got %d", len(args))
	}
	if !strings.HasSuffix(args[0], ".txt") {
		return "", fmt.Errorf("%q is not a .txt data file", args[0])
	}
	return args[0], nil
}

// settings are the resolved producer settings.
type settings struct {
	Location string
	Interval time.Duration
	BaseURL  string
}

// resolveSettings merges flag values over environment values. getenv is
// os.Getenv outside tests.
func resolveSettings(getenv func(string) string) (settings, error) {
	s := settings{
		Location: *location,
		Interval: *interval,
		BaseURL:  *baseURL,
	}
	if s.Location == "" {
		s.Location = getenv("WEATHER_LOCATION")
	}
	if s.Location == "" {
		return s, errors.New("no location: set -location or WEATHER_LOCATION")
	}
	if s.Interval == 0 {
		if v := getenv("WEATHER_INTERVAL"); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return s, fmt.Errorf("invalid WEATHER_INTERVAL: %w", err)
			}
			s.Interval = d
		}
	}
	if s.Interval < 0 {
		return s, fmt.Errorf("interval must be positive, got %v", s.Interval)
	}
	if s.Interval == 0 {
		s.Interval = weather.DefaultInterval
	}
	if s.BaseURL == "" {
		s.BaseURL = getenv("WEATHER_URL")
	}
	return s, nil
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("weatherlog"))
		return
	}

	path, err := checkArgs(flag.Args())
	if errors.Is(err, errHelp) {
		extendedUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		flag.Usage()
		os.Exit(1)
	}

	if err := godotenv.Load(*envFile); err != nil {
		log.Printf("INFO: No %s file loaded: %v", *envFile, err)
	}
	monitoring.SetDebug(*debugFlag)

	s, err := resolveSettings(os.Getenv)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	loc, err := units.LoadTimezone(*timezone)
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	fetcher, err := weather.NewFetcher(weather.FetcherConfig{Location: s.Location, BaseURL: s.BaseURL})
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	sched, err := weather.NewScheduler(weather.SchedulerConfig{
		Fetcher:  fetcher,
		Path:     path,
		Interval: s.Interval,
		Location: loc,
	})
	if err != nil {
		log.Fatalf("FATAL: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("weatherlog %s fetching %s every %v into %s", version.Version, fetcher.URL(), s.Interval, path)
	if err := sched.Start(ctx); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
	<-ctx.Done()
	sched.Stop()
	log.Printf("Stopped after %d row(s), %d failed fetch(es)", sched.Rows(), sched.Failures())
}
