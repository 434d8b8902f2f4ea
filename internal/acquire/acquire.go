// Package acquire turns the line protocol of the humidity sensor sketch into
// sensor data rows.
//
// The sketch prints a humidity reading followed by a temperature reading,
// one value per line, interleaved with status chatter. Each complete pair is
// appended to the data file as
//
//	<port> <YYYY-MM-DD> <HH:MM:SS> <rh> <temperature>
//
// with the file opened and closed for every row so an interrupted run loses
// at most the pair in flight.
package acquire

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/humidity.report/internal/fsutil"
	"github.com/banshee-data/humidity.report/internal/monitoring"
	"github.com/banshee-data/humidity.report/internal/serialmux"
	"github.com/banshee-data/humidity.report/internal/timeutil"
)

// DoneLine is printed by the sketch after its last measurement.
const DoneLine = "Done!"

var statusLines = map[string]bool{
	"Starting up...":      true,
	"Sensor not running.": true,
	"AHT10 running":       true,
}

var noiseLines = map[string]bool{
	"":       true,
	"0.00":   true,
	"-50.00": true,
	"..":     true,
	"up..":   true,
}

// LineKind is how a serial line was interpreted.
type LineKind int

const (
	KindNoise LineKind = iota
	KindStatus
	KindDone
	KindValue
	KindUnknown
)

// Classify sorts one trimmed serial line.
func Classify(line string) LineKind {
	switch {
	case noiseLines[line]:
		return KindNoise
	case statusLines[line]:
		return KindStatus
	case line == DoneLine:
		return KindDone
	}
	if _, err := strconv.ParseFloat(line, 64); err == nil {
		return KindValue
	}
	return KindUnknown
}

// Config contains configuration for Recorder.
type Config struct {
	// Path is the sensor data file.
	Path string
	// Port is the sensor number written in the first column.
	Port int
	// Append keeps existing rows; otherwise the file is truncated on start.
	Append bool
	// Location is the zone of the written wall-clock timestamps.
	Location *time.Location

	FS    fsutil.FileSystem
	Clock timeutil.Clock
}

// Recorder pairs humidity and temperature readings and writes rows.
type Recorder struct {
	cfg Config

	humidity   string
	humidityAt time.Time
	pending    bool

	rows int
}

// NewRecorder prepares the data file and returns a Recorder.
func NewRecorder(cfg Config) (*Recorder, error) {
	if !strings.HasSuffix(cfg.Path, ".txt") {
		return nil, fmt.Errorf("data file %q: must have a .txt extension", cfg.Path)
	}
	if cfg.Port < 0 {
		return nil, fmt.Errorf("sensor port must not be negative, got %d", cfg.Port)
	}
	if cfg.FS == nil {
		cfg.FS = fsutil.OSFileSystem{}
	}
	if cfg.Clock == nil {
		cfg.Clock = timeutil.RealClock{}
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if !cfg.Append {
		if err := cfg.FS.WriteFile(cfg.Path, nil, 0644); err != nil {
			return nil, fmt.Errorf("truncate %s: %w", cfg.Path, err)
		}
	}
	return &Recorder{cfg: cfg}, nil
}

// Rows returns the number of rows written.
func (r *Recorder) Rows() int { return r.rows }

// Handle consumes one serial line. It reports done once the sketch has
// announced the end of its run.
func (r *Recorder) Handle(line string) (done bool, err error) {
	line = strings.TrimSpace(line)
	switch Classify(line) {
	case KindNoise:
		return false, nil
	case KindStatus:
		monitoring.Logf("%s", line)
		return false, nil
	case KindDone:
		monitoring.Logf("%s", line)
		if r.pending {
			monitoring.Logf("Discarding humidity %s without a temperature", r.humidity)
			r.pending = false
		}
		return true, nil
	case KindUnknown:
		monitoring.Debugf("unexpected serial line %q", line)
		return false, nil
	}

	if !r.pending {
		r.humidity = line
		r.humidityAt = r.cfg.Clock.Now().In(r.cfg.Location)
		r.pending = true
		monitoring.Logf("Humidity: %s%%", line)
		return false, nil
	}

	r.pending = false
	monitoring.Logf("Temperature: %s C", line)
	row := FormatRow(r.cfg.Port, r.humidityAt, r.humidity, line)
	if err := r.cfg.FS.AppendFile(r.cfg.Path, []byte(row), 0644); err != nil {
		return false, fmt.Errorf("append %s: %w", r.cfg.Path, err)
	}
	r.rows++
	return false, nil
}

// FormatRow renders one sensor data row, newline included.
func FormatRow(port int, ts time.Time, rh, temp string) string {
	return fmt.Sprintf("%d %s %s %s %s\n", port, ts.Format(time.DateOnly), ts.Format(time.TimeOnly), rh, temp)
}

// Run subscribes to mux, monitors the port and records until the sketch
// prints DoneLine, the port closes, or ctx is cancelled.
func (r *Recorder) Run(ctx context.Context, mux serialmux.SerialMuxInterface) error {
	id, lines := mux.Subscribe()
	defer mux.Unsubscribe(id)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	monErr := make(chan error, 1)
	go func() { monErr <- mux.Monitor(ctx) }()

	handle := func(line string) (bool, error) {
		done, err := r.Handle(line)
		if err != nil {
			return true, err
		}
		return done, nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			if stop, err := handle(line); stop {
				return err
			}
		case err := <-monErr:
			// Lines already fanned out are still buffered.
			for {
				select {
				case line, ok := <-lines:
					if !ok {
						return monitorResult(err)
					}
					if stop, herr := handle(line); stop {
						return herr
					}
				default:
					return monitorResult(err)
				}
			}
		}
	}
}

func monitorResult(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	return fmt.Errorf("serial monitor: %w", err)
}
