// Package ingest turns raw data-file lines into typed records. Classification
// and normalisation are pure functions: they hold no state and never panic on
// malformed input, which is expected noise from a live writer.
package ingest

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/humidity.report/internal/record"
)

// ErrRejectedLine marks a line that could not be turned into a record. The
// wrapped message carries the reason.
var ErrRejectedLine = errors.New("rejected line")

func reject(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrRejectedLine, fmt.Sprintf(format, args...))
}

// Layout enumerates every producer row format seen across script revisions.
type Layout int

const (
	// LayoutSensor: <port> <date> <time> <rh> <tempC>
	LayoutSensor Layout = iota
	// LayoutWeather: <date> <time> <rh> <tempF> <precip>
	LayoutWeather
	// LayoutWeatherPort: <index> <date> <time> <rh> <tempF> <precip>, written
	// by earlier weather producers that prefixed a counter column.
	LayoutWeatherPort
)

func (l Layout) String() string {
	switch l {
	case LayoutSensor:
		return "sensor"
	case LayoutWeather:
		return "weather"
	case LayoutWeatherPort:
		return "weather+port"
	default:
		return fmt.Sprintf("layout(%d)", int(l))
	}
}

const (
	sensorTokens      = 5
	weatherTokens     = 5
	weatherPortTokens = 6

	dateLayout = "2006-01-02"
)

// Classified is a line whose shape has been recognised. Fields hold the raw
// tokens with any discarded counter column already stripped.
type Classified struct {
	Source record.SourceKey
	Layout Layout
	Port   int // sensor port, -1 for weather rows
	Date   string
	Time   string
	Values []string // rh, temperature and, for weather, precipitation
}

// Classify decides which source a line belongs to by its token count and
// content. It never fails with anything other than ErrRejectedLine.
func Classify(line string) (Classified, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 0 {
		return Classified{}, reject("empty line")
	}

	switch len(tokens) {
	case weatherPortTokens:
		if _, ok := parsePort(tokens[0]); ok && isDate(tokens[1]) {
			return Classified{
				Source: record.Weather,
				Layout: LayoutWeatherPort,
				Port:   -1,
				Date:   tokens[1],
				Time:   tokens[2],
				Values: tokens[3:6],
			}, nil
		}
	case sensorTokens: // same length as weatherTokens; content decides
		if isDate(tokens[0]) {
			return Classified{
				Source: record.Weather,
				Layout: LayoutWeather,
				Port:   -1,
				Date:   tokens[0],
				Time:   tokens[1],
				Values: tokens[2:5],
			}, nil
		}
		if port, ok := parsePort(tokens[0]); ok && isDate(tokens[1]) {
			return Classified{
				Source: record.Sensor(port),
				Layout: LayoutSensor,
				Port:   port,
				Date:   tokens[1],
				Time:   tokens[2],
				Values: tokens[3:5],
			}, nil
		}
	}

	return Classified{}, reject("unrecognised %d-token row %q", len(tokens), line)
}

// isDate requires the date separator and a real calendar date, so a counter
// or a partially written token never passes as a date.
func isDate(tok string) bool {
	if !strings.Contains(tok, "-") {
		return false
	}
	_, err := time.Parse(dateLayout, tok)
	return err == nil
}

func parsePort(tok string) (int, bool) {
	n, err := strconv.Atoi(tok)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
