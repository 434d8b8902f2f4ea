// Package weather fetches current conditions from wttr.in and appends them
// to a weather data file.
package weather

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Format asks wttr.in for humidity, temperature and precipitation only.
const Format = "%h+%t+%p"

// ErrMalformedResponse is returned when a response does not clean up to
// three numeric tokens.
var ErrMalformedResponse = errors.New("malformed weather response")

// Observation is one cleaned wttr.in answer. The tokens are kept as sent so
// the data file carries the service's own precision.
type Observation struct {
	RelativeHumidity string
	TemperatureF     string
	Precipitation    string
}

// unitRunes are stripped from a response: "62% +68°F 0.0mm" -> "62 68 0.0".
const unitRunes = "%+F°m"

// Clean strips units from a raw response and checks that exactly three
// numeric tokens remain.
func Clean(body string) (Observation, error) {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(unitRunes, r) {
			return -1
		}
		return r
	}, body)

	fields := strings.Fields(cleaned)
	if len(fields) != 3 {
		return Observation{}, fmt.Errorf("%w: %q has %d fields", ErrMalformedResponse, strings.TrimSpace(body), len(fields))
	}
	for _, f := range fields {
		if _, err := strconv.ParseFloat(f, 64); err != nil {
			return Observation{}, fmt.Errorf("%w: %q is not numeric", ErrMalformedResponse, f)
		}
	}
	return Observation{RelativeHumidity: fields[0], TemperatureF: fields[1], Precipitation: fields[2]}, nil
}

// Row renders the observation as a weather data line taken at ts.
func (o Observation) Row(ts time.Time) string {
	return fmt.Sprintf("%s %s %s %s %s\n", ts.Format(time.DateOnly), ts.Format(time.TimeOnly),
		o.RelativeHumidity, o.TemperatureF, o.Precipitation)
}
