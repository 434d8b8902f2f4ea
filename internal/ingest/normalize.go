package ingest

import (
	"math"
	"strconv"
	"time"

	"github.com/banshee-data/humidity.report/internal/record"
	"github.com/banshee-data/humidity.report/internal/units"
)

// Accepted time-of-day formats. Early sensor logs stored minutes only.
var timeLayouts = []string{"15:04:05", "15:04"}

// Normalize converts a classified line into a record in canonical units.
// Timestamps are interpreted in loc; a nil loc means time.Local.
func Normalize(c Classified, loc *time.Location) (record.Record, error) {
	if loc == nil {
		loc = time.Local
	}

	ts, err := parseTimestamp(c.Date, c.Time, loc)
	if err != nil {
		return record.Record{}, err
	}

	switch c.Layout {
	case LayoutSensor:
		if len(c.Values) != 2 {
			return record.Record{}, reject("sensor row has %d values", len(c.Values))
		}
		rh, err := parseValue("relative humidity", c.Values[0])
		if err != nil {
			return record.Record{}, err
		}
		tempC, err := parseValue("temperature", c.Values[1])
		if err != nil {
			return record.Record{}, err
		}
		if !units.ValidRelativeHumidity(rh) {
			return record.Record{}, reject("sensor fault: relative humidity %.2f outside [0,100]", rh)
		}
		if !units.ValidTemperature(tempC) {
			return record.Record{}, reject("sensor fault: temperature %.2f C at or below %.2f C", tempC, units.MagnusPole)
		}
		ah := units.AbsoluteHumidity(rh, tempC)
		if math.IsNaN(ah) || math.IsInf(ah, 0) {
			return record.Record{}, reject("absolute humidity is not finite for %.2f%% at %.2f C", rh, tempC)
		}
		return record.NewSensorRecord(c.Port, ts, rh, tempC, ah), nil

	case LayoutWeather, LayoutWeatherPort:
		if len(c.Values) != 3 {
			return record.Record{}, reject("weather row has %d values", len(c.Values))
		}
		rh, err := parseValue("relative humidity", c.Values[0])
		if err != nil {
			return record.Record{}, err
		}
		tempF, err := parseValue("temperature", c.Values[1])
		if err != nil {
			return record.Record{}, err
		}
		precip, err := parseValue("precipitation", c.Values[2])
		if err != nil {
			return record.Record{}, err
		}
		return record.NewWeatherRecord(ts, rh, units.FahrenheitToCelsius(tempF), precip), nil
	}

	return record.Record{}, reject("unknown layout %s", c.Layout)
}

// ParseLine classifies and normalises a single raw line.
func ParseLine(line string, loc *time.Location) (record.Record, error) {
	c, err := Classify(line)
	if err != nil {
		return record.Record{}, err
	}
	return Normalize(c, loc)
}

func parseTimestamp(date, clock string, loc *time.Location) (time.Time, error) {
	for _, layout := range timeLayouts {
		ts, err := time.ParseInLocation(dateLayout+" "+layout, date+" "+clock, loc)
		if err == nil {
			return ts, nil
		}
	}
	return time.Time{}, reject("unparseable timestamp %q %q", date, clock)
}

func parseValue(name, tok string) (float64, error) {
	v, err := strconv.ParseFloat(tok, 64)
	if err != nil {
		return 0, reject("non-numeric %s %q", name, tok)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, reject("non-finite %s %q", name, tok)
	}
	return v, nil
}
