// Package record defines the measurement types shared by the ingestion,
// storage, statistics and rendering layers.
package record

import (
	"fmt"
	"time"
)

// Kind distinguishes the two record schemas.
type Kind int

const (
	KindWeather Kind = iota
	KindSensor
)

func (k Kind) String() string {
	switch k {
	case KindWeather:
		return "weather"
	case KindSensor:
		return "sensor"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// SourceKey identifies one data stream: the weather feed or one physical
// sensor. The zero value is the weather source.
type SourceKey struct {
	kind   Kind
	sensor int // 1-based sensor number, 0 for weather
}

// Weather is the key of the reference weather stream.
var Weather = SourceKey{kind: KindWeather}

// Sensor returns the key for the sensor attached to the given 0-based port.
// Sensor keys are numbered from 1, so port 0 is Sensor1.
func Sensor(port int) SourceKey {
	return SourceKey{kind: KindSensor, sensor: port + 1}
}

// Kind reports which schema records under this key follow.
func (k SourceKey) Kind() Kind { return k.kind }

// Number returns the 1-based sensor number, or 0 for the weather key.
func (k SourceKey) Number() int { return k.sensor }

// IsWeather reports whether k is the weather key.
func (k SourceKey) IsWeather() bool { return k.kind == KindWeather }

// Less orders keys: Weather first, then sensors by number.
func (k SourceKey) Less(other SourceKey) bool {
	if k.kind != other.kind {
		return k.kind == KindWeather
	}
	return k.sensor < other.sensor
}

func (k SourceKey) String() string {
	if k.kind == KindWeather {
		return "Weather"
	}
	return fmt.Sprintf("Sensor%d", k.sensor)
}

// Record is one measurement instant. Records are immutable; build them with
// NewSensorRecord or NewWeatherRecord.
type Record struct {
	source           SourceKey
	timestamp        time.Time
	relativeHumidity float64
	temperature      float64
	absoluteHumidity float64
	precipitation    float64
}

// NewSensorRecord builds a sensor record. Temperature is in degrees Celsius
// and absolute humidity in g/m³.
func NewSensorRecord(port int, ts time.Time, rh, tempC, absHumidity float64) Record {
	return Record{
		source:           Sensor(port),
		timestamp:        ts,
		relativeHumidity: rh,
		temperature:      tempC,
		absoluteHumidity: absHumidity,
	}
}

// NewWeatherRecord builds a weather record. Temperature must already be
// converted to Celsius; precipitation is mm/3hr as reported.
func NewWeatherRecord(ts time.Time, rh, tempC, precipitation float64) Record {
	return Record{
		source:           Weather,
		timestamp:        ts,
		relativeHumidity: rh,
		temperature:      tempC,
		precipitation:    precipitation,
	}
}

func (r Record) Source() SourceKey         { return r.source }
func (r Record) Timestamp() time.Time      { return r.timestamp }
func (r Record) RelativeHumidity() float64 { return r.relativeHumidity }
func (r Record) Temperature() float64      { return r.temperature }

// AbsoluteHumidity is only present on sensor records.
func (r Record) AbsoluteHumidity() (float64, bool) {
	if r.source.kind != KindSensor {
		return 0, false
	}
	return r.absoluteHumidity, true
}

// Precipitation is only present on weather records.
func (r Record) Precipitation() (float64, bool) {
	if r.source.kind != KindWeather {
		return 0, false
	}
	return r.precipitation, true
}

// Value returns the named field, or false when the field is not part of the
// record's schema.
func (r Record) Value(f Field) (float64, bool) {
	switch f {
	case RelativeHumidity:
		return r.relativeHumidity, true
	case Temperature:
		return r.temperature, true
	case AbsoluteHumidity:
		return r.AbsoluteHumidity()
	case Precipitation:
		return r.Precipitation()
	default:
		return 0, false
	}
}

func (r Record) String() string {
	s := fmt.Sprintf("%s %s rh=%.2f%% t=%.2fC", r.source, r.timestamp.Format(time.DateTime), r.relativeHumidity, r.temperature)
	if v, ok := r.AbsoluteHumidity(); ok {
		s += fmt.Sprintf(" ah=%.3fg/m3", v)
	}
	if v, ok := r.Precipitation(); ok {
		s += fmt.Sprintf(" precip=%.1fmm", v)
	}
	return s
}
