package record

import (
	"sort"
	"testing"
	"time"
)

func TestSourceKeyOrdering(t *testing.T) {
	keys := []SourceKey{Sensor(9), Sensor(1), Weather, Sensor(0)}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	want := []string{"Weather", "Sensor1", "Sensor2", "Sensor10"}
	for i, k := range keys {
		if k.String() != want[i] {
			t.Errorf("keys[%d] = %s, want %s", i, k, want[i])
		}
	}
}

func TestSourceKeyZeroValueIsWeather(t *testing.T) {
	var k SourceKey
	if k != Weather {
		t.Errorf("zero SourceKey = %v, want Weather", k)
	}
	if !k.IsWeather() {
		t.Error("zero SourceKey should report IsWeather")
	}
}

func TestRecordSchemaFields(t *testing.T) {
	ts := time.Date(2024, 6, 17, 10, 0, 0, 0, time.UTC)

	s := NewSensorRecord(0, ts, 50, 20, 8.65)
	if _, ok := s.Precipitation(); ok {
		t.Error("sensor record must not expose precipitation")
	}
	if v, ok := s.AbsoluteHumidity(); !ok || v != 8.65 {
		t.Errorf("AbsoluteHumidity() = %v, %v; want 8.65, true", v, ok)
	}
	if s.Source() != Sensor(0) {
		t.Errorf("Source() = %v, want Sensor1", s.Source())
	}

	w := NewWeatherRecord(ts, 55, 20, 0.3)
	if _, ok := w.AbsoluteHumidity(); ok {
		t.Error("weather record must not expose absolute humidity")
	}
	if v, ok := w.Value(Precipitation); !ok || v != 0.3 {
		t.Errorf("Value(Precipitation) = %v, %v; want 0.3, true", v, ok)
	}
	if v, ok := w.Value(Temperature); !ok || v != 20 {
		t.Errorf("Value(Temperature) = %v, %v; want 20, true", v, ok)
	}
}

func TestFieldLabels(t *testing.T) {
	for _, f := range []Field{RelativeHumidity, Temperature, AbsoluteHumidity, Precipitation} {
		if f.Label() == "unknown" || f.String() == "unknown" {
			t.Errorf("field %d has no label", int(f))
		}
	}
}
