package record

// Field names a measured or derived quantity.
type Field int

const (
	RelativeHumidity Field = iota
	Temperature
	AbsoluteHumidity
	Precipitation
)

// Label is the axis/table label for the field, including its unit.
func (f Field) Label() string {
	switch f {
	case RelativeHumidity:
		return "Relative humidity (%)"
	case Temperature:
		return "Temperature (C)"
	case AbsoluteHumidity:
		return "Absolute humidity (g/m³)"
	case Precipitation:
		return "Precipitation (mm/3hr)"
	default:
		return "unknown"
	}
}

func (f Field) String() string {
	switch f {
	case RelativeHumidity:
		return "relative_humidity"
	case Temperature:
		return "temperature"
	case AbsoluteHumidity:
		return "absolute_humidity"
	case Precipitation:
		return "precipitation"
	default:
		return "unknown"
	}
}
