package units

import (
	"fmt"
	"time"
)

// LocalTimezone selects the process's local zone. Data files carry no zone
// information, so timestamps are interpreted in a configured location.
const LocalTimezone = "Local"

// IsTimezoneValid checks if the given timezone is valid by attempting to load it from the tz database
func IsTimezoneValid(tz string) bool {
	if tz == "" {
		return false
	}
	_, err := time.LoadLocation(tz)
	return err == nil
}

// LoadTimezone resolves a configured timezone name. An empty name means the
// local zone.
func LoadTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == LocalTimezone {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %s: %w", tz, err)
	}
	return loc, nil
}
