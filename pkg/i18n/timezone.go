package i18n

import "time"

const DefaultTimezone = "America/Chicago"

// ValidTimezone reports whether name loads as an IANA zone.
func ValidTimezone(name string) bool {
	if name == "" {
		return false
	}
	_, err := time.LoadLocation(name)
	return err == nil
}

// LocalNow returns the current time in the named zone, falling back to
// UTC when the zone does not load.
func LocalNow(tzName string) time.Time {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return time.Now().UTC()
	}
	return time.Now().In(loc)
}
