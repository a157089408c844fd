// Package localtime converts between the stored local calendar model
// ("YYYY-MM-DD" dates, "HH:MM" clock times) and UTC instants, parameterized
// by a per-subscription UTC offset in minutes. The offset is captured from
// the client at subscribe time; no timezone database is consulted.
package localtime

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// MidnightUTC returns the UTC instant of 00:00 local time on the given
// local date for a subscriber at the given offset east of UTC.
func MidnightUTC(localDate string, offsetMinutes int) (time.Time, error) {
	d, err := time.Parse(dateLayout, localDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse local date %q: %w", localDate, err)
	}
	return d.Add(-time.Duration(offsetMinutes) * time.Minute), nil
}

// DateString returns the local calendar date containing the given instant
// for a subscriber at the given offset.
func DateString(at time.Time, offsetMinutes int) string {
	return at.Add(time.Duration(offsetMinutes) * time.Minute).UTC().Format(dateLayout)
}

// ParseClock parses an "HH:MM" local clock time.
func ParseClock(s string) (hour, minute int, err error) {
	var h, m int
	if _, err := fmt.Sscanf(s, "%d:%d", &h, &m); err != nil {
		return 0, 0, fmt.Errorf("parse clock time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, 0, fmt.Errorf("clock time %q out of range", s)
	}
	return h, m, nil
}
