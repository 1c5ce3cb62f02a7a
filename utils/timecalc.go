package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// LocalTimeLayout is the provider's timezone-less timestamp format
const LocalTimeLayout = "2006-01-02T15:04:05"

// ErrNegativeLayover signals a connection that departs before the previous leg lands
var ErrNegativeLayover = errors.New("negative layover")

// ParseLocalTime parses a YYYY-MM-DDTHH:MM:SS timestamp without timezone
func ParseLocalTime(value string) (time.Time, error) {
	t, err := time.Parse(LocalTimeLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("parse local time %q: %w", value, err)
	}
	return t, nil
}

// LayoverSeconds returns nextDeparture - arrival in whole seconds (truncated).
// A negative gap is reported as ErrNegativeLayover alongside the raw value.
func LayoverSeconds(arrival, nextDeparture string) (int, error) {
	arr, err := ParseLocalTime(arrival)
	if err != nil {
		return 0, err
	}
	dep, err := ParseLocalTime(nextDeparture)
	if err != nil {
		return 0, err
	}
	secs := int(dep.Sub(arr) / time.Second)
	if secs < 0 {
		return secs, fmt.Errorf("%w: %s -> %s (%ds)", ErrNegativeLayover, arrival, nextDeparture, secs)
	}
	return secs, nil
}

// FormatDuration renders seconds as "{h}h {m}m" with no day rollover
func FormatDuration(seconds int) string {
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

// DatePart returns the YYYY-MM-DD prefix of a local timestamp, or "" when absent
func DatePart(timestamp string) string {
	date, _, found := strings.Cut(strings.TrimSpace(timestamp), "T")
	if !found || date == "" {
		return ""
	}
	return date
}
