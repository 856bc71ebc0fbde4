package utils

import (
	"fmt"
	"strconv"
	"time"
)

// DefaultRangeLookback is how far back a stats query reaches when the
// client sends no start time.
const DefaultRangeLookback = 7 * 24 * time.Hour

func IsValidInterval(interval string) bool {
	switch interval {
	case "Minute", "Hour", "Day", "Week", "Month", "Quarter", "Year":
		return true
	default:
		return false
	}
}

// ParseTimeRange parses optional RFC 3339 start and end values. A missing end
// means now; a missing start means DefaultRangeLookback before now.
func ParseTimeRange(startParam, endParam string, now time.Time) (start, end time.Time, err error) {
	now = now.UTC()
	end = now
	start = now.Add(-DefaultRangeLookback)

	if startParam != "" {
		if start, err = time.Parse(time.RFC3339, startParam); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'start' timestamp format, use RFC3339 (e.g., 2006-01-02T15:04:05Z)")
		}
	}
	if endParam != "" {
		if end, err = time.Parse(time.RFC3339, endParam); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'end' timestamp format, use RFC3339 (e.g., 2006-01-02T15:04:05Z)")
		}
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("'end' must not be before 'start'")
	}
	return start, end, nil
}

// ParseLimit parses a positive limit, using fallback when raw is empty and
// clamping to max when max is non-zero.
func ParseLimit(raw string, fallback, max uint64) (uint64, error) {
	limit := fallback
	if raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			return 0, fmt.Errorf("invalid 'limit' parameter, must be a positive integer")
		}
		limit = parsed
	}
	if max > 0 && limit > max {
		limit = max
	}
	return limit, nil
}
