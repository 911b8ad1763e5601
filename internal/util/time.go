package util

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

var durationSegment = regexp.MustCompile(`^(\d+)([hdwm])`)

// ParseLookback parses compound lookback strings such as "12h", "7d",
// "2w3d" or "1m" into a duration. Units: h=hour, d=day, w=week,
// m=month (30 days).
func ParseLookback(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}

	var total time.Duration
	rest := s
	for rest != "" {
		matches := durationSegment.FindStringSubmatch(rest)
		if matches == nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		n, err := strconv.Atoi(matches[1])
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		switch matches[2] {
		case "h":
			total += time.Duration(n) * time.Hour
		case "d":
			total += time.Duration(n) * 24 * time.Hour
		case "w":
			total += time.Duration(n) * 7 * 24 * time.Hour
		case "m":
			total += time.Duration(n) * 30 * 24 * time.Hour
		}
		rest = rest[len(matches[0]):]
	}
	return total, nil
}

// FormatTimestamp renders an epoch-seconds timestamp in local time.
func FormatTimestamp(ts int64) string {
	return time.Unix(ts, 0).Format("2006-01-02 15:04:05")
}
