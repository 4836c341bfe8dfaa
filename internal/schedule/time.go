package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ParseTimeToSeconds converts a GTFS HH:MM:SS time into seconds since
// midnight. Hours may exceed 23 for trips that run past midnight, so the
// result may exceed 86400.
func ParseTimeToSeconds(s string) (int, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("invalid time %q", s)
	}

	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 {
		return 0, fmt.Errorf("invalid hour in %q", s)
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid minute in %q", s)
	}
	sec, err := strconv.Atoi(parts[2])
	if err != nil || sec < 0 || sec > 59 {
		return 0, fmt.Errorf("invalid second in %q", s)
	}

	return h*3600 + m*60 + sec, nil
}

// FormatSeconds renders seconds-of-day as HH:MM:SS, wrapping at 24 hours
func FormatSeconds(sec int) string {
	sec = ((sec % 86400) + 86400) % 86400
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

// SecondsOfDay returns the seconds elapsed since midnight of t, in t's location
func SecondsOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}
