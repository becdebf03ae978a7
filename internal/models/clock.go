package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ClockTime is a minutes-since-midnight value parsed from an HH:MM string.
type ClockTime int

// ParseClock parses a 24-hour HH:MM time string.
func ParseClock(raw string) (ClockTime, error) {
	trimmed := strings.TrimSpace(raw)
	parts := strings.SplitN(trimmed, ":", 2)
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return 0, fmt.Errorf("malformed time %q, expected HH:MM", raw)
	}
	hours, err := strconv.Atoi(parts[0])
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("malformed time %q, expected HH:MM", raw)
	}
	minutes, err := strconv.Atoi(parts[1])
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("malformed time %q, expected HH:MM", raw)
	}
	return ClockTime(hours*60 + minutes), nil
}

// AddMinutes returns the clock time shifted forward.
func (t ClockTime) AddMinutes(minutes int) ClockTime {
	return t + ClockTime(minutes)
}

// String renders the canonical HH:MM form.
func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}
