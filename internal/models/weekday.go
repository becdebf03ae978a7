package models

import (
	"fmt"
	"strings"
)

// Weekday is a single-letter day code following the registrar convention:
// M, T, W, R (Thursday), F, S (Saturday), U (Sunday).
type Weekday string

const (
	Monday    Weekday = "M"
	Tuesday   Weekday = "T"
	Wednesday Weekday = "W"
	Thursday  Weekday = "R"
	Friday    Weekday = "F"
	Saturday  Weekday = "S"
	Sunday    Weekday = "U"
)

var weekdayOrder = map[Weekday]int{
	Monday:    1,
	Tuesday:   2,
	Wednesday: 3,
	Thursday:  4,
	Friday:    5,
	Saturday:  6,
	Sunday:    7,
}

var weekdayNames = map[Weekday]string{
	Monday:    "Monday",
	Tuesday:   "Tuesday",
	Wednesday: "Wednesday",
	Thursday:  "Thursday",
	Friday:    "Friday",
	Saturday:  "Saturday",
	Sunday:    "Sunday",
}

// ParseWeekday validates a raw day code.
func ParseWeekday(raw string) (Weekday, error) {
	day := Weekday(strings.ToUpper(strings.TrimSpace(raw)))
	if _, ok := weekdayOrder[day]; !ok {
		return "", fmt.Errorf("unknown weekday code %q", raw)
	}
	return day, nil
}

// Order returns the 1-based position within the week, Monday first.
func (d Weekday) Order() int {
	return weekdayOrder[d]
}

// Name returns the full English day name.
func (d Weekday) Name() string {
	return weekdayNames[d]
}

// Weekdays lists all day codes in week order.
func Weekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}
