// internal/models/shift.go
package models

import (
	"fmt"
	"time"
)

const (
	ShiftMorning   = "Manhã"
	ShiftAfternoon = "Tarde"
)

// Shifts lists the shifts in display order.
var Shifts = []string{ShiftMorning, ShiftAfternoon}

// ShiftWindow is the display window of a shift, as HH:MM strings.
type ShiftWindow struct {
	Start string
	End   string
}

var shiftWindows = map[string]ShiftWindow{
	ShiftMorning:   {Start: "08:00", End: "12:00"},
	ShiftAfternoon: {Start: "13:00", End: "18:00"},
}

// shiftCutoff splits the day: times before it are morning.
const shiftCutoff = "12:00"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

func ValidShift(s string) bool {
	_, ok := shiftWindows[s]
	return ok
}

// WindowOf returns the display window for shift.
func WindowOf(shift string) (ShiftWindow, bool) {
	w, ok := shiftWindows[shift]
	return w, ok
}

// ShiftOf returns the shift a HH:MM time falls in.
func ShiftOf(hhmm string) (string, error) {
	if _, err := time.Parse(TimeLayout, hhmm); err != nil {
		return "", fmt.Errorf("invalid time %q: %w", hhmm, err)
	}
	// HH:MM compares lexically
	if hhmm < shiftCutoff {
		return ShiftMorning, nil
	}
	return ShiftAfternoon, nil
}

// InShift reports whether the order's scheduled time falls in shift.
// Orders without a scheduled time belong to every shift.
func (o *ServiceOrder) InShift(shift string) bool {
	if o.ScheduledTime == "" {
		return true
	}
	s, err := ShiftOf(o.ScheduledTime)
	if err != nil {
		return false
	}
	return s == shift
}

// ValidDate reports whether s is a YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// ValidTime reports whether s is a HH:MM time.
func ValidTime(s string) bool {
	_, err := time.Parse(TimeLayout, s)
	return err == nil
}
