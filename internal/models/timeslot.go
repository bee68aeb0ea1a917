package models

const (
	// DaysPerWeek is the number of teaching days (Monday..Friday).
	DaysPerWeek = 5
	// SlotsPerDay is the number of teaching periods per day.
	SlotsPerDay = 6
)

var dayNames = [DaysPerWeek]string{"Monday", "Tuesday", "Wednesday", "Thursday", "Friday"}

// Timeslot is a (day, slot) cell of the weekly grid.
type Timeslot struct {
	ID   int64 `db:"id" json:"id"`
	Day  int   `db:"day" json:"day" validate:"gte=0,lt=5"`
	Slot int   `db:"slot" json:"slot" validate:"gte=0,lt=6"`
}

// Before reports whether t precedes other in the canonical order (day, then slot).
func (t Timeslot) Before(other Timeslot) bool {
	if t.Day != other.Day {
		return t.Day < other.Day
	}
	if t.Slot != other.Slot {
		return t.Slot < other.Slot
	}
	return t.ID < other.ID
}

// DayName returns the English weekday name for a day index.
func DayName(day int) string {
	if day < 0 || day >= DaysPerWeek {
		return ""
	}
	return dayNames[day]
}
