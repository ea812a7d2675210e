package model

import (
	"time"

	"github.com/google/uuid"
)

// Slot duration bounds in minutes.
const (
	MinSlotMinutes = 15
	MaxSlotMinutes = 360
)

// WeeklySchedule is the recurring working-hours template for one
// doctor-workplace pair. A nil start/end pair means the doctor does not
// work that weekday.
type WeeklySchedule struct {
	Base
	DoctorID    uuid.UUID `db:"doctor_id" json:"doctor_id"`
	WorkplaceID uuid.UUID `db:"workplace_id" json:"workplace_id"`
	SlotMinutes int       `db:"slot_minutes" json:"slot_minutes"`

	MondayStart    *TimeOfDay `db:"monday_start" json:"monday_start,omitempty"`
	MondayEnd      *TimeOfDay `db:"monday_end" json:"monday_end,omitempty"`
	TuesdayStart   *TimeOfDay `db:"tuesday_start" json:"tuesday_start,omitempty"`
	TuesdayEnd     *TimeOfDay `db:"tuesday_end" json:"tuesday_end,omitempty"`
	WednesdayStart *TimeOfDay `db:"wednesday_start" json:"wednesday_start,omitempty"`
	WednesdayEnd   *TimeOfDay `db:"wednesday_end" json:"wednesday_end,omitempty"`
	ThursdayStart  *TimeOfDay `db:"thursday_start" json:"thursday_start,omitempty"`
	ThursdayEnd    *TimeOfDay `db:"thursday_end" json:"thursday_end,omitempty"`
	FridayStart    *TimeOfDay `db:"friday_start" json:"friday_start,omitempty"`
	FridayEnd      *TimeOfDay `db:"friday_end" json:"friday_end,omitempty"`
	SaturdayStart  *TimeOfDay `db:"saturday_start" json:"saturday_start,omitempty"`
	SaturdayEnd    *TimeOfDay `db:"saturday_end" json:"saturday_end,omitempty"`
	SundayStart    *TimeOfDay `db:"sunday_start" json:"sunday_start,omitempty"`
	SundayEnd      *TimeOfDay `db:"sunday_end" json:"sunday_end,omitempty"`
}

// DayHours is the working window for a single weekday.
type DayHours struct {
	Start TimeOfDay
	End   TimeOfDay
}

// HoursFor returns the working window for the given weekday. The second
// return value is false when the doctor does not work that day.
func (s *WeeklySchedule) HoursFor(day time.Weekday) (DayHours, bool) {
	start, end := s.dayColumns(day)
	if start == nil || end == nil {
		return DayHours{}, false
	}
	return DayHours{Start: *start, End: *end}, true
}

// IsWorkingDay reports whether the doctor works on the given weekday.
func (s *WeeklySchedule) IsWorkingDay(day time.Weekday) bool {
	_, ok := s.HoursFor(day)
	return ok
}

func (s *WeeklySchedule) dayColumns(day time.Weekday) (*TimeOfDay, *TimeOfDay) {
	switch day {
	case time.Monday:
		return s.MondayStart, s.MondayEnd
	case time.Tuesday:
		return s.TuesdayStart, s.TuesdayEnd
	case time.Wednesday:
		return s.WednesdayStart, s.WednesdayEnd
	case time.Thursday:
		return s.ThursdayStart, s.ThursdayEnd
	case time.Friday:
		return s.FridayStart, s.FridayEnd
	case time.Saturday:
		return s.SaturdayStart, s.SaturdayEnd
	default:
		return s.SundayStart, s.SundayEnd
	}
}

// TimeSlot is a candidate or booked interval within a single date.
type TimeSlot struct {
	Start TimeOfDay `json:"start"`
	End   TimeOfDay `json:"end"`
}

// Overlaps reports whether two slots share any time. Touching endpoints
// do not overlap.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.Start < other.End && other.Start < s.End
}

// DayWindowRequest is the per-weekday payload for schedule writes.
type DayWindowRequest struct {
	Start string `json:"start" binding:"required"`
	End   string `json:"end" binding:"required"`
}

// UpsertScheduleRequest creates or replaces the weekly schedule of a
// doctor-workplace pair. Keys of Days are lowercase weekday names
// ("monday" ... "sunday"); omitted days are non-working.
type UpsertScheduleRequest struct {
	DoctorID    uuid.UUID                   `json:"doctor_id" binding:"required"`
	WorkplaceID uuid.UUID                   `json:"workplace_id" binding:"required"`
	SlotMinutes int                         `json:"slot_minutes" binding:"required"`
	Days        map[string]DayWindowRequest `json:"days"`
}
