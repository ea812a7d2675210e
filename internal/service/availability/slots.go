package availability

import (
	"sort"

	"github.com/tojmed/booking-api/internal/model"
)

// GenerateSlots expands a weekly schedule into the candidate slots for
// one calendar date. The working window [start, end) is sliced into
// consecutive whole slots of the schedule's duration; a trailing partial
// slot is discarded. The result is chronological and deterministic. A
// non-working weekday yields nil.
func GenerateSlots(schedule *model.WeeklySchedule, date model.Date) []model.TimeSlot {
	hours, ok := schedule.HoursFor(date.Weekday())
	if !ok {
		return nil
	}

	var slots []model.TimeSlot
	for cur := hours.Start; cur.Add(schedule.SlotMinutes) <= hours.End; cur = cur.Add(schedule.SlotMinutes) {
		slots = append(slots, model.TimeSlot{Start: cur, End: cur.Add(schedule.SlotMinutes)})
	}
	return slots
}

// mergeSlots unions candidate slots from multiple workplaces into one
// chronological, duplicate-free sequence.
func mergeSlots(groups ...[]model.TimeSlot) []model.TimeSlot {
	seen := make(map[model.TimeSlot]struct{})
	var merged []model.TimeSlot
	for _, group := range groups {
		for _, slot := range group {
			if _, ok := seen[slot]; ok {
				continue
			}
			seen[slot] = struct{}{}
			merged = append(merged, slot)
		}
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Start != merged[j].Start {
			return merged[i].Start < merged[j].Start
		}
		return merged[i].End < merged[j].End
	})
	return merged
}

// subtractBooked removes every candidate that overlaps a booked
// interval. Overlap, not exact equality, so bookings made under an
// earlier slot duration still suppress the candidates they cover.
func subtractBooked(slots []model.TimeSlot, booked []model.TimeSlot) []model.TimeSlot {
	if len(booked) == 0 {
		return slots
	}

	var free []model.TimeSlot
	for _, slot := range slots {
		taken := false
		for _, b := range booked {
			if slot.Overlaps(b) {
				taken = true
				break
			}
		}
		if !taken {
			free = append(free, slot)
		}
	}
	return free
}
