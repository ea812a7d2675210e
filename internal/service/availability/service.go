package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/tojmed/booking-api/internal/model"
	"github.com/tojmed/booking-api/internal/repository"
)

const (
	scheduleCacheTTL   = 30 * time.Second
	scheduleCacheSweep = 5 * time.Minute
)

// Service computes the bookable slots of a doctor for a date: the union
// of generated candidates across every workplace schedule, minus the
// intervals occupied by upcoming appointments.
//
// Reads are deliberately not linearizable with concurrent bookings; the
// unique index in the ledger is the authoritative check and a caller
// who loses the race gets a Conflict on create.
type Service struct {
	schedules    repository.ScheduleRepository
	appointments repository.AppointmentRepository
	cache        *gocache.Cache
}

func NewService(schedules repository.ScheduleRepository, appointments repository.AppointmentRepository) *Service {
	return &Service{
		schedules:    schedules,
		appointments: appointments,
		cache:        gocache.New(scheduleCacheTTL, scheduleCacheSweep),
	}
}

// AvailableSlots returns the free slots for the doctor on date,
// chronologically ordered. A date with no working hours yields an empty
// list, never an error.
func (s *Service) AvailableSlots(ctx context.Context, doctorID uuid.UUID, date model.Date) ([]model.TimeSlot, error) {
	schedules, err := s.doctorSchedules(ctx, doctorID)
	if err != nil {
		return nil, fmt.Errorf("failed to load schedules: %w", err)
	}

	groups := make([][]model.TimeSlot, 0, len(schedules))
	for _, schedule := range schedules {
		groups = append(groups, GenerateSlots(schedule, date))
	}
	candidates := mergeSlots(groups...)
	if len(candidates) == 0 {
		return nil, nil
	}

	// Only active future bookings block a slot; cancelled, complete and
	// noshow appointments free theirs immediately.
	upcoming, err := s.appointments.ListForDoctor(ctx, doctorID, date, model.AppointmentStatusUpcoming)
	if err != nil {
		return nil, fmt.Errorf("failed to load appointments: %w", err)
	}

	booked := make([]model.TimeSlot, 0, len(upcoming))
	for _, apt := range upcoming {
		booked = append(booked, apt.Slot())
	}

	return subtractBooked(candidates, booked), nil
}

// IsSlotAvailable reports whether the exact interval is currently
// offered for the doctor on date.
func (s *Service) IsSlotAvailable(ctx context.Context, doctorID uuid.UUID, date model.Date, slot model.TimeSlot) (bool, error) {
	free, err := s.AvailableSlots(ctx, doctorID, date)
	if err != nil {
		return false, err
	}
	for _, f := range free {
		if f == slot {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) doctorSchedules(ctx context.Context, doctorID uuid.UUID) ([]*model.WeeklySchedule, error) {
	key := doctorID.String()
	if cached, ok := s.cache.Get(key); ok {
		return cached.([]*model.WeeklySchedule), nil
	}

	schedules, err := s.schedules.ListForDoctor(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	s.cache.Set(key, schedules, gocache.DefaultExpiration)
	return schedules, nil
}

// InvalidateDoctor drops the cached schedules after a schedule write.
func (s *Service) InvalidateDoctor(doctorID uuid.UUID) {
	s.cache.Delete(doctorID.String())
}
