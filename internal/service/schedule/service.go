package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tojmed/booking-api/internal/model"
	"github.com/tojmed/booking-api/internal/repository"
	"github.com/tojmed/booking-api/pkg/clock"
	"github.com/tojmed/booking-api/pkg/errors"
)

var weekdayNames = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// Service manages weekly working-hour templates. The booking flow only
// reads them; writes come from providers and administrators.
type Service struct {
	repo  repository.ScheduleRepository
	clock clock.Clock
}

func NewService(repo repository.ScheduleRepository, clk clock.Clock) *Service {
	return &Service{repo: repo, clock: clk}
}

// Upsert creates or replaces the schedule of a doctor-workplace pair.
func (s *Service) Upsert(ctx context.Context, req *model.UpsertScheduleRequest) (*model.WeeklySchedule, error) {
	if req.SlotMinutes < model.MinSlotMinutes || req.SlotMinutes > model.MaxSlotMinutes {
		return nil, errors.Validation("slot_minutes",
			fmt.Sprintf("slot duration must be between %d and %d minutes", model.MinSlotMinutes, model.MaxSlotMinutes))
	}

	now := s.clock.Now()
	schedule := &model.WeeklySchedule{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		DoctorID:    req.DoctorID,
		WorkplaceID: req.WorkplaceID,
		SlotMinutes: req.SlotMinutes,
	}

	for name, window := range req.Days {
		day, ok := weekdayNames[name]
		if !ok {
			return nil, errors.Validation("days", fmt.Sprintf("unknown weekday %q", name))
		}

		start, err := model.ParseTimeOfDay(window.Start)
		if err != nil {
			return nil, errors.Validation("days."+name+".start", err.Error())
		}
		end, err := model.ParseTimeOfDay(window.End)
		if err != nil {
			return nil, errors.Validation("days."+name+".end", err.Error())
		}
		if !start.Before(end) {
			return nil, errors.Validation("days."+name, "start time must be before end time")
		}

		setDay(schedule, day, start, end)
	}

	if err := s.repo.Upsert(ctx, schedule); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *Service) Get(ctx context.Context, doctorID, workplaceID uuid.UUID) (*model.WeeklySchedule, error) {
	return s.repo.Get(ctx, doctorID, workplaceID)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.WeeklySchedule, error) {
	return s.repo.ListForDoctor(ctx, doctorID)
}

// Delete removes the schedule when the workplace relationship is
// removed.
func (s *Service) Delete(ctx context.Context, doctorID, workplaceID uuid.UUID) error {
	return s.repo.Delete(ctx, doctorID, workplaceID)
}

func setDay(schedule *model.WeeklySchedule, day time.Weekday, start, end model.TimeOfDay) {
	switch day {
	case time.Monday:
		schedule.MondayStart, schedule.MondayEnd = &start, &end
	case time.Tuesday:
		schedule.TuesdayStart, schedule.TuesdayEnd = &start, &end
	case time.Wednesday:
		schedule.WednesdayStart, schedule.WednesdayEnd = &start, &end
	case time.Thursday:
		schedule.ThursdayStart, schedule.ThursdayEnd = &start, &end
	case time.Friday:
		schedule.FridayStart, schedule.FridayEnd = &start, &end
	case time.Saturday:
		schedule.SaturdayStart, schedule.SaturdayEnd = &start, &end
	case time.Sunday:
		schedule.SundayStart, schedule.SundayEnd = &start, &end
	}
}
