package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/tojmed/booking-api/internal/model"
	"github.com/tojmed/booking-api/internal/repository"
	"github.com/tojmed/booking-api/pkg/errors"
)

const scheduleColumns = `
	id, doctor_id, workplace_id, slot_minutes,
	monday_start, monday_end, tuesday_start, tuesday_end,
	wednesday_start, wednesday_end, thursday_start, thursday_end,
	friday_start, friday_end, saturday_start, saturday_end,
	sunday_start, sunday_end, created_at, updated_at
`

type scheduleRepository struct {
	BaseRepository
}

func NewScheduleRepository(base BaseRepository) repository.ScheduleRepository {
	return &scheduleRepository{base}
}

// Upsert replaces the schedule for the (doctor, workplace) pair. A pair
// has at most one schedule, enforced by a unique index.
func (r *scheduleRepository) Upsert(ctx context.Context, schedule *model.WeeklySchedule) error {
	query := `
		INSERT INTO weekly_schedules (
			id, doctor_id, workplace_id, slot_minutes,
			monday_start, monday_end, tuesday_start, tuesday_end,
			wednesday_start, wednesday_end, thursday_start, thursday_end,
			friday_start, friday_end, saturday_start, saturday_end,
			sunday_start, sunday_end, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		)
		ON CONFLICT (doctor_id, workplace_id) DO UPDATE SET
			slot_minutes = EXCLUDED.slot_minutes,
			monday_start = EXCLUDED.monday_start, monday_end = EXCLUDED.monday_end,
			tuesday_start = EXCLUDED.tuesday_start, tuesday_end = EXCLUDED.tuesday_end,
			wednesday_start = EXCLUDED.wednesday_start, wednesday_end = EXCLUDED.wednesday_end,
			thursday_start = EXCLUDED.thursday_start, thursday_end = EXCLUDED.thursday_end,
			friday_start = EXCLUDED.friday_start, friday_end = EXCLUDED.friday_end,
			saturday_start = EXCLUDED.saturday_start, saturday_end = EXCLUDED.saturday_end,
			sunday_start = EXCLUDED.sunday_start, sunday_end = EXCLUDED.sunday_end,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, query,
		schedule.ID,
		schedule.DoctorID,
		schedule.WorkplaceID,
		schedule.SlotMinutes,
		schedule.MondayStart, schedule.MondayEnd,
		schedule.TuesdayStart, schedule.TuesdayEnd,
		schedule.WednesdayStart, schedule.WednesdayEnd,
		schedule.ThursdayStart, schedule.ThursdayEnd,
		schedule.FridayStart, schedule.FridayEnd,
		schedule.SaturdayStart, schedule.SaturdayEnd,
		schedule.SundayStart, schedule.SundayEnd,
		schedule.CreatedAt,
		schedule.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, doctorID, workplaceID uuid.UUID) (*model.WeeklySchedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM weekly_schedules
		WHERE doctor_id = $1 AND workplace_id = $2
	`
	var schedule model.WeeklySchedule
	err := r.db.GetContext(ctx, &schedule, query, doctorID, workplaceID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("schedule")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &schedule, nil
}

func (r *scheduleRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.WeeklySchedule, error) {
	query := `SELECT ` + scheduleColumns + `
		FROM weekly_schedules
		WHERE doctor_id = $1
		ORDER BY created_at ASC
	`
	var schedules []*model.WeeklySchedule
	if err := r.db.SelectContext(ctx, &schedules, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

func (r *scheduleRepository) Delete(ctx context.Context, doctorID, workplaceID uuid.UUID) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM weekly_schedules WHERE doctor_id = $1 AND workplace_id = $2`,
		doctorID, workplaceID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return errors.NotFound("schedule")
	}
	return nil
}
