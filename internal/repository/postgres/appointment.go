package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/tojmed/booking-api/internal/model"
	"github.com/tojmed/booking-api/internal/repository"
	"github.com/tojmed/booking-api/pkg/errors"
)

// Name of the partial unique index guarding the
// (doctor_id, appointment_date, start_time) triple. Cancelled rows are
// excluded so a cancelled slot can be rebooked.
const doctorSlotConstraint = "appointments_doctor_slot_key"

const appointmentColumns = `
	id, doctor_id, patient_id, appointment_date, start_time, end_time,
	status, cancellation_reason, cancellation_notes, cancelled_at,
	phone_number, is_proxy, proxy_name, proxy_age, proxy_gender,
	problem_description, created_at, updated_at
`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

// Create inserts the appointment and, when an event is given, its
// outbox row in the same transaction, so a committed booking always has
// its lifecycle event queued. The unique index makes concurrent inserts
// for the same slot race safely: the loser gets a Conflict.
func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error {
	query := `
		INSERT INTO appointments (
			id, doctor_id, patient_id, appointment_date, start_time, end_time,
			status, phone_number, is_proxy, proxy_name, proxy_age, proxy_gender,
			problem_description, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, query,
			appointment.ID,
			appointment.DoctorID,
			appointment.PatientID,
			appointment.Date,
			appointment.StartTime,
			appointment.EndTime,
			appointment.Status,
			appointment.PhoneNumber,
			appointment.IsProxy,
			appointment.ProxyName,
			appointment.ProxyAge,
			appointment.ProxyGender,
			appointment.ProblemDescription,
			appointment.CreatedAt,
			appointment.UpdatedAt,
		)
		if err != nil {
			return err
		}
		if event != nil {
			return insertOutboxEvent(ctx, tx, event)
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err, doctorSlotConstraint) {
			return errors.Conflict("time slot is already booked")
		}
		return fmt.Errorf("failed to create appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE id = $1`

	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("appointment")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

// Update applies a status transition. The upcoming filter makes the
// write conditional on the row still being mutable, so two racing
// transitions cannot both land: the loser matches zero rows.
func (r *appointmentRepository) Update(ctx context.Context, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET status = $1, cancellation_reason = $2, cancellation_notes = $3,
		    cancelled_at = $4, updated_at = $5
		WHERE id = $6 AND status = $7
	`
	result, err := r.db.ExecContext(ctx, query,
		appointment.Status,
		appointment.CancellationReason,
		appointment.CancellationNotes,
		appointment.CancelledAt,
		appointment.UpdatedAt,
		appointment.ID,
		model.AppointmentStatusUpcoming,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return r.mutationBlocked(ctx, appointment.ID)
	}
	return nil
}

// UpdateSlot moves an upcoming appointment to a new date/time. The same
// unique index re-checks the new triple; on conflict nothing is changed.
func (r *appointmentRepository) UpdateSlot(ctx context.Context, id uuid.UUID, date model.Date, start, end model.TimeOfDay, updatedAt time.Time) error {
	query := `
		UPDATE appointments
		SET appointment_date = $1, start_time = $2, end_time = $3, updated_at = $4
		WHERE id = $5 AND status = $6
	`
	result, err := r.db.ExecContext(ctx, query, date, start, end, updatedAt, id, model.AppointmentStatusUpcoming)
	if err != nil {
		if isUniqueViolation(err, doctorSlotConstraint) {
			return errors.Conflict("time slot is already booked")
		}
		return fmt.Errorf("failed to reschedule appointment: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return r.mutationBlocked(ctx, id)
	}
	return nil
}

// mutationBlocked explains a zero-row conditional update: either the
// appointment does not exist or it has already left the upcoming status.
func (r *appointmentRepository) mutationBlocked(ctx context.Context, id uuid.UUID) error {
	var status model.AppointmentStatus
	err := r.db.GetContext(ctx, &status, `SELECT status FROM appointments WHERE id = $1`, id)
	if err == sql.ErrNoRows {
		return errors.NotFound("appointment")
	}
	if err != nil {
		return fmt.Errorf("failed to check appointment status: %w", err)
	}
	return errors.State(fmt.Sprintf("cannot modify a %s appointment", status))
}

func (r *appointmentRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID, date model.Date, status model.AppointmentStatus) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE doctor_id = $1 AND appointment_date = $2
	`
	args := []interface{}{doctorID, date}

	if status != "" {
		query += " AND status = $3"
		args = append(args, status)
	}
	query += " ORDER BY start_time ASC"

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	query := `SELECT ` + appointmentColumns + `
		FROM appointments
		WHERE patient_id = $1
		ORDER BY appointment_date DESC, start_time DESC
	`
	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, query, patientID); err != nil {
		return nil, fmt.Errorf("failed to list patient appointments: %w", err)
	}
	return appointments, nil
}
