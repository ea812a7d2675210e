package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/tojmed/booking-api/internal/model"
)

// ScheduleRepository stores weekly working-hour templates, one per
// doctor-workplace pair.
type ScheduleRepository interface {
	Upsert(ctx context.Context, schedule *model.WeeklySchedule) error
	Get(ctx context.Context, doctorID, workplaceID uuid.UUID) (*model.WeeklySchedule, error)
	ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.WeeklySchedule, error)
	Delete(ctx context.Context, doctorID, workplaceID uuid.UUID) error
}

// AppointmentRepository is the authoritative appointment store. Create
// and UpdateSlot rely on the storage-level unique index on
// (doctor_id, appointment_date, start_time) and return a Conflict error
// on violation. Create also stores the lifecycle event (when given) in
// the same transaction, so a booking and its outbox row commit or roll
// back together. Update and UpdateSlot only touch rows still in the
// upcoming status; mutations against terminal rows return a State error.
type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment, event *model.OutboxEvent) error
	Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error)
	Update(ctx context.Context, appointment *model.Appointment) error
	UpdateSlot(ctx context.Context, id uuid.UUID, date model.Date, start, end model.TimeOfDay, updatedAt time.Time) error
	ListForDoctor(ctx context.Context, doctorID uuid.UUID, date model.Date, status model.AppointmentStatus) ([]*model.Appointment, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error)
}

// ReviewRepository stores post-visit reviews, one per completed
// appointment.
type ReviewRepository interface {
	Create(ctx context.Context, review *model.Review) error
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Review, error)
	ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Review, error)
}

// OutboxRepository stores lifecycle events pending publication.
// GetPendingEvents also returns failed events whose retry_at has
// elapsed, so a broker outage never strands an event permanently.
type OutboxRepository interface {
	Create(ctx context.Context, event *model.OutboxEvent) error
	GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string, retryAt *time.Time) error
	DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
}
