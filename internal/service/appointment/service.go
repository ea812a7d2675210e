package appointment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tojmed/booking-api/internal/model"
	"github.com/tojmed/booking-api/internal/repository"
	"github.com/tojmed/booking-api/internal/service/audit"
	"github.com/tojmed/booking-api/internal/service/event"
	"github.com/tojmed/booking-api/pkg/clock"
	"github.com/tojmed/booking-api/pkg/errors"
)

// Service is the booking ledger: the only mutator of appointment status.
// Slot uniqueness is enforced by the storage layer, so when two bookings
// race for the same (doctor, date, start) triple, one succeeds and the
// other gets a Conflict.
type Service struct {
	repo    repository.AppointmentRepository
	events  event.Emitter
	auditor *audit.Service
	clock   clock.Clock
}

func NewService(repo repository.AppointmentRepository, events event.Emitter, auditor *audit.Service, clk clock.Clock) *Service {
	return &Service{
		repo:    repo,
		events:  events,
		auditor: auditor,
		clock:   clk,
	}
}

// Create books a slot. Validation failures are rejected before anything
// is persisted; a taken slot surfaces as a Conflict.
func (s *Service) Create(ctx context.Context, req *model.CreateAppointmentRequest) (*model.Appointment, error) {
	date, start, end, err := parseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if req.IsProxy && (req.ProxyName == nil || strings.TrimSpace(*req.ProxyName) == "") {
		return nil, errors.Validation("proxy_name", "proxy patient name is required when booking for another person")
	}
	if req.ProxyGender != nil && !req.ProxyGender.Valid() {
		return nil, errors.Validation("proxy_gender", fmt.Sprintf("unknown gender %q", *req.ProxyGender))
	}

	now := s.clock.Now()
	apt := &model.Appointment{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		DoctorID:           req.DoctorID,
		PatientID:          req.PatientID,
		Date:               date,
		StartTime:          start,
		EndTime:            end,
		Status:             model.AppointmentStatusUpcoming,
		PhoneNumber:        req.PhoneNumber,
		IsProxy:            req.IsProxy,
		ProxyName:          req.ProxyName,
		ProxyAge:           req.ProxyAge,
		ProxyGender:        req.ProxyGender,
		ProblemDescription: req.ProblemDescription,
	}

	// The created event rides the same transaction as the insert, so a
	// committed booking is never missing its notification.
	evt, evtErr := event.NewOutboxEvent(model.EventAppointmentCreated, apt)
	if evtErr != nil {
		s.auditor.Log(ctx, "event_failed", "appointment", apt.ID,
			zap.String("event_type", model.EventAppointmentCreated),
			zap.Error(evtErr))
	}
	if err := s.repo.Create(ctx, apt, evt); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, "create", "appointment", apt.ID,
		zap.String("doctor_id", apt.DoctorID.String()),
		zap.String("patient_id", apt.PatientID.String()),
		zap.String("date", apt.Date.String()),
		zap.String("start", apt.StartTime.String()))

	return apt, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.repo.Get(ctx, id)
}

// Cancel moves an upcoming appointment to cancelled. The freed slot
// becomes visible to availability immediately because the resolver
// filters on status.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID, req *model.CancelAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if apt.Status == model.AppointmentStatusCancelled {
		return nil, errors.State("appointment is already cancelled")
	}
	if !apt.Status.CanTransitionTo(model.AppointmentStatusCancelled) {
		return nil, errors.State(fmt.Sprintf("cannot cancel a %s appointment", apt.Status))
	}

	if !req.Reason.Valid() {
		return nil, errors.Validation("reason", fmt.Sprintf("unknown cancellation reason %q", req.Reason))
	}
	if req.Reason.RequiresNotes() && (req.Notes == nil || strings.TrimSpace(*req.Notes) == "") {
		return nil, errors.Validation("notes", "cancellation notes are required for reason others")
	}

	now := s.clock.Now()
	reason := req.Reason
	apt.Status = model.AppointmentStatusCancelled
	apt.CancellationReason = &reason
	apt.CancellationNotes = req.Notes
	apt.CancelledAt = &now
	apt.UpdatedAt = now

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, err
	}

	s.emit(ctx, model.EventAppointmentCancelled, apt)
	s.auditor.Log(ctx, "cancel", "appointment", apt.ID,
		zap.String("reason", string(req.Reason)))

	return apt, nil
}

// Complete marks a held appointment as complete. Legal only from
// upcoming.
func (s *Service) Complete(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusComplete)
}

// MarkNoShow records that the patient did not show up. Legal only from
// upcoming.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return s.transition(ctx, id, model.AppointmentStatusNoShow)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, target model.AppointmentStatus) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if !apt.Status.CanTransitionTo(target) {
		return nil, errors.State(fmt.Sprintf("cannot mark a %s appointment as %s", apt.Status, target))
	}

	apt.Status = target
	apt.UpdatedAt = s.clock.Now()

	if err := s.repo.Update(ctx, apt); err != nil {
		return nil, err
	}

	s.auditor.Log(ctx, string(target), "appointment", apt.ID)
	return apt, nil
}

// Reschedule moves an upcoming appointment to a new slot. The new
// triple is re-checked against the same uniqueness guarantee; on
// conflict the original booking is left untouched.
func (s *Service) Reschedule(ctx context.Context, id uuid.UUID, req *model.RescheduleAppointmentRequest) (*model.Appointment, error) {
	apt, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if apt.Status != model.AppointmentStatusUpcoming {
		return nil, errors.State(fmt.Sprintf("cannot reschedule a %s appointment", apt.Status))
	}

	date, start, end, err := parseSlot(req.Date, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	if err := s.repo.UpdateSlot(ctx, id, date, start, end, now); err != nil {
		return nil, err
	}

	apt.Date = date
	apt.StartTime = start
	apt.EndTime = end
	apt.UpdatedAt = now

	s.emit(ctx, model.EventAppointmentRescheduled, apt)
	s.auditor.Log(ctx, "reschedule", "appointment", apt.ID,
		zap.String("date", date.String()),
		zap.String("start", start.String()))

	return apt, nil
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID, date model.Date, status model.AppointmentStatus) ([]*model.Appointment, error) {
	if status != "" && !status.Valid() {
		return nil, errors.Validation("status", fmt.Sprintf("unknown status %q", status))
	}
	return s.repo.ListForDoctor(ctx, doctorID, date, status)
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	return s.repo.ListForPatient(ctx, patientID)
}

// emit records the lifecycle event; failures are audited, never
// propagated, so notification problems cannot roll back a booking.
func (s *Service) emit(ctx context.Context, eventType string, apt *model.Appointment) {
	if err := s.events.Emit(ctx, eventType, apt); err != nil {
		s.auditor.Log(ctx, "event_failed", "appointment", apt.ID,
			zap.String("event_type", eventType),
			zap.Error(err))
	}
}

func parseSlot(dateStr, startStr, endStr string) (model.Date, model.TimeOfDay, model.TimeOfDay, error) {
	date, err := model.ParseDate(dateStr)
	if err != nil {
		return model.Date{}, 0, 0, errors.Validation("appointment_date", err.Error())
	}
	start, err := model.ParseTimeOfDay(startStr)
	if err != nil {
		return model.Date{}, 0, 0, errors.Validation("start_time", err.Error())
	}
	end, err := model.ParseTimeOfDay(endStr)
	if err != nil {
		return model.Date{}, 0, 0, errors.Validation("end_time", err.Error())
	}
	if !start.Before(end) {
		return model.Date{}, 0, 0, errors.Validation("start_time", "start time must be before end time")
	}
	return date, start, end, nil
}
