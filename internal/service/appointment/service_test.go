package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tojmed/booking-api/internal/model"
	"github.com/tojmed/booking-api/internal/service/audit"
	"github.com/tojmed/booking-api/pkg/clock"
	"github.com/tojmed/booking-api/pkg/errors"
)

var fixedNow = time.Date(2026, time.February, 23, 12, 0, 0, 0, time.UTC)

// memoryRepo mimics the storage layer including the unique index on
// (doctor_id, appointment_date, start_time) over non-cancelled rows.
// Events passed to Create are recorded the way the real repository
// stores them alongside the insert.
type memoryRepo struct {
	byID   map[uuid.UUID]*model.Appointment
	events []string
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{byID: make(map[uuid.UUID]*model.Appointment)}
}

func (r *memoryRepo) slotTaken(apt *model.Appointment) bool {
	for _, other := range r.byID {
		if other.ID == apt.ID || other.Status == model.AppointmentStatusCancelled {
			continue
		}
		if other.DoctorID == apt.DoctorID && other.Date.Equal(apt.Date) && other.StartTime == apt.StartTime {
			return true
		}
	}
	return false
}

func (r *memoryRepo) Create(ctx context.Context, apt *model.Appointment, event *model.OutboxEvent) error {
	if r.slotTaken(apt) {
		return errors.Conflict("time slot is already booked")
	}
	cp := *apt
	r.byID[apt.ID] = &cp
	if event != nil {
		r.events = append(r.events, event.EventType)
	}
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	apt, ok := r.byID[id]
	if !ok {
		return nil, errors.NotFound("appointment")
	}
	cp := *apt
	return &cp, nil
}

func (r *memoryRepo) Update(ctx context.Context, apt *model.Appointment) error {
	if _, ok := r.byID[apt.ID]; !ok {
		return errors.NotFound("appointment")
	}
	cp := *apt
	r.byID[apt.ID] = &cp
	return nil
}

func (r *memoryRepo) UpdateSlot(ctx context.Context, id uuid.UUID, date model.Date, start, end model.TimeOfDay, updatedAt time.Time) error {
	apt, ok := r.byID[id]
	if !ok {
		return errors.NotFound("appointment")
	}
	moved := *apt
	moved.Date = date
	moved.StartTime = start
	moved.EndTime = end
	moved.UpdatedAt = updatedAt
	if r.slotTaken(&moved) {
		return errors.Conflict("time slot is already booked")
	}
	r.byID[id] = &moved
	return nil
}

func (r *memoryRepo) ListForDoctor(ctx context.Context, doctorID uuid.UUID, date model.Date, status model.AppointmentStatus) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.byID {
		if apt.DoctorID != doctorID || !apt.Date.Equal(date) {
			continue
		}
		if status != "" && apt.Status != status {
			continue
		}
		cp := *apt
		out = append(out, &cp)
	}
	return out, nil
}

func (r *memoryRepo) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range r.byID {
		if apt.PatientID == patientID {
			cp := *apt
			out = append(out, &cp)
		}
	}
	return out, nil
}

type fakeEmitter struct {
	events []string
	err    error
}

func (f *fakeEmitter) Emit(ctx context.Context, eventType string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, eventType)
	return nil
}

func newTestService() (*Service, *memoryRepo, *fakeEmitter) {
	repo := newMemoryRepo()
	emitter := &fakeEmitter{}
	svc := NewService(repo, emitter, audit.NewNop(), clock.Fixed(fixedNow))
	return svc, repo, emitter
}

func validRequest() *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		DoctorID:    uuid.New(),
		PatientID:   uuid.New(),
		Date:        "2026-03-02",
		StartTime:   "09:00",
		EndTime:     "09:30",
		PhoneNumber: "+992901234567",
	}
}

func TestCreate(t *testing.T) {
	svc, repo, _ := newTestService()

	apt, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusUpcoming, apt.Status)
	assert.Equal(t, model.NewTimeOfDay(9, 0), apt.StartTime)
	assert.Equal(t, model.NewTimeOfDay(9, 30), apt.EndTime)
	assert.Equal(t, fixedNow, apt.CreatedAt)
	// The created event is stored through the repository, alongside the
	// insert, rather than emitted after the fact.
	assert.Equal(t, []string{model.EventAppointmentCreated}, repo.events)
}

func TestCreateDoubleBookingConflict(t *testing.T) {
	svc, _, _ := newTestService()
	req := validRequest()

	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	second := *req
	second.PatientID = uuid.New()
	_, err = svc.Create(context.Background(), &second)
	assert.True(t, errors.IsConflict(err), "expected conflict, got %v", err)
}

func TestCreateSameSlotDifferentDoctors(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), validRequest())
	assert.NoError(t, err)
}

func TestCreateValidation(t *testing.T) {
	svc, _, _ := newTestService()

	tests := []struct {
		name   string
		mutate func(*model.CreateAppointmentRequest)
		field  string
	}{
		{"bad date", func(r *model.CreateAppointmentRequest) { r.Date = "02.03.2026" }, "appointment_date"},
		{"bad start", func(r *model.CreateAppointmentRequest) { r.StartTime = "9am" }, "start_time"},
		{"bad end", func(r *model.CreateAppointmentRequest) { r.EndTime = "midnight" }, "end_time"},
		{"start after end", func(r *model.CreateAppointmentRequest) { r.StartTime, r.EndTime = "10:00", "09:30" }, "start_time"},
		{"start equals end", func(r *model.CreateAppointmentRequest) { r.EndTime = r.StartTime }, "start_time"},
		{"proxy without name", func(r *model.CreateAppointmentRequest) { r.IsProxy = true }, "proxy_name"},
		{"proxy with blank name", func(r *model.CreateAppointmentRequest) {
			blank := "   "
			r.IsProxy = true
			r.ProxyName = &blank
		}, "proxy_name"},
		{"bad proxy gender", func(r *model.CreateAppointmentRequest) {
			g := model.Gender("X")
			r.ProxyGender = &g
		}, "proxy_gender"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)

			_, err := svc.Create(context.Background(), req)
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))

			var appErr *errors.AppError
			require.ErrorAs(t, err, &appErr)
			assert.Equal(t, tt.field, appErr.Field)
		})
	}
}

func TestCreateProxyBooking(t *testing.T) {
	svc, _, _ := newTestService()

	name := "Firdavs Rahimov"
	age := 8
	gender := model.GenderMale
	req := validRequest()
	req.IsProxy = true
	req.ProxyName = &name
	req.ProxyAge = &age
	req.ProxyGender = &gender

	apt, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, apt.IsProxy)
	assert.Equal(t, &name, apt.ProxyName)
}

func TestCancel(t *testing.T) {
	svc, repo, emitter := newTestService()
	apt, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), apt.ID, &model.CancelAppointmentRequest{
		Reason: model.CancelReasonWeather,
	})
	require.NoError(t, err)

	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancellationReason)
	assert.Equal(t, model.CancelReasonWeather, *cancelled.CancellationReason)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, fixedNow, *cancelled.CancelledAt)
	assert.Contains(t, emitter.events, model.EventAppointmentCancelled)

	stored, err := repo.Get(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, stored.Status)
}

func TestCancelFreesSlot(t *testing.T) {
	svc, _, _ := newTestService()
	req := validRequest()

	apt, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), apt.ID, &model.CancelAppointmentRequest{
		Reason: model.CancelReasonPersonal,
	})
	require.NoError(t, err)

	rebooked := *req
	rebooked.PatientID = uuid.New()
	_, err = svc.Create(context.Background(), &rebooked)
	assert.NoError(t, err)
}

func TestCancelAlreadyCancelled(t *testing.T) {
	svc, _, _ := newTestService()
	apt, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	req := &model.CancelAppointmentRequest{Reason: model.CancelReasonWork}
	_, err = svc.Cancel(context.Background(), apt.ID, req)
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), apt.ID, req)
	assert.True(t, errors.IsState(err), "expected state error, got %v", err)
}

func TestCancelTerminalStates(t *testing.T) {
	svc, _, _ := newTestService()
	req := &model.CancelAppointmentRequest{Reason: model.CancelReasonWork}

	apt, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), apt.ID)
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), apt.ID, req)
	assert.True(t, errors.IsState(err))

	apt2, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	_, err = svc.MarkNoShow(context.Background(), apt2.ID)
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), apt2.ID, req)
	assert.True(t, errors.IsState(err))
}

func TestCancelReasonValidation(t *testing.T) {
	svc, _, _ := newTestService()
	apt, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	_, err = svc.Cancel(context.Background(), apt.ID, &model.CancelAppointmentRequest{
		Reason: model.CancelReason("vacation"),
	})
	assert.True(t, errors.IsValidation(err))

	// Reason others requires notes.
	_, err = svc.Cancel(context.Background(), apt.ID, &model.CancelAppointmentRequest{
		Reason: model.CancelReasonOthers,
	})
	require.Error(t, err)
	var appErr *errors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "notes", appErr.Field)

	notes := "clinic flooded"
	cancelled, err := svc.Cancel(context.Background(), apt.ID, &model.CancelAppointmentRequest{
		Reason: model.CancelReasonOthers,
		Notes:  &notes,
	})
	require.NoError(t, err)
	assert.Equal(t, &notes, cancelled.CancellationNotes)
}

func TestCompleteAndNoShow(t *testing.T) {
	svc, _, _ := newTestService()

	apt, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	done, err := svc.Complete(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusComplete, done.Status)

	// Terminal states are immutable.
	_, err = svc.Complete(context.Background(), apt.ID)
	assert.True(t, errors.IsState(err))
	_, err = svc.MarkNoShow(context.Background(), apt.ID)
	assert.True(t, errors.IsState(err))

	apt2, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	missed, err := svc.MarkNoShow(context.Background(), apt2.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusNoShow, missed.Status)
}

func TestTransitionUnknownAppointment(t *testing.T) {
	svc, _, _ := newTestService()
	_, err := svc.Complete(context.Background(), uuid.New())
	assert.True(t, errors.IsNotFound(err))
}

func TestReschedule(t *testing.T) {
	svc, repo, emitter := newTestService()

	apt, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	moved, err := svc.Reschedule(context.Background(), apt.ID, &model.RescheduleAppointmentRequest{
		Date:      "2026-03-03",
		StartTime: "14:00",
		EndTime:   "14:30",
	})
	require.NoError(t, err)
	assert.Equal(t, "2026-03-03", moved.Date.String())
	assert.Equal(t, model.NewTimeOfDay(14, 0), moved.StartTime)
	assert.Contains(t, emitter.events, model.EventAppointmentRescheduled)

	stored, err := repo.Get(context.Background(), apt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NewTimeOfDay(14, 0), stored.StartTime)
	// The service clock, not wall time, stamps the persisted row.
	assert.Equal(t, fixedNow, stored.UpdatedAt)
}

func TestRescheduleConflictLeavesOriginal(t *testing.T) {
	svc, repo, _ := newTestService()
	doctorID := uuid.New()

	first := validRequest()
	first.DoctorID = doctorID
	_, err := svc.Create(context.Background(), first)
	require.NoError(t, err)

	second := validRequest()
	second.DoctorID = doctorID
	second.StartTime = "10:00"
	second.EndTime = "10:30"
	apt2, err := svc.Create(context.Background(), second)
	require.NoError(t, err)

	_, err = svc.Reschedule(context.Background(), apt2.ID, &model.RescheduleAppointmentRequest{
		Date:      "2026-03-02",
		StartTime: "09:00",
		EndTime:   "09:30",
	})
	assert.True(t, errors.IsConflict(err), "expected conflict, got %v", err)

	stored, err := repo.Get(context.Background(), apt2.ID)
	require.NoError(t, err)
	assert.Equal(t, model.NewTimeOfDay(10, 0), stored.StartTime)
}

func TestRescheduleNonUpcoming(t *testing.T) {
	svc, _, _ := newTestService()

	apt, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	_, err = svc.Complete(context.Background(), apt.ID)
	require.NoError(t, err)

	_, err = svc.Reschedule(context.Background(), apt.ID, &model.RescheduleAppointmentRequest{
		Date:      "2026-03-03",
		StartTime: "14:00",
		EndTime:   "14:30",
	})
	assert.True(t, errors.IsState(err))
}

func TestEmitFailureDoesNotBlockCancellation(t *testing.T) {
	repo := newMemoryRepo()
	emitter := &fakeEmitter{err: assert.AnError}
	svc := NewService(repo, emitter, audit.NewNop(), clock.Fixed(fixedNow))

	apt, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	cancelled, err := svc.Cancel(context.Background(), apt.ID, &model.CancelAppointmentRequest{
		Reason: model.CancelReasonWeather,
	})
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusCancelled, cancelled.Status)
}

func TestListForDoctorStatusValidation(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ListForDoctor(context.Background(), uuid.New(), model.NewDate(2026, time.March, 2), model.AppointmentStatus("bogus"))
	assert.True(t, errors.IsValidation(err))

	_, err = svc.ListForDoctor(context.Background(), uuid.New(), model.NewDate(2026, time.March, 2), "")
	assert.NoError(t, err)
}
