package availability

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tojmed/booking-api/internal/model"
	"github.com/tojmed/booking-api/pkg/errors"
)

type fakeScheduleRepo struct {
	schedules []*model.WeeklySchedule
	calls     int
}

func (f *fakeScheduleRepo) Upsert(ctx context.Context, s *model.WeeklySchedule) error { return nil }

func (f *fakeScheduleRepo) Get(ctx context.Context, doctorID, workplaceID uuid.UUID) (*model.WeeklySchedule, error) {
	return nil, errors.NotFound("schedule")
}

func (f *fakeScheduleRepo) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.WeeklySchedule, error) {
	f.calls++
	return f.schedules, nil
}

func (f *fakeScheduleRepo) Delete(ctx context.Context, doctorID, workplaceID uuid.UUID) error {
	return nil
}

type fakeAppointmentRepo struct {
	appointments []*model.Appointment
}

func (f *fakeAppointmentRepo) Create(ctx context.Context, apt *model.Appointment, event *model.OutboxEvent) error {
	return nil
}

func (f *fakeAppointmentRepo) Get(ctx context.Context, id uuid.UUID) (*model.Appointment, error) {
	return nil, errors.NotFound("appointment")
}

func (f *fakeAppointmentRepo) Update(ctx context.Context, apt *model.Appointment) error { return nil }

func (f *fakeAppointmentRepo) UpdateSlot(ctx context.Context, id uuid.UUID, date model.Date, start, end model.TimeOfDay, updatedAt time.Time) error {
	return nil
}

func (f *fakeAppointmentRepo) ListForDoctor(ctx context.Context, doctorID uuid.UUID, date model.Date, status model.AppointmentStatus) ([]*model.Appointment, error) {
	var out []*model.Appointment
	for _, apt := range f.appointments {
		if apt.DoctorID != doctorID || !apt.Date.Equal(date) {
			continue
		}
		if status != "" && apt.Status != status {
			continue
		}
		out = append(out, apt)
	}
	return out, nil
}

func (f *fakeAppointmentRepo) ListForPatient(ctx context.Context, patientID uuid.UUID) ([]*model.Appointment, error) {
	return nil, nil
}

func schedulesFor(doctorID uuid.UUID, start, end model.TimeOfDay, slotMinutes int) []*model.WeeklySchedule {
	s := mondaySchedule(start, end, slotMinutes)
	s.DoctorID = doctorID
	s.WorkplaceID = uuid.New()
	return []*model.WeeklySchedule{s}
}

func booking(doctorID uuid.UUID, date model.Date, start, end model.TimeOfDay, status model.AppointmentStatus) *model.Appointment {
	return &model.Appointment{
		Base:      model.Base{ID: uuid.New()},
		DoctorID:  doctorID,
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    status,
	}
}

func TestAvailableSlots(t *testing.T) {
	doctorID := uuid.New()
	svc := NewService(
		&fakeScheduleRepo{schedules: schedulesFor(doctorID, model.NewTimeOfDay(9, 0), model.NewTimeOfDay(11, 0), 30)},
		&fakeAppointmentRepo{},
	)

	slots, err := svc.AvailableSlots(context.Background(), doctorID, monday)
	require.NoError(t, err)
	assert.Len(t, slots, 4)
}

func TestAvailableSlotsExcludesBooked(t *testing.T) {
	doctorID := uuid.New()
	appointments := &fakeAppointmentRepo{appointments: []*model.Appointment{
		booking(doctorID, monday, model.NewTimeOfDay(9, 30), model.NewTimeOfDay(10, 0), model.AppointmentStatusUpcoming),
	}}
	svc := NewService(
		&fakeScheduleRepo{schedules: schedulesFor(doctorID, model.NewTimeOfDay(9, 0), model.NewTimeOfDay(11, 0), 30)},
		appointments,
	)

	slots, err := svc.AvailableSlots(context.Background(), doctorID, monday)
	require.NoError(t, err)

	assert.Equal(t, []model.TimeSlot{
		{Start: model.NewTimeOfDay(9, 0), End: model.NewTimeOfDay(9, 30)},
		{Start: model.NewTimeOfDay(10, 0), End: model.NewTimeOfDay(10, 30)},
		{Start: model.NewTimeOfDay(10, 30), End: model.NewTimeOfDay(11, 0)},
	}, slots)
}

func TestAvailableSlotsIgnoresTerminalBookings(t *testing.T) {
	doctorID := uuid.New()
	appointments := &fakeAppointmentRepo{appointments: []*model.Appointment{
		booking(doctorID, monday, model.NewTimeOfDay(9, 0), model.NewTimeOfDay(9, 30), model.AppointmentStatusCancelled),
		booking(doctorID, monday, model.NewTimeOfDay(9, 30), model.NewTimeOfDay(10, 0), model.AppointmentStatusNoShow),
		booking(doctorID, monday, model.NewTimeOfDay(10, 0), model.NewTimeOfDay(10, 30), model.AppointmentStatusComplete),
	}}
	svc := NewService(
		&fakeScheduleRepo{schedules: schedulesFor(doctorID, model.NewTimeOfDay(9, 0), model.NewTimeOfDay(11, 0), 30)},
		appointments,
	)

	slots, err := svc.AvailableSlots(context.Background(), doctorID, monday)
	require.NoError(t, err)
	assert.Len(t, slots, 4)
}

func TestAvailableSlotsMergesWorkplaces(t *testing.T) {
	doctorID := uuid.New()

	morning := mondaySchedule(model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0), 30)
	morning.DoctorID = doctorID
	afternoon := mondaySchedule(model.NewTimeOfDay(9, 30), model.NewTimeOfDay(11, 0), 30)
	afternoon.DoctorID = doctorID

	svc := NewService(
		&fakeScheduleRepo{schedules: []*model.WeeklySchedule{morning, afternoon}},
		&fakeAppointmentRepo{},
	)

	slots, err := svc.AvailableSlots(context.Background(), doctorID, monday)
	require.NoError(t, err)

	// 09:00, 09:30 from the first window; 10:00, 10:30 from the second;
	// the shared 09:30 candidate appears once.
	assert.Equal(t, []model.TimeSlot{
		{Start: model.NewTimeOfDay(9, 0), End: model.NewTimeOfDay(9, 30)},
		{Start: model.NewTimeOfDay(9, 30), End: model.NewTimeOfDay(10, 0)},
		{Start: model.NewTimeOfDay(10, 0), End: model.NewTimeOfDay(10, 30)},
		{Start: model.NewTimeOfDay(10, 30), End: model.NewTimeOfDay(11, 0)},
	}, slots)
}

func TestAvailableSlotsNoScheduleYieldsEmpty(t *testing.T) {
	svc := NewService(&fakeScheduleRepo{}, &fakeAppointmentRepo{})

	slots, err := svc.AvailableSlots(context.Background(), uuid.New(), monday)
	require.NoError(t, err)
	assert.Empty(t, slots)
}

func TestIsSlotAvailable(t *testing.T) {
	doctorID := uuid.New()
	svc := NewService(
		&fakeScheduleRepo{schedules: schedulesFor(doctorID, model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0), 30)},
		&fakeAppointmentRepo{},
	)

	ok, err := svc.IsSlotAvailable(context.Background(), doctorID, monday,
		model.TimeSlot{Start: model.NewTimeOfDay(9, 0), End: model.NewTimeOfDay(9, 30)})
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.IsSlotAvailable(context.Background(), doctorID, monday,
		model.TimeSlot{Start: model.NewTimeOfDay(12, 0), End: model.NewTimeOfDay(12, 30)})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestScheduleCacheAndInvalidation(t *testing.T) {
	doctorID := uuid.New()
	repo := &fakeScheduleRepo{schedules: schedulesFor(doctorID, model.NewTimeOfDay(9, 0), model.NewTimeOfDay(10, 0), 30)}
	svc := NewService(repo, &fakeAppointmentRepo{})

	_, err := svc.AvailableSlots(context.Background(), doctorID, monday)
	require.NoError(t, err)
	_, err = svc.AvailableSlots(context.Background(), doctorID, monday)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)

	svc.InvalidateDoctor(doctorID)
	_, err = svc.AvailableSlots(context.Background(), doctorID, monday)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.calls)
}
