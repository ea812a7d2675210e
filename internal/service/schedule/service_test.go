package schedule

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tojmed/booking-api/internal/model"
	"github.com/tojmed/booking-api/pkg/clock"
	"github.com/tojmed/booking-api/pkg/errors"
)

type scheduleKey struct {
	doctorID    uuid.UUID
	workplaceID uuid.UUID
}

type memoryRepo struct {
	schedules map[scheduleKey]*model.WeeklySchedule
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{schedules: make(map[scheduleKey]*model.WeeklySchedule)}
}

func (r *memoryRepo) Upsert(ctx context.Context, s *model.WeeklySchedule) error {
	cp := *s
	r.schedules[scheduleKey{s.DoctorID, s.WorkplaceID}] = &cp
	return nil
}

func (r *memoryRepo) Get(ctx context.Context, doctorID, workplaceID uuid.UUID) (*model.WeeklySchedule, error) {
	s, ok := r.schedules[scheduleKey{doctorID, workplaceID}]
	if !ok {
		return nil, errors.NotFound("schedule")
	}
	cp := *s
	return &cp, nil
}

func (r *memoryRepo) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.WeeklySchedule, error) {
	var out []*model.WeeklySchedule
	for key, s := range r.schedules {
		if key.doctorID == doctorID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memoryRepo) Delete(ctx context.Context, doctorID, workplaceID uuid.UUID) error {
	key := scheduleKey{doctorID, workplaceID}
	if _, ok := r.schedules[key]; !ok {
		return errors.NotFound("schedule")
	}
	delete(r.schedules, key)
	return nil
}

var fixedNow = time.Date(2026, time.February, 23, 12, 0, 0, 0, time.UTC)

func newTestService() (*Service, *memoryRepo) {
	repo := newMemoryRepo()
	return NewService(repo, clock.Fixed(fixedNow)), repo
}

func validUpsert() *model.UpsertScheduleRequest {
	return &model.UpsertScheduleRequest{
		DoctorID:    uuid.New(),
		WorkplaceID: uuid.New(),
		SlotMinutes: 30,
		Days: map[string]model.DayWindowRequest{
			"monday":    {Start: "09:00", End: "17:00"},
			"wednesday": {Start: "13:00", End: "18:00"},
		},
	}
}

func TestUpsert(t *testing.T) {
	svc, repo := newTestService()
	req := validUpsert()

	schedule, err := svc.Upsert(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 30, schedule.SlotMinutes)
	assert.True(t, schedule.IsWorkingDay(time.Monday))
	assert.True(t, schedule.IsWorkingDay(time.Wednesday))
	assert.False(t, schedule.IsWorkingDay(time.Tuesday))
	assert.False(t, schedule.IsWorkingDay(time.Sunday))

	hours, ok := schedule.HoursFor(time.Monday)
	require.True(t, ok)
	assert.Equal(t, model.NewTimeOfDay(9, 0), hours.Start)
	assert.Equal(t, model.NewTimeOfDay(17, 0), hours.End)

	stored, err := repo.Get(context.Background(), req.DoctorID, req.WorkplaceID)
	require.NoError(t, err)
	assert.Equal(t, schedule.SlotMinutes, stored.SlotMinutes)
}

func TestUpsertReplacesExisting(t *testing.T) {
	svc, _ := newTestService()
	req := validUpsert()

	_, err := svc.Upsert(context.Background(), req)
	require.NoError(t, err)

	// A second write drops Wednesday entirely.
	req.Days = map[string]model.DayWindowRequest{
		"monday": {Start: "10:00", End: "14:00"},
	}
	replaced, err := svc.Upsert(context.Background(), req)
	require.NoError(t, err)

	assert.False(t, replaced.IsWorkingDay(time.Wednesday))
	hours, _ := replaced.HoursFor(time.Monday)
	assert.Equal(t, model.NewTimeOfDay(10, 0), hours.Start)
}

func TestUpsertSlotMinutesBounds(t *testing.T) {
	svc, _ := newTestService()

	for _, minutes := range []int{0, 14, 361, -30} {
		req := validUpsert()
		req.SlotMinutes = minutes
		_, err := svc.Upsert(context.Background(), req)
		assert.True(t, errors.IsValidation(err), "slot_minutes=%d", minutes)
	}

	for _, minutes := range []int{15, 30, 360} {
		req := validUpsert()
		req.SlotMinutes = minutes
		_, err := svc.Upsert(context.Background(), req)
		assert.NoError(t, err, "slot_minutes=%d", minutes)
	}
}

func TestUpsertDayValidation(t *testing.T) {
	svc, _ := newTestService()

	req := validUpsert()
	req.Days = map[string]model.DayWindowRequest{"caturday": {Start: "09:00", End: "17:00"}}
	_, err := svc.Upsert(context.Background(), req)
	assert.True(t, errors.IsValidation(err))

	req = validUpsert()
	req.Days = map[string]model.DayWindowRequest{"monday": {Start: "17:00", End: "09:00"}}
	_, err = svc.Upsert(context.Background(), req)
	assert.True(t, errors.IsValidation(err))

	req = validUpsert()
	req.Days = map[string]model.DayWindowRequest{"monday": {Start: "morning", End: "17:00"}}
	_, err = svc.Upsert(context.Background(), req)
	assert.True(t, errors.IsValidation(err))
}

func TestDelete(t *testing.T) {
	svc, _ := newTestService()
	req := validUpsert()

	_, err := svc.Upsert(context.Background(), req)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), req.DoctorID, req.WorkplaceID))

	_, err = svc.Get(context.Background(), req.DoctorID, req.WorkplaceID)
	assert.True(t, errors.IsNotFound(err))
}

func TestListForDoctor(t *testing.T) {
	svc, _ := newTestService()

	doctorID := uuid.New()
	for i := 0; i < 2; i++ {
		req := validUpsert()
		req.DoctorID = doctorID
		_, err := svc.Upsert(context.Background(), req)
		require.NoError(t, err)
	}

	schedules, err := svc.ListForDoctor(context.Background(), doctorID)
	require.NoError(t, err)
	assert.Len(t, schedules, 2)
}
