package review

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tojmed/booking-api/internal/model"
	"github.com/tojmed/booking-api/internal/repository"
	"github.com/tojmed/booking-api/pkg/clock"
	"github.com/tojmed/booking-api/pkg/errors"
)

// Service attaches post-visit reviews to completed appointments.
type Service struct {
	reviews      repository.ReviewRepository
	appointments repository.AppointmentRepository
	clock        clock.Clock
}

func NewService(reviews repository.ReviewRepository, appointments repository.AppointmentRepository, clk clock.Clock) *Service {
	return &Service{
		reviews:      reviews,
		appointments: appointments,
		clock:        clk,
	}
}

// Create records a review. Only completed appointments can be reviewed,
// and only once (the second attempt is a Conflict).
func (s *Service) Create(ctx context.Context, req *model.CreateReviewRequest) (*model.Review, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, errors.Validation("rating", "rating must be between 1 and 5")
	}

	apt, err := s.appointments.Get(ctx, req.AppointmentID)
	if err != nil {
		return nil, err
	}
	if apt.Status != model.AppointmentStatusComplete {
		return nil, errors.State(fmt.Sprintf("cannot review a %s appointment", apt.Status))
	}

	now := s.clock.Now()
	review := &model.Review{
		Base: model.Base{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		AppointmentID: req.AppointmentID,
		Rating:        req.Rating,
		Comment:       req.Comment,
		IsPublished:   true,
	}

	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Review, error) {
	return s.reviews.GetByAppointment(ctx, appointmentID)
}

func (s *Service) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Review, error) {
	return s.reviews.ListForDoctor(ctx, doctorID)
}
