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

// One review per appointment, enforced by a unique index.
const reviewAppointmentConstraint = "reviews_appointment_id_key"

type reviewRepository struct {
	BaseRepository
}

func NewReviewRepository(base BaseRepository) repository.ReviewRepository {
	return &reviewRepository{base}
}

func (r *reviewRepository) Create(ctx context.Context, review *model.Review) error {
	query := `
		INSERT INTO reviews (
			id, appointment_id, rating, comment, is_published, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.ExecContext(ctx, query,
		review.ID,
		review.AppointmentID,
		review.Rating,
		review.Comment,
		review.IsPublished,
		review.CreatedAt,
		review.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, reviewAppointmentConstraint) {
			return errors.Conflict("appointment already has a review")
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (r *reviewRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*model.Review, error) {
	query := `
		SELECT id, appointment_id, rating, comment, is_published, created_at, updated_at
		FROM reviews
		WHERE appointment_id = $1
	`
	var review model.Review
	err := r.db.GetContext(ctx, &review, query, appointmentID)
	if err == sql.ErrNoRows {
		return nil, errors.NotFound("review")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

func (r *reviewRepository) ListForDoctor(ctx context.Context, doctorID uuid.UUID) ([]*model.Review, error) {
	query := `
		SELECT r.id, r.appointment_id, r.rating, r.comment, r.is_published,
		       r.created_at, r.updated_at
		FROM reviews r
		JOIN appointments a ON a.id = r.appointment_id
		WHERE a.doctor_id = $1 AND r.is_published
		ORDER BY r.created_at DESC
	`
	var reviews []*model.Review
	if err := r.db.SelectContext(ctx, &reviews, query, doctorID); err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}
