package model

import "github.com/google/uuid"

// Review is attached one-to-one to a completed appointment.
type Review struct {
	Base
	AppointmentID uuid.UUID `db:"appointment_id" json:"appointment_id"`
	Rating        int       `db:"rating" json:"rating"`
	Comment       *string   `db:"comment" json:"comment,omitempty"`
	IsPublished   bool      `db:"is_published" json:"is_published"`
}

type CreateReviewRequest struct {
	AppointmentID uuid.UUID `json:"appointment_id" binding:"required"`
	Rating        int       `json:"rating" binding:"required,gte=1,lte=5"`
	Comment       *string   `json:"comment,omitempty" binding:"omitempty,max=2000"`
}
