package model

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus is the closed set of appointment states. upcoming is
// the only non-terminal state; complete, cancelled and noshow are
// terminal.
type AppointmentStatus string

const (
	AppointmentStatusUpcoming  AppointmentStatus = "upcoming"
	AppointmentStatusComplete  AppointmentStatus = "complete"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
	AppointmentStatusNoShow    AppointmentStatus = "noshow"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusUpcoming, AppointmentStatusComplete,
		AppointmentStatusCancelled, AppointmentStatusNoShow:
		return true
	}
	return false
}

// Terminal reports whether no transition leads out of s.
func (s AppointmentStatus) Terminal() bool {
	return s.Valid() && s != AppointmentStatusUpcoming
}

// CanTransitionTo reports whether s -> target is a legal transition.
// Only upcoming -> {complete, cancelled, noshow} are allowed.
func (s AppointmentStatus) CanTransitionTo(target AppointmentStatus) bool {
	return s == AppointmentStatusUpcoming && target.Terminal()
}

// CancelReason is the closed set of cancellation reasons. Reason
// "others" requires free-text notes.
type CancelReason string

const (
	CancelReasonRescheduling CancelReason = "rescheduling"
	CancelReasonWeather      CancelReason = "weather"
	CancelReasonWork         CancelReason = "work"
	CancelReasonPersonal     CancelReason = "personal"
	CancelReasonHealth       CancelReason = "health"
	CancelReasonOthers       CancelReason = "others"
)

func (r CancelReason) Valid() bool {
	switch r {
	case CancelReasonRescheduling, CancelReasonWeather, CancelReasonWork,
		CancelReasonPersonal, CancelReasonHealth, CancelReasonOthers:
		return true
	}
	return false
}

// RequiresNotes reports whether the reason must be accompanied by notes.
func (r CancelReason) RequiresNotes() bool {
	return r == CancelReasonOthers
}

type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Appointment is one booked slot. The (doctor_id, appointment_date,
// start_time) triple is unique at the storage layer; that constraint is
// the double-booking guard.
type Appointment struct {
	Base
	DoctorID  uuid.UUID         `db:"doctor_id" json:"doctor_id"`
	PatientID uuid.UUID         `db:"patient_id" json:"patient_id"`
	Date      Date              `db:"appointment_date" json:"appointment_date"`
	StartTime TimeOfDay         `db:"start_time" json:"start_time"`
	EndTime   TimeOfDay         `db:"end_time" json:"end_time"`
	Status    AppointmentStatus `db:"status" json:"status"`

	CancellationReason *CancelReason `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancellationNotes  *string       `db:"cancellation_notes" json:"cancellation_notes,omitempty"`
	CancelledAt        *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`

	PhoneNumber string `db:"phone_number" json:"phone_number"`

	// Proxy booking: the appointment is for another named person.
	IsProxy     bool    `db:"is_proxy" json:"is_proxy"`
	ProxyName   *string `db:"proxy_name" json:"proxy_name,omitempty"`
	ProxyAge    *int    `db:"proxy_age" json:"proxy_age,omitempty"`
	ProxyGender *Gender `db:"proxy_gender" json:"proxy_gender,omitempty"`

	ProblemDescription *string `db:"problem_description" json:"problem_description,omitempty"`
}

// Slot returns the appointment's interval within its date.
func (a *Appointment) Slot() TimeSlot {
	return TimeSlot{Start: a.StartTime, End: a.EndTime}
}

// IsUpcoming combines stored status with a clock read: true only while
// the appointment is still in status upcoming and its start instant lies
// in the future.
func (a *Appointment) IsUpcoming(now time.Time) bool {
	return a.Status == AppointmentStatusUpcoming && a.Date.At(a.StartTime, now.Location()).After(now)
}

// CreateAppointmentRequest books a slot. Times use "HH:MM", the date
// "YYYY-MM-DD". Phone numbers follow the national +992XXXXXXXXX format.
type CreateAppointmentRequest struct {
	DoctorID           uuid.UUID `json:"doctor_id" binding:"required"`
	PatientID          uuid.UUID `json:"patient_id" binding:"required"`
	Date               string    `json:"appointment_date" binding:"required"`
	StartTime          string    `json:"start_time" binding:"required"`
	EndTime            string    `json:"end_time" binding:"required"`
	PhoneNumber        string    `json:"phone_number" binding:"required,tjphone"`
	IsProxy            bool      `json:"is_proxy"`
	ProxyName          *string   `json:"proxy_name,omitempty"`
	ProxyAge           *int      `json:"proxy_age,omitempty" binding:"omitempty,gte=0,lte=120"`
	ProxyGender        *Gender   `json:"proxy_gender,omitempty"`
	ProblemDescription *string   `json:"problem_description,omitempty" binding:"omitempty,max=1000"`
}

// CancelAppointmentRequest carries the cancellation sub-state.
type CancelAppointmentRequest struct {
	Reason CancelReason `json:"reason" binding:"required"`
	Notes  *string      `json:"notes,omitempty" binding:"omitempty,max=500"`
}

// RescheduleAppointmentRequest moves an upcoming appointment to a new
// slot, subject to the same uniqueness guarantee as a fresh booking.
type RescheduleAppointmentRequest struct {
	Date      string `json:"appointment_date" binding:"required"`
	StartTime string `json:"start_time" binding:"required"`
	EndTime   string `json:"end_time" binding:"required"`
}

// AppointmentFilters narrows list queries.
type AppointmentFilters struct {
	DoctorID  uuid.UUID
	PatientID uuid.UUID
	Date      Date
	Status    AppointmentStatus
}
