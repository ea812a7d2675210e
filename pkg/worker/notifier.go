package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tojmed/booking-api/internal/model"
	"github.com/tojmed/booking-api/pkg/email"
	"github.com/tojmed/booking-api/pkg/logger"
	"github.com/tojmed/booking-api/pkg/messaging"
	"github.com/tojmed/booking-api/pkg/metrics"
)

// Notifier consumes lifecycle events from the broker and mails the
// clinic inbox about booking activity.
type Notifier struct {
	broker    messaging.Broker
	sender    email.Sender
	recipient string
	logger    *logger.Logger
	metrics   *metrics.Metrics
}

func NewNotifier(
	broker messaging.Broker,
	sender email.Sender,
	recipient string,
	logger *logger.Logger,
	metrics *metrics.Metrics,
) *Notifier {
	return &Notifier{
		broker:    broker,
		sender:    sender,
		recipient: recipient,
		logger:    logger,
		metrics:   metrics,
	}
}

func (n *Notifier) Start(ctx context.Context) error {
	messages, err := n.broker.Subscribe(ctx, EventsChannel)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", EventsChannel, err)
	}

	n.logger.Info("starting notifier")

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("shutting down notifier")
			return nil
		case raw, ok := <-messages:
			if !ok {
				return nil
			}
			if err := n.handle(raw); err != nil {
				n.logger.Error(err, "failed to handle event")
			}
		}
	}
}

type eventEnvelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func (n *Notifier) handle(raw []byte) error {
	var envelope eventEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("failed to decode event envelope: %w", err)
	}

	subject, body, ok := n.compose(envelope)
	if !ok {
		return nil
	}

	if err := n.sender.Send(n.recipient, subject, body); err != nil {
		n.metrics.NotificationsFailed.WithLabelValues(envelope.Type).Inc()
		return err
	}
	n.metrics.NotificationsSent.WithLabelValues(envelope.Type).Inc()

	return nil
}

func (n *Notifier) compose(envelope eventEnvelope) (subject, body string, ok bool) {
	var apt model.Appointment
	if err := json.Unmarshal(envelope.Payload, &apt); err != nil {
		n.logger.Error(err, "failed to decode appointment payload", "event_type", envelope.Type)
		return "", "", false
	}

	slot := fmt.Sprintf("%s %s-%s", apt.Date, apt.StartTime, apt.EndTime)

	switch envelope.Type {
	case model.EventAppointmentCreated:
		subject = "New appointment booked"
		body = fmt.Sprintf("Appointment %s booked with doctor %s for %s.\nContact: %s",
			apt.ID, apt.DoctorID, slot, apt.PhoneNumber)
	case model.EventAppointmentCancelled:
		reason := ""
		if apt.CancellationReason != nil {
			reason = string(*apt.CancellationReason)
		}
		subject = "Appointment cancelled"
		body = fmt.Sprintf("Appointment %s with doctor %s for %s was cancelled (reason: %s).",
			apt.ID, apt.DoctorID, slot, reason)
	case model.EventAppointmentRescheduled:
		subject = "Appointment rescheduled"
		body = fmt.Sprintf("Appointment %s with doctor %s moved to %s.",
			apt.ID, apt.DoctorID, slot)
	default:
		return "", "", false
	}

	return subject, body, true
}
