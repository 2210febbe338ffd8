package models

import (
	"encoding/json"
	"time"
)

const (
	NotificationBookingConfirmed = "booking.confirmed"
	NotificationBookingCancelled = "booking.cancelled"
	NotificationShiftAssigned    = "shift.assigned"
	NotificationInvoicePaid      = "invoice.paid"
)

const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

type OutboxStatus string

const (
	OutboxPending OutboxStatus = "pending"
	OutboxSent    OutboxStatus = "sent"
	OutboxFailed  OutboxStatus = "failed"
	OutboxDead    OutboxStatus = "dead"
)

// OutboxEvent is a notification waiting for (or done with) delivery.
type OutboxEvent struct {
	ID        string          `json:"id"`
	Kind      string          `json:"kind"`
	Channel   string          `json:"channel"`
	Recipient string          `json:"recipient"`
	Subject   string          `json:"subject,omitempty"`
	Payload   json.RawMessage `json:"payload"`
	Status    OutboxStatus    `json:"status"`
	Attempts  int             `json:"attempts"`
	LastError *string         `json:"last_error,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	SentAt    *time.Time      `json:"sent_at,omitempty"`
}
