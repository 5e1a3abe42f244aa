package entity

import "time"

type PaymentEvent struct {
	ID uint64

	PaymentID *uint64

	EventType string

	OldStatus *PaymentStatus
	NewStatus *PaymentStatus

	HelioTxID   *string
	Detail      *string
	PayloadJSON *string

	CreatedAt time.Time
}
