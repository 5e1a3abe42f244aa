package entity

import "time"

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Terminal reports whether no further status transition is permitted.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed
}

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed:
		return true
	default:
		return false
	}
}

type Payment struct {
	ID uint64

	PortfolioID uint64

	Amount   float64
	Currency string

	Status PaymentStatus

	HelioPaylinkID string
	HelioTxID      *string

	VerifiedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
