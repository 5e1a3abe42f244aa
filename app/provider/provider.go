package provider

import "context"

type ChargeInput struct {
	PaymentID   uint64
	PortfolioID uint64
	Username    string

	Amount   float64
	Currency string
}

type ChargeOutput struct {
	ChargeID    *string
	CheckoutURL string
}

// ChargeClient creates hosted charges with the external payment provider.
type ChargeClient interface {
	PaylinkID() string
	CreateCharge(ctx context.Context, input *ChargeInput) (*ChargeOutput, error)
}
