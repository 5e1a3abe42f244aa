package service

import "errors"

var (
	ErrInvalidRequest        = errors.New("invalid request")
	ErrUsernameTaken         = errors.New("username already taken")
	ErrPaymentNotFound       = errors.New("payment not found")
	ErrPortfolioNotFound     = errors.New("portfolio not found")
	ErrProviderFailure       = errors.New("payment provider request failed")
	ErrWebhookNotConfigured  = errors.New("webhook secret is not configured")
	ErrWebhookUnauthorized   = errors.New("webhook authorization failed")
	ErrWebhookPayloadInvalid = errors.New("webhook payload is not supported")
)
