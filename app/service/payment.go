package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tokenfolio/ms-go-portfolios/app/entity"
	"github.com/tokenfolio/ms-go-portfolios/app/provider"
	"github.com/tokenfolio/ms-go-portfolios/app/repository"
	"github.com/tokenfolio/ms-go-portfolios/app/types"
)

// InitiationResult carries everything the controller needs to answer a
// successful payment initiation.
type InitiationResult struct {
	Payment    *entity.Payment
	Portfolio  *entity.Portfolio
	PaymentURL string
}

// InitiatePayment creates the draft portfolio and its pending payment, then
// asks the provider for a hosted checkout URL. Local records are rolled back
// when the provider call fails so a retry with the same username succeeds.
func (s *PortfolioService) InitiatePayment(ctx context.Context, request *types.CreatePaymentRequest) (*InitiationResult, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	username, derived := resolveUsername(request.Portfolio.Username, request.Portfolio.TokenName)

	existing, err := s.portfolioRepo.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	currency := request.Currency
	if currency == "" {
		currency = s.paymentsCfg.DefaultCurrency
	}

	now := time.Now().UTC()
	portfolio := &entity.Portfolio{
		Username:        username,
		TokenName:       request.Portfolio.TokenName,
		Ticker:          request.Portfolio.Ticker,
		ContractAddress: request.Portfolio.ContractAddress,
		Slogan:          request.Portfolio.Slogan,
		Description:     request.Portfolio.Description,
		Template:        request.Portfolio.Template,
		LogoURL:         request.Portfolio.LogoURL,
		BannerURL:       request.Portfolio.BannerURL,
		TwitterURL:      request.Portfolio.TwitterURL,
		TelegramURL:     request.Portfolio.TelegramURL,
		WebsiteURL:      request.Portfolio.WebsiteURL,
		IsPublished:     false,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err = s.portfolioRepo.Create(ctx, portfolio); err != nil {
		if errors.Is(err, repository.ErrUsernameTaken) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	payment := &entity.Payment{
		PortfolioID:    portfolio.ID,
		Amount:         request.Amount,
		Currency:       currency,
		Status:         entity.PaymentStatusPending,
		HelioPaylinkID: s.charges.PaylinkID(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err = s.paymentRepo.Create(ctx, payment); err != nil {
		s.rollbackInitiation(ctx, portfolio.ID, 0)
		return nil, err
	}

	charge, err := s.charges.CreateCharge(ctx, &provider.ChargeInput{
		PaymentID:   payment.ID,
		PortfolioID: portfolio.ID,
		Username:    portfolio.Username,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
	})
	if err != nil {
		s.rollbackInitiation(ctx, portfolio.ID, payment.ID)
		s.logger.WithError(err).WithFields(logrus.Fields{
			"payment_id":   payment.ID,
			"portfolio_id": portfolio.ID,
		}).Error("charge creation failed, initiation rolled back")
		return nil, fmt.Errorf("%w: %s", ErrProviderFailure, err.Error())
	}

	s.recordEvent(ctx, &entity.PaymentEvent{
		PaymentID: &payment.ID,
		EventType: "payment_created",
		NewStatus: statusPtr(entity.PaymentStatusPending),
		Detail:    stringPtr(fmt.Sprintf("portfolio %d username %s derived=%t", portfolio.ID, portfolio.Username, derived)),
	})

	return &InitiationResult{
		Payment:    payment,
		Portfolio:  portfolio,
		PaymentURL: charge.CheckoutURL,
	}, nil
}

// StatusResult pairs a payment with its portfolio for status queries.
type StatusResult struct {
	Payment   *entity.Payment
	Portfolio *entity.Portfolio
}

func (s *PortfolioService) GetPaymentStatus(ctx context.Context, id uint64) (*StatusResult, error) {
	payment, err := s.paymentRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, ErrPaymentNotFound
	}

	portfolio, err := s.portfolioRepo.FindByID(ctx, payment.PortfolioID)
	if err != nil {
		return nil, err
	}

	return &StatusResult{Payment: payment, Portfolio: portfolio}, nil
}

// rollbackInitiation removes the records created before a failed provider
// call. Failures here are logged, not returned, because the caller already
// has a more useful error to surface.
func (s *PortfolioService) rollbackInitiation(ctx context.Context, portfolioID, paymentID uint64) {
	if paymentID != 0 {
		if err := s.paymentRepo.Delete(ctx, paymentID); err != nil {
			s.logger.WithError(err).WithField("payment_id", paymentID).Error("rollback: payment delete failed")
		}
	}
	if err := s.portfolioRepo.Delete(ctx, portfolioID); err != nil && !errors.Is(err, repository.ErrPortfolioNotFound) {
		s.logger.WithError(err).WithField("portfolio_id", portfolioID).Error("rollback: portfolio delete failed")
	}
}

// recordEvent appends to the payment audit trail. The trail is diagnostic,
// so a failed insert never fails the operation that produced it.
func (s *PortfolioService) recordEvent(ctx context.Context, event *entity.PaymentEvent) {
	if err := s.eventRepo.Create(ctx, event); err != nil {
		s.logger.WithError(err).WithField("event_type", event.EventType).Error("payment event insert failed")
	}
}

func statusPtr(status entity.PaymentStatus) *entity.PaymentStatus {
	return &status
}

func stringPtr(value string) *string {
	return &value
}
