package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tokenfolio/ms-go-portfolios/app/entity"
	"github.com/tokenfolio/ms-go-portfolios/app/provider"
	"github.com/tokenfolio/ms-go-portfolios/app/types"
)

// WebhookResult reports what a delivery did. Every accepted delivery is
// acknowledged with 200 so the provider stops retrying; Published is true
// only on the delivery that actually flipped the portfolio live.
type WebhookResult struct {
	TransactionID string
	Status        entity.PaymentStatus
	Published     bool
}

// HandleHelioWebhook authenticates, parses and reconciles one webhook
// delivery. The state transition is a conditional write keyed on the pending
// status, so concurrent redeliveries race safely: exactly one wins, the rest
// take the replay path.
func (s *PortfolioService) HandleHelioWebhook(ctx context.Context, request *types.HelioWebhookRequest) (*WebhookResult, error) {
	if s.webhookSecret == "" {
		return nil, ErrWebhookNotConfigured
	}
	if subtle.ConstantTimeCompare([]byte(request.Token), []byte(s.webhookSecret)) != 1 {
		return nil, ErrWebhookUnauthorized
	}

	event, err := provider.ParseWebhookEvent(request.Payload)
	if err != nil {
		if errors.Is(err, provider.ErrUnsupportedPayload) {
			return nil, ErrWebhookPayloadInvalid
		}
		return nil, err
	}

	status := provider.MapTransactionStatus(event.RawStatus)
	logger := s.logger.WithFields(logrus.Fields{
		"tx_id":      event.TransactionID,
		"paylink_id": event.PaylinkID,
		"raw_status": event.RawStatus,
		"status":     status,
	})

	payment, err := s.resolveWebhookPayment(ctx, event)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		logger.Warn("webhook did not match any payment, acknowledging")
		s.recordEvent(ctx, &entity.PaymentEvent{
			EventType:   "webhook_unmatched",
			HelioTxID:   nullableString(event.TransactionID),
			Detail:      stringPtr(fmt.Sprintf("paylink %s status %s", event.PaylinkID, event.RawStatus)),
			PayloadJSON: nullableString(string(request.Payload)),
		})
		return &WebhookResult{TransactionID: event.TransactionID, Status: status}, nil
	}
	logger = logger.WithField("payment_id", payment.ID)

	if !status.Terminal() {
		if event.TransactionID != "" {
			attached, err := s.paymentRepo.AttachTransactionID(ctx, payment.ID, entity.PaymentStatusPending, event.TransactionID, time.Now().UTC())
			if err != nil {
				return nil, err
			}
			if attached {
				logger.Info("pending webhook attached transaction id")
			}
		}
		logger.Info("non-terminal webhook, payment stays pending")
		s.recordEvent(ctx, &entity.PaymentEvent{
			PaymentID: &payment.ID,
			EventType: "webhook_pending",
			OldStatus: statusPtr(payment.Status),
			NewStatus: statusPtr(status),
			HelioTxID: nullableString(event.TransactionID),
		})
		return &WebhookResult{TransactionID: event.TransactionID, Status: status}, nil
	}

	now := time.Now().UTC()
	var verifiedAt *time.Time
	if status == entity.PaymentStatusCompleted {
		verifiedAt = &now
	}

	transitioned, err := s.paymentRepo.MarkTerminal(ctx, payment.ID, status, nullableString(event.TransactionID), verifiedAt, now)
	if err != nil {
		return nil, err
	}

	if !transitioned {
		return s.handleWebhookReplay(ctx, logger, payment.ID, event, status)
	}

	s.recordEvent(ctx, &entity.PaymentEvent{
		PaymentID:   &payment.ID,
		EventType:   "status_changed",
		OldStatus:   statusPtr(entity.PaymentStatusPending),
		NewStatus:   statusPtr(status),
		HelioTxID:   nullableString(event.TransactionID),
		PayloadJSON: nullableString(string(request.Payload)),
	})

	published := false
	if status == entity.PaymentStatusCompleted {
		published = s.publishPortfolio(ctx, logger, payment, event, now)
	} else {
		logger.Info("payment marked failed")
	}

	return &WebhookResult{
		TransactionID: event.TransactionID,
		Status:        status,
		Published:     published,
	}, nil
}

// resolveWebhookPayment locates the payment a delivery refers to. The
// metadata payment id is authoritative; the latest pending payment on the
// paylink is the fallback for deliveries whose metadata got lost in transit.
func (s *PortfolioService) resolveWebhookPayment(ctx context.Context, event *provider.WebhookEvent) (*entity.Payment, error) {
	if event.Meta.PaymentID != "" {
		id, err := strconv.ParseUint(event.Meta.PaymentID, 10, 64)
		if err == nil {
			payment, err := s.paymentRepo.FindByID(ctx, id)
			if err != nil {
				return nil, err
			}
			if payment != nil {
				return payment, nil
			}
		}
	}

	if event.PaylinkID != "" {
		return s.paymentRepo.FindLatestPendingByPaylink(ctx, event.PaylinkID)
	}

	return nil, nil
}

// handleWebhookReplay covers deliveries that arrive after the payment left
// pending. Same terminal status: harmless redelivery, backfill the tx id if
// the first delivery lacked one. Different terminal status: the first writer
// already won, log the conflict and keep the stored state.
func (s *PortfolioService) handleWebhookReplay(ctx context.Context, logger logrus.FieldLogger, paymentID uint64, event *provider.WebhookEvent, status entity.PaymentStatus) (*WebhookResult, error) {
	current, err := s.paymentRepo.FindByID(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, ErrPaymentNotFound
	}

	if current.Status == status {
		if event.TransactionID != "" {
			attached, err := s.paymentRepo.AttachTransactionID(ctx, paymentID, status, event.TransactionID, time.Now().UTC())
			if err != nil {
				return nil, err
			}
			if attached {
				logger.Info("replayed webhook backfilled transaction id")
			}
		}
		logger.Info("duplicate webhook delivery, state unchanged")
		s.recordEvent(ctx, &entity.PaymentEvent{
			PaymentID: &paymentID,
			EventType: "webhook_replayed",
			OldStatus: statusPtr(current.Status),
			NewStatus: statusPtr(status),
			HelioTxID: nullableString(event.TransactionID),
		})
	} else {
		logger.WithField("stored_status", current.Status).Warn("conflicting terminal webhook ignored")
		s.recordEvent(ctx, &entity.PaymentEvent{
			PaymentID: &paymentID,
			EventType: "webhook_conflict",
			OldStatus: statusPtr(current.Status),
			NewStatus: statusPtr(status),
			HelioTxID: nullableString(event.TransactionID),
		})
	}

	return &WebhookResult{TransactionID: event.TransactionID, Status: current.Status}, nil
}

// publishPortfolio flips the portfolio live after a completed payment. The
// payment transition already committed, so errors here degrade to a logged
// no-op with an audit event: failing the request would only trigger a
// redelivery that lands on the replay path and never reaches this code.
func (s *PortfolioService) publishPortfolio(ctx context.Context, logger logrus.FieldLogger, payment *entity.Payment, event *provider.WebhookEvent, now time.Time) bool {
	portfolioID := payment.PortfolioID
	if event.Meta.PortfolioID != "" {
		if id, err := strconv.ParseUint(event.Meta.PortfolioID, 10, 64); err == nil && id != 0 {
			portfolioID = id
		}
	}

	published, err := s.portfolioRepo.Publish(ctx, portfolioID, now)
	if err != nil {
		logger.WithError(err).WithField("portfolio_id", portfolioID).Error("portfolio publish failed after completed payment")
		s.recordEvent(ctx, &entity.PaymentEvent{
			PaymentID: &payment.ID,
			EventType: "publish_failed",
			HelioTxID: nullableString(event.TransactionID),
			Detail:    stringPtr(err.Error()),
		})
		return false
	}
	if !published {
		logger.WithField("portfolio_id", portfolioID).Info("portfolio already published")
		return false
	}

	logger.WithField("portfolio_id", portfolioID).Info("portfolio published")
	return true
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}
