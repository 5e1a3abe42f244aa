package service

import (
	"context"
	"time"

	"github.com/tokenfolio/ms-go-portfolios/app/entity"
)

// RunExpirePendingBatch fails pending payments older than the configured
// timeout. Each expiry uses the same conditional write as the webhook path,
// so a payment completed between the listing and the update is left alone.
// Returns how many payments were expired.
func (s *PortfolioService) RunExpirePendingBatch(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-s.paymentsCfg.PendingTimeout)

	payments, err := s.paymentRepo.ListExpiredPending(ctx, cutoff, s.batchSize())
	if err != nil {
		return 0, err
	}

	expired := 0
	var firstErr error
	for _, payment := range payments {
		transitioned, err := s.paymentRepo.MarkTerminal(ctx, payment.ID, entity.PaymentStatusFailed, nil, nil, now)
		if err != nil {
			s.logger.WithError(err).WithField("payment_id", payment.ID).Error("pending payment expiry failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if !transitioned {
			// A webhook won the race since the listing.
			continue
		}

		expired++
		s.logger.WithField("payment_id", payment.ID).Info("pending payment expired")
		s.recordEvent(ctx, &entity.PaymentEvent{
			PaymentID: &payment.ID,
			EventType: "payment_expired",
			OldStatus: statusPtr(entity.PaymentStatusPending),
			NewStatus: statusPtr(entity.PaymentStatusFailed),
		})
	}

	return expired, firstErr
}
