package mapper

import (
	"strconv"
	"time"

	"github.com/tokenfolio/ms-go-portfolios/app/entity"
	"github.com/tokenfolio/ms-go-portfolios/app/types"
)

func PaymentCreatedToResponse(payment *entity.Payment, portfolio *entity.Portfolio, paymentURL string) *types.PaymentCreated {
	return &types.PaymentCreated{
		ID:          strconv.FormatUint(payment.ID, 10),
		PortfolioID: strconv.FormatUint(payment.PortfolioID, 10),
		Username:    portfolio.Username,
		PaymentURL:  paymentURL,
		Amount:      payment.Amount,
		Currency:    payment.Currency,
		Status:      string(payment.Status),
	}
}

func PaymentStatusToResponse(payment *entity.Payment, portfolio *entity.Portfolio) *types.PaymentStatusPayload {
	payload := &types.PaymentStatusPayload{
		ID:         strconv.FormatUint(payment.ID, 10),
		Status:     string(payment.Status),
		Amount:     payment.Amount,
		Currency:   payment.Currency,
		HelioTxID:  payment.HelioTxID,
		VerifiedAt: formatTimePtr(payment.VerifiedAt),
		CreatedAt:  formatTime(payment.CreatedAt),
		UpdatedAt:  formatTime(payment.UpdatedAt),
	}

	if portfolio != nil {
		summary := &types.PortfolioSummary{
			Username:    portfolio.Username,
			TokenName:   portfolio.TokenName,
			IsPublished: portfolio.IsPublished,
		}
		if portfolio.IsPublished {
			url := "/" + portfolio.Username
			summary.URL = &url
		}
		payload.Portfolio = summary
	}

	return payload
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}
