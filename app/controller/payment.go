package controller

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/tokenfolio/ms-go-portfolios/app/factory"
	"github.com/tokenfolio/ms-go-portfolios/app/mapper"
	"github.com/tokenfolio/ms-go-portfolios/app/service"
	"github.com/tokenfolio/ms-go-portfolios/app/types"
)

type PaymentController struct {
	portfolioService *service.PortfolioService
	logger           logrus.FieldLogger
}

func NewPaymentController(portfolioService *service.PortfolioService) *PaymentController {
	return &PaymentController{
		portfolioService: portfolioService,
		logger:           factory.NewModuleLogger("payments-controller"),
	}
}

func (c *PaymentController) Health(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, &types.HealthResponse{Status: "ok"})
}

func (c *PaymentController) CreatePayment(ctx echo.Context) error {
	req, err := types.NewCreatePaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	result, err := c.portfolioService.InitiatePayment(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrUsernameTaken):
			return c.writeError(ctx, http.StatusConflict, "username already taken")
		case errors.Is(err, service.ErrProviderFailure):
			c.logger.WithError(err).Error("Payment initiation failed at provider")
			return c.writeError(ctx, http.StatusBadGateway, "payment provider unavailable")
		default:
			c.logger.WithError(err).Error("Create payment failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusCreated, &types.CreatePaymentResponse{
		Success: true,
		Payment: mapper.PaymentCreatedToResponse(result.Payment, result.Portfolio, result.PaymentURL),
	})
}

func (c *PaymentController) GetPayment(ctx echo.Context) error {
	// Malformed ids are indistinguishable from unknown ones to callers.
	req, err := types.NewGetPaymentRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusNotFound, "payment not found")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusNotFound, "payment not found")
	}

	result, err := c.portfolioService.GetPaymentStatus(ctx.Request().Context(), req.ID)
	if err != nil {
		if errors.Is(err, service.ErrPaymentNotFound) {
			return c.writeError(ctx, http.StatusNotFound, "payment not found")
		}
		c.logger.WithError(err).Error("Get payment failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.PaymentStatusResponse{
		Payment: mapper.PaymentStatusToResponse(result.Payment, result.Portfolio),
	})
}

func (c *PaymentController) HandleHelioWebhook(ctx echo.Context) error {
	req, err := types.NewHelioWebhookRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}

	result, err := c.portfolioService.HandleHelioWebhook(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWebhookNotConfigured):
			c.logger.Error("Webhook received but no secret is configured")
			return c.writeError(ctx, http.StatusInternalServerError, "webhook secret not configured")
		case errors.Is(err, service.ErrWebhookUnauthorized):
			return c.writeError(ctx, http.StatusUnauthorized, "unauthorized")
		case errors.Is(err, service.ErrWebhookPayloadInvalid):
			return c.writeError(ctx, http.StatusBadRequest, "unsupported webhook payload")
		default:
			c.logger.WithError(err).Error("Handle webhook failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.WebhookAckResponse{
		OK:     true,
		TxID:   result.TransactionID,
		Status: string(result.Status),
	})
}

func (c *PaymentController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
