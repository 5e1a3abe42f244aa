package types

import (
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9-]{3,30}$`)

type PortfolioInput struct {
	Username        string `json:"username"`
	TokenName       string `json:"token_name"`
	Ticker          string `json:"ticker"`
	ContractAddress string `json:"contract_address"`
	Slogan          string `json:"slogan"`
	Description     string `json:"description"`
	Template        string `json:"template"`
	LogoURL         string `json:"logo_url"`
	BannerURL       string `json:"banner_url"`
	TwitterURL      string `json:"twitter_url"`
	TelegramURL     string `json:"telegram_url"`
	WebsiteURL      string `json:"website_url"`
}

type CreatePaymentRequest struct {
	Portfolio *PortfolioInput `json:"portfolio"`
	Amount    float64         `json:"amount"`
	Currency  string          `json:"currency"`
}

func NewCreatePaymentRequestFromContext(ctx echo.Context) (*CreatePaymentRequest, error) {
	var body CreatePaymentRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Currency = strings.ToUpper(strings.TrimSpace(body.Currency))
	if body.Portfolio != nil {
		body.Portfolio.Username = strings.ToLower(strings.TrimSpace(body.Portfolio.Username))
		body.Portfolio.TokenName = strings.TrimSpace(body.Portfolio.TokenName)
		body.Portfolio.Ticker = strings.TrimSpace(body.Portfolio.Ticker)
		body.Portfolio.ContractAddress = strings.TrimSpace(body.Portfolio.ContractAddress)
		body.Portfolio.Slogan = strings.TrimSpace(body.Portfolio.Slogan)
		body.Portfolio.Description = strings.TrimSpace(body.Portfolio.Description)
		body.Portfolio.Template = strings.TrimSpace(body.Portfolio.Template)
		body.Portfolio.LogoURL = strings.TrimSpace(body.Portfolio.LogoURL)
		body.Portfolio.BannerURL = strings.TrimSpace(body.Portfolio.BannerURL)
		body.Portfolio.TwitterURL = strings.TrimSpace(body.Portfolio.TwitterURL)
		body.Portfolio.TelegramURL = strings.TrimSpace(body.Portfolio.TelegramURL)
		body.Portfolio.WebsiteURL = strings.TrimSpace(body.Portfolio.WebsiteURL)
	}

	return &body, nil
}

func (r *CreatePaymentRequest) Validate() error {
	if r.Portfolio == nil {
		return errors.New("portfolio is required")
	}
	if r.Portfolio.TokenName == "" {
		return errors.New("portfolio.token_name is required")
	}
	if r.Portfolio.Username != "" && !usernamePattern.MatchString(r.Portfolio.Username) {
		return errors.New("username must be 3-30 chars, alphanumeric and hyphens only")
	}
	if !(r.Amount > 0) {
		return errors.New("amount must be > 0")
	}
	return nil
}

type GetPaymentRequest struct {
	ID uint64
}

func NewGetPaymentRequestFromContext(ctx echo.Context) (*GetPaymentRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &GetPaymentRequest{ID: id}, nil
}

func (r *GetPaymentRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid payment id")
	}
	return nil
}

type HelioWebhookRequest struct {
	Token   string
	Payload []byte
}

// NewHelioWebhookRequestFromContext extracts the shared-secret token and the
// raw body. The token is accepted as a bearer Authorization header or as the
// X-Webhook-Token header.
func NewHelioWebhookRequestFromContext(ctx echo.Context) (*HelioWebhookRequest, error) {
	token := ""
	auth := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		token = strings.TrimSpace(auth[7:])
	}
	if token == "" {
		token = strings.TrimSpace(ctx.Request().Header.Get("X-Webhook-Token"))
	}

	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, err
	}

	return &HelioWebhookRequest{
		Token:   token,
		Payload: payload,
	}, nil
}
