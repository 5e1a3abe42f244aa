package types

import (
	"errors"
	"io"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
)

type GetPortfolioRequest struct {
	Username string
}

func NewGetPortfolioRequestFromContext(ctx echo.Context) *GetPortfolioRequest {
	return &GetPortfolioRequest{
		Username: strings.ToLower(strings.TrimSpace(ctx.Param("username"))),
	}
}

func (r *GetPortfolioRequest) Validate() error {
	if r.Username == "" {
		return errors.New("username is required")
	}
	return nil
}

type ListPortfoliosRequest struct {
	Limit  int32
	Offset int32
}

func NewListPortfoliosRequestFromContext(ctx echo.Context) (*ListPortfoliosRequest, error) {
	req := &ListPortfoliosRequest{Limit: 100, Offset: 0}

	if limitRaw := strings.TrimSpace(ctx.QueryParam("limit")); limitRaw != "" {
		limit, err := strconv.ParseInt(limitRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}
	if offsetRaw := strings.TrimSpace(ctx.QueryParam("offset")); offsetRaw != "" {
		offset, err := strconv.ParseInt(offsetRaw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Offset = int32(offset)
	}

	return req, nil
}

func (r *ListPortfoliosRequest) Validate() error {
	if r.Limit <= 0 || r.Limit > 500 {
		return errors.New("limit must be between 1 and 500")
	}
	if r.Offset < 0 {
		return errors.New("offset must be >= 0")
	}
	return nil
}

// UpdatePortfolioRequest carries the admin PATCH body. Pointer fields
// distinguish "not sent" from "set to empty".
type UpdatePortfolioRequest struct {
	ID uint64 `json:"-"`

	TokenName       *string `json:"token_name"`
	Ticker          *string `json:"ticker"`
	ContractAddress *string `json:"contract_address"`
	Slogan          *string `json:"slogan"`
	Description     *string `json:"description"`
	Template        *string `json:"template"`
	LogoURL         *string `json:"logo_url"`
	BannerURL       *string `json:"banner_url"`
	TwitterURL      *string `json:"twitter_url"`
	TelegramURL     *string `json:"telegram_url"`
	WebsiteURL      *string `json:"website_url"`
	IsPublished     *bool   `json:"is_published"`
}

func NewUpdatePortfolioRequestFromContext(ctx echo.Context) (*UpdatePortfolioRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}

	var body UpdatePortfolioRequest
	if err = ctx.Bind(&body); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	body.ID = id

	return &body, nil
}

func (r *UpdatePortfolioRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid portfolio id")
	}
	if r.TokenName != nil && strings.TrimSpace(*r.TokenName) == "" {
		return errors.New("token_name cannot be empty")
	}
	if r.IsPublished != nil && *r.IsPublished {
		return errors.New("portfolios cannot be published through the admin API")
	}
	return nil
}

type DeletePortfolioRequest struct {
	ID uint64
}

func NewDeletePortfolioRequestFromContext(ctx echo.Context) (*DeletePortfolioRequest, error) {
	id, err := strconv.ParseUint(ctx.Param("id"), 10, 64)
	if err != nil {
		return nil, err
	}
	return &DeletePortfolioRequest{ID: id}, nil
}

func (r *DeletePortfolioRequest) Validate() error {
	if r.ID == 0 {
		return errors.New("invalid portfolio id")
	}
	return nil
}
