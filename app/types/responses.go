package types

type ErrorResponse struct {
	Error string `json:"error"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type PaymentCreated struct {
	ID          string  `json:"id"`
	PortfolioID string  `json:"portfolio_id"`
	Username    string  `json:"username"`
	PaymentURL  string  `json:"payment_url"`
	Amount      float64 `json:"amount"`
	Currency    string  `json:"currency"`
	Status      string  `json:"status"`
}

type CreatePaymentResponse struct {
	Success bool            `json:"success"`
	Payment *PaymentCreated `json:"payment"`
}

type PortfolioSummary struct {
	Username    string  `json:"username"`
	TokenName   string  `json:"token_name"`
	IsPublished bool    `json:"is_published"`
	URL         *string `json:"url"`
}

type PaymentStatusPayload struct {
	ID         string            `json:"id"`
	Status     string            `json:"status"`
	Amount     float64           `json:"amount"`
	Currency   string            `json:"currency"`
	HelioTxID  *string           `json:"helio_tx_id"`
	VerifiedAt *string           `json:"verified_at"`
	CreatedAt  string            `json:"created_at"`
	UpdatedAt  string            `json:"updated_at"`
	Portfolio  *PortfolioSummary `json:"portfolio"`
}

type PaymentStatusResponse struct {
	Payment *PaymentStatusPayload `json:"payment"`
}

type WebhookAckResponse struct {
	OK     bool   `json:"ok"`
	TxID   string `json:"txId"`
	Status string `json:"status"`
}

type TemplatePayload struct {
	Name         string `json:"name"`
	DisplayName  string `json:"display_name"`
	HTMLTemplate string `json:"html_template"`
	CSSTemplate  string `json:"css_template"`
}

type PortfolioPayload struct {
	ID              string           `json:"id"`
	Username        string           `json:"username"`
	TokenName       string           `json:"token_name"`
	Ticker          string           `json:"ticker,omitempty"`
	ContractAddress string           `json:"contract_address,omitempty"`
	Slogan          string           `json:"slogan,omitempty"`
	Description     string           `json:"description,omitempty"`
	Template        string           `json:"template"`
	LogoURL         string           `json:"logo_url,omitempty"`
	BannerURL       string           `json:"banner_url,omitempty"`
	TwitterURL      string           `json:"twitter_url,omitempty"`
	TelegramURL     string           `json:"telegram_url,omitempty"`
	WebsiteURL      string           `json:"website_url,omitempty"`
	IsPublished     bool             `json:"is_published"`
	PublishedAt     *string          `json:"published_at"`
	CreatedAt       string           `json:"created_at"`
	UpdatedAt       string           `json:"updated_at"`
	Templates       *TemplatePayload `json:"templates,omitempty"`
}

type PortfolioEnvelopeResponse struct {
	Portfolio *PortfolioPayload `json:"portfolio"`
}

type ListPortfoliosResponse struct {
	Portfolios []*PortfolioPayload `json:"portfolios"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
