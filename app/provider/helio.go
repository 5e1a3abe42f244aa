package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const defaultHelioBaseURL = "https://api.hel.io"

type HelioConfig struct {
	APIKey      string
	PaylinkID   string
	BaseURL     string
	HTTPTimeout time.Duration
}

type HelioClient struct {
	cfg    HelioConfig
	client *http.Client
}

func NewHelioClient(cfg HelioConfig) *HelioClient {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = defaultHelioBaseURL
	}
	cfg.BaseURL = strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")

	return &HelioClient{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (c *HelioClient) PaylinkID() string {
	return c.cfg.PaylinkID
}

// CreateCharge creates a paylink charge. The additionalJSON block is echoed
// back verbatim in the webhook, which is what lets the reconciler recover
// payment identity without heuristics.
func (c *HelioClient) CreateCharge(ctx context.Context, input *ChargeInput) (*ChargeOutput, error) {
	if strings.TrimSpace(c.cfg.APIKey) == "" {
		return nil, errors.New("helio api key is not configured")
	}
	if strings.TrimSpace(c.cfg.PaylinkID) == "" {
		return nil, errors.New("helio paylink id is not configured")
	}

	body, err := json.Marshal(map[string]interface{}{
		"paylinkId": c.cfg.PaylinkID,
		"amount":    input.Amount,
		"currency":  input.Currency,
		"additionalJSON": map[string]string{
			"paymentId":   strconv.FormatUint(input.PaymentID, 10),
			"portfolioId": strconv.FormatUint(input.PortfolioID, 10),
			"username":    input.Username,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/v1/paylink/charges", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("helio create charge failed: status=%d body=%s", resp.StatusCode, truncateBody(respBody))
	}

	var payload struct {
		ID          string `json:"id"`
		CheckoutURL string `json:"checkoutUrl"`
		URL         string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &payload); err != nil {
		// Tolerate a non-JSON success body; the fallback URL still works.
		payload = struct {
			ID          string `json:"id"`
			CheckoutURL string `json:"checkoutUrl"`
			URL         string `json:"url"`
		}{}
	}

	result := &ChargeOutput{
		CheckoutURL: c.checkoutURL(payload.CheckoutURL, payload.URL),
	}
	if s := strings.TrimSpace(payload.ID); s != "" {
		result.ChargeID = &s
	}

	return result, nil
}

func (c *HelioClient) checkoutURL(candidates ...string) string {
	for _, candidate := range candidates {
		if s := strings.TrimSpace(candidate); s != "" {
			return s
		}
	}
	return "https://app.hel.io/pay/" + c.cfg.PaylinkID
}

func truncateBody(body []byte) string {
	const max = 512
	if len(body) <= max {
		return string(body)
	}
	return string(body[:max])
}
