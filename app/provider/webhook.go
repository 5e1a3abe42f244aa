package provider

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tokenfolio/ms-go-portfolios/app/entity"
)

var ErrUnsupportedPayload = errors.New("unsupported webhook payload")

// WebhookMeta is the caller-supplied metadata echoed back by Helio from the
// charge's additionalJSON block. All fields are optional.
type WebhookMeta struct {
	PaymentID   string
	PortfolioID string
	Username    string
}

// WebhookEvent is the normalized form of a Helio webhook delivery.
type WebhookEvent struct {
	TransactionID string
	PaylinkID     string
	RawStatus     string
	Meta          WebhookMeta
}

// ParseWebhookEvent normalizes any of the payload shapes Helio has been seen
// to deliver. Shapes are tried in a fixed order:
//
//  1. an envelope carrying the transaction as a nested object
//     ("transactionObject") or as a pre-serialized JSON string
//     ("transaction"), wrapping one of the shapes below;
//  2. the nested shape: {id, paylink, meta:{transactionStatus, ...}};
//  3. the flat shape: {transactionId|id, paylinkId|paylink,
//     status|transactionStatus, additionalJSON}.
//
// A payload matching none of them yields ErrUnsupportedPayload.
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var envelope struct {
		Transaction       json.RawMessage `json:"transaction"`
		TransactionObject json.RawMessage `json:"transactionObject"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, ErrUnsupportedPayload
	}

	if inner := unwrapRawObject(envelope.TransactionObject); inner != nil {
		if event := parseTransactionShapes(inner); event != nil {
			return event, nil
		}
	}
	if inner := unwrapRawObject(envelope.Transaction); inner != nil {
		if event := parseTransactionShapes(inner); event != nil {
			return event, nil
		}
	}
	if event := parseTransactionShapes(payload); event != nil {
		return event, nil
	}

	return nil, ErrUnsupportedPayload
}

// MapTransactionStatus folds the provider's status vocabulary into the
// internal tri-state. Unknown values map to pending: no terminal decision is
// ever taken on a status we do not recognize.
func MapTransactionStatus(raw string) entity.PaymentStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "success", "settled", "paid", "completed":
		return entity.PaymentStatusCompleted
	case "failed", "fail", "canceled", "cancelled", "declined", "expired":
		return entity.PaymentStatusFailed
	default:
		return entity.PaymentStatusPending
	}
}

// unwrapRawObject resolves a field that may hold an object directly or hold
// it double-encoded as a JSON string.
func unwrapRawObject(raw json.RawMessage) []byte {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}
	if trimmed[0] == '{' {
		return []byte(trimmed)
	}
	if trimmed[0] == '"' {
		var inner string
		if json.Unmarshal(raw, &inner) != nil {
			return nil
		}
		inner = strings.TrimSpace(inner)
		if strings.HasPrefix(inner, "{") {
			return []byte(inner)
		}
	}
	return nil
}

func parseTransactionShapes(payload []byte) *WebhookEvent {
	if event := parseNestedShape(payload); event != nil {
		return event
	}
	return parseFlatShape(payload)
}

func parseNestedShape(payload []byte) *WebhookEvent {
	var body struct {
		ID      string `json:"id"`
		Paylink string `json:"paylink"`
		Meta    *struct {
			TransactionStatus    string          `json:"transactionStatus"`
			TransactionSignature string          `json:"transactionSignature"`
			AdditionalJSON       json.RawMessage `json:"additionalJSON"`
		} `json:"meta"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return nil
	}
	if body.Meta == nil || strings.TrimSpace(body.Meta.TransactionStatus) == "" {
		return nil
	}

	txID := strings.TrimSpace(body.Meta.TransactionSignature)
	if txID == "" {
		txID = strings.TrimSpace(body.ID)
	}

	return &WebhookEvent{
		TransactionID: txID,
		PaylinkID:     strings.TrimSpace(body.Paylink),
		RawStatus:     strings.TrimSpace(body.Meta.TransactionStatus),
		Meta:          parseAdditionalJSON(body.Meta.AdditionalJSON),
	}
}

func parseFlatShape(payload []byte) *WebhookEvent {
	var body struct {
		TransactionID     string          `json:"transactionId"`
		ID                string          `json:"id"`
		PaylinkID         string          `json:"paylinkId"`
		Paylink           string          `json:"paylink"`
		Status            string          `json:"status"`
		TransactionStatus string          `json:"transactionStatus"`
		AdditionalJSON    json.RawMessage `json:"additionalJSON"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return nil
	}

	status := strings.TrimSpace(body.TransactionStatus)
	if status == "" {
		status = strings.TrimSpace(body.Status)
	}
	if status == "" {
		return nil
	}

	txID := strings.TrimSpace(body.TransactionID)
	if txID == "" {
		txID = strings.TrimSpace(body.ID)
	}
	paylinkID := strings.TrimSpace(body.PaylinkID)
	if paylinkID == "" {
		paylinkID = strings.TrimSpace(body.Paylink)
	}

	return &WebhookEvent{
		TransactionID: txID,
		PaylinkID:     paylinkID,
		RawStatus:     status,
		Meta:          parseAdditionalJSON(body.AdditionalJSON),
	}
}

// parseAdditionalJSON accepts the metadata block as an object or as a
// double-encoded string; anything else yields empty metadata.
func parseAdditionalJSON(raw json.RawMessage) WebhookMeta {
	payload := unwrapRawObject(raw)
	if payload == nil {
		return WebhookMeta{}
	}

	var body struct {
		PaymentID   string `json:"paymentId"`
		PortfolioID string `json:"portfolioId"`
		Username    string `json:"username"`
	}
	if json.Unmarshal(payload, &body) != nil {
		return WebhookMeta{}
	}

	return WebhookMeta{
		PaymentID:   strings.TrimSpace(body.PaymentID),
		PortfolioID: strings.TrimSpace(body.PortfolioID),
		Username:    strings.TrimSpace(body.Username),
	}
}
