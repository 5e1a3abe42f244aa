package controller

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/tokenfolio/ms-go-portfolios/app/entity"
	"github.com/tokenfolio/ms-go-portfolios/app/provider"
	"github.com/tokenfolio/ms-go-portfolios/app/service"
	"github.com/tokenfolio/ms-go-portfolios/config"
)

type controllerPortfolioRepo struct {
	createFn                  func(ctx context.Context, portfolio *entity.Portfolio) error
	updateFn                  func(ctx context.Context, portfolio *entity.Portfolio) error
	deleteFn                  func(ctx context.Context, id uint64) error
	findByIDFn                func(ctx context.Context, id uint64) (*entity.Portfolio, error)
	findByUsernameFn          func(ctx context.Context, username string) (*entity.Portfolio, error)
	findPublishedByUsernameFn func(ctx context.Context, username string) (*entity.Portfolio, error)
	publishFn                 func(ctx context.Context, id uint64, now time.Time) (bool, error)
	unpublishFn               func(ctx context.Context, id uint64, now time.Time) (bool, error)
	listFn                    func(ctx context.Context, limit, offset int32) ([]*entity.Portfolio, error)
}

func (r *controllerPortfolioRepo) Create(ctx context.Context, portfolio *entity.Portfolio) error {
	if r.createFn != nil {
		return r.createFn(ctx, portfolio)
	}
	portfolio.ID = 1
	return nil
}

func (r *controllerPortfolioRepo) Update(ctx context.Context, portfolio *entity.Portfolio) error {
	if r.updateFn != nil {
		return r.updateFn(ctx, portfolio)
	}
	return nil
}

func (r *controllerPortfolioRepo) Delete(ctx context.Context, id uint64) error {
	if r.deleteFn != nil {
		return r.deleteFn(ctx, id)
	}
	return nil
}

func (r *controllerPortfolioRepo) FindByID(ctx context.Context, id uint64) (*entity.Portfolio, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (r *controllerPortfolioRepo) FindByUsername(ctx context.Context, username string) (*entity.Portfolio, error) {
	if r.findByUsernameFn != nil {
		return r.findByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (r *controllerPortfolioRepo) FindPublishedByUsername(ctx context.Context, username string) (*entity.Portfolio, error) {
	if r.findPublishedByUsernameFn != nil {
		return r.findPublishedByUsernameFn(ctx, username)
	}
	return nil, nil
}

func (r *controllerPortfolioRepo) Publish(ctx context.Context, id uint64, now time.Time) (bool, error) {
	if r.publishFn != nil {
		return r.publishFn(ctx, id, now)
	}
	return true, nil
}

func (r *controllerPortfolioRepo) Unpublish(ctx context.Context, id uint64, now time.Time) (bool, error) {
	if r.unpublishFn != nil {
		return r.unpublishFn(ctx, id, now)
	}
	return true, nil
}

func (r *controllerPortfolioRepo) List(ctx context.Context, limit, offset int32) ([]*entity.Portfolio, error) {
	if r.listFn != nil {
		return r.listFn(ctx, limit, offset)
	}
	return []*entity.Portfolio{}, nil
}

type controllerPaymentRepo struct {
	createFn                     func(ctx context.Context, payment *entity.Payment) error
	deleteFn                     func(ctx context.Context, id uint64) error
	findByIDFn                   func(ctx context.Context, id uint64) (*entity.Payment, error)
	findLatestPendingByPaylinkFn func(ctx context.Context, paylinkID string) (*entity.Payment, error)
	markTerminalFn               func(ctx context.Context, id uint64, status entity.PaymentStatus, txID *string, verifiedAt *time.Time, now time.Time) (bool, error)
	attachTransactionIDFn        func(ctx context.Context, id uint64, status entity.PaymentStatus, txID string, now time.Time) (bool, error)
	listExpiredPendingFn         func(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Payment, error)
}

func (r *controllerPaymentRepo) Create(ctx context.Context, payment *entity.Payment) error {
	if r.createFn != nil {
		return r.createFn(ctx, payment)
	}
	payment.ID = 1
	return nil
}

func (r *controllerPaymentRepo) Delete(ctx context.Context, id uint64) error {
	if r.deleteFn != nil {
		return r.deleteFn(ctx, id)
	}
	return nil
}

func (r *controllerPaymentRepo) FindByID(ctx context.Context, id uint64) (*entity.Payment, error) {
	if r.findByIDFn != nil {
		return r.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (r *controllerPaymentRepo) FindLatestPendingByPaylink(ctx context.Context, paylinkID string) (*entity.Payment, error) {
	if r.findLatestPendingByPaylinkFn != nil {
		return r.findLatestPendingByPaylinkFn(ctx, paylinkID)
	}
	return nil, nil
}

func (r *controllerPaymentRepo) MarkTerminal(ctx context.Context, id uint64, status entity.PaymentStatus, txID *string, verifiedAt *time.Time, now time.Time) (bool, error) {
	if r.markTerminalFn != nil {
		return r.markTerminalFn(ctx, id, status, txID, verifiedAt, now)
	}
	return true, nil
}

func (r *controllerPaymentRepo) AttachTransactionID(ctx context.Context, id uint64, status entity.PaymentStatus, txID string, now time.Time) (bool, error) {
	if r.attachTransactionIDFn != nil {
		return r.attachTransactionIDFn(ctx, id, status, txID, now)
	}
	return false, nil
}

func (r *controllerPaymentRepo) ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Payment, error) {
	if r.listExpiredPendingFn != nil {
		return r.listExpiredPendingFn(ctx, cutoff, limit)
	}
	return []*entity.Payment{}, nil
}

type controllerEventRepo struct{}

func (r *controllerEventRepo) Create(context.Context, *entity.PaymentEvent) error {
	return nil
}

type controllerTemplateRepo struct {
	findByNameFn func(ctx context.Context, name string) (*entity.Template, error)
}

func (r *controllerTemplateRepo) FindByName(ctx context.Context, name string) (*entity.Template, error) {
	if r.findByNameFn != nil {
		return r.findByNameFn(ctx, name)
	}
	return nil, nil
}

type controllerChargeClient struct {
	createErr error
}

func (c *controllerChargeClient) PaylinkID() string {
	return "paylink-1"
}

func (c *controllerChargeClient) CreateCharge(context.Context, *provider.ChargeInput) (*provider.ChargeOutput, error) {
	if c.createErr != nil {
		return nil, c.createErr
	}
	return &provider.ChargeOutput{CheckoutURL: "https://app.hel.io/pay/paylink-1"}, nil
}

type controllerFixture struct {
	portfolioRepo *controllerPortfolioRepo
	paymentRepo   *controllerPaymentRepo
	templateRepo  *controllerTemplateRepo
	charges       *controllerChargeClient
}

func newControllerService(f *controllerFixture) *service.PortfolioService {
	return service.NewPortfolioService(
		f.portfolioRepo,
		f.paymentRepo,
		&controllerEventRepo{},
		f.templateRepo,
		f.charges,
		config.PaymentsConfig{DefaultCurrency: "USDC", PendingTimeout: time.Hour, JobBatchSize: 100},
		"webhook-secret",
	)
}

func newControllerFixture() *controllerFixture {
	return &controllerFixture{
		portfolioRepo: &controllerPortfolioRepo{},
		paymentRepo:   &controllerPaymentRepo{},
		templateRepo:  &controllerTemplateRepo{},
		charges:       &controllerChargeClient{},
	}
}

func newTestContext(method, target, body string, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	rec := httptest.NewRecorder()
	return echo.New().NewContext(req, rec), rec
}

func TestHealthReturnsOK(t *testing.T) {
	ctrl := NewPaymentController(newControllerService(newControllerFixture()))

	ctx, rec := newTestContext(http.MethodGet, "/health", "", nil)
	if err := ctrl.Health(ctx); err != nil {
		t.Fatalf("health handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCreatePaymentReturnsCreated(t *testing.T) {
	ctrl := NewPaymentController(newControllerService(newControllerFixture()))

	body := `{"portfolio":{"username":"doge-x1","token_name":"Doge X"},"amount":9.99,"currency":"usdc"}`
	ctx, rec := newTestContext(http.MethodPost, "/payments", body, nil)
	if err := ctrl.CreatePayment(ctx); err != nil {
		t.Fatalf("create payment handler failed: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}

	var response struct {
		Success bool `json:"success"`
		Payment struct {
			Username   string `json:"username"`
			PaymentURL string `json:"payment_url"`
			Status     string `json:"status"`
		} `json:"payment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !response.Success || response.Payment.Username != "doge-x1" {
		t.Fatalf("unexpected response: %+v", response)
	}
	if response.Payment.PaymentURL == "" || response.Payment.Status != "pending" {
		t.Fatalf("unexpected payment payload: %+v", response.Payment)
	}
}

func TestCreatePaymentRejectsInvalidBody(t *testing.T) {
	ctrl := NewPaymentController(newControllerService(newControllerFixture()))

	ctx, rec := newTestContext(http.MethodPost, "/payments", `{"amount":9.99}`, nil)
	if err := ctrl.CreatePayment(ctx); err != nil {
		t.Fatalf("create payment handler failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCreatePaymentConflictOnTakenUsername(t *testing.T) {
	f := newControllerFixture()
	f.portfolioRepo.findByUsernameFn = func(_ context.Context, username string) (*entity.Portfolio, error) {
		return &entity.Portfolio{ID: 1, Username: username}, nil
	}
	ctrl := NewPaymentController(newControllerService(f))

	body := `{"portfolio":{"username":"doge-x1","token_name":"Doge X"},"amount":9.99}`
	ctx, rec := newTestContext(http.MethodPost, "/payments", body, nil)
	if err := ctrl.CreatePayment(ctx); err != nil {
		t.Fatalf("create payment handler failed: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}
}

func TestCreatePaymentBadGatewayOnProviderFailure(t *testing.T) {
	f := newControllerFixture()
	f.charges.createErr = context.DeadlineExceeded
	ctrl := NewPaymentController(newControllerService(f))

	body := `{"portfolio":{"username":"doge-x1","token_name":"Doge X"},"amount":9.99}`
	ctx, rec := newTestContext(http.MethodPost, "/payments", body, nil)
	if err := ctrl.CreatePayment(ctx); err != nil {
		t.Fatalf("create payment handler failed: %v", err)
	}
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
}

func TestGetPaymentNotFound(t *testing.T) {
	ctrl := NewPaymentController(newControllerService(newControllerFixture()))

	ctx, rec := newTestContext(http.MethodGet, "/payments/5", "", nil)
	ctx.SetParamNames("id")
	ctx.SetParamValues("5")
	if err := ctrl.GetPayment(ctx); err != nil {
		t.Fatalf("get payment handler failed: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestGetPaymentMalformedIDNotFound(t *testing.T) {
	ctrl := NewPaymentController(newControllerService(newControllerFixture()))

	for _, id := range []string{"abc", "0", "-1"} {
		ctx, rec := newTestContext(http.MethodGet, "/payments/"+id, "", nil)
		ctx.SetParamNames("id")
		ctx.SetParamValues(id)
		if err := ctrl.GetPayment(ctx); err != nil {
			t.Fatalf("get payment handler failed for %q: %v", id, err)
		}
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404 for id %q, got %d", id, rec.Code)
		}
	}
}

func TestGetPaymentReturnsStatus(t *testing.T) {
	f := newControllerFixture()
	now := time.Now().UTC()
	f.paymentRepo.findByIDFn = func(_ context.Context, id uint64) (*entity.Payment, error) {
		return &entity.Payment{ID: id, PortfolioID: 1, Status: entity.PaymentStatusCompleted, Amount: 9.99, Currency: "USDC", CreatedAt: now, UpdatedAt: now}, nil
	}
	f.portfolioRepo.findByIDFn = func(_ context.Context, id uint64) (*entity.Portfolio, error) {
		publishedAt := now
		return &entity.Portfolio{ID: id, Username: "doge-x1", TokenName: "Doge X", IsPublished: true, PublishedAt: &publishedAt, CreatedAt: now, UpdatedAt: now}, nil
	}
	ctrl := NewPaymentController(newControllerService(f))

	ctx, rec := newTestContext(http.MethodGet, "/payments/5", "", nil)
	ctx.SetParamNames("id")
	ctx.SetParamValues("5")
	if err := ctrl.GetPayment(ctx); err != nil {
		t.Fatalf("get payment handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var response struct {
		Payment struct {
			Status    string `json:"status"`
			Portfolio struct {
				URL *string `json:"url"`
			} `json:"portfolio"`
		} `json:"payment"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if response.Payment.Status != "completed" {
		t.Fatalf("unexpected status: %s", response.Payment.Status)
	}
	if response.Payment.Portfolio.URL == nil || *response.Payment.Portfolio.URL != "/doge-x1" {
		t.Fatalf("expected portfolio url, got %v", response.Payment.Portfolio.URL)
	}
}

func TestHandleHelioWebhookWithoutSecretIsServerError(t *testing.T) {
	f := newControllerFixture()
	svc := service.NewPortfolioService(
		f.portfolioRepo,
		f.paymentRepo,
		&controllerEventRepo{},
		f.templateRepo,
		f.charges,
		config.PaymentsConfig{DefaultCurrency: "USDC", PendingTimeout: time.Hour, JobBatchSize: 100},
		"",
	)
	ctrl := NewPaymentController(svc)

	ctx, rec := newTestContext(http.MethodPost, "/webhooks/helio", `{"status":"SUCCESS"}`, map[string]string{
		"Authorization": "Bearer webhook-secret",
	})
	if err := ctrl.HandleHelioWebhook(ctx); err != nil {
		t.Fatalf("webhook handler failed: %v", err)
	}
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestHandleHelioWebhookUnauthorized(t *testing.T) {
	ctrl := NewPaymentController(newControllerService(newControllerFixture()))

	ctx, rec := newTestContext(http.MethodPost, "/webhooks/helio", `{"status":"SUCCESS"}`, map[string]string{
		"Authorization": "Bearer wrong-secret",
	})
	if err := ctrl.HandleHelioWebhook(ctx); err != nil {
		t.Fatalf("webhook handler failed: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestHandleHelioWebhookBadPayload(t *testing.T) {
	ctrl := NewPaymentController(newControllerService(newControllerFixture()))

	ctx, rec := newTestContext(http.MethodPost, "/webhooks/helio", `{"unknown":true}`, map[string]string{
		"Authorization": "Bearer webhook-secret",
	})
	if err := ctrl.HandleHelioWebhook(ctx); err != nil {
		t.Fatalf("webhook handler failed: %v", err)
	}
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestHandleHelioWebhookAcknowledges(t *testing.T) {
	f := newControllerFixture()
	f.paymentRepo.findByIDFn = func(_ context.Context, id uint64) (*entity.Payment, error) {
		return &entity.Payment{ID: id, PortfolioID: 1, Status: entity.PaymentStatusPending, HelioPaylinkID: "paylink-1"}, nil
	}
	ctrl := NewPaymentController(newControllerService(f))

	body := `{"transactionId":"tx-1","paylinkId":"paylink-1","status":"SUCCESS","additionalJSON":{"paymentId":"1","portfolioId":"1"}}`
	ctx, rec := newTestContext(http.MethodPost, "/webhooks/helio", body, map[string]string{
		"Authorization": "Bearer webhook-secret",
	})
	if err := ctrl.HandleHelioWebhook(ctx); err != nil {
		t.Fatalf("webhook handler failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	var response struct {
		OK     bool   `json:"ok"`
		TxID   string `json:"txId"`
		Status string `json:"status"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !response.OK || response.TxID != "tx-1" || response.Status != "completed" {
		t.Fatalf("unexpected ack: %+v", response)
	}
}
