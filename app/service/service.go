package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tokenfolio/ms-go-portfolios/app/entity"
	"github.com/tokenfolio/ms-go-portfolios/app/factory"
	"github.com/tokenfolio/ms-go-portfolios/app/provider"
	"github.com/tokenfolio/ms-go-portfolios/config"
)

const defaultBatchSize = int32(100)

type portfolioRepository interface {
	Create(ctx context.Context, portfolio *entity.Portfolio) error
	Update(ctx context.Context, portfolio *entity.Portfolio) error
	Delete(ctx context.Context, id uint64) error
	FindByID(ctx context.Context, id uint64) (*entity.Portfolio, error)
	FindByUsername(ctx context.Context, username string) (*entity.Portfolio, error)
	FindPublishedByUsername(ctx context.Context, username string) (*entity.Portfolio, error)
	Publish(ctx context.Context, id uint64, now time.Time) (bool, error)
	Unpublish(ctx context.Context, id uint64, now time.Time) (bool, error)
	List(ctx context.Context, limit, offset int32) ([]*entity.Portfolio, error)
}

type paymentRepository interface {
	Create(ctx context.Context, payment *entity.Payment) error
	Delete(ctx context.Context, id uint64) error
	FindByID(ctx context.Context, id uint64) (*entity.Payment, error)
	FindLatestPendingByPaylink(ctx context.Context, paylinkID string) (*entity.Payment, error)
	MarkTerminal(ctx context.Context, id uint64, status entity.PaymentStatus, txID *string, verifiedAt *time.Time, now time.Time) (bool, error)
	AttachTransactionID(ctx context.Context, id uint64, status entity.PaymentStatus, txID string, now time.Time) (bool, error)
	ListExpiredPending(ctx context.Context, cutoff time.Time, limit int32) ([]*entity.Payment, error)
}

type paymentEventRepository interface {
	Create(ctx context.Context, event *entity.PaymentEvent) error
}

type templateRepository interface {
	FindByName(ctx context.Context, name string) (*entity.Template, error)
}

type PortfolioService struct {
	portfolioRepo portfolioRepository
	paymentRepo   paymentRepository
	eventRepo     paymentEventRepository
	templateRepo  templateRepository
	charges       provider.ChargeClient
	paymentsCfg   config.PaymentsConfig
	webhookSecret string
	logger        logrus.FieldLogger
}

func NewPortfolioService(
	portfolioRepo portfolioRepository,
	paymentRepo paymentRepository,
	eventRepo paymentEventRepository,
	templateRepo templateRepository,
	charges provider.ChargeClient,
	paymentsCfg config.PaymentsConfig,
	webhookSecret string,
) *PortfolioService {
	return &PortfolioService{
		portfolioRepo: portfolioRepo,
		paymentRepo:   paymentRepo,
		eventRepo:     eventRepo,
		templateRepo:  templateRepo,
		charges:       charges,
		paymentsCfg:   paymentsCfg,
		webhookSecret: webhookSecret,
		logger:        factory.NewModuleLogger("portfolios-service"),
	}
}

func (s *PortfolioService) batchSize() int32 {
	if s.paymentsCfg.JobBatchSize > 0 {
		return s.paymentsCfg.JobBatchSize
	}
	return defaultBatchSize
}
