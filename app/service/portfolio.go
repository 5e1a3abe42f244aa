package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tokenfolio/ms-go-portfolios/app/entity"
	"github.com/tokenfolio/ms-go-portfolios/app/htmlgen"
	"github.com/tokenfolio/ms-go-portfolios/app/repository"
	"github.com/tokenfolio/ms-go-portfolios/app/types"
)

// PortfolioView bundles a published portfolio with its active template.
// Template is nil when the portfolio references no template or an inactive
// one; rendering falls back to the built-in layout in that case.
type PortfolioView struct {
	Portfolio *entity.Portfolio
	Template  *entity.Template
}

// GetPublishedPortfolio serves the public lookup. Unpublished drafts are
// indistinguishable from missing ones on purpose: draft existence leaks
// nothing before payment.
func (s *PortfolioService) GetPublishedPortfolio(ctx context.Context, request *types.GetPortfolioRequest) (*PortfolioView, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	portfolio, err := s.portfolioRepo.FindPublishedByUsername(ctx, request.Username)
	if err != nil {
		return nil, err
	}
	if portfolio == nil {
		return nil, ErrPortfolioNotFound
	}

	view := &PortfolioView{Portfolio: portfolio}
	if portfolio.Template != "" {
		template, err := s.templateRepo.FindByName(ctx, portfolio.Template)
		if err != nil {
			s.logger.WithError(err).WithField("template", portfolio.Template).Warn("template lookup failed, using fallback")
		} else {
			view.Template = template
		}
	}

	return view, nil
}

// RenderPortfolioPage resolves the published portfolio and renders it to a
// standalone HTML page.
func (s *PortfolioService) RenderPortfolioPage(ctx context.Context, request *types.GetPortfolioRequest) (string, error) {
	view, err := s.GetPublishedPortfolio(ctx, request)
	if err != nil {
		return "", err
	}
	return htmlgen.Render(view.Portfolio, view.Template), nil
}

func (s *PortfolioService) AdminListPortfolios(ctx context.Context, request *types.ListPortfoliosRequest) ([]*entity.Portfolio, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}
	return s.portfolioRepo.List(ctx, request.Limit, request.Offset)
}

// AdminUpdatePortfolio patches content fields. Publication state is owned by
// the payment flow; the only admin-side transition is unpublishing.
func (s *PortfolioService) AdminUpdatePortfolio(ctx context.Context, request *types.UpdatePortfolioRequest) (*entity.Portfolio, error) {
	if err := request.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	portfolio, err := s.portfolioRepo.FindByID(ctx, request.ID)
	if err != nil {
		return nil, err
	}
	if portfolio == nil {
		return nil, ErrPortfolioNotFound
	}

	applyStringPatch(&portfolio.TokenName, request.TokenName)
	applyStringPatch(&portfolio.Ticker, request.Ticker)
	applyStringPatch(&portfolio.ContractAddress, request.ContractAddress)
	applyStringPatch(&portfolio.Slogan, request.Slogan)
	applyStringPatch(&portfolio.Description, request.Description)
	applyStringPatch(&portfolio.Template, request.Template)
	applyStringPatch(&portfolio.LogoURL, request.LogoURL)
	applyStringPatch(&portfolio.BannerURL, request.BannerURL)
	applyStringPatch(&portfolio.TwitterURL, request.TwitterURL)
	applyStringPatch(&portfolio.TelegramURL, request.TelegramURL)
	applyStringPatch(&portfolio.WebsiteURL, request.WebsiteURL)
	portfolio.UpdatedAt = time.Now().UTC()

	if err = s.portfolioRepo.Update(ctx, portfolio); err != nil {
		return nil, err
	}

	if request.IsPublished != nil && !*request.IsPublished && portfolio.IsPublished {
		unpublished, err := s.portfolioRepo.Unpublish(ctx, portfolio.ID, time.Now().UTC())
		if err != nil {
			return nil, err
		}
		if unpublished {
			portfolio.IsPublished = false
			portfolio.PublishedAt = nil
			s.logger.WithField("portfolio_id", portfolio.ID).Info("portfolio unpublished by admin")
		}
	}

	return portfolio, nil
}

func (s *PortfolioService) AdminDeletePortfolio(ctx context.Context, request *types.DeletePortfolioRequest) error {
	if err := request.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	if err := s.portfolioRepo.Delete(ctx, request.ID); err != nil {
		if errors.Is(err, repository.ErrPortfolioNotFound) {
			return ErrPortfolioNotFound
		}
		return err
	}

	s.logger.WithField("portfolio_id", request.ID).Info("portfolio deleted by admin")
	return nil
}

func applyStringPatch(target *string, value *string) {
	if value != nil {
		*target = *value
	}
}
