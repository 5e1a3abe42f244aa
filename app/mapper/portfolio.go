package mapper

import (
	"strconv"

	"github.com/tokenfolio/ms-go-portfolios/app/entity"
	"github.com/tokenfolio/ms-go-portfolios/app/types"
)

func PortfolioToResponse(portfolio *entity.Portfolio, template *entity.Template) *types.PortfolioPayload {
	if portfolio == nil {
		return nil
	}

	payload := &types.PortfolioPayload{
		ID:              strconv.FormatUint(portfolio.ID, 10),
		Username:        portfolio.Username,
		TokenName:       portfolio.TokenName,
		Ticker:          portfolio.Ticker,
		ContractAddress: portfolio.ContractAddress,
		Slogan:          portfolio.Slogan,
		Description:     portfolio.Description,
		Template:        portfolio.Template,
		LogoURL:         portfolio.LogoURL,
		BannerURL:       portfolio.BannerURL,
		TwitterURL:      portfolio.TwitterURL,
		TelegramURL:     portfolio.TelegramURL,
		WebsiteURL:      portfolio.WebsiteURL,
		IsPublished:     portfolio.IsPublished,
		PublishedAt:     formatTimePtr(portfolio.PublishedAt),
		CreatedAt:       formatTime(portfolio.CreatedAt),
		UpdatedAt:       formatTime(portfolio.UpdatedAt),
	}

	if template != nil {
		payload.Templates = &types.TemplatePayload{
			Name:         template.Name,
			DisplayName:  template.DisplayName,
			HTMLTemplate: template.HTMLTemplate,
			CSSTemplate:  template.CSSTemplate,
		}
	}

	return payload
}

func PortfoliosToResponse(portfolios []*entity.Portfolio) []*types.PortfolioPayload {
	result := make([]*types.PortfolioPayload, 0, len(portfolios))
	for _, item := range portfolios {
		result = append(result, PortfolioToResponse(item, nil))
	}
	return result
}
