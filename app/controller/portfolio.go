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

type PortfolioController struct {
	portfolioService *service.PortfolioService
	logger           logrus.FieldLogger
}

func NewPortfolioController(portfolioService *service.PortfolioService) *PortfolioController {
	return &PortfolioController{
		portfolioService: portfolioService,
		logger:           factory.NewModuleLogger("portfolios-controller"),
	}
}

func (c *PortfolioController) GetPortfolio(ctx echo.Context) error {
	req := types.NewGetPortfolioRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	view, err := c.portfolioService.GetPublishedPortfolio(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPortfolioNotFound):
			return c.writeError(ctx, http.StatusNotFound, "portfolio not found")
		default:
			c.logger.WithError(err).Error("Get portfolio failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.PortfolioEnvelopeResponse{
		Portfolio: mapper.PortfolioToResponse(view.Portfolio, view.Template),
	})
}

func (c *PortfolioController) GetPortfolioPage(ctx echo.Context) error {
	req := types.NewGetPortfolioRequestFromContext(ctx)
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	page, err := c.portfolioService.RenderPortfolioPage(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPortfolioNotFound):
			return ctx.HTML(http.StatusNotFound, "<h1>Portfolio not found</h1>")
		default:
			c.logger.WithError(err).Error("Render portfolio page failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.HTML(http.StatusOK, page)
}

func (c *PortfolioController) ListPortfolios(ctx echo.Context) error {
	req, err := types.NewListPortfoliosRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	items, err := c.portfolioService.AdminListPortfolios(ctx.Request().Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidRequest) {
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		}
		c.logger.WithError(err).Error("List portfolios failed")
		return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
	}

	return ctx.JSON(http.StatusOK, &types.ListPortfoliosResponse{
		Portfolios: mapper.PortfoliosToResponse(items),
	})
}

func (c *PortfolioController) UpdatePortfolio(ctx echo.Context) error {
	req, err := types.NewUpdatePortfolioRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request body")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	item, err := c.portfolioService.AdminUpdatePortfolio(ctx.Request().Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPortfolioNotFound):
			return c.writeError(ctx, http.StatusNotFound, "portfolio not found")
		default:
			c.logger.WithError(err).Error("Update portfolio failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.PortfolioEnvelopeResponse{
		Portfolio: mapper.PortfolioToResponse(item, nil),
	})
}

func (c *PortfolioController) DeletePortfolio(ctx echo.Context) error {
	req, err := types.NewDeletePortfolioRequestFromContext(ctx)
	if err != nil {
		return c.writeError(ctx, http.StatusBadRequest, "invalid request")
	}
	if err := req.Validate(); err != nil {
		return c.writeError(ctx, http.StatusBadRequest, err.Error())
	}

	if err := c.portfolioService.AdminDeletePortfolio(ctx.Request().Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			return c.writeError(ctx, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrPortfolioNotFound):
			return c.writeError(ctx, http.StatusNotFound, "portfolio not found")
		default:
			c.logger.WithError(err).Error("Delete portfolio failed")
			return c.writeError(ctx, http.StatusInternalServerError, "internal server error")
		}
	}

	return ctx.JSON(http.StatusOK, &types.MessageResponse{Message: "Portfolio deleted"})
}

func (c *PortfolioController) writeError(ctx echo.Context, statusCode int, message string) error {
	return ctx.JSON(statusCode, &types.ErrorResponse{Error: message})
}
