package cmd

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/tokenfolio/ms-go-portfolios/app/controller"
	"github.com/tokenfolio/ms-go-portfolios/app/provider"
	"github.com/tokenfolio/ms-go-portfolios/app/repository"
	"github.com/tokenfolio/ms-go-portfolios/app/service"
	"github.com/tokenfolio/ms-go-portfolios/app/types"
	"github.com/tokenfolio/ms-go-portfolios/config"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  "Start the HTTP (Echo) server for the portfolios service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, portfolioService, cleanup := mustCreatePortfolioService()
	defer cleanup()

	paymentController := controller.NewPaymentController(portfolioService)
	portfolioController := controller.NewPortfolioController(portfolioService)

	e := setupHTTPServer(paymentController, portfolioController, cfg.App.AdminAccessKey)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	paymentController *controller.PaymentController,
	portfolioController *controller.PortfolioController,
	adminAccessKey string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	e.GET("/health", paymentController.Health)

	payments := e.Group("/payments")
	payments.POST("", paymentController.CreatePayment)
	payments.GET("/:id", paymentController.GetPayment)

	e.POST("/webhooks/helio", paymentController.HandleHelioWebhook)

	portfolios := e.Group("/portfolios")
	portfolios.GET("/:username", portfolioController.GetPortfolio)
	portfolios.GET("/:username/page", portfolioController.GetPortfolioPage)

	admin := e.Group("/admin", requireAdminKey(adminAccessKey))
	admin.GET("/portfolios", portfolioController.ListPortfolios)
	admin.PATCH("/portfolios/:id", portfolioController.UpdatePortfolio)
	admin.DELETE("/portfolios/:id", portfolioController.DeletePortfolio)

	return e
}

// requireAdminKey guards the admin surface with a static access key, taken
// from the X-Admin-Access-Key header or a bearer Authorization header. With
// no key configured the surface is disabled outright rather than left open.
func requireAdminKey(adminAccessKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if adminAccessKey == "" {
				return ctx.JSON(http.StatusForbidden, &types.ErrorResponse{Error: "admin access is not configured"})
			}
			provided := adminKeyFromRequest(ctx)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(adminAccessKey)) != 1 {
				return ctx.JSON(http.StatusUnauthorized, &types.ErrorResponse{Error: "unauthorized"})
			}
			return next(ctx)
		}
	}
}

func adminKeyFromRequest(ctx echo.Context) string {
	if key := strings.TrimSpace(ctx.Request().Header.Get("X-Admin-Access-Key")); key != "" {
		return key
	}
	auth := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderAuthorization))
	if len(auth) > 7 && strings.EqualFold(auth[:7], "Bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func mustCreatePortfolioService() (*config.Config, *service.PortfolioService, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}

	portfolioRepo := repository.NewPortfolioRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	eventRepo := repository.NewPaymentEventRepository(db)
	templateRepo := repository.NewTemplateRepository(db)

	helioClient := provider.NewHelioClient(provider.HelioConfig{
		APIKey:      cfg.Helio.APIKey,
		PaylinkID:   cfg.Helio.PaylinkID,
		BaseURL:     cfg.Helio.BaseURL,
		HTTPTimeout: cfg.Helio.HTTPTimeout,
	})

	portfolioService := service.NewPortfolioService(
		portfolioRepo,
		paymentRepo,
		eventRepo,
		templateRepo,
		helioClient,
		cfg.Payments,
		cfg.Helio.WebhookSecret,
	)

	cleanup := func() {
		if err := db.Close(); err != nil {
			logrus.WithError(err).Warn("Failed to close database")
		}
	}

	return cfg, portfolioService, cleanup
}
