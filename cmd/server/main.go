package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/pestiq-backend/internal/config"
	"github.com/iliyamo/pestiq-backend/internal/database"
	"github.com/iliyamo/pestiq-backend/internal/handler"
	"github.com/iliyamo/pestiq-backend/internal/logger"
	"github.com/iliyamo/pestiq-backend/internal/mailer"
	"github.com/iliyamo/pestiq-backend/internal/middleware"
	"github.com/iliyamo/pestiq-backend/internal/queue"
	"github.com/iliyamo/pestiq-backend/internal/repository"
	"github.com/iliyamo/pestiq-backend/internal/router"
	"github.com/iliyamo/pestiq-backend/internal/service"
	"github.com/iliyamo/pestiq-backend/internal/storage"
	"github.com/iliyamo/pestiq-backend/internal/validator"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Env)

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		logger.Fatal("database connection failed", "error", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient() // nil when Redis is disabled or unreachable
	if rdb != nil {
		defer rdb.Close()
	}

	mailCfg, err := config.LoadMailConfig()
	if err != nil {
		logger.Fatal("mail config", "error", err)
	}
	aiCfg, err := config.LoadAnalyzerConfig()
	if err != nil {
		logger.Fatal("analyzer config", "error", err)
	}
	qCfg, err := config.LoadQueueConfig()
	if err != nil {
		logger.Fatal("queue config", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var events queue.EventPublisher = queue.NopPublisher{}
	if qCfg.Enabled {
		pub, err := queue.NewPublisher(qCfg.URL, qCfg.Queue)
		if err != nil {
			logger.Warn("rabbitmq unavailable, publisher will redial on demand", "error", err)
		}
		defer pub.Close()
		events = pub
		go func() {
			if err := queue.StartActivityConsumer(ctx, qCfg.URL, qCfg.Queue, qCfg.LogDir); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("activity consumer stopped", "error", err)
			}
		}()
	}

	files, err := storage.NewLocalStorage(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		logger.Fatal("storage init failed", "error", err)
	}

	users := repository.NewUserRepo(db)
	authSvc := service.NewAuthService(service.AuthConfig{
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		OTPTTL:     cfg.OTPTTL,
		BcryptCost: cfg.BcryptCost,
		Admin:      service.AdminCredentials{Email: cfg.AdminEmail, Password: cfg.AdminPassword},
	}, users, users, mailer.NewSMTPMailer(mailCfg, int(cfg.OTPTTL/time.Minute)), events)

	photos := repository.NewPhotoRepo(db)
	h := router.Handlers{
		Auth: handler.NewAuthHandler(authSvc),
		Google: handler.NewGoogleHandler(authSvc, cfg.GoogleClientID, cfg.GoogleClientSecret,
			cfg.GoogleCallbackURL, cfg.FrontendURL, cfg.IsProduction()),
		CompanyUsers: handler.NewCompanyUserHandler(users, cfg.BcryptCost),
		Account:      handler.NewAccountHandler(repository.NewAccountRepo(db), files, events),
		Customers:    handler.NewCustomerHandler(repository.NewCustomerRepo(db)),
		Locations:    handler.NewLocationHandler(repository.NewLocationRepo(db)),
		Meetings:     handler.NewMeetingHandler(repository.NewMeetingRepo(db)),
		Photos:       handler.NewPhotoHandler(photos, files, events),
		Traps:        handler.NewTrapHandler(repository.NewTrapRepo(db)),
		Billing:      handler.NewBillingHandler(repository.NewInvoiceRepo(db), repository.NewSubscriptionRepo(db)),
		AI:           handler.NewAIHandler(service.NewAnalyzer(aiCfg), repository.NewAIResultRepo(db)),
		Assignments:  handler.NewAssignmentHandler(repository.NewAssignmentRepo(db)),
		Reports:      handler.NewReportHandler(repository.NewCompanyRepo(db), photos),
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowCredentials: true,
	}))
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	e.Static("/uploads", cfg.UploadDir)

	router.Register(e, h, router.Middlewares{
		Auth:     middleware.Auth(cfg.JWTSecret, authSvc),
		OTPLimit: middleware.NewOTPLimiter(config.LoadOTPRateLimitConfig(), rdb),
		Cache:    middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
}
