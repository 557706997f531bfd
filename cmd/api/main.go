package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"aeroclassifieds/internal/adapter/api"
	"aeroclassifieds/internal/adapter/api/handler"
	apimiddleware "aeroclassifieds/internal/adapter/api/middleware"
	"aeroclassifieds/internal/adapter/api/router"
	"aeroclassifieds/internal/adapter/repository"
	"aeroclassifieds/internal/domain/entity"
	"aeroclassifieds/internal/infrastructure/firebase"
	"aeroclassifieds/internal/infrastructure/metrics"
	"aeroclassifieds/internal/infrastructure/ratelimit"
	"aeroclassifieds/internal/infrastructure/storage"
	"aeroclassifieds/internal/infrastructure/websocket"
	"aeroclassifieds/internal/usecase"
	"aeroclassifieds/pkg/config"
	"aeroclassifieds/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.Init(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dedupMode, err := entity.ParseDedupMode(cfg.DedupMode)
	if err != nil {
		fatal("Invalid configuration: %v", err)
	}

	app, err := firebase.NewApp(ctx, cfg)
	if err != nil {
		fatal("Failed to initialize Firebase: %v", err)
	}
	defer app.Close()

	files, err := storage.NewFromConfig(ctx, cfg, app.Options...)
	if err != nil {
		fatal("Failed to initialize blob storage: %v", err)
	}
	defer files.Close()

	staging, closeStaging, err := repository.NewStagingFromConfig(ctx, cfg)
	if err != nil {
		fatal("Failed to initialize attachment staging: %v", err)
	}
	defer closeStaging()

	convRepo := repository.NewFirestoreConversationRepository(app.Firestore)
	msgRepo := repository.NewFirestoreMessageRepository(app.Firestore)

	identity := firebase.NewFirebaseAuthClient(app.Auth, cfg.FirebaseAPIKey)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	limiter := ratelimit.NewRateLimiter(ratelimit.Limit{PerMinute: cfg.RateLimitPerMinute}, map[string]ratelimit.Limit{
		"create_conversation": {PerMinute: 10, Burst: 5},
		"send_message":        {PerMinute: cfg.RateLimitPerMinute, Burst: 10},
		"stage_attachment":    {PerMinute: 10, Burst: 5},
	})
	limiter.StartCleanupRoutine(5*time.Minute, ctx.Done())

	conversationUseCase := usecase.NewConversationUseCase(convRepo, msgRepo, dedupMode, limiter, appMetrics)
	messageUseCase := usecase.NewMessageUseCase(convRepo, msgRepo, staging, files, limiter, appMetrics)
	attachmentUseCase := usecase.NewAttachmentUseCase(staging, cfg.AttachmentMaxBytes, cfg.StagingTTL)
	subscriptionUseCase := usecase.NewSubscriptionUseCase(convRepo, msgRepo, appMetrics)

	wsManager := websocket.NewManager(websocket.Services{
		Subscriptions: subscriptionUseCase,
		Conversations: conversationUseCase,
		Messages:      messageUseCase,
	})

	handler.Setup(conversationUseCase, messageUseCase, attachmentUseCase, identity, wsManager, cfg.AttachmentMaxBytes)
	if cfg.IsDevelopment() {
		handler.SetupDevTokenHandler(identity)
	}

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	if len(cfg.AllowedOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: cfg.AllowedOrigins}))
	} else {
		e.Use(middleware.CORS())
	}

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(identity)
	wsHandler := handler.NewWebSocketHandler(ctx, wsManager, authMiddleware, cfg.AllowedOrigins)

	router.Setup(e, authMiddleware, limiter, registry)
	router.SetupDevRouter(e, cfg.Environment)
	router.SetupWebSocketRouter(e, wsHandler)

	conversationUseCase.StartCleanupJob(ctx, cfg.CleanupInterval)
	attachmentUseCase.StartSweepJob(ctx, cfg.CleanupInterval)

	go func() {
		logger.Info("Starting server on port %s (dedup mode %s, storage %s)", cfg.ServerPort, dedupMode, cfg.StorageDriver)
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	wsManager.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed: %v", err)
	}
}

func fatal(format string, v ...interface{}) {
	logger.Error(format, v...)
	os.Exit(1)
}
