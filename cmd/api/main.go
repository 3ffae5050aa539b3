package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	gcs "cloud.google.com/go/storage"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"rikoadmin/internal/adapter/api"
	"rikoadmin/internal/adapter/api/handler"
	apimiddleware "rikoadmin/internal/adapter/api/middleware"
	"rikoadmin/internal/adapter/api/router"
	"rikoadmin/internal/adapter/repository"
	"rikoadmin/internal/domain/entity"
	domainrepo "rikoadmin/internal/domain/repository"
	"rikoadmin/internal/infrastructure/firebase"
	"rikoadmin/internal/infrastructure/ratelimit"
	"rikoadmin/internal/infrastructure/storage"
	"rikoadmin/internal/infrastructure/websocket"
	"rikoadmin/internal/usecase"
	"rikoadmin/pkg/config"
	"rikoadmin/pkg/logger"
	"rikoadmin/pkg/response"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger.Setup(cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var opt option.ClientOption
	if cfg.ServiceAccountJSON != "" {
		logger.Info("Using Firebase service account from environment variable")
		opt = option.WithCredentialsJSON([]byte(cfg.ServiceAccountJSON))
	} else {
		if cfg.ServiceAccountPath == "" {
			log.Fatalf("FIREBASE_SERVICE_ACCOUNT_JSON or FIREBASE_SERVICE_ACCOUNT_PATH must be set")
		}
		if _, err := os.Stat(cfg.ServiceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", cfg.ServiceAccountPath)
		}
		logger.Info("Using Firebase service account from file: %s", cfg.ServiceAccountPath)
		opt = option.WithCredentialsFile(cfg.ServiceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{
		ProjectID:     cfg.FirebaseProject,
		StorageBucket: cfg.StorageBucket,
	}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	var pushSender usecase.PushSender
	if cfg.PushEnabled {
		messagingClient, err := firebaseApp.Messaging(ctx)
		if err != nil {
			log.Fatalf("Failed to initialize Firebase Messaging: %v", err)
		}
		pushSender = firebase.NewFirebaseMessagingClient(messagingClient)
	} else {
		logger.Warn("Push notifications disabled")
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	gcsClient, err := gcs.NewClient(ctx, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	storageClient := storage.NewCloudStorageClient(ctx, gcsClient, cfg.StorageBucket, cfg.AllowedOrigins)
	defer storageClient.Close()

	backend := repository.NewBackendClient(cfg.BackendBaseURL, cfg.BackendTimeout)
	restaurantRepo := repository.NewRestRestaurantRepository(backend)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient, cfg.ChatCollection)
	deviceTokenRepo := repository.NewFirestoreDeviceTokenRepository(firestoreClient)
	newOrderRepo := func(session *entity.Session) domainrepo.OrderRepository {
		return repository.NewRestOrderRepository(backend, session)
	}

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine(ctx.Done())

	wsManager := websocket.NewManager()

	alertUseCase := usecase.NewAlertUseCase(wsManager, pushSender, deviceTokenRepo)
	boardUseCase := usecase.NewOrderBoardUseCase(
		newOrderRepo,
		chatRepo,
		alertUseCase,
		cfg.OrderPollInterval,
		usecase.WithFailureBackoff(cfg.OrderPollMaxSkip),
	)
	defer boardUseCase.CloseAll()

	wsManager.SetChatViewHandler(boardUseCase)
	wsManager.Start(ctx)

	chatUseCase := usecase.NewChatUseCase(chatRepo, storageClient, rateLimiter)
	reportUseCase := usecase.NewReportUseCase(newOrderRepo)
	authUseCase := usecase.NewAuthUseCase(restaurantRepo, deviceTokenRepo, firebaseAuthClient, boardUseCase, rateLimiter)

	handler.Setup(authUseCase, boardUseCase, chatUseCase, reportUseCase, cfg.MaxUploadSize)
	handler.SetupHealthHandler(restaurantRepo)

	e := echo.New()
	e.HideBanner = true
	e.Debug = cfg.IsDevelopment()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = response.ErrorHandler

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient, authUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, cfg.AllowedOrigins)

	router.Setup(e, authMiddleware, rateLimiter)
	router.SetupWebSocketRouter(e, wsHandler, authMiddleware)

	go func() {
		logger.Info("Starting server on port %s...", cfg.ServerPort)
		if err := e.Start(":" + cfg.ServerPort); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed: %v", err)
	}
}
