package main

import (
	"context"
	"log"
	"os"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"bantuin/internal/adapter/api"
	"bantuin/internal/adapter/api/handler"
	apimiddleware "bantuin/internal/adapter/api/middleware"
	"bantuin/internal/adapter/api/router"
	"bantuin/internal/adapter/repository"
	"bantuin/internal/infrastructure/firebase"
	"bantuin/internal/infrastructure/notification"
	"bantuin/internal/infrastructure/websocket"
	"bantuin/internal/usecase"
	"bantuin/pkg/config"
	"bantuin/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var opt option.ClientOption

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if serviceAccountPath == "" {
			serviceAccountPath = "./service-account.json"
		}
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		opt = option.WithCredentialsFile(serviceAccountPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	// Repositories
	requestRepo := repository.NewFirestoreHelpRequestRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)
	reviewRepo := repository.NewFirestoreReviewRepository(firestoreClient)
	userRepo := repository.NewFirestoreUserRepository(firestoreClient)

	// Events are optional infrastructure: the engine runs without a broker,
	// it just stops notifying downstream consumers.
	var eventPublisher notification.Publisher
	if publisher, err := notification.NewAmqpPublisher(cfg.AmqpURI, cfg.EventQueue); err != nil {
		logger.Warn("Event publisher unavailable, continuing without events: %v", err)
	} else {
		eventPublisher = publisher
		defer publisher.Close()
	}

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)

	firebaseAuthClient := firebase.NewAuthClient(authClient)

	// Use cases
	userUseCase := usecase.NewUserUseCase(userRepo, firebaseAuthClient)
	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, wsManager)
	reputationUseCase := usecase.NewReputationUseCase(reviewRepo, requestRepo, userRepo)
	requestUseCase := usecase.NewRequestUseCase(requestRepo, reviewRepo, userRepo, chatUseCase, reputationUseCase, eventPublisher)

	sweeper := usecase.NewExpirySweeper(requestRepo, requestUseCase, time.Duration(cfg.SweepInterval)*time.Second)
	sweeper.Start(ctx)

	// HTTP server
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()

	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)

	handlers := router.Handlers{
		Request:   handler.NewRequestHandler(requestUseCase),
		Chat:      handler.NewChatHandler(chatUseCase),
		User:      handler.NewUserHandler(userUseCase, reputationUseCase),
		Health:    handler.NewHealthHandler(),
		WebSocket: handler.NewWebSocketHandler(wsManager, authMiddleware),
	}
	router.Setup(e, handlers, authMiddleware)

	logger.Info("Starting server on port %s (%s)", cfg.ServerPort, cfg.Environment)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
