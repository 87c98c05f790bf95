package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"findit/internal/adapter/api"
	"findit/internal/adapter/api/handler"
	apimiddleware "findit/internal/adapter/api/middleware"
	"findit/internal/adapter/api/router"
	"findit/internal/adapter/repository"
	"findit/internal/infrastructure/firebase"
	"findit/internal/infrastructure/ratelimit"
	"findit/internal/infrastructure/websocket"
	"findit/internal/usecase"
	"findit/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opts []option.ClientOption

	serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON")
	if serviceAccountJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(serviceAccountJSON)))
	} else if serviceAccountPath := os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH"); serviceAccountPath != "" {
		if _, err := os.Stat(serviceAccountPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", serviceAccountPath)
		}
		opts = append(opts, option.WithCredentialsFile(serviceAccountPath))
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opts...)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opts...)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	itemRepo := repository.NewFirestoreItemRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)

	firebaseAuthClient := firebase.NewFirebaseAuthClient(authClient, cfg.FirebaseApiKey)

	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	userUseCase := usecase.NewUserUseCase(userRepo)
	itemUseCase := usecase.NewItemUseCase(itemRepo, rateLimiter, cfg.MaxImageBytes)
	chatUseCase := usecase.NewChatUseCase(chatRepo, itemRepo, userRepo, rateLimiter)

	wsManager := websocket.NewManager()
	wsManager.Start(ctx)
	frameHandler := websocket.NewFrameHandler(wsManager, chatUseCase, itemUseCase)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(firebaseAuthClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)

	handler.Setup(userUseCase, itemUseCase, chatUseCase)
	handler.SetupWebSocketHandler(wsManager, frameHandler, authMiddleware)
	handler.SetupHealthHandler()

	router.Setup(e, authMiddleware, adminMiddleware)

	if cfg.Environment == "development" {
		handler.SetupDevTokenHandler(firebaseAuthClient, userRepo)
		router.SetupDevRouter(e)
	}

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
}
