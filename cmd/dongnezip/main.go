package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"dongnezip/internal/adapter/api"
	"dongnezip/internal/adapter/api/handler"
	apimiddleware "dongnezip/internal/adapter/api/middleware"
	"dongnezip/internal/adapter/api/router"
	"dongnezip/internal/adapter/backend"
	"dongnezip/internal/domain/repository"
	"dongnezip/internal/infrastructure/auth"
	"dongnezip/internal/infrastructure/localdb"
	"dongnezip/internal/infrastructure/ratelimit"
	"dongnezip/internal/infrastructure/websocket"
	"dongnezip/internal/usecase"
	"dongnezip/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	clientDB, err := localdb.NewClientDB(cfg.LocalDBPath)
	if err != nil {
		log.Fatalf("Failed to open local database: %v", err)
	}
	defer clientDB.Close()

	tokens := auth.NewHolder(clientDB)

	client := backend.NewClient(cfg.APIServerURL, cfg.HTTPTimeout, tokens.Token)
	listingRepo := backend.NewListingBackend(client)
	chatRepo := backend.NewChatBackend(client)
	userRepo := backend.NewUserBackend(client)

	hub := websocket.NewHub()
	hub.Start(ctx)

	// Every chat room shares one socket; notifications get their own.
	chatSocket := websocket.NewSocket(cfg.SocketURL, tokens.Token)
	defer chatSocket.Close()
	newSocket := func() repository.RealtimeChannel {
		return websocket.NewSocket(cfg.SocketURL, tokens.Token)
	}

	rateLimiter := ratelimit.NewRateLimiter(cfg.SendRatePerMinute)
	rateLimiter.StartCleanupRoutine(ctx)

	store := usecase.NewStore()
	notificationIngest := usecase.NewNotificationIngest(newSocket, store, hub)
	defer notificationIngest.Stop()

	listingQuery := usecase.NewListingQuery(listingRepo, store, hub)
	favoriteUseCase := usecase.NewFavoriteUseCase(listingRepo, userRepo, rateLimiter, listingQuery)
	listingUseCase := usecase.NewListingUseCase(listingRepo, chatRepo, store, favoriteUseCase)
	chatUseCase := usecase.NewChatUseCase(chatRepo, listingRepo, chatSocket, store, rateLimiter, hub, cfg.ChatPageSize)
	userUseCase := usecase.NewUserUseCase(userRepo, store)
	authUseCase := usecase.NewAuthUseCase(userRepo, tokens, store, notificationIngest, hub)

	authUseCase.OnLogout(chatUseCase.Logout)
	authUseCase.OnLogout(favoriteUseCase.Reset)
	authUseCase.OnLogout(userUseCase.Reset)

	if session, err := authUseCase.Restore(ctx); err != nil {
		log.Printf("Failed to restore session: %v", err)
	} else if session.Resolved() {
		log.Printf("Restored session for user %s", session.UserID)
	}

	if err := listingQuery.Load(ctx); err != nil {
		log.Printf("Initial listing load failed: %v", err)
	}

	handlers := handler.Setup(handler.Deps{
		Auth:          authUseCase,
		Query:         listingQuery,
		Listings:      listingUseCase,
		Favorites:     favoriteUseCase,
		Chats:         chatUseCase,
		Notifications: notificationIngest,
		Users:         userUseCase,
		Hub:           hub,
		ChatSocket:    chatSocket,
	})

	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(apimiddleware.RateLimit(rateLimiter))

	e.Validator = api.NewValidator()

	router.Setup(e, handlers, apimiddleware.NewAuthMiddleware(store))

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		chatUseCase.CloseAll()
		if err := e.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Starting UI gateway on port %s (backend %s)...", cfg.UIPort, cfg.APIServerURL)
	if err := e.Start(":" + cfg.UIPort); err != nil && ctx.Err() == nil {
		e.Logger.Fatal(err)
	}
}
