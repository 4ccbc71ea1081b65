package handler

import (
	ws "dongnezip/internal/infrastructure/websocket"
	"dongnezip/internal/usecase"
)

// Handlers groups every gateway handler so the router can be set up in one call.
type Handlers struct {
	Session      *AuthHandler
	Listing      *ListingHandler
	Chat         *ChatHandler
	Notification *NotificationHandler
	User         *UserHandler
	Health       *HealthHandler
	WebSocket    *WebSocketHandler
}

type Deps struct {
	Auth          *usecase.AuthUseCase
	Query         *usecase.ListingQuery
	Listings      *usecase.ListingUseCase
	Favorites     *usecase.FavoriteUseCase
	Chats         *usecase.ChatUseCase
	Notifications *usecase.NotificationIngest
	Users         *usecase.UserUseCase
	Hub           *ws.Hub
	ChatSocket    Connectivity
}

func Setup(d Deps) *Handlers {
	return &Handlers{
		Session:      NewAuthHandler(d.Auth),
		Listing:      NewListingHandler(d.Query, d.Listings, d.Favorites),
		Chat:         NewChatHandler(d.Chats),
		Notification: NewNotificationHandler(d.Notifications),
		User:         NewUserHandler(d.Users),
		Health:       NewHealthHandler(d.Hub, d.ChatSocket),
		WebSocket:    NewWebSocketHandler(d.Hub),
	}
}
