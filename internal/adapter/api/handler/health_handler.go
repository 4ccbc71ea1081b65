package handler

import (
	"net/http"
	"time"

	ws "dongnezip/internal/infrastructure/websocket"

	"github.com/labstack/echo/v4"
)

// Connectivity reports whether a realtime channel is currently up.
type Connectivity interface {
	Connected() bool
}

type HealthHandler struct {
	hub        *ws.Hub
	chatSocket Connectivity
}

func NewHealthHandler(hub *ws.Hub, chatSocket Connectivity) *HealthHandler {
	return &HealthHandler{
		hub:        hub,
		chatSocket: chatSocket,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	body := map[string]interface{}{
		"status": "Client is running",
		"time":   time.Now().Format(time.RFC3339),
	}
	if h.hub != nil {
		body["uiClients"] = h.hub.ClientCount()
	}
	if h.chatSocket != nil {
		body["chatSocket"] = h.chatSocket.Connected()
	}
	return c.JSON(http.StatusOK, body)
}
