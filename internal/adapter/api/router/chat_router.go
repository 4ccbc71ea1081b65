package router

import (
	"dongnezip/internal/adapter/api/handler"
	"dongnezip/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chats := e.Group("/v1/chats")
	chats.Use(authMiddleware.Authenticate)

	chats.POST("/:roomId", chatHandler.Open)
	chats.DELETE("/:roomId", chatHandler.Close)
	chats.GET("/:roomId/messages", chatHandler.Messages)
	chats.POST("/:roomId/messages", chatHandler.SendText)
	chats.POST("/:roomId/older", chatHandler.LoadOlder)
	chats.POST("/:roomId/images", chatHandler.SendImage)
	chats.POST("/:roomId/complete", chatHandler.Complete)
	chats.POST("/:roomId/complete/resume", chatHandler.ResumeCompletion)
}
