package router

import (
	"dongnezip/internal/adapter/api/handler"

	"github.com/labstack/echo/v4"
)

func SetupSessionRouter(e *echo.Echo, authHandler *handler.AuthHandler) {
	sessions := e.Group("/v1/session")
	sessions.GET("", authHandler.Current)
	sessions.POST("", authHandler.Login)
	sessions.DELETE("", authHandler.Logout)
}
