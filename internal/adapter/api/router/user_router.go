package router

import (
	"dongnezip/internal/adapter/api/handler"
	"dongnezip/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupUserRouter(e *echo.Echo, userHandler *handler.UserHandler, authMiddleware *middleware.AuthMiddleware) {
	me := e.Group("/v1/me")
	me.Use(authMiddleware.Authenticate)

	me.GET("", userHandler.MyPage)
	me.GET("/sold-items", userHandler.SoldItems)
}
