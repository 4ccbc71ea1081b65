package router

import (
	"dongnezip/internal/adapter/api/handler"
	"dongnezip/internal/adapter/api/middleware"

	"github.com/labstack/echo/v4"
)

func SetupListingRouter(e *echo.Echo, listingHandler *handler.ListingHandler, authMiddleware *middleware.AuthMiddleware) {
	listings := e.Group("/v1/listings")

	// Public: browsing works signed out, and the favorite and chat buttons
	// answer anonymous callers with a login prompt.
	listings.GET("", listingHandler.Browse)
	listings.POST("/search", listingHandler.Search)
	listings.DELETE("/search", listingHandler.ResetSearch)
	listings.GET("/:id", listingHandler.Get)
	listings.POST("/:id/favorite", listingHandler.ToggleFavorite)
	listings.POST("/:id/chat", listingHandler.StartChat)

	listings.PATCH("/:id", listingHandler.Update, authMiddleware.Authenticate)
	listings.DELETE("/:id", listingHandler.Delete, authMiddleware.Authenticate)
}
