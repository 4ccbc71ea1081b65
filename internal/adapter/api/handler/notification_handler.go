package handler

import (
	"dongnezip/internal/usecase"
	"dongnezip/pkg/response"

	"github.com/labstack/echo/v4"
)

type NotificationHandler struct {
	ingest *usecase.NotificationIngest
}

func NewNotificationHandler(ingest *usecase.NotificationIngest) *NotificationHandler {
	return &NotificationHandler{ingest: ingest}
}

func (h *NotificationHandler) List(c echo.Context) error {
	return response.Success(c, h.ingest.View())
}

func (h *NotificationHandler) Clear(c echo.Context) error {
	h.ingest.Clear()
	return response.Success(c, h.ingest.View())
}
