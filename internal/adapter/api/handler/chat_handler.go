package handler

import (
	"dongnezip/internal/domain/entity"
	"dongnezip/internal/usecase"
	"dongnezip/pkg/errors"
	"dongnezip/pkg/response"

	"github.com/labstack/echo/v4"
)

type ChatHandler struct {
	chatUseCase *usecase.ChatUseCase
}

func NewChatHandler(chatUseCase *usecase.ChatUseCase) *ChatHandler {
	return &ChatHandler{
		chatUseCase: chatUseCase,
	}
}

type openChatRequest struct {
	ItemID    int64         `json:"itemId"`
	ChatHost  entity.UserID `json:"chatHost"`
	ChatGuest entity.UserID `json:"chatGuest"`
	GuestNick string        `json:"guestNick"`
}

type sendMessageRequest struct {
	Message string `json:"message" validate:"required"`
}

// Open mounts the room. A socket failure still returns the view, which then
// carries the failed state and whatever history loaded.
func (h *ChatHandler) Open(c echo.Context) error {
	roomID, err := int64Param(c, "roomId")
	if err != nil {
		return response.Error(c, err)
	}
	var req openChatRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	view, err := h.chatUseCase.Open(c.Request().Context(), entity.ChatRoom{
		RoomID:    roomID,
		ItemID:    req.ItemID,
		ChatHost:  req.ChatHost,
		ChatGuest: req.ChatGuest,
		GuestNick: req.GuestNick,
	})
	if err != nil && (view == nil || view.State != usecase.ChatFailed) {
		return response.Error(c, err)
	}
	return response.Success(c, view)
}

func (h *ChatHandler) Close(c echo.Context) error {
	roomID, err := int64Param(c, "roomId")
	if err != nil {
		return response.Error(c, err)
	}
	h.chatUseCase.Close(roomID)
	return response.Success(c, map[string]interface{}{"roomId": roomID, "message": "chat closed"})
}

func (h *ChatHandler) Messages(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, session.View())
}

// LoadOlder takes the viewport measured before the prepend and returns the
// anchor to restore after render, or null when nothing was loaded.
func (h *ChatHandler) LoadOlder(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return response.Error(c, err)
	}
	var vp usecase.Viewport
	if err := c.Bind(&vp); err != nil {
		return response.Error(c, err)
	}

	anchor, err := session.OnScroll(c.Request().Context(), vp)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{
		"anchor": anchor,
		"view":   session.View(),
	})
}

func (h *ChatHandler) SendText(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return response.Error(c, err)
	}
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := session.SendText(c.Request().Context(), req.Message); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "sent"})
}

// SendImage expects one multipart "image" file.
func (h *ChatHandler) SendImage(c echo.Context) error {
	session, err := h.session(c)
	if err != nil {
		return response.Error(c, err)
	}
	fh, err := c.FormFile("image")
	if err != nil {
		return response.Error(c, errors.Validation("image is required"))
	}
	image, err := readImage(fh)
	if err != nil {
		return response.Error(c, err)
	}

	if err := session.SendImage(c.Request().Context(), image); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "sent"})
}

func (h *ChatHandler) Complete(c echo.Context) error {
	roomID, err := int64Param(c, "roomId")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.chatUseCase.Complete(c.Request().Context(), roomID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"roomId": roomID, "message": "transaction completed"})
}

func (h *ChatHandler) ResumeCompletion(c echo.Context) error {
	roomID, err := int64Param(c, "roomId")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.chatUseCase.ResumeCompletion(c.Request().Context(), roomID); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"roomId": roomID, "message": "chat room removed"})
}

func (h *ChatHandler) session(c echo.Context) (*usecase.ChatSession, error) {
	roomID, err := int64Param(c, "roomId")
	if err != nil {
		return nil, err
	}
	return h.chatUseCase.Session(roomID)
}
