package handler

import (
	"dongnezip/internal/usecase"
	"dongnezip/pkg/response"

	"github.com/labstack/echo/v4"
)

type AuthHandler struct {
	authUseCase *usecase.AuthUseCase
}

func NewAuthHandler(authUseCase *usecase.AuthUseCase) *AuthHandler {
	return &AuthHandler{
		authUseCase: authUseCase,
	}
}

type loginRequest struct {
	Token string `json:"token" validate:"required"`
}

func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	session, err := h.authUseCase.Login(c.Request().Context(), req.Token)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, session)
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if err := h.authUseCase.Logout(c.Request().Context()); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]string{"message": "signed out"})
}

func (h *AuthHandler) Current(c echo.Context) error {
	session := h.authUseCase.Current()
	return response.Success(c, map[string]interface{}{
		"session":  session,
		"loggedIn": session.Resolved(),
	})
}
