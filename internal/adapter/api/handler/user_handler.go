package handler

import (
	"dongnezip/internal/usecase"
	"dongnezip/pkg/response"
	"dongnezip/pkg/utils"

	"github.com/labstack/echo/v4"
)

type UserHandler struct {
	userUseCase *usecase.UserUseCase
}

func NewUserHandler(userUseCase *usecase.UserUseCase) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
	}
}

func (h *UserHandler) MyPage(c echo.Context) error {
	page, err := h.userUseCase.MyPage(c.Request().Context())
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, page)
}

func (h *UserHandler) SoldItems(c echo.Context) error {
	params := utils.GetPaginationParams(c)

	view, err := h.userUseCase.SoldItems(c.Request().Context(), params)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Paginated(c, view.Items, int64(view.TotalItems), view.Page, view.TotalPages)
}
