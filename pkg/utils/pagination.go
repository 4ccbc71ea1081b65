package utils

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// PaginationParams represents pagination parameters
type PaginationParams struct {
	Page       int
	TotalPages int
}

// GetPaginationParams extracts the 1-based page from the request
func GetPaginationParams(c echo.Context) PaginationParams {
	page, _ := strconv.Atoi(c.QueryParam("page"))
	if page <= 0 {
		page = 1
	}

	return PaginationParams{Page: page}
}

// InRange reports whether page is a valid page once the total is known.
// A zero total means the server has not told us yet, so any positive page is accepted.
func (p PaginationParams) InRange(page int) bool {
	if page <= 0 {
		return false
	}
	return p.TotalPages == 0 || page <= p.TotalPages
}
