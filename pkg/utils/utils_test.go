package utils

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatPrice(t *testing.T) {
	assert.Equal(t, "0원", FormatPrice(0))
	assert.Equal(t, "900원", FormatPrice(900))
	assert.Equal(t, "12,000원", FormatPrice(12000))
	assert.Equal(t, "1,250,000원", FormatPrice(1250000))
}

func TestParsePrice(t *testing.T) {
	v, err := ParsePrice("12,000")
	require.NoError(t, err)
	assert.Equal(t, int64(12000), v)

	v, err = ParsePrice(" 1,250,000원 ")
	require.NoError(t, err)
	assert.Equal(t, int64(1250000), v)

	_, err = ParsePrice("free")
	assert.Error(t, err)
}

func TestGetPaginationParams(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/v1/me/sold-items?page=3", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, 3, GetPaginationParams(c).Page)

	req = httptest.NewRequest(http.MethodGet, "/v1/me/sold-items?page=-2", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	assert.Equal(t, 1, GetPaginationParams(c).Page)
}

func TestPaginationInRange(t *testing.T) {
	p := PaginationParams{TotalPages: 4}
	assert.True(t, p.InRange(1))
	assert.True(t, p.InRange(4))
	assert.False(t, p.InRange(5))
	assert.False(t, p.InRange(0))

	unknown := PaginationParams{}
	assert.True(t, unknown.InRange(9))
}
