package middleware

import (
	"dongnezip/internal/domain/entity"
	"dongnezip/pkg/errors"
	"dongnezip/pkg/response"

	"github.com/labstack/echo/v4"
)

// SessionSource reports the identity currently signed in to the client.
type SessionSource interface {
	Session() entity.Session
}

type AuthMiddleware struct {
	sessions SessionSource
}

func NewAuthMiddleware(sessions SessionSource) *AuthMiddleware {
	return &AuthMiddleware{
		sessions: sessions,
	}
}

// Authenticate rejects requests while nobody is signed in and puts the user id
// and nickname on the context otherwise.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		session := m.sessions.Session()
		if !session.Resolved() {
			return response.Error(c, errors.Unauthorized("login required", nil))
		}

		c.Set("uid", session.UserID.String())
		c.Set("nickname", session.Nickname)
		return next(c)
	}
}
