package auth

import (
	"encoding/json"
	"strings"
	"sync"

	"dongnezip/internal/domain/entity"
	"dongnezip/pkg/errors"

	"github.com/golang-jwt/jwt/v4"
)

// Claims is the identity the backend signs into its token.
type Claims struct {
	UserID   entity.UserID `json:"id"`
	Nickname string        `json:"nickname"`
	jwt.RegisteredClaims
}

// Decode reads the identity out of token without verifying its signature; the
// backend checks the cookie on every request. A plain JSON user object, as
// older clients stored it, is accepted too.
func Decode(token string) (entity.Session, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return entity.Session{}, errors.Unauthorized("no token", nil)
	}

	if strings.HasPrefix(token, "{") {
		var session entity.Session
		if err := json.Unmarshal([]byte(token), &session); err != nil {
			return entity.Session{}, errors.Unauthorized("malformed token", err)
		}
		return requireUser(session)
	}

	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return entity.Session{}, errors.Unauthorized("malformed token", err)
	}

	return requireUser(entity.Session{UserID: claims.UserID, Nickname: claims.Nickname})
}

func requireUser(session entity.Session) (entity.Session, error) {
	if !session.Resolved() {
		return entity.Session{}, errors.Unauthorized("token carries no user id", nil)
	}
	return session, nil
}

// TokenStore persists the raw token between runs.
type TokenStore interface {
	LoadToken() (string, error)
	SaveToken(token string) error
	ClearToken() error
}

// Holder keeps the current token and its decoded session in memory, backed by
// a TokenStore.
type Holder struct {
	store TokenStore

	mu      sync.RWMutex
	token   string
	session entity.Session
}

func NewHolder(store TokenStore) *Holder {
	return &Holder{store: store}
}

// Restore loads a persisted token. A missing token is an anonymous session, not
// an error.
func (h *Holder) Restore() (entity.Session, error) {
	token, err := h.store.LoadToken()
	if err != nil {
		return entity.Session{}, errors.Internal("failed to read stored token", err)
	}
	if token == "" {
		return entity.Session{}, nil
	}

	session, err := Decode(token)
	if err != nil {
		h.store.ClearToken()
		return entity.Session{}, err
	}

	h.mu.Lock()
	h.token, h.session = token, session
	h.mu.Unlock()
	return session, nil
}

func (h *Holder) Set(token string) (entity.Session, error) {
	session, err := Decode(token)
	if err != nil {
		return entity.Session{}, err
	}
	if err := h.store.SaveToken(token); err != nil {
		return entity.Session{}, errors.Internal("failed to store token", err)
	}

	h.mu.Lock()
	h.token, h.session = token, session
	h.mu.Unlock()
	return session, nil
}

func (h *Holder) Clear() error {
	h.mu.Lock()
	h.token, h.session = "", entity.Session{}
	h.mu.Unlock()

	if err := h.store.ClearToken(); err != nil {
		return errors.Internal("failed to clear token", err)
	}
	return nil
}

func (h *Holder) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

func (h *Holder) Session() entity.Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.session
}
