package auth

import (
	"testing"
	"time"

	"dongnezip/internal/domain/entity"
	"dongnezip/pkg/errors"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	token string
}

func (m *memoryStore) LoadToken() (string, error) { return m.token, nil }
func (m *memoryStore) SaveToken(t string) error   { m.token = t; return nil }
func (m *memoryStore) ClearToken() error          { m.token = ""; return nil }

func signedToken(t *testing.T, claims Claims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	require.NoError(t, err)
	return token
}

func TestDecodeJWT(t *testing.T) {
	token := signedToken(t, Claims{
		UserID:   "12",
		Nickname: "kim",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	session, err := Decode(token)
	require.NoError(t, err)
	assert.Equal(t, entity.Session{UserID: "12", Nickname: "kim"}, session)
}

func TestDecodeJSONUser(t *testing.T) {
	session, err := Decode(`{"id":5,"nickname":"lee"}`)
	require.NoError(t, err)
	assert.Equal(t, entity.UserID("5"), session.UserID)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	for _, token := range []string{"", "not-a-token", `{"nickname":"anon"}`, `{"id":`} {
		_, err := Decode(token)
		assert.True(t, errors.Is(err, errors.CodeUnauthorized), "token %q", token)
	}
}

func TestHolderLifecycle(t *testing.T) {
	store := &memoryStore{}
	holder := NewHolder(store)

	session, err := holder.Restore()
	require.NoError(t, err)
	assert.False(t, session.Resolved())

	_, err = holder.Set(`{"id":1,"nickname":"kim"}`)
	require.NoError(t, err)
	assert.Equal(t, `{"id":1,"nickname":"kim"}`, store.token)
	assert.Equal(t, entity.UserID("1"), holder.Session().UserID)

	restored := NewHolder(store)
	session, err = restored.Restore()
	require.NoError(t, err)
	assert.Equal(t, "kim", session.Nickname)
	assert.Equal(t, store.token, restored.Token())

	require.NoError(t, holder.Clear())
	assert.Empty(t, store.token)
	assert.Empty(t, holder.Token())
}

func TestHolderRestoreDropsBadToken(t *testing.T) {
	store := &memoryStore{token: "garbage"}
	_, err := NewHolder(store).Restore()
	assert.Error(t, err)
	assert.Empty(t, store.token)
}
