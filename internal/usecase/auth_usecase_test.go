package usecase

import (
	"context"
	"testing"

	"dongnezip/internal/domain/entity"
	"dongnezip/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTokens struct {
	stored  string
	session entity.Session
	decode  func(token string) (entity.Session, error)
	cleared int
}

func (f *fakeTokens) Restore() (entity.Session, error) {
	if f.stored == "" {
		return entity.Session{}, nil
	}
	return f.Set(f.stored)
}

func (f *fakeTokens) Set(token string) (entity.Session, error) {
	s, err := f.decode(token)
	if err != nil {
		return entity.Session{}, err
	}
	f.stored, f.session = token, s
	return s, nil
}

func (f *fakeTokens) Clear() error {
	f.stored, f.session = "", entity.Session{}
	f.cleared++
	return nil
}

func (f *fakeTokens) Session() entity.Session { return f.session }

func newAuthFixture(users *fakeUserRepo) (*AuthUseCase, *fakeTokens, *Store, *[]*fakeSocket) {
	tokens := &fakeTokens{decode: func(token string) (entity.Session, error) {
		if token == "bad" {
			return entity.Session{}, errors.Unauthorized("malformed token", nil)
		}
		return entity.Session{UserID: entity.UserID(token), Nickname: "from-token"}, nil
	}}
	store := NewStore()
	ingest, sockets := newIngest(store, nil)
	return NewAuthUseCase(users, tokens, store, ingest, &recordingPublisher{}), tokens, store, sockets
}

func TestAuthLoginPrefersBackendIdentity(t *testing.T) {
	users := &fakeUserRepo{session: entity.Session{UserID: "1", Nickname: "kim"}}
	uc, tokens, store, sockets := newAuthFixture(users)

	session, err := uc.Login(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "kim", session.Nickname)
	assert.Equal(t, session, store.Session())
	assert.Equal(t, "1", tokens.stored)
	require.Len(t, *sockets, 1)
	assert.True(t, (*sockets)[0].Connected())
}

func TestAuthLoginRejectedToken(t *testing.T) {
	uc, tokens, store, _ := newAuthFixture(&fakeUserRepo{})

	_, err := uc.Login(context.Background(), "1")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
	assert.Empty(t, tokens.stored)
	assert.False(t, store.Session().Resolved())

	_, err = uc.Login(context.Background(), "bad")
	assert.True(t, errors.Is(err, errors.CodeUnauthorized))
}

func TestAuthLoginOfflineKeepsClaims(t *testing.T) {
	users := &fakeUserRepo{err: errors.Transport("down", nil)}
	uc, _, store, _ := newAuthFixture(users)

	session, err := uc.Login(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, entity.Session{UserID: "7", Nickname: "from-token"}, session)
	assert.Equal(t, session, store.Session())
}

func TestAuthRestore(t *testing.T) {
	uc, tokens, store, sockets := newAuthFixture(&fakeUserRepo{})
	tokens.stored = "3"

	session, err := uc.Restore(context.Background())
	require.NoError(t, err)
	assert.Equal(t, entity.UserID("3"), session.UserID)
	assert.Equal(t, session, store.Session())
	assert.Len(t, *sockets, 1)

	tokens.stored = "bad"
	session, err = uc.Restore(context.Background())
	assert.NoError(t, err)
	assert.False(t, session.Resolved())
}

func TestAuthLogoutResetsEverything(t *testing.T) {
	users := &fakeUserRepo{session: entity.Session{UserID: "1", Nickname: "kim"}}
	uc, tokens, store, sockets := newAuthFixture(users)
	_, err := uc.Login(context.Background(), "1")
	require.NoError(t, err)
	store.AddRoom(entity.ChatRoom{RoomID: 1})

	hooked := 0
	uc.OnLogout(func() {
		hooked++
		assert.Len(t, store.Rooms(), 1, "hooks run before the store is reset")
	})

	require.NoError(t, uc.Logout(context.Background()))
	assert.Equal(t, 1, hooked)
	assert.Equal(t, 1, tokens.cleared)
	assert.False(t, uc.Current().Resolved())
	assert.Empty(t, store.Rooms())
	assert.True(t, (*sockets)[0].closed)
}
