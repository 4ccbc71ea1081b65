package usecase

import (
	"context"
	"testing"
	"time"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/infrastructure/ratelimit"
	"dongnezip/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoriteToggleLoginRequiredThenToggles(t *testing.T) {
	users := &fakeUserRepo{}
	listings := &fakeListingRepo{toggle: func(context.Context, int64) (bool, error) { return true, nil }}
	toggle := NewFavoriteToggle(entity.Listing{ID: 5, FavCount: 3}, listings, users, nil)

	result, err := toggle.Toggle(context.Background())
	require.NoError(t, err)
	assert.True(t, result.LoginRequired)
	assert.Equal(t, 3, result.FavCount)
	assert.Zero(t, listings.toggleCalls)

	users.setSession(entity.Session{UserID: "1", Nickname: "kim"})
	result, err = toggle.Toggle(context.Background())
	require.NoError(t, err)
	assert.False(t, result.LoginRequired)
	assert.True(t, result.IsFavorite)
	assert.Equal(t, 4, result.FavCount)
	assert.False(t, result.InFlight)
}

func TestFavoriteToggleUnlike(t *testing.T) {
	users := &fakeUserRepo{session: entity.Session{UserID: "1"}}
	listings := &fakeListingRepo{toggle: func(context.Context, int64) (bool, error) { return false, nil }}
	toggle := NewFavoriteToggle(entity.Listing{ID: 5, IsFavorite: true, FavCount: 4}, listings, users, nil)

	result, err := toggle.Toggle(context.Background())
	require.NoError(t, err)
	assert.False(t, result.IsFavorite)
	assert.Equal(t, 3, result.FavCount)
}

func TestFavoriteToggleSameStateKeepsCount(t *testing.T) {
	users := &fakeUserRepo{session: entity.Session{UserID: "1"}}
	listings := &fakeListingRepo{toggle: func(context.Context, int64) (bool, error) { return true, nil }}
	toggle := NewFavoriteToggle(entity.Listing{ID: 5, IsFavorite: true, FavCount: 4}, listings, users, nil)

	result, err := toggle.Toggle(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, result.FavCount)
}

func TestFavoriteToggleSuppressesWhileInFlight(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	users := &fakeUserRepo{session: entity.Session{UserID: "1"}}
	listings := &fakeListingRepo{toggle: func(context.Context, int64) (bool, error) {
		close(started)
		<-release
		return true, nil
	}}
	toggle := NewFavoriteToggle(entity.Listing{ID: 5, FavCount: 3}, listings, users, nil)

	done := make(chan ToggleResult, 1)
	go func() {
		result, _ := toggle.Toggle(context.Background())
		done <- result
	}()
	<-started

	assert.True(t, toggle.State().InFlight)
	_, err := toggle.Toggle(context.Background())
	assert.True(t, errors.Is(err, errors.CodeBusy))

	close(release)
	select {
	case result := <-done:
		assert.Equal(t, 4, result.FavCount)
	case <-time.After(2 * time.Second):
		t.Fatal("toggle did not finish")
	}
	assert.Equal(t, 1, listings.toggleCalls)
}

func TestFavoriteToggleFailureLeavesState(t *testing.T) {
	users := &fakeUserRepo{session: entity.Session{UserID: "1"}}
	listings := &fakeListingRepo{toggle: func(context.Context, int64) (bool, error) {
		return false, errors.Transport("failed to reach the server", nil)
	}}
	toggle := NewFavoriteToggle(entity.Listing{ID: 5, FavCount: 3}, listings, users, nil)

	_, err := toggle.Toggle(context.Background())
	assert.Error(t, err)
	assert.Equal(t, FavoriteState{ListingID: 5, FavCount: 3}, toggle.State())
}

func TestFavoriteToggleIdentityFailureSkipsBackend(t *testing.T) {
	users := &fakeUserRepo{err: errors.Transport("down", nil)}
	listings := &fakeListingRepo{}
	toggle := NewFavoriteToggle(entity.Listing{ID: 5}, listings, users, nil)

	_, err := toggle.Toggle(context.Background())
	assert.True(t, errors.Is(err, errors.CodeTransport))
	assert.Zero(t, listings.toggleCalls)
}

func TestFavoriteToggleRateLimited(t *testing.T) {
	users := &fakeUserRepo{session: entity.Session{UserID: "1"}}
	listings := &fakeListingRepo{toggle: func(context.Context, int64) (bool, error) { return true, nil }}
	limiter := ratelimit.NewRateLimiter(20)
	toggle := NewFavoriteToggle(entity.Listing{ID: 5}, listings, users, limiter)

	var err error
	for i := 0; i < 11 && err == nil; i++ {
		_, err = toggle.Toggle(context.Background())
	}
	assert.True(t, errors.Is(err, errors.CodeTooMany))
	assert.Equal(t, 10, listings.toggleCalls)
}

func TestFavoriteUseCasePatchesListingQuery(t *testing.T) {
	listings := &fakeListingRepo{
		listings: map[int64]entity.Listing{3: catalog()[2]},
		browse:   func(context.Context, entity.FilterState) ([]entity.Listing, error) { return catalog(), nil },
		toggle:   func(context.Context, int64) (bool, error) { return true, nil },
	}
	users := &fakeUserRepo{session: entity.Session{UserID: "1"}}
	query := NewListingQuery(listings, NewStore(), nil)
	require.NoError(t, query.Load(context.Background()))
	favorites := NewFavoriteUseCase(listings, users, nil, query)

	result, err := favorites.Toggle(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, 6, result.FavCount)

	view := query.View()
	assert.True(t, view.Items[0].IsFavorite)
	assert.Equal(t, 6, view.Items[0].FavCount)

	_, err = favorites.Toggle(context.Background(), 42)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}
