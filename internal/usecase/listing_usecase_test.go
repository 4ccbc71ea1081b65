package usecase

import (
	"context"
	"testing"

	"dongnezip/internal/domain/entity"
	"dongnezip/pkg/errors"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ownedCatalog() map[int64]entity.Listing {
	return map[int64]entity.Listing{
		1: {ID: 1, Title: "desk", OwnerID: "1", FavCount: 2},
		2: {ID: 2, Title: "lamp", OwnerID: "2"},
	}
}

func validForm() entity.ListingForm {
	return entity.ListingForm{
		CategoryID: 3,
		Title:      "desk",
		ItemStatus: "상",
		Price:      "15,000",
		Detail:     "barely used",
		Latitude:   37.5665,
		Longitude:  126.978,
		PlaceName:  "city hall",
	}
}

func newListingFixture(local entity.UserID) (*ListingUseCase, *fakeListingRepo, *fakeChatRepo, *Store) {
	store := NewStore()
	store.SetSession(entity.Session{UserID: local, Nickname: "kim"})
	listings := &fakeListingRepo{listings: ownedCatalog()}
	chats := &fakeChatRepo{nextRoomID: 40}
	return NewListingUseCase(listings, chats, store, nil), listings, chats, store
}

func TestListingUseCaseGetMarksOwner(t *testing.T) {
	uc, _, _, _ := newListingFixture("1")

	detail, err := uc.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, detail.IsOwner)

	detail, err = uc.Get(context.Background(), 2)
	require.NoError(t, err)
	assert.False(t, detail.IsOwner)

	_, err = uc.Get(context.Background(), 9)
	assert.True(t, errors.Is(err, errors.CodeNotFound))
}

func TestListingUseCaseUpdateParsesGroupedPrice(t *testing.T) {
	uc, listings, _, _ := newListingFixture("1")

	require.NoError(t, uc.Update(context.Background(), 1, validForm()))
	assert.Equal(t, int64(15000), listings.updatedPrice)
}

func TestListingUseCaseUpdateValidates(t *testing.T) {
	uc, listings, _, _ := newListingFixture("1")

	form := validForm()
	form.Title = ""
	form.ItemStatus = "mint"
	err := uc.Update(context.Background(), 1, form)
	var verrs validator.ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)

	form = validForm()
	form.Images = make([]entity.ImageFile, 6)
	assert.Error(t, uc.Update(context.Background(), 1, form))

	form = validForm()
	form.Price = "free"
	assert.True(t, errors.Is(uc.Update(context.Background(), 1, form), errors.CodeValidation))

	assert.Zero(t, listings.updatedPrice)
}

func TestListingUseCaseOwnerOnly(t *testing.T) {
	uc, listings, _, _ := newListingFixture("1")

	assert.True(t, errors.Is(uc.Update(context.Background(), 2, validForm()), errors.CodeForbidden))
	assert.True(t, errors.Is(uc.Delete(context.Background(), 2), errors.CodeForbidden))
	assert.Empty(t, listings.deleted)

	require.NoError(t, uc.Delete(context.Background(), 1))
	assert.Equal(t, []int64{1}, listings.deleted)
}

func TestStartChatAnonymousGoesToLogin(t *testing.T) {
	uc, _, chats, _ := newListingFixture("")

	result, err := uc.StartChat(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, StartChatLogin, result.Action)
	assert.Empty(t, chats.created)
}

func TestStartChatSellerGoesToList(t *testing.T) {
	uc, _, chats, _ := newListingFixture("1")

	result, err := uc.StartChat(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, StartChatList, result.Action)
	assert.Empty(t, chats.created)
}

func TestStartChatCreatesThenReusesRoom(t *testing.T) {
	uc, _, chats, store := newListingFixture("1")

	result, err := uc.StartChat(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, StartChatOpenRoom, result.Action)
	require.NotNil(t, result.Room)
	assert.Equal(t, int64(41), result.Room.RoomID)
	assert.Equal(t, entity.UserID("2"), result.Room.ChatHost)
	assert.Equal(t, entity.UserID("1"), result.Room.ChatGuest)
	assert.Equal(t, "kim", chats.created[0].GuestNick)

	active, ok := store.ActiveRoom()
	require.True(t, ok)
	assert.Equal(t, int64(41), active.RoomID)

	again, err := uc.StartChat(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(41), again.Room.RoomID)
	assert.Len(t, chats.created, 1)
}
