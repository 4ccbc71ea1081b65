package usecase

import (
	"context"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/domain/repository"
	"dongnezip/pkg/errors"
	"dongnezip/pkg/logger"
	"dongnezip/pkg/utils"

	"github.com/go-playground/validator/v10"
)

type ListingUseCase struct {
	listingRepo repository.ListingRepository
	chatRepo    repository.ChatRepository
	store       *Store
	favorites   *FavoriteUseCase
	validate    *validator.Validate
	log         *logger.Component
}

func NewListingUseCase(
	listingRepo repository.ListingRepository,
	chatRepo repository.ChatRepository,
	store *Store,
	favorites *FavoriteUseCase,
) *ListingUseCase {
	return &ListingUseCase{
		listingRepo: listingRepo,
		chatRepo:    chatRepo,
		store:       store,
		favorites:   favorites,
		validate:    validator.New(),
		log:         logger.With("listing"),
	}
}

type ListingDetail struct {
	ListingCard
	IsOwner bool `json:"isOwner"`
}

func (u *ListingUseCase) Get(ctx context.Context, id int64) (*ListingDetail, error) {
	listing, err := u.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.favorites != nil {
		u.favorites.Track(*listing)
	}

	session := u.store.Session()
	return &ListingDetail{
		ListingCard: cardOf(*listing),
		IsOwner:     session.Resolved() && listing.OwnerID == session.UserID,
	}, nil
}

// Update validates the edit form, strips grouping separators from the price and
// sends the edit. Only the owner may edit.
func (u *ListingUseCase) Update(ctx context.Context, id int64, form entity.ListingForm) error {
	if err := u.validate.Struct(form); err != nil {
		return err
	}
	price, err := utils.ParsePrice(form.Price)
	if err != nil || price < 0 {
		return errors.Validation("price must be a non-negative number")
	}

	if _, err := u.ownedListing(ctx, id); err != nil {
		return err
	}

	if err := u.listingRepo.Update(ctx, id, form, price); err != nil {
		u.log.Error("update %d failed: %v", id, err)
		return err
	}
	u.log.Info("listing %d updated", id)
	return nil
}

func (u *ListingUseCase) Delete(ctx context.Context, id int64) error {
	if _, err := u.ownedListing(ctx, id); err != nil {
		return err
	}
	if err := u.listingRepo.Delete(ctx, id); err != nil {
		u.log.Error("delete %d failed: %v", id, err)
		return err
	}
	u.log.Info("listing %d deleted", id)
	return nil
}

func (u *ListingUseCase) ownedListing(ctx context.Context, id int64) (*entity.Listing, error) {
	session := u.store.Session()
	if !session.Resolved() {
		return nil, errors.Unauthorized("login required", nil)
	}
	listing, err := u.listingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != session.UserID {
		return nil, errors.Forbidden("only the seller can change this listing", nil)
	}
	return listing, nil
}

type StartChatAction string

const (
	StartChatLogin    StartChatAction = "login"
	StartChatList     StartChatAction = "chat_list"
	StartChatOpenRoom StartChatAction = "room"
)

type StartChatResult struct {
	Action StartChatAction  `json:"action"`
	Room   *entity.ChatRoom `json:"room,omitempty"`
}

// StartChat resolves where the "chat" button leads: login for anonymous users,
// the chat list for the seller, otherwise the buyer's room for this listing,
// created on first use.
func (u *ListingUseCase) StartChat(ctx context.Context, listingID int64) (*StartChatResult, error) {
	session := u.store.Session()
	if !session.Resolved() {
		return &StartChatResult{Action: StartChatLogin}, nil
	}

	listing, err := u.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID == session.UserID {
		return &StartChatResult{Action: StartChatList}, nil
	}

	if room, ok := u.store.FindRoom(listing.ID, listing.OwnerID, session.UserID); ok {
		u.store.SetActiveRoom(room.RoomID)
		return &StartChatResult{Action: StartChatOpenRoom, Room: &room}, nil
	}

	room := entity.ChatRoom{
		ItemID:    listing.ID,
		ChatHost:  listing.OwnerID,
		ChatGuest: session.UserID,
		GuestNick: session.Nickname,
	}
	roomID, err := u.chatRepo.CreateRoom(ctx, room)
	if err != nil {
		u.log.Error("create room for listing %d failed: %v", listing.ID, err)
		return nil, err
	}
	room.RoomID = roomID

	u.store.AddRoom(room)
	u.store.SetActiveRoom(roomID)
	return &StartChatResult{Action: StartChatOpenRoom, Room: &room}, nil
}
