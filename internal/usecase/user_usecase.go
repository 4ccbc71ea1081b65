package usecase

import (
	"context"
	"sync"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/domain/repository"
	"dongnezip/pkg/errors"
	"dongnezip/pkg/utils"
)

type UserUseCase struct {
	userRepo repository.UserRepository
	store    *Store

	mu             sync.Mutex
	soldTotalPages int
}

func NewUserUseCase(userRepo repository.UserRepository, store *Store) *UserUseCase {
	return &UserUseCase{
		userRepo: userRepo,
		store:    store,
	}
}

type MyPageView struct {
	Nickname      string        `json:"nickname"`
	SoldItems     []ListingCard `json:"soldItems"`
	BoughtItems   []ListingCard `json:"boughtItems"`
	FavoriteItems []ListingCard `json:"favoriteItems"`
}

func (u *UserUseCase) MyPage(ctx context.Context) (*MyPageView, error) {
	session := u.store.Session()
	if !session.Resolved() {
		return nil, errors.Unauthorized("login required", nil)
	}

	page, err := u.userRepo.MyPage(ctx)
	if err != nil {
		return nil, err
	}

	nickname := page.Nickname
	if nickname == "" {
		nickname = session.Nickname
	}
	return &MyPageView{
		Nickname:      nickname,
		SoldItems:     cards(page.SoldItems),
		BoughtItems:   cards(page.BoughtItems),
		FavoriteItems: cards(page.FavoriteItems),
	}, nil
}

type SoldItemsView struct {
	Items      []ListingCard `json:"items"`
	Page       int           `json:"page"`
	TotalPages int           `json:"totalPages"`
	TotalItems int           `json:"totalItems"`
}

// SoldItems fetches one page. Once the page count is known, a page outside
// [1, totalPages] is rejected without a request.
func (u *UserUseCase) SoldItems(ctx context.Context, params utils.PaginationParams) (*SoldItemsView, error) {
	if !u.store.Session().Resolved() {
		return nil, errors.Unauthorized("login required", nil)
	}

	u.mu.Lock()
	if params.TotalPages == 0 {
		params.TotalPages = u.soldTotalPages
	}
	u.mu.Unlock()
	if !params.InRange(params.Page) {
		return nil, errors.BadRequest("page out of range", nil)
	}

	page, err := u.userRepo.SoldItems(ctx, params.Page)
	if err != nil {
		return nil, err
	}

	u.mu.Lock()
	u.soldTotalPages = page.TotalPages
	u.mu.Unlock()
	return &SoldItemsView{
		Items:      cards(page.Items),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		TotalItems: page.TotalItems,
	}, nil
}

// Reset forgets the cached page count.
func (u *UserUseCase) Reset() {
	u.mu.Lock()
	u.soldTotalPages = 0
	u.mu.Unlock()
}

func cards(items []entity.Listing) []ListingCard {
	out := make([]ListingCard, 0, len(items))
	for _, l := range items {
		out = append(out, cardOf(l))
	}
	return out
}
