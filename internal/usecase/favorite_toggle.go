package usecase

import (
	"context"
	"sync"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/domain/repository"
	"dongnezip/internal/infrastructure/ratelimit"
	"dongnezip/pkg/errors"
	"dongnezip/pkg/logger"
)

type FavoriteState struct {
	ListingID  int64 `json:"listingId"`
	IsFavorite bool  `json:"isFavorite"`
	FavCount   int   `json:"favCount"`
	InFlight   bool  `json:"inFlight"`
}

type ToggleResult struct {
	FavoriteState
	LoginRequired bool `json:"loginRequired"`
}

// FavoriteToggle holds one listing's favorite flag and count. State only
// changes from a successful server reply; failures leave it as it was.
type FavoriteToggle struct {
	listingID int64
	listings  repository.ListingRepository
	users     repository.UserRepository
	limiter   Limiter
	log       *logger.Component

	mu       sync.Mutex
	liked    bool
	count    int
	inFlight bool
}

func NewFavoriteToggle(
	listing entity.Listing,
	listings repository.ListingRepository,
	users repository.UserRepository,
	limiter Limiter,
) *FavoriteToggle {
	return &FavoriteToggle{
		listingID: listing.ID,
		listings:  listings,
		users:     users,
		limiter:   orNopLimiter(limiter),
		log:       logger.With("favorite", "listing", listing.ID),
		liked:     listing.IsFavorite,
		count:     listing.FavCount,
	}
}

func (t *FavoriteToggle) State() FavoriteState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stateLocked()
}

func (t *FavoriteToggle) stateLocked() FavoriteState {
	return FavoriteState{ListingID: t.listingID, IsFavorite: t.liked, FavCount: t.count, InFlight: t.inFlight}
}

// Sync overwrites the local copy with a fresh server listing, unless a toggle
// is in flight.
func (t *FavoriteToggle) Sync(listing entity.Listing) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.inFlight {
		return
	}
	t.liked = listing.IsFavorite
	t.count = listing.FavCount
}

// Toggle checks the caller's identity and flips the favorite. An anonymous
// caller gets LoginRequired and nothing changes. While a toggle is in flight
// further calls fail with Busy without reaching the backend.
func (t *FavoriteToggle) Toggle(ctx context.Context) (ToggleResult, error) {
	t.mu.Lock()
	if t.inFlight {
		state := t.stateLocked()
		t.mu.Unlock()
		return ToggleResult{FavoriteState: state}, errors.Busy("favorite toggle already in progress")
	}
	t.inFlight = true
	t.mu.Unlock()

	defer func() {
		t.mu.Lock()
		t.inFlight = false
		t.mu.Unlock()
	}()

	session, err := t.users.WhoAmI(ctx)
	if err != nil {
		t.log.Error("identity check failed: %v", err)
		return t.result(false), err
	}
	if !session.Resolved() {
		return t.result(true), nil
	}

	if err := t.limiter.Check(session.UserID.String(), ratelimit.ActionToggleFavorite); err != nil {
		t.log.Warn("toggle throttled for user %s", session.UserID)
		return t.result(false), err
	}

	isFavorite, err := t.listings.ToggleFavorite(ctx, t.listingID)
	if err != nil {
		t.log.Error("toggle failed: %v", err)
		return t.result(false), err
	}

	t.mu.Lock()
	if isFavorite != t.liked {
		if isFavorite {
			t.count++
		} else if t.count > 0 {
			t.count--
		}
		t.liked = isFavorite
	}
	state := t.stateLocked()
	t.mu.Unlock()

	return ToggleResult{FavoriteState: state}, nil
}

func (t *FavoriteToggle) result(loginRequired bool) ToggleResult {
	return ToggleResult{FavoriteState: t.State(), LoginRequired: loginRequired}
}

// FavoriteUseCase keeps one toggle per listing so the in-flight guard holds
// across requests.
type FavoriteUseCase struct {
	listingRepo repository.ListingRepository
	userRepo    repository.UserRepository
	rateLimiter Limiter
	query       *ListingQuery

	mu      sync.Mutex
	toggles map[int64]*FavoriteToggle
}

func NewFavoriteUseCase(
	listingRepo repository.ListingRepository,
	userRepo repository.UserRepository,
	rateLimiter Limiter,
	query *ListingQuery,
) *FavoriteUseCase {
	return &FavoriteUseCase{
		listingRepo: listingRepo,
		userRepo:    userRepo,
		rateLimiter: rateLimiter,
		query:       query,
		toggles:     make(map[int64]*FavoriteToggle),
	}
}

// Track registers or refreshes the toggle for listing.
func (u *FavoriteUseCase) Track(listing entity.Listing) *FavoriteToggle {
	u.mu.Lock()
	defer u.mu.Unlock()

	if t, ok := u.toggles[listing.ID]; ok {
		t.Sync(listing)
		return t
	}
	t := NewFavoriteToggle(listing, u.listingRepo, u.userRepo, u.rateLimiter)
	u.toggles[listing.ID] = t
	return t
}

func (u *FavoriteUseCase) Toggle(ctx context.Context, listingID int64) (ToggleResult, error) {
	u.mu.Lock()
	t, ok := u.toggles[listingID]
	u.mu.Unlock()

	if !ok {
		listing, err := u.listingRepo.GetByID(ctx, listingID)
		if err != nil {
			return ToggleResult{}, err
		}
		t = u.Track(*listing)
	}

	result, err := t.Toggle(ctx)
	if err == nil && !result.LoginRequired && u.query != nil {
		u.query.Patch(listingID, result.IsFavorite, result.FavCount)
	}
	return result, err
}

// Reset forgets every toggle, e.g. after logout.
func (u *FavoriteUseCase) Reset() {
	u.mu.Lock()
	u.toggles = make(map[int64]*FavoriteToggle)
	u.mu.Unlock()
}
