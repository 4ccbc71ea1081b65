package repository

import (
	"context"

	"dongnezip/internal/domain/entity"
)

type ListingRepository interface {
	// Browse lists listings matching the filter (GET /item/item)
	Browse(ctx context.Context, filter entity.FilterState) ([]entity.Listing, error)

	// Search lists listings matching a keyword (GET /item/search)
	Search(ctx context.Context, keyword string) ([]entity.Listing, error)

	GetByID(ctx context.Context, id int64) (*entity.Listing, error)
	Update(ctx context.Context, id int64, form entity.ListingForm, price int64) error
	Delete(ctx context.Context, id int64) error

	// ToggleFavorite flips the caller's favorite and returns the server's new state
	ToggleFavorite(ctx context.Context, id int64) (bool, error)

	CompleteTransaction(ctx context.Context, itemID int64, buyerID entity.UserID) error
}
