package repository

import (
	"context"

	"dongnezip/internal/domain/entity"
)

type UserRepository interface {
	// WhoAmI asks the backend for the cookie session. An anonymous caller gets a
	// zero Session and a nil error.
	WhoAmI(ctx context.Context) (entity.Session, error)

	MyPage(ctx context.Context) (*entity.MyPage, error)
	SoldItems(ctx context.Context, page int) (*entity.SoldItemsPage, error)
}
