package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/domain/repository"
	"dongnezip/pkg/errors"
)

type userBackend struct {
	client *Client
}

func NewUserBackend(client *Client) repository.UserRepository {
	return &userBackend{client: client}
}

func (b *userBackend) WhoAmI(ctx context.Context) (entity.Session, error) {
	var session entity.Session
	err := b.client.sendJSON(ctx, http.MethodPost, "/user/token", struct{}{}, &session)
	if errors.Is(err, errors.CodeUnauthorized) {
		return entity.Session{}, nil
	}
	if err != nil {
		return entity.Session{}, err
	}
	return session, nil
}

func (b *userBackend) MyPage(ctx context.Context) (*entity.MyPage, error) {
	var page entity.MyPage
	if err := b.client.getJSON(ctx, "/user/mypage", nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// soldItemsResponse carries a message instead of items when the backend refuses.
type soldItemsResponse struct {
	entity.SoldItemsPage
	Message string `json:"message"`
}

func (b *userBackend) SoldItems(ctx context.Context, page int) (*entity.SoldItemsPage, error) {
	var resp soldItemsResponse
	query := url.Values{"page": {strconv.Itoa(page)}}
	if err := b.client.getJSON(ctx, "/user/soldItems", query, &resp); err != nil {
		return nil, err
	}
	if resp.Message != "" && resp.Items == nil {
		return nil, errors.Application(resp.Message)
	}
	resp.SoldItemsPage.Page = page
	return &resp.SoldItemsPage, nil
}
