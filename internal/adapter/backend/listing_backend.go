package backend

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/domain/repository"
	"dongnezip/pkg/errors"

	"github.com/gabriel-vasile/mimetype"
)

type listingBackend struct {
	client *Client
}

func NewListingBackend(client *Client) repository.ListingRepository {
	return &listingBackend{client: client}
}

type listingsResponse struct {
	Data []entity.Listing `json:"data"`
}

type listingResponse struct {
	Data *entity.Listing `json:"data"`
}

func (b *listingBackend) Browse(ctx context.Context, filter entity.FilterState) ([]entity.Listing, error) {
	var resp listingsResponse
	if err := b.client.getJSON(ctx, "/item/item", filter.Query(), &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (b *listingBackend) Search(ctx context.Context, keyword string) ([]entity.Listing, error) {
	var resp listingsResponse
	if err := b.client.getJSON(ctx, "/item/search", url.Values{"keyword": {keyword}}, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func (b *listingBackend) GetByID(ctx context.Context, id int64) (*entity.Listing, error) {
	var resp listingResponse
	if err := b.client.getJSON(ctx, fmt.Sprintf("/item/%d", id), nil, &resp); err != nil {
		return nil, err
	}
	if resp.Data == nil {
		return nil, notFoundListing(id)
	}
	return resp.Data, nil
}

func (b *listingBackend) Update(ctx context.Context, id int64, form entity.ListingForm, price int64) error {
	fields := map[string]string{
		"categoryId": strconv.Itoa(form.CategoryID),
		"title":      form.Title,
		"itemStatus": form.ItemStatus,
		"price":      strconv.FormatInt(price, 10),
		"detail":     form.Detail,
		"latitude":   strconv.FormatFloat(form.Latitude, 'f', -1, 64),
		"longitude":  strconv.FormatFloat(form.Longitude, 'f', -1, 64),
		"placeName":  form.PlaceName,
	}

	files := make([]formFile, 0, len(form.Images))
	for _, img := range form.Images {
		files = append(files, formFile{
			field:       "imageUrls",
			name:        img.Name,
			contentType: mimetype.Detect(img.Data).String(),
			data:        img.Data,
		})
	}

	return b.client.sendMultipart(ctx, http.MethodPatch, fmt.Sprintf("/item/%d", id), fields, files, nil)
}

func (b *listingBackend) Delete(ctx context.Context, id int64) error {
	return b.client.sendJSON(ctx, http.MethodDelete, fmt.Sprintf("/item/%d", id), nil, nil)
}

type favoriteResponse struct {
	Success    bool `json:"success"`
	IsFavorite bool `json:"isFavorite"`
}

func (b *listingBackend) ToggleFavorite(ctx context.Context, id int64) (bool, error) {
	var resp favoriteResponse
	if err := b.client.sendJSON(ctx, http.MethodPost, fmt.Sprintf("/item/%d/favorite", id), nil, &resp); err != nil {
		return false, err
	}
	return resp.IsFavorite, nil
}

type completeRequest struct {
	ItemID  int64         `json:"itemId"`
	BuyerID entity.UserID `json:"buyerId"`
}

func (b *listingBackend) CompleteTransaction(ctx context.Context, itemID int64, buyerID entity.UserID) error {
	return b.client.sendJSON(ctx, http.MethodPost, "/item/complete", completeRequest{ItemID: itemID, BuyerID: buyerID}, nil)
}

func notFoundListing(id int64) error {
	return errors.NotFound(fmt.Sprintf("listing %d", id), nil)
}
