package handler

import (
	"io"
	"mime/multipart"
	"strconv"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/usecase"
	"dongnezip/pkg/errors"
	"dongnezip/pkg/logger"
	"dongnezip/pkg/response"

	"github.com/labstack/echo/v4"
)

type ListingHandler struct {
	query     *usecase.ListingQuery
	listings  *usecase.ListingUseCase
	favorites *usecase.FavoriteUseCase
	log       *logger.Component
}

func NewListingHandler(query *usecase.ListingQuery, listings *usecase.ListingUseCase, favorites *usecase.FavoriteUseCase) *ListingHandler {
	return &ListingHandler{
		query:     query,
		listings:  listings,
		favorites: favorites,
		log:       logger.With("gateway", "handler", "listing"),
	}
}

// Browse applies any filter given in the query string and returns the list
// view. refresh=true re-runs the browse query even when nothing changed.
// Backend failures are reported inside the view, not as an error status.
func (h *ListingHandler) Browse(c echo.Context) error {
	filters := h.query.View().Filters
	if v := c.QueryParam("available"); v != "" {
		available, err := strconv.ParseBool(v)
		if err != nil {
			return response.Error(c, errors.Validation("available must be true or false"))
		}
		filters.Available = available
	}
	for name, field := range map[string]*int{"location": &filters.Location, "category": &filters.Category} {
		if v := c.QueryParam(name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return response.Error(c, errors.Validation(name+" must be a non-negative number"))
			}
			*field = n
		}
	}
	if v := c.QueryParam("sort"); v != "" {
		filters.SortOption = entity.SortOption(v)
	}

	if err := h.query.SetFilters(c.Request().Context(), filters); err != nil {
		if errors.Is(err, errors.CodeValidation) {
			return response.Error(c, err)
		}
		h.log.Warn("browse: %v", err)
	}
	if c.QueryParam("refresh") == "true" {
		if err := h.query.Load(c.Request().Context()); err != nil {
			h.log.Warn("refresh: %v", err)
		}
	}
	return response.Success(c, h.query.View())
}

type searchRequest struct {
	Keyword string `json:"keyword" validate:"required"`
}

func (h *ListingHandler) Search(c echo.Context) error {
	var req searchRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	if err := h.query.Search(c.Request().Context(), req.Keyword); err != nil {
		if errors.Is(err, errors.CodeValidation) {
			return response.Error(c, err)
		}
		h.log.Warn("search: %v", err)
	}
	return response.Success(c, h.query.View())
}

func (h *ListingHandler) ResetSearch(c echo.Context) error {
	if err := h.query.Reset(c.Request().Context()); err != nil {
		h.log.Warn("reset: %v", err)
	}
	return response.Success(c, h.query.View())
}

func (h *ListingHandler) Get(c echo.Context) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	detail, err := h.listings.Get(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, detail)
}

// Update takes the edit form as multipart: text fields plus up to five
// "images" files.
func (h *ListingHandler) Update(c echo.Context) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return response.Error(c, err)
	}

	form := entity.ListingForm{
		Title:      c.FormValue("title"),
		ItemStatus: c.FormValue("itemStatus"),
		Price:      c.FormValue("price"),
		Detail:     c.FormValue("detail"),
		PlaceName:  c.FormValue("placeName"),
	}
	if form.CategoryID, err = strconv.Atoi(c.FormValue("categoryId")); err != nil {
		return response.Error(c, errors.Validation("categoryId must be a number"))
	}
	if form.Latitude, err = strconv.ParseFloat(c.FormValue("latitude"), 64); err != nil {
		return response.Error(c, errors.Validation("latitude must be a number"))
	}
	if form.Longitude, err = strconv.ParseFloat(c.FormValue("longitude"), 64); err != nil {
		return response.Error(c, errors.Validation("longitude must be a number"))
	}

	if mf, err := c.MultipartForm(); err == nil {
		if form.Images, err = readImages(mf.File["images"]); err != nil {
			return response.Error(c, err)
		}
	}

	if err := h.listings.Update(c.Request().Context(), id, form); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"id": id, "message": "listing updated"})
}

func (h *ListingHandler) Delete(c echo.Context) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	if err := h.listings.Delete(c.Request().Context(), id); err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, map[string]interface{}{"id": id, "message": "listing deleted"})
}

func (h *ListingHandler) ToggleFavorite(c echo.Context) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	result, err := h.favorites.Toggle(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

func (h *ListingHandler) StartChat(c echo.Context) error {
	id, err := int64Param(c, "id")
	if err != nil {
		return response.Error(c, err)
	}
	result, err := h.listings.StartChat(c.Request().Context(), id)
	if err != nil {
		return response.Error(c, err)
	}
	return response.Success(c, result)
}

func int64Param(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.BadRequest("invalid "+name, err)
	}
	return id, nil
}

func readImages(headers []*multipart.FileHeader) ([]entity.ImageFile, error) {
	images := make([]entity.ImageFile, 0, len(headers))
	for _, fh := range headers {
		img, err := readImage(fh)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}
	return images, nil
}

func readImage(fh *multipart.FileHeader) (entity.ImageFile, error) {
	f, err := fh.Open()
	if err != nil {
		return entity.ImageFile{}, errors.BadRequest("failed to open "+fh.Filename, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return entity.ImageFile{}, errors.BadRequest("failed to read "+fh.Filename, err)
	}
	return entity.ImageFile{Name: fh.Filename, Data: data}, nil
}
