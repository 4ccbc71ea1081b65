package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"

	"dongnezip/internal/domain/entity"
	"dongnezip/internal/domain/repository"
	"dongnezip/pkg/errors"
	"dongnezip/pkg/logger"
	"dongnezip/pkg/utils"
)

type ListingMode string

const (
	ModeBrowse ListingMode = "browse"
	ModeSearch ListingMode = "search"
)

type EmptyReason string

const (
	EmptyNoData       EmptyReason = "no_data"
	EmptyNoSearchHits EmptyReason = "no_search_hits"
)

// ListingCard is a listing as a list row shows it.
type ListingCard struct {
	entity.Listing
	PriceText  string `json:"priceText"`
	CoverImage string `json:"coverImage,omitempty"`
	Available  bool   `json:"available"`
}

func cardOf(l entity.Listing) ListingCard {
	return ListingCard{
		Listing:    l,
		PriceText:  utils.FormatPrice(l.Price),
		CoverImage: l.CoverImage(),
		Available:  l.Available(),
	}
}

type ListingView struct {
	Mode        ListingMode        `json:"mode"`
	Keyword     string             `json:"keyword,omitempty"`
	Filters     entity.FilterState `json:"filters"`
	Items       []ListingCard      `json:"items"`
	Loading     bool               `json:"loading"`
	Error       string             `json:"error,omitempty"`
	EmptyReason EmptyReason        `json:"emptyReason,omitempty"`
}

// ListingQuery owns the filter state and the browse and search result sets.
// Each browse cancels the one before it and only the newest result is kept,
// so a burst of filter changes settles on the last one.
type ListingQuery struct {
	repo      repository.ListingRepository
	store     *Store
	publisher Publisher
	log       *logger.Component

	mu            sync.Mutex
	filters       entity.FilterState
	mode          ListingMode
	keyword       string
	browse        []entity.Listing
	search        []entity.Listing
	browseLoading bool
	searchLoading bool
	browseErr     string
	searchErr     string
	browseGen     uint64
	searchGen     uint64
	cancel        context.CancelFunc
	// stale is set when filters changed during search mode.
	stale bool
}

func NewListingQuery(repo repository.ListingRepository, store *Store, publisher Publisher) *ListingQuery {
	return &ListingQuery{
		repo:      repo,
		store:     store,
		publisher: orNopPublisher(publisher),
		log:       logger.With("listings"),
		filters:   store.Filters(),
		mode:      ModeBrowse,
	}
}

// Load issues the browse query for the current filters.
func (q *ListingQuery) Load(ctx context.Context) error {
	return q.refresh(ctx)
}

func (q *ListingQuery) SetAvailable(ctx context.Context, available bool) error {
	return q.update(ctx, func(f *entity.FilterState) { f.Available = available })
}

func (q *ListingQuery) SetLocation(ctx context.Context, regionID int) error {
	return q.update(ctx, func(f *entity.FilterState) { f.Location = regionID })
}

func (q *ListingQuery) SetCategory(ctx context.Context, categoryID int) error {
	return q.update(ctx, func(f *entity.FilterState) { f.Category = categoryID })
}

func (q *ListingQuery) SetSort(ctx context.Context, sortOption entity.SortOption) error {
	if !sortOption.Valid() {
		return errors.Validation("sort must be latest or popular")
	}
	return q.update(ctx, func(f *entity.FilterState) { f.SortOption = sortOption })
}

// SetFilters replaces all four fields at once.
func (q *ListingQuery) SetFilters(ctx context.Context, filters entity.FilterState) error {
	if !filters.SortOption.Valid() {
		return errors.Validation("sort must be latest or popular")
	}
	return q.update(ctx, func(f *entity.FilterState) { *f = filters })
}

func (q *ListingQuery) update(ctx context.Context, mutate func(*entity.FilterState)) error {
	q.mu.Lock()
	next := q.filters
	mutate(&next)
	if next == q.filters {
		q.mu.Unlock()
		return nil
	}
	q.filters = next
	q.store.SetFilters(next)
	if q.mode == ModeSearch {
		q.stale = true
		q.mu.Unlock()
		q.publish()
		return nil
	}
	q.mu.Unlock()

	return q.refresh(ctx)
}

func (q *ListingQuery) refresh(ctx context.Context) error {
	q.mu.Lock()
	if q.cancel != nil {
		q.cancel()
	}
	q.browseGen++
	gen := q.browseGen
	fetchCtx, cancel := context.WithCancel(ctx)
	q.cancel = cancel
	q.browseLoading = true
	filters := q.filters
	q.mu.Unlock()
	defer cancel()

	items, err := q.repo.Browse(fetchCtx, filters)

	q.mu.Lock()
	if gen != q.browseGen {
		q.mu.Unlock()
		return nil
	}
	q.cancel = nil
	q.browseLoading = false
	if err != nil {
		q.log.Error("browse failed: %v", err)
		q.browseErr = errors.Message(err)
	} else {
		q.browse = append([]entity.Listing(nil), items...)
		q.browseErr = ""
		q.stale = false
	}
	q.mu.Unlock()

	q.publish()
	return err
}

// Search switches to the search set for keyword.
func (q *ListingQuery) Search(ctx context.Context, keyword string) error {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return errors.Validation("keyword is required")
	}

	q.mu.Lock()
	q.searchGen++
	gen := q.searchGen
	q.mode = ModeSearch
	q.keyword = keyword
	q.searchLoading = true
	q.mu.Unlock()

	items, err := q.repo.Search(ctx, keyword)

	q.mu.Lock()
	if gen != q.searchGen {
		q.mu.Unlock()
		return nil
	}
	q.searchLoading = false
	if err != nil {
		q.log.Error("search %q failed: %v", keyword, err)
		q.searchErr = errors.Message(err)
		q.search = nil
	} else {
		q.search = append([]entity.Listing(nil), items...)
		q.searchErr = ""
	}
	q.mu.Unlock()

	q.publish()
	return err
}

// Reset leaves search mode and shows the browse set again. The search is never
// re-issued; the browse query runs again only if filters changed meanwhile.
func (q *ListingQuery) Reset(ctx context.Context) error {
	q.mu.Lock()
	if q.mode != ModeSearch {
		q.mu.Unlock()
		return nil
	}
	q.mode = ModeBrowse
	q.keyword = ""
	q.search = nil
	q.searchErr = ""
	q.searchLoading = false
	q.searchGen++
	stale := q.stale
	q.mu.Unlock()

	if stale {
		return q.refresh(ctx)
	}
	q.publish()
	return nil
}

// View derives what the list shows. The browse set is filtered and sorted
// again locally; search hits are shown as returned.
func (q *ListingQuery) View() ListingView {
	q.mu.Lock()
	defer q.mu.Unlock()

	view := ListingView{
		Mode:    q.mode,
		Keyword: q.keyword,
		Filters: q.filters,
	}

	var items []entity.Listing
	if q.mode == ModeSearch {
		items = q.search
		view.Loading = q.searchLoading
		view.Error = q.searchErr
	} else {
		items = derive(q.browse, q.filters)
		view.Loading = q.browseLoading
		view.Error = q.browseErr
	}

	view.Items = make([]ListingCard, 0, len(items))
	for _, l := range items {
		view.Items = append(view.Items, cardOf(l))
	}

	if len(view.Items) == 0 && !view.Loading && view.Error == "" {
		if q.mode == ModeSearch {
			view.EmptyReason = EmptyNoSearchHits
		} else {
			view.EmptyReason = EmptyNoData
		}
	}
	return view
}

func derive(items []entity.Listing, f entity.FilterState) []entity.Listing {
	out := make([]entity.Listing, 0, len(items))
	for _, l := range items {
		if f.Matches(l) {
			out = append(out, l)
		}
	}

	if f.SortOption == entity.SortPopular {
		sort.SliceStable(out, func(i, j int) bool { return out[i].FavCount > out[j].FavCount })
	} else {
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	}
	return out
}

// Patch applies a favorite change to any cached copy of the listing.
func (q *ListingQuery) Patch(id int64, isFavorite bool, favCount int) {
	q.mu.Lock()
	for _, set := range [][]entity.Listing{q.browse, q.search} {
		for i := range set {
			if set[i].ID == id {
				set[i].IsFavorite = isFavorite
				set[i].FavCount = favCount
			}
		}
	}
	q.mu.Unlock()
	q.publish()
}

func (q *ListingQuery) publish() {
	q.publisher.Publish(TopicListings, q.View())
}
