package entity

import (
	"net/url"
	"strconv"
)

type SortOption string

const (
	SortLatest  SortOption = "latest"
	SortPopular SortOption = "popular"
)

func (s SortOption) Valid() bool {
	return s == SortLatest || s == SortPopular
}

// FilterState drives the browse query. Zero Location and Category mean "any".
type FilterState struct {
	Available  bool       `json:"available"`
	Location   int        `json:"location"`
	Category   int        `json:"category"`
	SortOption SortOption `json:"sortOption"`
}

func DefaultFilterState() FilterState {
	return FilterState{SortOption: SortLatest}
}

// Query renders the filter as backend query parameters, omitting "any" fields.
func (f FilterState) Query() url.Values {
	q := url.Values{}
	if f.Category != 0 {
		q.Set("categoryId", strconv.Itoa(f.Category))
	}
	if f.Location != 0 {
		q.Set("regionId", strconv.Itoa(f.Location))
	}
	if f.Available {
		q.Set("status", "available")
	}
	sort := f.SortOption
	if !sort.Valid() {
		sort = SortLatest
	}
	q.Set("sortBy", string(sort))
	return q
}

// Matches applies the same filter locally to a listing the backend returned.
func (f FilterState) Matches(l Listing) bool {
	if f.Available && !l.Available() {
		return false
	}
	if f.Location != 0 && l.Region.ID != f.Location {
		return false
	}
	if f.Category != 0 && l.Category.ID != f.Category {
		return false
	}
	return true
}
