// Package listing derives the public deal listing: facet state, the
// filter/sort engine and the incremental reveal controller.
package listing

import (
	"net/url"
	"strconv"

	"github.com/toplivedeals/toplivedeals/internal/catalog"
)

// Tab selects one of the listing views.
type Tab string

// Listing tabs.
const (
	TabLiveDeals Tab = "liveDeals"
	TabTopDeals  Tab = "topDeals"
	TabCoupons   Tab = "coupons"
)

// WildcardAll disables a facet.
const WildcardAll = "all"

// Facet universes shown by the storefront chrome.
var (
	Categories     = []string{"all", "books", "electronics", "fashion", "home", "sports", "kitchen", "automotive", "health"}
	Platforms      = []string{"all", "ajio", "amazon", "flipkart", "meesho", "myntra", "nykaa", "cultfit"}
	DiscountFloors = []string{"all", "10", "20", "30", "40", "50", "60", "70", "80", "90"}
)

// ViewState holds the facet selection parameterizing the filter engine.
// The zero value is not valid; use DefaultViewState or ParseViewState.
type ViewState struct {
	ActiveTab     Tab    `json:"activeTab"`
	Category      string `json:"category"`
	Platform      string `json:"platform"`
	DiscountFloor string `json:"discountFloor"`
	Search        string `json:"search"`
}

// DefaultViewState is the selection a fresh session starts with.
func DefaultViewState() ViewState {
	return ViewState{
		ActiveTab:     TabLiveDeals,
		Category:      WildcardAll,
		Platform:      WildcardAll,
		DiscountFloor: WildcardAll,
	}
}

// ParseViewState reads a facet selection from listing query parameters.
// Unknown values fall back to the wildcard rather than erroring.
func ParseViewState(query url.Values) ViewState {
	view := DefaultViewState()

	switch Tab(query.Get("tab")) {
	case TabTopDeals:
		view.ActiveTab = TabTopDeals
	case TabCoupons:
		view.ActiveTab = TabCoupons
	}

	if category := catalog.Fold(query.Get("category")); category != "" {
		view.Category = category
	}
	if platform := catalog.Fold(query.Get("platform")); platform != "" {
		view.Platform = platform
	}
	if floor := query.Get("discount"); validDiscountFloor(floor) {
		view.DiscountFloor = floor
	}
	view.Search = query.Get("search")

	return view
}

// MinDiscount returns the discount floor as an integer, zero for wildcard.
func (v ViewState) MinDiscount() int {
	if v.DiscountFloor == WildcardAll {
		return 0
	}
	min, err := strconv.Atoi(v.DiscountFloor)
	if err != nil {
		return 0
	}
	return min
}

func validDiscountFloor(floor string) bool {
	for _, known := range DiscountFloors {
		if floor == known && floor != WildcardAll {
			return true
		}
	}
	return false
}
