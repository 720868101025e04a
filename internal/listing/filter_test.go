package listing

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toplivedeals/toplivedeals/internal/catalog"
)

func deal(id string, mutate func(*catalog.Product)) catalog.Product {
	p := catalog.Product{
		ID:          id,
		Title:       "Deal " + id,
		Category:    "electronics",
		Application: "amazon",
		Discount:    25,
		IsActive:    true,
		CreatedAt:   1000,
	}
	if mutate != nil {
		mutate(&p)
	}
	return p
}

func TestMatches(t *testing.T) {
	tests := []struct {
		name    string
		product catalog.Product
		view    ViewState
		want    bool
	}{
		{
			name:    "default view accepts active product",
			product: deal("a", nil),
			view:    DefaultViewState(),
			want:    true,
		},
		{
			name:    "inactive product never matches",
			product: deal("a", func(p *catalog.Product) { p.IsActive = false }),
			view:    DefaultViewState(),
			want:    false,
		},
		{
			name:    "category facet excludes other categories",
			product: deal("a", nil),
			view:    ViewState{ActiveTab: TabLiveDeals, Category: "fashion", Platform: WildcardAll, DiscountFloor: WildcardAll},
			want:    false,
		},
		{
			name:    "platform facet matches exactly",
			product: deal("a", nil),
			view:    ViewState{ActiveTab: TabLiveDeals, Category: WildcardAll, Platform: "amazon", DiscountFloor: WildcardAll},
			want:    true,
		},
		{
			name:    "search is case insensitive on title",
			product: deal("a", func(p *catalog.Product) { p.Title = "Wireless Headphones" }),
			view:    ViewState{ActiveTab: TabLiveDeals, Category: WildcardAll, Platform: WildcardAll, DiscountFloor: WildcardAll, Search: "HEADphones"},
			want:    true,
		},
		{
			name:    "search misses on absent substring",
			product: deal("a", func(p *catalog.Product) { p.Title = "Wireless Headphones" }),
			view:    ViewState{ActiveTab: TabLiveDeals, Category: WildcardAll, Platform: WildcardAll, DiscountFloor: WildcardAll, Search: "keyboard"},
			want:    false,
		},
		{
			name:    "top deals tab requires flag",
			product: deal("a", nil),
			view:    ViewState{ActiveTab: TabTopDeals, Category: WildcardAll, Platform: WildcardAll, DiscountFloor: WildcardAll},
			want:    false,
		},
		{
			name:    "top deals tab accepts flagged product",
			product: deal("a", func(p *catalog.Product) { p.IsTopDeal = true }),
			view:    ViewState{ActiveTab: TabTopDeals, Category: WildcardAll, Platform: WildcardAll, DiscountFloor: WildcardAll},
			want:    true,
		},
		{
			name:    "coupons tab rejects whitespace-only code",
			product: deal("a", func(p *catalog.Product) { p.CouponCode = "   " }),
			view:    ViewState{ActiveTab: TabCoupons, Category: WildcardAll, Platform: WildcardAll, DiscountFloor: WildcardAll},
			want:    false,
		},
		{
			name:    "coupons tab accepts real code",
			product: deal("a", func(p *catalog.Product) { p.CouponCode = "SAVE10" }),
			view:    ViewState{ActiveTab: TabCoupons, Category: WildcardAll, Platform: WildcardAll, DiscountFloor: WildcardAll},
			want:    true,
		},
		{
			name:    "discount floor is inclusive",
			product: deal("a", func(p *catalog.Product) { p.Discount = 20 }),
			view:    ViewState{ActiveTab: TabLiveDeals, Category: WildcardAll, Platform: WildcardAll, DiscountFloor: "20"},
			want:    true,
		},
		{
			name:    "discount below floor is excluded",
			product: deal("a", func(p *catalog.Product) { p.Discount = 19 }),
			view:    ViewState{ActiveTab: TabLiveDeals, Category: WildcardAll, Platform: WildcardAll, DiscountFloor: "20"},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Matches(tt.product, tt.view))
		})
	}
}

func TestFilterSortOrdersNewestFirst(t *testing.T) {
	products := []catalog.Product{
		deal("old", func(p *catalog.Product) { p.CreatedAt = 100 }),
		deal("updated", func(p *catalog.Product) { p.CreatedAt = 50; p.UpdatedAt = 900 }),
		deal("new", func(p *catalog.Product) { p.CreatedAt = 500 }),
	}

	got := FilterSort(products, DefaultViewState())

	require.Len(t, got, 3)
	assert.Equal(t, "updated", got[0].ID)
	assert.Equal(t, "new", got[1].ID)
	assert.Equal(t, "old", got[2].ID)
}

func TestFilterSortDoesNotMutateInput(t *testing.T) {
	products := []catalog.Product{
		deal("b", func(p *catalog.Product) { p.CreatedAt = 1 }),
		deal("a", func(p *catalog.Product) { p.CreatedAt = 2 }),
	}

	FilterSort(products, DefaultViewState())

	assert.Equal(t, "b", products[0].ID)
	assert.Equal(t, "a", products[1].ID)
}

func TestFilterSortIsIdempotent(t *testing.T) {
	products := []catalog.Product{
		deal("a", func(p *catalog.Product) { p.CreatedAt = 3 }),
		deal("b", func(p *catalog.Product) { p.CreatedAt = 1 }),
		deal("c", func(p *catalog.Product) { p.CreatedAt = 2 }),
	}
	view := DefaultViewState()

	once := FilterSort(products, view)
	twice := FilterSort(once, view)

	assert.Equal(t, once, twice)
}

// TestFilterSortAgainstReference cross-checks the engine against a naive
// per-product evaluation over randomized inputs.
func TestFilterSortAgainstReference(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	categories := []string{"books", "electronics", "fashion"}
	platforms := []string{"amazon", "flipkart", "myntra"}
	coupons := []string{"", "   ", "SAVE10"}

	products := make([]catalog.Product, 80)
	for i := range products {
		products[i] = catalog.Product{
			ID:          string(rune('a' + i%26)),
			Title:       []string{"Shoes", "Laptop Stand", "Coffee Maker"}[rng.Intn(3)],
			Category:    categories[rng.Intn(len(categories))],
			Application: platforms[rng.Intn(len(platforms))],
			Discount:    rng.Intn(100),
			CouponCode:  coupons[rng.Intn(len(coupons))],
			IsTopDeal:   rng.Intn(2) == 0,
			IsActive:    rng.Intn(4) != 0,
			CreatedAt:   int64(rng.Intn(10000)),
			UpdatedAt:   int64(rng.Intn(10000)),
		}
	}

	views := []ViewState{
		DefaultViewState(),
		{ActiveTab: TabTopDeals, Category: "electronics", Platform: WildcardAll, DiscountFloor: "30"},
		{ActiveTab: TabCoupons, Category: WildcardAll, Platform: "flipkart", DiscountFloor: WildcardAll, Search: "lap"},
		{ActiveTab: TabLiveDeals, Category: "fashion", Platform: "myntra", DiscountFloor: "50", Search: "shoes"},
	}

	for _, view := range views {
		got := FilterSort(products, view)

		var want []catalog.Product
		for _, p := range products {
			keep := p.IsActive &&
				(view.Category == WildcardAll || p.Category == view.Category) &&
				(view.Platform == WildcardAll || p.Application == view.Platform) &&
				(view.Search == "" || strings.Contains(strings.ToLower(p.Title), strings.ToLower(view.Search))) &&
				(view.ActiveTab != TabTopDeals || p.IsTopDeal) &&
				(view.ActiveTab != TabCoupons || strings.TrimSpace(p.CouponCode) != "") &&
				p.Discount >= view.MinDiscount()
			if keep {
				want = append(want, p)
			}
		}

		require.Len(t, got, len(want), "view %+v", view)
		for i := 1; i < len(got); i++ {
			assert.GreaterOrEqual(t, got[i-1].RecencyKey(), got[i].RecencyKey())
		}
	}
}

func TestParseViewState(t *testing.T) {
	t.Run("empty query gives defaults", func(t *testing.T) {
		assert.Equal(t, DefaultViewState(), ParseViewState(nil))
	})

	t.Run("facets are folded and validated", func(t *testing.T) {
		view := ParseViewState(map[string][]string{
			"tab":      {"topDeals"},
			"category": {"Electronics"},
			"platform": {"AMAZON"},
			"discount": {"30"},
			"search":   {"head"},
		})
		assert.Equal(t, TabTopDeals, view.ActiveTab)
		assert.Equal(t, "electronics", view.Category)
		assert.Equal(t, "amazon", view.Platform)
		assert.Equal(t, "30", view.DiscountFloor)
		assert.Equal(t, "head", view.Search)
	})

	t.Run("unknown values fall back to wildcard", func(t *testing.T) {
		view := ParseViewState(map[string][]string{
			"tab":      {"bogus"},
			"discount": {"17"},
		})
		assert.Equal(t, TabLiveDeals, view.ActiveTab)
		assert.Equal(t, WildcardAll, view.DiscountFloor)
		assert.Equal(t, 0, view.MinDiscount())
	})
}
