package listing

import (
	"sort"
	"strings"

	"github.com/toplivedeals/toplivedeals/internal/catalog"
)

// FilterSort derives the publicly visible deal list for a facet selection.
// Pure: the input slice is never mutated and identical inputs give
// identical outputs, so it is safe to run on every request.
func FilterSort(products []catalog.Product, view ViewState) []catalog.Product {
	out := make([]catalog.Product, 0, len(products))
	for _, p := range products {
		if Matches(p, view) {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].RecencyKey() > out[j].RecencyKey()
	})
	return out
}

// Matches evaluates the facet predicate. All clauses are AND-combined and
// null-safe: normalization already defaulted every field.
func Matches(p catalog.Product, view ViewState) bool {
	if !p.IsActive {
		return false
	}
	if view.Category != WildcardAll && p.Category != view.Category {
		return false
	}
	if view.Platform != WildcardAll && p.Application != view.Platform {
		return false
	}
	if view.Search != "" && !strings.Contains(catalog.Fold(p.Title), catalog.Fold(view.Search)) {
		return false
	}
	switch view.ActiveTab {
	case TabTopDeals:
		if !p.IsTopDeal {
			return false
		}
	case TabCoupons:
		if !p.HasCoupon() {
			return false
		}
	}
	return p.Discount >= view.MinDiscount()
}
