// Package catalog owns the product domain: normalization of raw store
// documents, the live snapshot feed, the advisory cache and admin CRUD.
package catalog

import (
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/toplivedeals/toplivedeals/internal/docstore"
)

// Product is one normalized deal record. Timestamps are epoch seconds,
// zero when the source document carried no usable value.
type Product struct {
	ID            string  `json:"id"`
	Title         string  `json:"title"`
	Description   string  `json:"description"`
	Images        string  `json:"images"`
	AffiliateLink string  `json:"affiliateLink"`
	PriceBefore   float64 `json:"priceBefore"`
	PriceAfter    float64 `json:"priceAfter"`
	Discount      int     `json:"discount"`
	Rating        float64 `json:"rating"`
	RatingCount   int     `json:"ratingCount"`
	CouponCode    string  `json:"couponCode"`
	PostedAgo     string  `json:"postedAgo"`
	Category      string  `json:"category"`
	Application   string  `json:"application"`
	IsTopDeal     bool    `json:"isTopDeal"`
	IsActive      bool    `json:"isActive"`
	CreatedAt     int64   `json:"createdAt"`
	UpdatedAt     int64   `json:"updatedAt"`
}

// RecencyKey orders products newest-first: updated time wins over created
// time; records without either sort last.
func (p Product) RecencyKey() int64 {
	if p.UpdatedAt > 0 {
		return p.UpdatedAt
	}
	return p.CreatedAt
}

// PrimaryImage returns the first segment of the comma-joined images field.
func (p Product) PrimaryImage() string {
	image, _, _ := strings.Cut(p.Images, ",")
	return strings.TrimSpace(image)
}

// HasCoupon reports whether the product belongs on the coupons tab.
// A whitespace-only code counts as absent.
func (p Product) HasCoupon() bool {
	return strings.TrimSpace(p.CouponCode) != ""
}

// Normalize maps a raw store document onto a Product. Every field has a
// defined default so malformed records degrade instead of failing.
func Normalize(doc docstore.Document) Product {
	data := doc.Data
	return Product{
		ID:            doc.ID,
		Title:         asString(data["title"], "Untitled Product"),
		Description:   asString(data["description"], ""),
		Images:        asString(data["images"], ""),
		AffiliateLink: asString(data["affiliateLink"], "#"),
		PriceBefore:   asNumber(data["priceBefore"]),
		PriceAfter:    asNumber(data["priceAfter"]),
		Discount:      int(asNumber(data["discount"])),
		Rating:        asNumber(data["rating"]),
		RatingCount:   int(asNumber(data["ratingCount"])),
		CouponCode:    asString(data["couponCode"], ""),
		PostedAgo:     asString(data["postedAgo"], "Just now"),
		Category:      Fold(asString(data["category"], "uncategorized")),
		Application:   Fold(asString(data["application"], "other")),
		IsTopDeal:     asBool(data["isTopDeal"], false),
		IsActive:      asBool(data["isActive"], true),
		CreatedAt:     asEpochSeconds(data["createdAt"]),
		UpdatedAt:     asEpochSeconds(data["updatedAt"]),
	}
}

// NormalizeSnapshot normalizes a whole emission and deduplicates it by id.
// When the same id appears twice the last-seen record wins, keeping the
// position of the first occurrence.
func NormalizeSnapshot(docs []docstore.Document) []Product {
	products := make([]Product, 0, len(docs))
	index := make(map[string]int, len(docs))
	for _, doc := range docs {
		p := Normalize(doc)
		if at, seen := index[p.ID]; seen {
			products[at] = p
			continue
		}
		index[p.ID] = len(products)
		products = append(products, p)
	}
	return products
}

// Fold lower-cases a string for case-insensitive matching.
func Fold(s string) string {
	return cases.Lower(language.Und).String(s)
}

func asString(v any, fallback string) string {
	s, ok := v.(string)
	if !ok || s == "" {
		return fallback
	}
	return s
}

func asNumber(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

func asBool(v any, fallback bool) bool {
	b, ok := v.(bool)
	if !ok {
		return fallback
	}
	return b
}

// asEpochSeconds accepts the store-native {"seconds": n} shape plus the
// epoch numbers and ISO strings found in older records.
func asEpochSeconds(v any) int64 {
	switch t := v.(type) {
	case map[string]any:
		return int64(asNumber(t["seconds"]))
	case float64, float32, int, int64:
		n := asNumber(t)
		// Values this large are epoch milliseconds from legacy records.
		if n > 1e12 {
			return int64(n / 1000)
		}
		return int64(n)
	case string:
		if parsed, err := time.Parse(time.RFC3339, t); err == nil {
			return parsed.Unix()
		}
		if n, err := strconv.ParseInt(t, 10, 64); err == nil {
			if n > 1e12 {
				return n / 1000
			}
			return n
		}
		return 0
	default:
		return 0
	}
}
