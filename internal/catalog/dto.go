package catalog

// CreateProductRequest is the admin payload for a new deal.
type CreateProductRequest struct {
	Title         string  `json:"title" validate:"required,max=200"`
	Description   string  `json:"description" validate:"max=2000"`
	Images        string  `json:"images" validate:"max=2000"`
	AffiliateLink string  `json:"affiliateLink" validate:"omitempty,max=500"`
	PriceBefore   float64 `json:"priceBefore" validate:"gte=0"`
	PriceAfter    float64 `json:"priceAfter" validate:"gte=0"`
	Discount      int     `json:"discount" validate:"gte=0,lte=100"`
	Rating        float64 `json:"rating" validate:"gte=0,lte=5"`
	RatingCount   int     `json:"ratingCount" validate:"gte=0"`
	CouponCode    string  `json:"couponCode" validate:"max=50"`
	PostedAgo     string  `json:"postedAgo" validate:"max=50"`
	Category      string  `json:"category" validate:"required,max=50"`
	Application   string  `json:"application" validate:"required,max=50"`
	IsTopDeal     bool    `json:"isTopDeal"`
	IsActive      *bool   `json:"isActive"`
}

// document renders the request as a store document. Classification strings
// are folded so matching stays case-insensitive downstream.
func (r CreateProductRequest) document() map[string]any {
	isActive := true
	if r.IsActive != nil {
		isActive = *r.IsActive
	}
	return map[string]any{
		"title":         r.Title,
		"description":   r.Description,
		"images":        r.Images,
		"affiliateLink": r.AffiliateLink,
		"priceBefore":   r.PriceBefore,
		"priceAfter":    r.PriceAfter,
		"discount":      r.Discount,
		"rating":        r.Rating,
		"ratingCount":   r.RatingCount,
		"couponCode":    r.CouponCode,
		"postedAgo":     r.PostedAgo,
		"category":      Fold(r.Category),
		"application":   Fold(r.Application),
		"isTopDeal":     r.IsTopDeal,
		"isActive":      isActive,
	}
}

// UpdateProductRequest carries a partial admin update. Nil fields stay
// untouched in the stored document.
type UpdateProductRequest struct {
	Title         *string  `json:"title,omitempty" validate:"omitempty,max=200"`
	Description   *string  `json:"description,omitempty" validate:"omitempty,max=2000"`
	Images        *string  `json:"images,omitempty" validate:"omitempty,max=2000"`
	AffiliateLink *string  `json:"affiliateLink,omitempty" validate:"omitempty,max=500"`
	PriceBefore   *float64 `json:"priceBefore,omitempty" validate:"omitempty,gte=0"`
	PriceAfter    *float64 `json:"priceAfter,omitempty" validate:"omitempty,gte=0"`
	Discount      *int     `json:"discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	Rating        *float64 `json:"rating,omitempty" validate:"omitempty,gte=0,lte=5"`
	RatingCount   *int     `json:"ratingCount,omitempty" validate:"omitempty,gte=0"`
	CouponCode    *string  `json:"couponCode,omitempty" validate:"omitempty,max=50"`
	PostedAgo     *string  `json:"postedAgo,omitempty" validate:"omitempty,max=50"`
	Category      *string  `json:"category,omitempty" validate:"omitempty,max=50"`
	Application   *string  `json:"application,omitempty" validate:"omitempty,max=50"`
	IsTopDeal     *bool    `json:"isTopDeal,omitempty"`
	IsActive      *bool    `json:"isActive,omitempty"`
}

// patch returns the set fields as a store merge patch.
func (r UpdateProductRequest) patch() map[string]any {
	patch := make(map[string]any)
	if r.Title != nil {
		patch["title"] = *r.Title
	}
	if r.Description != nil {
		patch["description"] = *r.Description
	}
	if r.Images != nil {
		patch["images"] = *r.Images
	}
	if r.AffiliateLink != nil {
		patch["affiliateLink"] = *r.AffiliateLink
	}
	if r.PriceBefore != nil {
		patch["priceBefore"] = *r.PriceBefore
	}
	if r.PriceAfter != nil {
		patch["priceAfter"] = *r.PriceAfter
	}
	if r.Discount != nil {
		patch["discount"] = *r.Discount
	}
	if r.Rating != nil {
		patch["rating"] = *r.Rating
	}
	if r.RatingCount != nil {
		patch["ratingCount"] = *r.RatingCount
	}
	if r.CouponCode != nil {
		patch["couponCode"] = *r.CouponCode
	}
	if r.PostedAgo != nil {
		patch["postedAgo"] = *r.PostedAgo
	}
	if r.Category != nil {
		patch["category"] = Fold(*r.Category)
	}
	if r.Application != nil {
		patch["application"] = Fold(*r.Application)
	}
	if r.IsTopDeal != nil {
		patch["isTopDeal"] = *r.IsTopDeal
	}
	if r.IsActive != nil {
		patch["isActive"] = *r.IsActive
	}
	return patch
}
