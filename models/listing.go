package models

import "time"

// Condition values for the optional condition field. A nil pointer means the
// listing block did not state one.
const (
	ConditionNew  = "new"
	ConditionUsed = "used"
)

// RawListing holds one ad as extracted from a rendered search results page,
// before any filtering or persistence. Optional fields are pointers: absence
// is a valid state, not a sentinel string.
type RawListing struct {
	AvitoID       int64
	Title         string
	URL           string
	Price         *int64
	Description   *string
	Location      *string
	Condition     *string
	PublishedAt   time.Time
	SellerName    *string
	SellerRating  *float64
	SellerReviews *int64

	// DateEstimated is set when the site's date phrase could not be parsed
	// and PublishedAt was substituted with the observation time. Not part of
	// the wire format.
	DateEstimated bool
}

// Listing is the validated, persisted record. Once stored it is immutable;
// re-observing the same AvitoID is a no-op duplicate, never an overwrite.
type Listing struct {
	AvitoID       int64     `json:"externalId"`
	Title         string    `json:"title"`
	URL           string    `json:"url"`
	Price         *int64    `json:"price"`
	Description   *string   `json:"description"`
	Location      *string   `json:"location"`
	PublishedAt   time.Time `json:"publishedAt"`
	SellerName    *string   `json:"sellerName"`
	SellerRating  *float64  `json:"sellerRating"`
	SellerReviews *int64    `json:"sellerReviewCount"`
	Condition     *string   `json:"condition"`
	Model         string    `json:"model"`
	Memory        string    `json:"memory"`
	CreatedAt     time.Time `json:"-"`
}

// ScoredListing is a Listing the gate considered worth acting on, with the
// derived fields used only for message formatting.
type ScoredListing struct {
	Listing
	PredictedPrice int64 `json:"predictedPrice"`
	Profit         int64 `json:"profit"`
}
