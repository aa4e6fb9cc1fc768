package storage

import (
	"context"

	"deal-finder/models"
)

// ListingStore is the persistence boundary of the ingestion pipeline.
type ListingStore interface {
	// ExistingIDs reports which of the given external ids are already stored.
	ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error)

	// Insert stores the batch in a single transaction: either every record
	// lands durably, or none does.
	Insert(ctx context.Context, ads []*models.Listing) error

	// ListAds returns stored ads ordered by publication time, newest first.
	ListAds(ctx context.Context, limit, offset int64) ([]*models.Listing, error)

	Close() error
}
