package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"deal-finder/config"
	"deal-finder/models"
	"deal-finder/scraper/avito"
	"deal-finder/storage"
)

// PageSource is one acquired rendering session. It is released exactly once
// per run, on every exit path.
type PageSource interface {
	FetchPage(ctx context.Context, pageNum int) (*avito.Page, error)
	Close()
}

// OpenSource acquires a fresh rendering session for a run.
type OpenSource func() (PageSource, error)

// Ingestor drives the fetch→extract→dedup→persist pipeline and returns only
// the ads that were durably stored for the first time.
//
// A single run is sequential; at most one run is assumed active at a time.
// That assumption is not enforced here — supporting concurrent runs would
// require the existence check and insert to become one atomic
// insert-ignoring-duplicates.
type Ingestor struct {
	cfg    *config.Config
	log    zerolog.Logger
	store  storage.ListingStore
	open   OpenSource
	filter *TitleFilter
}

// NewIngestor builds an Ingestor. The title grammar is compiled here so a
// bad pattern fails at construction, not mid-run.
func NewIngestor(cfg *config.Config, log zerolog.Logger, store storage.ListingStore, open OpenSource) (*Ingestor, error) {
	filter, err := NewTitleFilter(cfg.TitlePattern)
	if err != nil {
		return nil, err
	}
	return &Ingestor{
		cfg:    cfg,
		log:    log,
		store:  store,
		open:   open,
		filter: filter,
	}, nil
}

// Run scans up to pages result pages and returns the newly persisted ads.
// Running twice over an unchanged source yields an empty second result: every
// candidate is already known to the store.
//
// Any page fetch failure is fatal to the whole run; retry belongs to the
// orchestrator.
func (i *Ingestor) Run(ctx context.Context, pages int) ([]*models.Listing, error) {
	source, err := i.open()
	if err != nil {
		return nil, fmt.Errorf("ingest: acquire session: %w", err)
	}
	defer source.Close()

	var raw []*models.RawListing
	for pageNum := 1; pageNum <= pages; pageNum++ {
		page, err := source.FetchPage(ctx, pageNum)
		if err != nil {
			return nil, fmt.Errorf("ingest: page %d: %w", pageNum, err)
		}
		raw = append(raw, page.Ads...)
		if !page.HasNext {
			i.log.Info().Int("page", pageNum).Msg("no further pages, stopping pagination")
			break
		}
	}

	if len(raw) == 0 {
		i.log.Info().Msg("source returned no ads")
		return nil, nil
	}

	unique := dedupeByID(raw)
	i.log.Info().
		Int("raw", len(raw)).
		Int("unique", len(unique)).
		Msg("in-batch dedup done")

	candidates := i.applyFilter(unique)
	if len(candidates) == 0 {
		i.log.Info().Msg("no ads passed the title filter")
		return nil, nil
	}

	ids := make([]int64, 0, len(candidates))
	for _, ad := range candidates {
		ids = append(ids, ad.AvitoID)
	}
	existing, err := i.store.ExistingIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("ingest: check existing ids: %w", err)
	}

	fresh := make([]*models.Listing, 0, len(candidates))
	for _, ad := range candidates {
		if _, known := existing[ad.AvitoID]; known {
			continue
		}
		fresh = append(fresh, ad)
	}

	if len(fresh) == 0 {
		i.log.Info().Int("known", len(existing)).Msg("no new ads to store")
		return nil, nil
	}

	if err := i.store.Insert(ctx, fresh); err != nil {
		return nil, fmt.Errorf("ingest: insert %d ads: %w", len(fresh), err)
	}

	i.log.Info().
		Int("scanned", len(raw)).
		Int("qualified", len(candidates)).
		Int("already_known", len(candidates)-len(fresh)).
		Int("ingested", len(fresh)).
		Msg("run complete")

	return fresh, nil
}

// dedupeByID collapses the batch by external id. Order follows the first
// sighting of each id; the last-seen record wins the value. The source should
// not emit the same id twice within one run, so ties carry no meaning.
func dedupeByID(ads []*models.RawListing) []*models.RawListing {
	index := make(map[int64]int, len(ads))
	out := make([]*models.RawListing, 0, len(ads))
	for _, ad := range ads {
		if at, seen := index[ad.AvitoID]; seen {
			out[at] = ad
			continue
		}
		index[ad.AvitoID] = len(out)
		out = append(out, ad)
	}
	return out
}

// applyFilter keeps only ads whose title conforms to the grammar and promotes
// them to Listings with the model/memory split. The split is total: the
// filter already guaranteed the delimiter.
func (i *Ingestor) applyFilter(ads []*models.RawListing) []*models.Listing {
	out := make([]*models.Listing, 0, len(ads))
	for _, ad := range ads {
		model, memory, ok := i.filter.Split(ad.Title)
		if !ok {
			i.log.Debug().Int64("avito_id", ad.AvitoID).Str("title", ad.Title).Msg("title rejected by filter")
			continue
		}
		out = append(out, &models.Listing{
			AvitoID:       ad.AvitoID,
			Title:         ad.Title,
			URL:           ad.URL,
			Price:         ad.Price,
			Description:   ad.Description,
			Location:      ad.Location,
			PublishedAt:   ad.PublishedAt,
			SellerName:    ad.SellerName,
			SellerRating:  ad.SellerRating,
			SellerReviews: ad.SellerReviews,
			Condition:     ad.Condition,
			Model:         model,
			Memory:        memory,
		})
	}
	return out
}
