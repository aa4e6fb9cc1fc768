package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"

	"deal-finder/models"
	"deal-finder/utils"
)

// PostgresStore persists ads to PostgreSQL. avito_id is the primary key and
// the sole deduplication key for the whole system lifetime; rows are never
// updated by the pipeline.
//
// The existence check and the insert rely on at most one ingestion run being
// active. If concurrent runs are ever introduced, the pair must become one
// atomic insert-ignoring-duplicates.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore opens a connection, waits for the database to come up, and
// runs the idempotent schema migration.
func NewPostgresStore(dsn string, log zerolog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}

	retry := &utils.Retry{MaxAttempts: 10, BaseDelay: 2 * time.Second, Log: log}
	if err := retry.Do("postgres-ping", db.Ping); err != nil {
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		return nil, fmt.Errorf("postgres: migrate: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS ads (
			avito_id             BIGINT PRIMARY KEY,
			url                  TEXT        NOT NULL,
			title                TEXT        NOT NULL,
			price                BIGINT,
			description          TEXT,
			location             TEXT,
			published_at         TIMESTAMPTZ NOT NULL,
			condition            TEXT,
			seller_name          TEXT,
			seller_rating        DOUBLE PRECISION,
			seller_reviews_count BIGINT,
			model                TEXT,
			memory               TEXT,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_ads_published_at ON ads(published_at);
	`)
	return err
}

// ExistingIDs returns the subset of ids already present in the ads table.
func (s *PostgresStore) ExistingIDs(ctx context.Context, ids []int64) (map[int64]struct{}, error) {
	existing := make(map[int64]struct{})
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT avito_id FROM ads WHERE avito_id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("postgres: query existing ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("postgres: scan id: %w", err)
		}
		existing[id] = struct{}{}
	}
	return existing, rows.Err()
}

// Insert stores the batch inside one transaction. Any failure rolls the whole
// batch back; partial success is not possible.
func (s *PostgresStore) Insert(ctx context.Context, ads []*models.Listing) error {
	if len(ads) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("postgres: begin: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ads (
			avito_id, url, title, price, description, location, published_at,
			condition, seller_name, seller_rating, seller_reviews_count,
			model, memory, created_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
	`)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("postgres: prepare insert: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, ad := range ads {
		ad.CreatedAt = now
		_, err := stmt.ExecContext(ctx,
			ad.AvitoID, ad.URL, ad.Title, ad.Price, ad.Description, ad.Location,
			ad.PublishedAt, ad.Condition, ad.SellerName, ad.SellerRating,
			ad.SellerReviews, ad.Model, ad.Memory, ad.CreatedAt,
		)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("postgres: insert ad %d: %w", ad.AvitoID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("postgres: commit: %w", err)
	}
	return nil
}

// ListAds retrieves stored ads, newest publication first.
func (s *PostgresStore) ListAds(ctx context.Context, limit, offset int64) ([]*models.Listing, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT avito_id, url, title, price, description, location, published_at,
		       condition, seller_name, seller_rating, seller_reviews_count,
		       model, memory, created_at
		FROM ads
		ORDER BY published_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ads: %w", err)
	}
	defer rows.Close()

	var ads []*models.Listing
	for rows.Next() {
		ad := &models.Listing{}
		var model, memory sql.NullString
		if err := rows.Scan(
			&ad.AvitoID, &ad.URL, &ad.Title, &ad.Price, &ad.Description,
			&ad.Location, &ad.PublishedAt, &ad.Condition, &ad.SellerName,
			&ad.SellerRating, &ad.SellerReviews, &model, &memory, &ad.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan ad: %w", err)
		}
		ad.Model = model.String
		ad.Memory = memory.String
		ads = append(ads, ad)
	}
	return ads, rows.Err()
}

func (s *PostgresStore) Close() error {
	return s.db.Close()
}
