package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"deal-finder/models"
)

type fakeStore struct {
	ads       []*models.Listing
	err       error
	gotLimit  int64
	gotOffset int64
}

func (f *fakeStore) ExistingIDs(context.Context, []int64) (map[int64]struct{}, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeStore) Insert(context.Context, []*models.Listing) error {
	return errors.New("not implemented")
}

func (f *fakeStore) ListAds(_ context.Context, limit, offset int64) ([]*models.Listing, error) {
	f.gotLimit = limit
	f.gotOffset = offset
	return f.ads, f.err
}

func (f *fakeStore) Close() error { return nil }

func listing(id int64) *models.Listing {
	price := int64(50000)
	return &models.Listing{
		AvitoID:     id,
		Title:       "iPhone 13, 128 ГБ",
		URL:         "https://www.avito.ru/ad",
		Price:       &price,
		PublishedAt: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC),
		Model:       "iPhone 13",
		Memory:      "128 ГБ",
	}
}

func TestListAds(t *testing.T) {
	store := &fakeStore{ads: []*models.Listing{listing(1), listing(2)}}
	server := httptest.NewServer(NewServer(store, zerolog.Nop()).Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/ads?limit=5&skip=10")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d", resp.StatusCode)
	}
	if store.gotLimit != 5 || store.gotOffset != 10 {
		t.Errorf("store query: limit=%d offset=%d", store.gotLimit, store.gotOffset)
	}

	var got []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ads: got %d, want 2", len(got))
	}
	if got[0]["externalId"] != float64(1) {
		t.Errorf("externalId: got %v", got[0]["externalId"])
	}
	if got[0]["model"] != "iPhone 13" {
		t.Errorf("model: got %v", got[0]["model"])
	}
	if _, leaked := got[0]["CreatedAt"]; leaked {
		t.Error("created_at must not appear on the wire")
	}
}

func TestListAdsEmptyTable(t *testing.T) {
	store := &fakeStore{}
	server := httptest.NewServer(NewServer(store, zerolog.Nop()).Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/ads")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var got []*models.Listing
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got == nil {
		t.Error("empty table must serialize as [], not null")
	}
	if store.gotLimit != defaultLimit {
		t.Errorf("default limit: got %d, want %d", store.gotLimit, defaultLimit)
	}
}

func TestListAdsClampsLimit(t *testing.T) {
	store := &fakeStore{}
	server := httptest.NewServer(NewServer(store, zerolog.Nop()).Router())
	defer server.Close()

	for _, tc := range []struct {
		query string
		limit int64
	}{
		{"?limit=1000", maxLimit},
		{"?limit=-3", defaultLimit},
		{"?limit=abc", defaultLimit},
	} {
		resp, err := http.Get(server.URL + "/api/v1/ads" + tc.query)
		if err != nil {
			t.Fatalf("get %s: %v", tc.query, err)
		}
		resp.Body.Close()
		if store.gotLimit != tc.limit {
			t.Errorf("%s: limit got %d, want %d", tc.query, store.gotLimit, tc.limit)
		}
	}
}

func TestListAdsStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("connection reset")}
	server := httptest.NewServer(NewServer(store, zerolog.Nop()).Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/ads")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status: got %d, want 500", resp.StatusCode)
	}
}

func TestRootEndpoint(t *testing.T) {
	server := httptest.NewServer(NewServer(&fakeStore{}, zerolog.Nop()).Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["message"] == "" {
		t.Error("expected a welcome message")
	}
}
