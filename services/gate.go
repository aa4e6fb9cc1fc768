package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"deal-finder/models"
)

// Gate scores freshly ingested ads and returns the subset worth acting on.
// Implementations may drop records but every returned record must trace back
// to an input record by external id.
type Gate interface {
	Score(ctx context.Context, ads []*models.Listing) ([]*models.ScoredListing, error)
}

// prediction is one record of the predictor service's response.
type prediction struct {
	ExternalID     int64 `json:"externalId"`
	PredictedPrice int64 `json:"predictedPrice"`
}

// HTTPGate calls an external price-prediction service and keeps the ads whose
// predicted value exceeds the asking price by at least the configured
// threshold. The service is an injected dependency: its absence or failure is
// a decision made by the caller, never an import-time side effect.
type HTTPGate struct {
	url       string
	threshold int64
	client    *http.Client
	log       zerolog.Logger
}

func NewHTTPGate(url string, threshold int64, log zerolog.Logger) *HTTPGate {
	return &HTTPGate{
		url:       url,
		threshold: threshold,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       log,
	}
}

// Score posts the batch as JSON, joins the returned predictions back onto the
// input by external id, and filters on profit. Ads without a listed price
// cannot be profitable and are dropped.
func (g *HTTPGate) Score(ctx context.Context, ads []*models.Listing) ([]*models.ScoredListing, error) {
	if len(ads) == 0 {
		return nil, nil
	}

	body, err := json.Marshal(ads)
	if err != nil {
		return nil, fmt.Errorf("gate: encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gate: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gate: call predictor: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gate: predictor returned http %d", resp.StatusCode)
	}

	var predictions []prediction
	if err := json.NewDecoder(resp.Body).Decode(&predictions); err != nil {
		return nil, fmt.Errorf("gate: decode predictions: %w", err)
	}

	byID := make(map[int64]*models.Listing, len(ads))
	for _, ad := range ads {
		byID[ad.AvitoID] = ad
	}

	var profitable []*models.ScoredListing
	for _, p := range predictions {
		ad, known := byID[p.ExternalID]
		if !known {
			g.log.Warn().Int64("external_id", p.ExternalID).Msg("prediction for unknown ad, dropping")
			continue
		}
		if ad.Price == nil {
			continue
		}
		profit := p.PredictedPrice - *ad.Price
		if profit < g.threshold {
			continue
		}
		profitable = append(profitable, &models.ScoredListing{
			Listing:        *ad,
			PredictedPrice: p.PredictedPrice,
			Profit:         profit,
		})
	}

	g.log.Info().
		Int("scored", len(predictions)).
		Int("profitable", len(profitable)).
		Int64("threshold", g.threshold).
		Msg("gate applied")

	return profitable, nil
}
