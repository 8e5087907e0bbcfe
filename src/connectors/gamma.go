package connectors

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"copytrader/src/quantize"
)

// Market is the slice of Gamma market metadata the order path needs.
type Market struct {
	ConditionID     string `json:"conditionId"`
	Question        string `json:"question"`
	Slug            string `json:"slug"`
	MinimumTickSize string `json:"minimum_tick_size"`
	NegRisk         bool   `json:"neg_risk"`
	Active          bool   `json:"active"`
	Closed          bool   `json:"closed"`
}

// GammaClient resolves market metadata (tick size, neg-risk flag) from the
// Gamma API.
type GammaClient struct {
	http *resty.Client
}

// NewGammaClient builds a client for the given base URL (empty selects the
// configured default).
func NewGammaClient(baseURL string, timeout time.Duration) *GammaClient {
	if baseURL == "" {
		baseURL = GetConfig().GammaBaseURL
	}
	return &GammaClient{http: newHTTPClient(baseURL, timeout)}
}

// GetMarketByConditionID returns the market for a condition id, or nil when
// the venue does not know it.
func (c *GammaClient) GetMarketByConditionID(ctx context.Context, conditionID string) (*Market, error) {
	var markets []Market
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("condition_id", conditionID).
		SetResult(&markets).
		Get("/markets")
	if err != nil {
		return nil, fmt.Errorf("gamma markets request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("gamma markets: unexpected status %d", resp.StatusCode())
	}
	if len(markets) == 0 {
		return nil, nil
	}
	return &markets[0], nil
}

// TickSizeAndRisk resolves (tick size, neg risk) for a market, degrading to
// the default tick and negRisk=false on any failure so one metadata outage
// never blocks order flow.
func (c *GammaClient) TickSizeAndRisk(ctx context.Context, conditionID string) (string, bool) {
	market, err := c.GetMarketByConditionID(ctx, conditionID)
	if err != nil || market == nil {
		logger.WithError(err).WithField("condition_id", conditionID).
			Warn("market metadata unavailable, using default tick size")
		return quantize.DefaultTickSize, false
	}

	tick := market.MinimumTickSize
	if tick == "" {
		tick = quantize.DefaultTickSize
	}
	return tick, market.NegRisk
}
