package connectors

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	logger "github.com/sirupsen/logrus"

	"copytrader/src/model"
)

// maxActivityLimit is the Data API page-size cap for /activity.
const maxActivityLimit = 500

// DataAPIClient talks to the public Data API: trader activity, trade history
// and the leaderboard. No authentication required.
type DataAPIClient struct {
	http *resty.Client
}

// NewDataAPIClient builds a client for the given base URL (empty selects the
// configured default).
func NewDataAPIClient(baseURL string, timeout time.Duration) *DataAPIClient {
	if baseURL == "" {
		baseURL = GetConfig().DataAPIBaseURL
	}
	return &DataAPIClient{http: newHTTPClient(baseURL, timeout)}
}

// activityRecord is one row of GET /activity.
type activityRecord struct {
	ProxyWallet     string  `json:"proxyWallet"`
	ConditionID     string  `json:"conditionId"`
	Asset           string  `json:"asset"`
	Side            string  `json:"side"`
	Size            float64 `json:"size"`
	Price           float64 `json:"price"`
	UsdcSize        float64 `json:"usdcSize"`
	Timestamp       int64   `json:"timestamp"`
	Outcome         string  `json:"outcome"`
	OutcomeIndex    int     `json:"outcomeIndex"`
	Title           string  `json:"title"`
	Slug            string  `json:"slug"`
	TransactionHash string  `json:"transactionHash"`
	Type            string  `json:"type"`
}

func (r activityRecord) toTrade() model.Trade {
	usdc := r.UsdcSize
	if usdc == 0 {
		usdc = r.Size * r.Price
	}
	return model.Trade{
		TraderAddress:   r.ProxyWallet,
		ConditionID:     r.ConditionID,
		AssetID:         r.Asset,
		Side:            r.Side,
		Size:            r.Size,
		Price:           r.Price,
		UsdcSize:        usdc,
		Timestamp:       r.Timestamp,
		Outcome:         r.Outcome,
		OutcomeIndex:    r.OutcomeIndex,
		Title:           r.Title,
		Slug:            r.Slug,
		TransactionHash: r.TransactionHash,
	}
}

// GetActivity returns the trader's most recent TRADE activity, newest first
// as served. The caller owns ordering and dedup.
func (c *DataAPIClient) GetActivity(ctx context.Context, address string, limit int) ([]model.Trade, error) {
	if limit <= 0 || limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	var records []activityRecord
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"user":   address,
			"limit":  strconv.Itoa(limit),
			"offset": "0",
			"type":   "TRADE",
		}).
		SetResult(&records).
		Get("/activity")
	if err != nil {
		return nil, fmt.Errorf("data api activity request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("data api activity: unexpected status %d", resp.StatusCode())
	}

	trades := make([]model.Trade, 0, len(records))
	for _, record := range records {
		trades = append(trades, record.toTrade())
	}

	logger.WithFields(map[string]interface{}{
		"address": address,
		"records": len(trades),
	}).Debug("fetched trader activity")

	return trades, nil
}

// GetTrades returns raw trade rows for a trader from GET /trades.
func (c *DataAPIClient) GetTrades(ctx context.Context, address string, limit, offset int) ([]model.Trade, error) {
	if limit <= 0 {
		limit = 100
	}

	var records []activityRecord
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"user":   address,
			"limit":  strconv.Itoa(limit),
			"offset": strconv.Itoa(offset),
		}).
		SetResult(&records).
		Get("/trades")
	if err != nil {
		return nil, fmt.Errorf("data api trades request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("data api trades: unexpected status %d", resp.StatusCode())
	}

	trades := make([]model.Trade, 0, len(records))
	for _, record := range records {
		trades = append(trades, record.toTrade())
	}
	return trades, nil
}

// LeaderboardEntry is one row of GET /leaderboard.
type LeaderboardEntry struct {
	ProxyWallet string  `json:"proxyWallet"`
	Name        string  `json:"name"`
	Amount      float64 `json:"amount"`
}

// GetLeaderboard fetches the top traders sorted by the given field (pnl,
// volume) over the given window (7d, 30d, all).
func (c *DataAPIClient) GetLeaderboard(ctx context.Context, limit int, sortBy, timeFrame string) ([]LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	if sortBy == "" {
		sortBy = "pnl"
	}
	if timeFrame == "" {
		timeFrame = "30d"
	}

	var entries []LeaderboardEntry
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"limit":     strconv.Itoa(limit),
			"sortBy":    sortBy,
			"timeFrame": timeFrame,
		}).
		SetResult(&entries).
		Get("/leaderboard")
	if err != nil {
		return nil, fmt.Errorf("data api leaderboard request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("data api leaderboard: unexpected status %d", resp.StatusCode())
	}
	return entries, nil
}
