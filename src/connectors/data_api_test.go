package connectors_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"copytrader/src/connectors"
)

func TestGetActivityMapsRecords(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/activity" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		gotQuery = map[string]string{
			"user":  r.URL.Query().Get("user"),
			"limit": r.URL.Query().Get("limit"),
			"type":  r.URL.Query().Get("type"),
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{
				"proxyWallet":  "0xAAA",
				"conditionId":  "c1",
				"asset":        "token-1",
				"side":         "BUY",
				"size":         100.0,
				"price":        0.48,
				"usdcSize":     48.0,
				"timestamp":    1700000000,
				"outcome":      "Yes",
				"outcomeIndex": 0,
				"title":        "Will it happen?",
				"type":         "TRADE",
			},
			{
				// usdcSize missing: derived from size*price.
				"proxyWallet": "0xAAA",
				"conditionId": "c2",
				"asset":       "token-2",
				"side":        "SELL",
				"size":        10.0,
				"price":       0.5,
				"timestamp":   1700000100,
				"type":        "TRADE",
			},
		})
	}))
	defer srv.Close()

	client := connectors.NewDataAPIClient(srv.URL, 5*time.Second)
	trades, err := client.GetActivity(context.Background(), "0xAAA", 50)
	if err != nil {
		t.Fatalf("GetActivity failed: %v", err)
	}

	if gotQuery["user"] != "0xAAA" || gotQuery["limit"] != "50" || gotQuery["type"] != "TRADE" {
		t.Fatalf("unexpected query: %+v", gotQuery)
	}

	if len(trades) != 2 {
		t.Fatalf("expected 2 trades, got %d", len(trades))
	}
	if trades[0].ConditionID != "c1" || trades[0].UsdcSize != 48 {
		t.Fatalf("unexpected first trade: %+v", trades[0])
	}
	if trades[1].UsdcSize != 5 {
		t.Fatalf("usdc fallback mismatch. got=%v want=5", trades[1].UsdcSize)
	}
}

func TestGetActivityCapsLimit(t *testing.T) {
	var gotLimit string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotLimit = r.URL.Query().Get("limit")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := connectors.NewDataAPIClient(srv.URL, 5*time.Second)
	if _, err := client.GetActivity(context.Background(), "0xAAA", 10000); err != nil {
		t.Fatalf("GetActivity failed: %v", err)
	}
	if gotLimit != "500" {
		t.Fatalf("limit not capped. got=%s want=500", gotLimit)
	}
}

func TestGetActivityErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 404 is terminal, the retry policy must not kick in.
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := connectors.NewDataAPIClient(srv.URL, 5*time.Second)
	if _, err := client.GetActivity(context.Background(), "0xAAA", 50); err == nil {
		t.Fatal("expected an error for a 404 response")
	}
}

func TestGetLeaderboardDefaults(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{
			"limit":     r.URL.Query().Get("limit"),
			"sortBy":    r.URL.Query().Get("sortBy"),
			"timeFrame": r.URL.Query().Get("timeFrame"),
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]interface{}{
			{"proxyWallet": "0xAAA", "name": "whale", "amount": 12345.6},
		})
	}))
	defer srv.Close()

	client := connectors.NewDataAPIClient(srv.URL, 5*time.Second)
	entries, err := client.GetLeaderboard(context.Background(), 0, "", "")
	if err != nil {
		t.Fatalf("GetLeaderboard failed: %v", err)
	}

	if gotQuery["limit"] != "50" || gotQuery["sortBy"] != "pnl" || gotQuery["timeFrame"] != "30d" {
		t.Fatalf("unexpected defaults: %+v", gotQuery)
	}
	if len(entries) != 1 || entries[0].ProxyWallet != "0xAAA" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}
