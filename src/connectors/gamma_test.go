package connectors_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"copytrader/src/connectors"
)

func TestGetMarketByConditionID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/markets" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("condition_id"); got != "c1" {
			t.Fatalf("unexpected condition_id: %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"conditionId":"c1","question":"Will it?","minimum_tick_size":"0.001","neg_risk":true,"active":true}]`))
	}))
	defer srv.Close()

	client := connectors.NewGammaClient(srv.URL, 5*time.Second)
	market, err := client.GetMarketByConditionID(context.Background(), "c1")
	if err != nil {
		t.Fatalf("GetMarketByConditionID failed: %v", err)
	}
	if market == nil {
		t.Fatal("expected a market")
	}
	if market.MinimumTickSize != "0.001" || !market.NegRisk {
		t.Fatalf("unexpected market: %+v", market)
	}
}

func TestGetMarketByConditionIDUnknownMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("[]"))
	}))
	defer srv.Close()

	client := connectors.NewGammaClient(srv.URL, 5*time.Second)
	market, err := client.GetMarketByConditionID(context.Background(), "unknown")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if market != nil {
		t.Fatalf("expected nil market, got %+v", market)
	}
}

func TestTickSizeAndRisk(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		wantTick string
		wantNeg  bool
	}{
		{
			name: "resolved from metadata",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`[{"conditionId":"c1","minimum_tick_size":"0.001","neg_risk":true}]`))
			},
			wantTick: "0.001",
			wantNeg:  true,
		},
		{
			name: "empty tick falls back to default",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`[{"conditionId":"c1","neg_risk":true}]`))
			},
			wantTick: "0.01",
			wantNeg:  true,
		},
		{
			name: "unknown market degrades",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte("[]"))
			},
			wantTick: "0.01",
			wantNeg:  false,
		},
		{
			name: "error status degrades",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			},
			wantTick: "0.01",
			wantNeg:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := connectors.NewGammaClient(srv.URL, 5*time.Second)
			tick, negRisk := client.TickSizeAndRisk(context.Background(), "c1")

			if tick != tt.wantTick {
				t.Fatalf("tick mismatch. got=%s want=%s", tick, tt.wantTick)
			}
			if negRisk != tt.wantNeg {
				t.Fatalf("neg risk mismatch. got=%v want=%v", negRisk, tt.wantNeg)
			}
		})
	}
}
