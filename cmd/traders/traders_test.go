package traders

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"copytrader/src/model"
)

// Ensures the generator writes a disabled starter config and flags wallets
// without recent fills.
func TestGeneratorWritesStarterConfig(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/leaderboard":
			_, _ = w.Write([]byte(`[
  {"proxyWallet": "0xAAA", "name": "whale", "amount": 12000},
  {"proxyWallet": "0xBBB", "name": "ghost", "amount": 900}
]`))
		case "/trades":
			if r.URL.Query().Get("user") == "0xAAA" {
				_, _ = w.Write([]byte(`[{"proxyWallet": "0xAAA", "side": "BUY", "size": 10, "price": 0.5, "timestamp": 1700000000}]`))
				return
			}
			_, _ = w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	t.Setenv("DATA_API_BASE_URL", srv.URL)

	output := filepath.Join(t.TempDir(), "config", "traders.json")
	g := &Generator{Limit: 2, Output: output}
	if err := g.Start(); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	traders, err := model.LoadTraders(output)
	if err != nil {
		t.Fatalf("loading generated config: %v", err)
	}
	if len(traders) != 2 {
		t.Fatalf("expected 2 traders, got %d", len(traders))
	}

	if traders[0].Address != "0xAAA" || traders[0].Nickname != "whale" {
		t.Fatalf("unexpected first entry: %+v", traders[0])
	}
	if traders[0].Enabled {
		t.Fatal("generated entries must start disabled")
	}
	if traders[0].Notes != "" {
		t.Fatalf("active wallet must not be flagged, got %q", traders[0].Notes)
	}
	if traders[1].Notes != "no recent trades" {
		t.Fatalf("quiet wallet not flagged: %+v", traders[1])
	}
}
