package monitor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"copytrader/src/model"
)

type fakeHistory struct {
	mu    sync.Mutex
	pages map[string][]model.Trade
	errs  map[string]error
	calls int
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{
		pages: make(map[string][]model.Trade),
		errs:  make(map[string]error),
	}
}

func (f *fakeHistory) GetActivity(_ context.Context, address string, _ int) ([]model.Trade, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[address]; err != nil {
		return nil, err
	}
	page := make([]model.Trade, len(f.pages[address]))
	copy(page, f.pages[address])
	return page, nil
}

func (f *fakeHistory) setPage(address string, trades ...model.Trade) {
	f.mu.Lock()
	f.pages[address] = trades
	f.mu.Unlock()
}

func (f *fakeHistory) setErr(address string, err error) {
	f.mu.Lock()
	f.errs[address] = err
	f.mu.Unlock()
}

type recorder struct {
	mu     sync.Mutex
	events []model.Trade
}

func (r *recorder) handle(trade model.Trade, _ *model.TraderConfig) {
	r.mu.Lock()
	r.events = append(r.events, trade)
	r.mu.Unlock()
}

func (r *recorder) seen() []model.Trade {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.Trade, len(r.events))
	copy(out, r.events)
	return out
}

func trade(address, conditionID string, ts int64, size float64) model.Trade {
	return model.Trade{
		TraderAddress: address,
		ConditionID:   conditionID,
		AssetID:       "token-" + conditionID,
		Side:          model.SideBuy,
		Size:          size,
		Price:         0.5,
		UsdcSize:      size * 0.5,
		Timestamp:     ts,
	}
}

func newTestMonitor(history HistoryClient, rec *recorder, traders ...*model.TraderConfig) *Monitor {
	return New(history, traders, rec.handle, Options{})
}

func TestPrimingMarksHistoryWithoutEmitting(t *testing.T) {
	history := newFakeHistory()
	rec := &recorder{}
	trader := &model.TraderConfig{Address: "0xAAA", Enabled: true, CopyBuys: true, CopySells: true}

	history.setPage("0xAAA", trade("0xAAA", "c1", 100, 10), trade("0xAAA", "c1", 90, 5))

	m := newTestMonitor(history, rec, trader)
	m.primeTrader(context.Background(), trader)

	if got := len(rec.seen()); got != 0 {
		t.Fatalf("priming emitted %d events, want 0", got)
	}
	if trader.LastKnownTradeTS != 100 {
		t.Fatalf("last known ts = %d, want 100", trader.LastKnownTradeTS)
	}

	// The same page again is fully deduplicated.
	m.runCycle(context.Background())
	if got := len(rec.seen()); got != 0 {
		t.Fatalf("replayed page emitted %d events, want 0", got)
	}

	// A genuinely new record is emitted exactly once.
	history.setPage("0xAAA",
		trade("0xAAA", "c1", 110, 7),
		trade("0xAAA", "c1", 100, 10),
		trade("0xAAA", "c1", 90, 5),
	)
	m.runCycle(context.Background())
	m.runCycle(context.Background())

	events := rec.seen()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	if events[0].Timestamp != 110 {
		t.Fatalf("unexpected event: %+v", events[0])
	}
}

func TestCycleEmitsOldestFirstAcrossTraders(t *testing.T) {
	history := newFakeHistory()
	rec := &recorder{}
	alice := &model.TraderConfig{Address: "0xAAA", Enabled: true}
	bob := &model.TraderConfig{Address: "0xBBB", Enabled: true}

	m := newTestMonitor(history, rec, alice, bob)
	m.primeTrader(context.Background(), alice)
	m.primeTrader(context.Background(), bob)

	// Interleaved timestamps across the two traders.
	history.setPage("0xAAA", trade("0xAAA", "c1", 104, 1), trade("0xAAA", "c1", 101, 2))
	history.setPage("0xBBB", trade("0xBBB", "c2", 103, 3), trade("0xBBB", "c2", 102, 4))

	m.runCycle(context.Background())

	events := rec.seen()
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].Timestamp < events[i-1].Timestamp {
			t.Fatalf("events out of order: %d before %d", events[i-1].Timestamp, events[i].Timestamp)
		}
	}
}

func TestFailedPrimingFallsBackToFirstPoll(t *testing.T) {
	history := newFakeHistory()
	rec := &recorder{}
	trader := &model.TraderConfig{Address: "0xAAA", Enabled: true}

	history.setErr("0xAAA", errors.New("boom"))
	m := newTestMonitor(history, rec, trader)
	m.primeTrader(context.Background(), trader)

	// First successful poll primes instead of emitting: these records
	// predate the bot.
	history.setErr("0xAAA", nil)
	history.setPage("0xAAA", trade("0xAAA", "c1", 100, 10))
	m.runCycle(context.Background())
	if got := len(rec.seen()); got != 0 {
		t.Fatalf("first poll after failed priming emitted %d events, want 0", got)
	}

	// From the second poll on, new records flow normally.
	history.setPage("0xAAA", trade("0xAAA", "c1", 110, 7), trade("0xAAA", "c1", 100, 10))
	m.runCycle(context.Background())
	events := rec.seen()
	if len(events) != 1 || events[0].Timestamp != 110 {
		t.Fatalf("unexpected events after recovery: %+v", events)
	}
}

func TestFetchFailureIsolatesToTrader(t *testing.T) {
	history := newFakeHistory()
	rec := &recorder{}
	alice := &model.TraderConfig{Address: "0xAAA", Enabled: true}
	bob := &model.TraderConfig{Address: "0xBBB", Enabled: true}

	m := newTestMonitor(history, rec, alice, bob)
	m.primeTrader(context.Background(), alice)
	m.primeTrader(context.Background(), bob)

	history.setErr("0xAAA", errors.New("rate limited"))
	history.setPage("0xBBB", trade("0xBBB", "c2", 200, 3))

	m.runCycle(context.Background())

	events := rec.seen()
	if len(events) != 1 || events[0].TraderAddress != "0xBBB" {
		t.Fatalf("unexpected events: %+v", events)
	}

	// The failed trader retries next cycle without having lost anything.
	history.setErr("0xAAA", nil)
	history.setPage("0xAAA", trade("0xAAA", "c1", 150, 5))
	m.runCycle(context.Background())

	events = rec.seen()
	if len(events) != 2 || events[1].TraderAddress != "0xAAA" {
		t.Fatalf("unexpected events after retry: %+v", events)
	}
}

func TestDisabledTradersAreNotPolled(t *testing.T) {
	history := newFakeHistory()
	rec := &recorder{}
	trader := &model.TraderConfig{Address: "0xAAA", Enabled: false}

	history.setPage("0xAAA", trade("0xAAA", "c1", 100, 10))

	m := newTestMonitor(history, rec, trader)
	m.runCycle(context.Background())

	history.mu.Lock()
	calls := history.calls
	history.mu.Unlock()

	if calls != 0 {
		t.Fatalf("disabled trader was fetched %d times", calls)
	}
	if got := len(rec.seen()); got != 0 {
		t.Fatalf("disabled trader emitted %d events, want 0", got)
	}
}

func TestHandlePushDeduplicatesAgainstPolling(t *testing.T) {
	history := newFakeHistory()
	rec := &recorder{}
	trader := &model.TraderConfig{Address: "0xAAA", Enabled: true}

	m := newTestMonitor(history, rec, trader)
	m.primeTrader(context.Background(), trader)

	fresh := trade("0xAAA", "c1", 100, 10)

	// Push arrives first, then the poll sees the same record.
	m.HandlePush(fresh)
	history.setPage("0xAAA", fresh)
	m.runCycle(context.Background())

	events := rec.seen()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}

	// Repeated push is dropped too.
	m.HandlePush(fresh)
	if got := len(rec.seen()); got != 1 {
		t.Fatalf("duplicate push emitted, total %d events", got)
	}
}

func TestHandlePushIgnoresUnknownAndDisabledTraders(t *testing.T) {
	history := newFakeHistory()
	rec := &recorder{}
	disabled := &model.TraderConfig{Address: "0xAAA", Enabled: false}

	m := newTestMonitor(history, rec, disabled)

	m.HandlePush(trade("0xAAA", "c1", 100, 10))
	m.HandlePush(trade("0xZZZ", "c1", 100, 10))

	if got := len(rec.seen()); got != 0 {
		t.Fatalf("expected 0 events, got %d", got)
	}
}

func TestPushAddressComparisonIsCaseInsensitive(t *testing.T) {
	history := newFakeHistory()
	rec := &recorder{}
	trader := &model.TraderConfig{Address: "0xAbCd", Enabled: true}

	m := newTestMonitor(history, rec, trader)
	m.primeTrader(context.Background(), trader)

	m.HandlePush(trade("0xABCD", "c1", 100, 10))

	if got := len(rec.seen()); got != 1 {
		t.Fatalf("expected 1 event, got %d", got)
	}
}

func TestPruneSeenDropsExpiredFingerprints(t *testing.T) {
	history := newFakeHistory()
	rec := &recorder{}
	trader := &model.TraderConfig{Address: "0xAAA", Enabled: true}

	base := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	m := New(history, []*model.TraderConfig{trader}, rec.handle, Options{SeenWindow: time.Hour})
	m.now = func() time.Time { return base }

	old := trade("0xAAA", "c1", base.Add(-2*time.Hour).Unix(), 10)
	recent := trade("0xAAA", "c1", base.Add(-time.Minute).Unix(), 5)
	history.setPage("0xAAA", recent, old)
	m.primeTrader(context.Background(), trader)

	m.pruneSeen()

	m.mu.Lock()
	set := m.seen[trader.Key()]
	_, oldKept := set[TradeFingerprint(old)]
	_, recentKept := set[TradeFingerprint(recent)]
	m.mu.Unlock()

	if oldKept {
		t.Fatal("expired fingerprint survived pruning")
	}
	if !recentKept {
		t.Fatal("recent fingerprint was pruned")
	}
}

func TestTradeFingerprint(t *testing.T) {
	a := trade("0xAAA", "c1", 100, 10.5)
	b := trade("0xBBB", "c1", 100, 10.5) // trader is not part of the key
	c := trade("0xAAA", "c1", 100, 10.25)

	if got := TradeFingerprint(a); got != "100_c1_BUY_10.5" {
		t.Fatalf("unexpected fingerprint: %s", got)
	}
	if TradeFingerprint(a) != TradeFingerprint(b) {
		t.Fatal("fingerprint should not depend on trader address")
	}
	if TradeFingerprint(a) == TradeFingerprint(c) {
		t.Fatal("different sizes must produce different fingerprints")
	}
}
