// Package monitor polls trader activity and turns raw history pages into an
// ordered stream of new-trade events.
package monitor

import (
	"context"
	"sort"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"copytrader/src/model"
)

// HistoryClient fetches the most recent trade records for one trader. The
// monitor assumes neither server-side ordering nor exactly-once delivery.
type HistoryClient interface {
	GetActivity(ctx context.Context, address string, limit int) ([]model.Trade, error)
}

// TradeHandler receives each detected trade in causal (oldest-first) order.
// It runs on the polling goroutine, so a slow handler delays the next cycle
// but never reorders events.
type TradeHandler func(model.Trade, *model.TraderConfig)

// Options tune the monitor. Zero values fall back to the defaults below.
type Options struct {
	PollInterval time.Duration
	PrimingLimit int
	PageLimit    int
	MaxInFlight  int
	// SeenWindow bounds fingerprint memory: entries whose record timestamp
	// falls out of the window are pruned each cycle. Only recent history can
	// recur in a subsequent page, so pruning old entries is safe.
	SeenWindow time.Duration
}

const (
	defaultPollInterval = 5 * time.Second
	defaultPrimingLimit = 10
	defaultPageLimit    = 50
	defaultMaxInFlight  = 5
	defaultSeenWindow   = 24 * time.Hour
)

func (o *Options) withDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.PrimingLimit <= 0 {
		o.PrimingLimit = defaultPrimingLimit
	}
	if o.PageLimit <= 0 {
		o.PageLimit = defaultPageLimit
	}
	if o.MaxInFlight <= 0 {
		o.MaxInFlight = defaultMaxInFlight
	}
	if o.SeenWindow <= 0 {
		o.SeenWindow = defaultSeenWindow
	}
}

// Monitor tracks a set of traders and detects their new trades by polling.
type Monitor struct {
	history HistoryClient
	handler TradeHandler
	opts    Options
	now     func() time.Time

	mu      sync.Mutex
	traders map[string]*model.TraderConfig
	seen    map[string]map[Fingerprint]int64 // trader key -> fingerprint -> record ts
	primed  map[string]bool
}

// New builds a monitor over the given traders. Disabled traders are kept (a
// config reload may re-enable them) but never polled.
func New(history HistoryClient, traders []*model.TraderConfig, handler TradeHandler, opts Options) *Monitor {
	opts.withDefaults()

	byKey := make(map[string]*model.TraderConfig, len(traders))
	for _, trader := range traders {
		byKey[trader.Key()] = trader
	}

	return &Monitor{
		history: history,
		handler: handler,
		opts:    opts,
		now:     time.Now,
		traders: byKey,
		seen:    make(map[string]map[Fingerprint]int64),
		primed:  make(map[string]bool),
	}
}

type detected struct {
	trade  model.Trade
	trader *model.TraderConfig
}

// Run primes every enabled trader and then polls until ctx is cancelled.
// Priming marks the current history page as seen without emitting events, so
// a restart never replays trades that predate it.
func (m *Monitor) Run(ctx context.Context) error {
	enabled := m.enabledTraders()
	logger.WithField("traders", len(enabled)).Info("starting trader monitor")

	for _, trader := range enabled {
		m.primeTrader(ctx, trader)
	}
	logger.Info("trader state initialized, entering poll loop")

	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	for {
		m.runCycle(ctx)
		m.pruneSeen()

		select {
		case <-ctx.Done():
			logger.Info("trader monitor stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// primeTrader seeds the seen-set from a larger lookback page. Failures leave
// the trader unprimed; the first steady-state pass then primes it instead of
// emitting, because every record is unseen but the last-seen timestamp is
// still zero.
func (m *Monitor) primeTrader(ctx context.Context, trader *model.TraderConfig) {
	records, err := m.history.GetActivity(ctx, trader.Address, m.opts.PrimingLimit)
	if err != nil {
		logger.WithError(err).WithField("trader", trader.DisplayName()).
			Warn("priming fetch failed, trader will prime on first poll")
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.seenSetLocked(trader.Key())
	var latest int64
	for _, record := range records {
		set[TradeFingerprint(record)] = record.Timestamp
		if record.Timestamp > latest {
			latest = record.Timestamp
		}
	}
	if latest > trader.LastKnownTradeTS {
		trader.LastKnownTradeTS = latest
	}
	m.primed[trader.Key()] = true

	logger.WithFields(map[string]interface{}{
		"trader": trader.DisplayName(),
		"seeded": len(records),
	}).Info("trader state initialized")
}

// runCycle polls every enabled trader concurrently, then emits the merged
// candidates oldest-first. A failed fetch isolates to its trader: state is
// untouched and the trader retries next cycle.
func (m *Monitor) runCycle(ctx context.Context) {
	enabled := m.enabledTraders()

	var (
		wg      sync.WaitGroup
		results = make([][]detected, len(enabled))
		slots   = make(chan struct{}, m.opts.MaxInFlight)
	)

	for i, trader := range enabled {
		wg.Add(1)
		slots <- struct{}{}
		go func(i int, trader *model.TraderConfig) {
			defer wg.Done()
			defer func() { <-slots }()
			results[i] = m.checkTrader(ctx, trader)
		}(i, trader)
	}
	wg.Wait()

	var cycle []detected
	for _, batch := range results {
		cycle = append(cycle, batch...)
	}
	sort.SliceStable(cycle, func(i, j int) bool {
		return cycle[i].trade.Timestamp < cycle[j].trade.Timestamp
	})

	for _, d := range cycle {
		if ctx.Err() != nil {
			return
		}
		m.handler(d.trade, d.trader)
	}
}

// checkTrader fetches the latest page for one trader and returns its unseen
// records sorted oldest-first.
func (m *Monitor) checkTrader(ctx context.Context, trader *model.TraderConfig) []detected {
	records, err := m.history.GetActivity(ctx, trader.Address, m.opts.PageLimit)
	if err != nil {
		logger.WithError(err).WithField("trader", trader.DisplayName()).
			Warn("activity fetch failed, will retry next cycle")
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.seenSetLocked(trader.Key())

	// A trader whose priming fetch failed primes here: mark everything seen
	// without emitting.
	priming := !m.primed[trader.Key()]
	m.primed[trader.Key()] = true

	var fresh []detected
	var latest int64
	for _, record := range records {
		fp := TradeFingerprint(record)
		if _, ok := set[fp]; ok {
			continue
		}
		set[fp] = record.Timestamp
		if record.Timestamp > latest {
			latest = record.Timestamp
		}
		if !priming {
			fresh = append(fresh, detected{trade: record, trader: trader})
		}
	}

	if latest > trader.LastKnownTradeTS {
		trader.LastKnownTradeTS = latest
	}
	trader.TotalTradesCopied += len(fresh)

	sort.SliceStable(fresh, func(i, j int) bool {
		return fresh[i].trade.Timestamp < fresh[j].trade.Timestamp
	})
	return fresh
}

// HandlePush feeds a trade event from the optional real-time channel through
// the same dedup path as polling. Unknown or disabled traders are ignored.
func (m *Monitor) HandlePush(trade model.Trade) {
	m.mu.Lock()
	trader, ok := m.traders[keyFor(trade.TraderAddress)]
	if !ok || !trader.Enabled {
		m.mu.Unlock()
		return
	}

	set := m.seenSetLocked(trader.Key())
	fp := TradeFingerprint(trade)
	if _, dup := set[fp]; dup {
		m.mu.Unlock()
		return
	}
	set[fp] = trade.Timestamp
	if trade.Timestamp > trader.LastKnownTradeTS {
		trader.LastKnownTradeTS = trade.Timestamp
	}
	trader.TotalTradesCopied++
	m.mu.Unlock()

	m.handler(trade, trader)
}

// pruneSeen drops fingerprints whose record timestamp left the seen window.
func (m *Monitor) pruneSeen() {
	cutoff := m.now().Add(-m.opts.SeenWindow).Unix()

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, set := range m.seen {
		for fp, ts := range set {
			if ts < cutoff {
				delete(set, fp)
			}
		}
	}
}

func (m *Monitor) enabledTraders() []*model.TraderConfig {
	m.mu.Lock()
	defer m.mu.Unlock()

	var enabled []*model.TraderConfig
	for _, trader := range m.traders {
		if trader.Enabled {
			enabled = append(enabled, trader)
		}
	}
	sort.Slice(enabled, func(i, j int) bool { return enabled[i].Key() < enabled[j].Key() })
	return enabled
}

func (m *Monitor) seenSetLocked(key string) map[Fingerprint]int64 {
	set, ok := m.seen[key]
	if !ok {
		set = make(map[Fingerprint]int64)
		m.seen[key] = set
	}
	return set
}

func keyFor(address string) string {
	t := model.TraderConfig{Address: address}
	return t.Key()
}
