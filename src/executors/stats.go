package executors

import (
	"sync"
	"time"
)

// Stats tracks run counters surfaced by the status server.
type Stats struct {
	mu           sync.Mutex
	detected     int64
	executed     int64
	skipped      int64
	failed       int64
	startTime    time.Time
	lastActivity time.Time
}

// NewStats starts the uptime clock.
func NewStats() *Stats {
	return &Stats{startTime: time.Now()}
}

func (s *Stats) RecordDetected() {
	s.mu.Lock()
	s.detected++
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

func (s *Stats) RecordExecuted() {
	s.mu.Lock()
	s.executed++
	s.mu.Unlock()
}

func (s *Stats) RecordSkipped() {
	s.mu.Lock()
	s.skipped++
	s.mu.Unlock()
}

func (s *Stats) RecordFailed() {
	s.mu.Lock()
	s.failed++
	s.mu.Unlock()
}

// StatsSnapshot is a point-in-time view of the counters.
type StatsSnapshot struct {
	TradesDetected int64     `json:"trades_detected"`
	TradesExecuted int64     `json:"trades_executed"`
	TradesSkipped  int64     `json:"trades_skipped"`
	TradesFailed   int64     `json:"trades_failed"`
	UptimeSeconds  float64   `json:"uptime_seconds"`
	LastActivity   time.Time `json:"last_activity"`
}

func (s *Stats) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	return StatsSnapshot{
		TradesDetected: s.detected,
		TradesExecuted: s.executed,
		TradesSkipped:  s.skipped,
		TradesFailed:   s.failed,
		UptimeSeconds:  time.Since(s.startTime).Seconds(),
		LastActivity:   s.lastActivity,
	}
}
