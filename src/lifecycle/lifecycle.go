// Package lifecycle enforces the expiry contract for resting orders: every
// scheduled order is cancelled at most once, either when its deadline fires
// or when a manual cancel arrives first.
package lifecycle

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"
)

// CancelClient is the slice of the execution handle the manager needs.
type CancelClient interface {
	Cancel(ctx context.Context, orderID string) error
}

// RestingOrder is the tracked state for one order resting in the book.
type RestingOrder struct {
	OrderID  string    `json:"order_id"`
	PlacedAt time.Time `json:"placed_at"`
	ExpireAt time.Time `json:"expire_at"`
}

// deadlineHeap orders pending expiries soonest-first. Entries are not removed
// when an order is cancelled early; stale entries are skipped when popped.
type deadlineHeap []RestingOrder

func (h deadlineHeap) Len() int            { return len(h) }
func (h deadlineHeap) Less(i, j int) bool  { return h[i].ExpireAt.Before(h[j].ExpireAt) }
func (h deadlineHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *deadlineHeap) Push(x interface{}) { *h = append(*h, x.(RestingOrder)) }

func (h *deadlineHeap) Pop() interface{} {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[0 : n-1]
	return x
}

// Manager tracks resting orders and drives their expiries from a single
// scheduler goroutine over a deadline heap, instead of one OS timer per
// order.
type Manager struct {
	client CancelClient
	now    func() time.Time

	mu        sync.Mutex
	tracked   map[string]RestingOrder
	deadlines deadlineHeap
	wake      chan struct{}
}

// NewManager builds a manager around the given execution handle.
func NewManager(client CancelClient) *Manager {
	return &Manager{
		client:  client,
		now:     time.Now,
		tracked: make(map[string]RestingOrder),
		wake:    make(chan struct{}, 1),
	}
}

// Run drives the expiry scheduler until ctx is cancelled. It must be running
// for Schedule deadlines to fire; CancelNow and CancelAll work regardless.
func (m *Manager) Run(ctx context.Context) {
	logger.Info("resting order scheduler started")

	for {
		timer := m.nextTimer()

		select {
		case <-ctx.Done():
			timer.Stop()
			logger.Info("resting order scheduler stopped")
			return
		case <-m.wake:
			timer.Stop()
		case <-timer.C:
			m.expireDue(ctx)
		}
	}
}

// nextTimer returns a timer for the soonest pending deadline, or an idle
// timer when nothing is scheduled.
func (m *Manager) nextTimer() *time.Timer {
	const idle = time.Hour

	m.mu.Lock()
	defer m.mu.Unlock()

	// Drop heap entries whose order was already claimed.
	for len(m.deadlines) > 0 {
		top := m.deadlines[0]
		if cur, ok := m.tracked[top.OrderID]; ok && cur.ExpireAt.Equal(top.ExpireAt) {
			break
		}
		heap.Pop(&m.deadlines)
	}

	if len(m.deadlines) == 0 {
		return time.NewTimer(idle)
	}

	wait := time.Until(m.deadlines[0].ExpireAt)
	if wait < 0 {
		wait = 0
	}
	return time.NewTimer(wait)
}

// expireDue claims and cancels every order whose deadline has passed.
func (m *Manager) expireDue(ctx context.Context) {
	now := m.now()

	var due []RestingOrder
	m.mu.Lock()
	for len(m.deadlines) > 0 && !m.deadlines[0].ExpireAt.After(now) {
		entry := heap.Pop(&m.deadlines).(RestingOrder)
		if cur, ok := m.tracked[entry.OrderID]; ok && cur.ExpireAt.Equal(entry.ExpireAt) {
			delete(m.tracked, entry.OrderID)
			due = append(due, entry)
		}
	}
	m.mu.Unlock()

	for _, order := range due {
		logger.WithField("order_id", order.OrderID).Info("resting order timed out, cancelling")
		m.issueCancel(ctx, order.OrderID)
	}
}

// Schedule registers a resting order for auto-cancel after timeout.
// Scheduling an already tracked order id replaces its deadline.
func (m *Manager) Schedule(orderID string, timeout time.Duration) {
	now := m.now()
	order := RestingOrder{
		OrderID:  orderID,
		PlacedAt: now,
		ExpireAt: now.Add(timeout),
	}

	m.mu.Lock()
	m.tracked[orderID] = order
	heap.Push(&m.deadlines, order)
	m.mu.Unlock()

	logger.WithFields(map[string]interface{}{
		"order_id":   orderID,
		"timeout_in": timeout,
	}).Info("auto-cancel scheduled for resting order")

	m.poke()
}

// CancelNow cancels a tracked order immediately and stops its pending
// expiry. It is idempotent: whichever of the manual and timer paths claims
// the tracking entry first issues the only cancel; the second call finds no
// entry and reports false.
func (m *Manager) CancelNow(ctx context.Context, orderID string) bool {
	m.mu.Lock()
	_, ok := m.tracked[orderID]
	if ok {
		delete(m.tracked, orderID)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}

	logger.WithField("order_id", orderID).Info("manually cancelling resting order")
	m.issueCancel(ctx, orderID)
	m.poke()
	return true
}

// CancelAll cancels every tracked order; used during shutdown.
func (m *Manager) CancelAll(ctx context.Context) {
	m.mu.Lock()
	ids := make([]string, 0, len(m.tracked))
	for id := range m.tracked {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	sort.Strings(ids)
	for _, id := range ids {
		m.CancelNow(ctx, id)
	}
}

// Tracked returns a snapshot of the currently resting orders, soonest expiry
// first.
func (m *Manager) Tracked() []RestingOrder {
	m.mu.Lock()
	out := make([]RestingOrder, 0, len(m.tracked))
	for _, order := range m.tracked {
		out = append(out, order)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ExpireAt.Before(out[j].ExpireAt) })
	return out
}

// issueCancel sends the single cancellation for an already claimed order.
// Failure is logged, not retried: the order stays live on the venue and the
// discrepancy is reported rather than looped on.
func (m *Manager) issueCancel(ctx context.Context, orderID string) {
	if err := m.client.Cancel(ctx, orderID); err != nil {
		logger.WithError(err).WithField("order_id", orderID).
			Error("cancel failed, order may remain live on the venue")
		return
	}
	logger.WithField("order_id", orderID).Info("resting order cancelled")
}

func (m *Manager) poke() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}
