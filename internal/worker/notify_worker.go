// Package worker consumes ledger events published by the server.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ftt/internal/amqp"
	"ftt/internal/cache"
	"ftt/internal/core"
	"ftt/internal/log"
)

const (
	DefaultMaxTallies = 1000
	DefaultTallyTTL   = 2 * time.Hour
)

// Tally is the running summary of one session seen through its events.
type Tally struct {
	Companies   int
	Tasks       int
	UnpaidCents int64
	PaidCents   int64
}

// NotifyWorker logs every consumed event and keeps a per-session tally.
// Tallies of sessions that stay quiet for ttl are dropped, and at most
// maxTallies are held.
type NotifyWorker struct {
	logger *log.Logger

	mu      sync.Mutex
	tallies *cache.LRUCache[*Tally]
}

// NewNotifyWorker creates a worker. Non-positive limits take the defaults.
func NewNotifyWorker(logger *log.Logger, maxTallies int, ttl time.Duration) *NotifyWorker {
	if maxTallies <= 0 {
		maxTallies = DefaultMaxTallies
	}
	if ttl <= 0 {
		ttl = DefaultTallyTTL
	}
	return &NotifyWorker{
		logger:  logger.WithComponent(log.ComponentWorker),
		tallies: cache.NewLRUCache[*Tally](maxTallies, ttl),
	}
}

// Cleaner exposes the tally cache to a cache.Manager.
func (w *NotifyWorker) Cleaner() cache.Cleaner {
	return w.tallies
}

// HandleEvent processes a single event message from AMQP.
func (w *NotifyWorker) HandleEvent(ctx context.Context, msg *amqp.EventMessage) error {
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid event: %w", err)
	}

	w.mu.Lock()
	t, ok := w.tallies.Get(msg.SessionID)
	if !ok {
		t = &Tally{}
		w.tallies.Set(msg.SessionID, t)
	}
	switch core.EventKind(msg.Kind) {
	case core.EventCompanyAdded:
		t.Companies++
	case core.EventTaskAdded:
		t.Tasks++
		if msg.Task.PaymentStatus == core.StatusPaid.String() {
			t.PaidCents += msg.Task.AmountCents
		} else {
			t.UnpaidCents += msg.Task.AmountCents
		}
	}
	snapshot := *t
	w.mu.Unlock()

	w.logger.InfoContext(ctx, "Event received",
		log.FieldOperation, log.OpConsume,
		log.FieldEvent, msg.Kind,
		log.FieldSession, msg.SessionID,
		"summary", msg.Summary(),
		"companies", snapshot.Companies,
		"tasks", snapshot.Tasks,
		"unpaid_cents", snapshot.UnpaidCents)
	return nil
}

// Tally returns the summary for sessionID.
func (w *NotifyWorker) Tally(sessionID string) (Tally, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.tallies.Get(sessionID)
	if !ok {
		return Tally{}, false
	}
	return *t, true
}

// Len is the number of sessions currently tallied.
func (w *NotifyWorker) Len() int {
	return w.tallies.Size()
}
