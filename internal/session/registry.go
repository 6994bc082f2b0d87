// Package session keeps one Book and one Tabs per page load. Loading the
// page starts a new session, so state never survives a reload.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"ftt/internal/cache"
	"ftt/internal/ledger"
	"ftt/internal/log"
	"ftt/internal/ui"
)

var ErrNotFound = errors.New("session not found")

const releaseTimeout = 5 * time.Second

// Session is the state behind one open page.
type Session struct {
	ID      string
	Book    *ledger.Book
	Tabs    *ui.Tabs
	Created time.Time
}

// Stores hands out and releases per-session storage.
type Stores interface {
	Store(sessionID string) ledger.Store
	Release(ctx context.Context, sessionID string) error
}

// Observer is told when sessions open and close.
type Observer interface {
	SessionOpened()
	SessionClosed(reason string)
}

type Options struct {
	MaxSessions int
	TTL         time.Duration
	Stores      Stores
	Publisher   ledger.Publisher
	Observer    Observer
	Logger      *log.Logger
}

type Registry struct {
	sessions  *cache.LRUCache[*Session]
	stores    Stores
	publisher ledger.Publisher
	observer  Observer
	logger    *log.Logger
}

func NewRegistry(opts Options) *Registry {
	r := &Registry{
		sessions:  cache.NewLRUCache[*Session](opts.MaxSessions, opts.TTL),
		stores:    opts.Stores,
		publisher: opts.Publisher,
		observer:  opts.Observer,
		logger:    opts.Logger.WithComponent(log.ComponentSession),
	}
	r.sessions.OnEvict(r.evicted)
	return r
}

// New opens a fresh session with an empty book on the Tasks tab.
func (r *Registry) New(ctx context.Context) *Session {
	id := uuid.NewString()
	s := &Session{
		ID:      id,
		Book:    ledger.NewBook(id, r.stores.Store(id), r.publisher),
		Tabs:    ui.NewTabs(),
		Created: time.Now(),
	}
	r.sessions.Set(id, s)
	if r.observer != nil {
		r.observer.SessionOpened()
	}
	r.logger.DebugContext(ctx, "Session opened", log.FieldSession, id)
	return s
}

// Get returns a live session and refreshes its idle deadline.
func (r *Registry) Get(id string) (*Session, error) {
	if id == "" {
		return nil, ErrNotFound
	}
	s, ok := r.sessions.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Len is the number of live sessions.
func (r *Registry) Len() int {
	return r.sessions.Size()
}

// Cleaner exposes the session cache to a cache.Manager.
func (r *Registry) Cleaner() cache.Cleaner {
	return r.sessions
}

// Shutdown closes every session.
func (r *Registry) Shutdown() {
	r.sessions.Purge()
}

func (r *Registry) evicted(id string, _ *Session, reason cache.EvictReason) {
	ctx, cancel := context.WithTimeout(context.Background(), releaseTimeout)
	defer cancel()

	if err := r.stores.Release(ctx, id); err != nil {
		r.logger.Error("Failed to release session storage",
			log.FieldSession, id, log.FieldOperation, log.OpRelease, log.FieldError, err)
	}
	if r.observer != nil {
		r.observer.SessionClosed(string(reason))
	}
	r.logger.Debug("Session closed", log.FieldSession, id, log.FieldReason, string(reason))
}
