package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ftt/internal/ledger"
	"ftt/internal/log"
	"ftt/internal/store/memory"
	"ftt/internal/ui"
)

type fakeStores struct {
	mu       sync.Mutex
	released []string
}

func (f *fakeStores) Store(string) ledger.Store { return memory.New() }

func (f *fakeStores) Release(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, id)
	return nil
}

type countingObserver struct {
	opened, closed int
	reasons        []string
}

func (o *countingObserver) SessionOpened() { o.opened++ }

func (o *countingObserver) SessionClosed(reason string) {
	o.closed++
	o.reasons = append(o.reasons, reason)
}

func newRegistry(max int) (*Registry, *fakeStores, *countingObserver) {
	stores := &fakeStores{}
	obs := &countingObserver{}
	r := NewRegistry(Options{
		MaxSessions: max,
		TTL:         time.Hour,
		Stores:      stores,
		Observer:    obs,
		Logger:      log.New(log.DefaultConfig()),
	})
	return r, stores, obs
}

func TestNewSessionsAreIndependent(t *testing.T) {
	ctx := context.Background()
	r, _, obs := newRegistry(10)

	a := r.New(ctx)
	b := r.New(ctx)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, obs.opened)

	_, err := a.Book.AddCompany(ctx, "Acme")
	require.NoError(t, err)
	require.NoError(t, a.Tabs.Select(ui.TabCompanies))

	bc, err := b.Book.Companies(ctx)
	require.NoError(t, err)
	assert.Empty(t, bc)
	assert.Equal(t, ui.TabTasks, b.Tabs.Active())

	got, err := r.Get(a.ID)
	require.NoError(t, err)
	assert.Same(t, a, got)
}

func TestGetUnknown(t *testing.T) {
	r, _, _ := newRegistry(10)
	_, err := r.Get("")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEvictionReleasesStorage(t *testing.T) {
	ctx := context.Background()
	r, stores, obs := newRegistry(1)

	first := r.New(ctx)
	second := r.New(ctx)

	_, err := r.Get(first.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, []string{first.ID}, stores.released)
	assert.Equal(t, []string{"capacity"}, obs.reasons)

	r.Shutdown()
	assert.Equal(t, []string{first.ID, second.ID}, stores.released)
	assert.Equal(t, 0, r.Len())
}

func TestShutdownClosesAll(t *testing.T) {
	ctx := context.Background()
	r, stores, obs := newRegistry(10)
	r.New(ctx)
	r.New(ctx)

	r.Shutdown()
	assert.Equal(t, 0, r.Len())
	assert.Len(t, stores.released, 2)
	assert.Equal(t, 2, obs.closed)
}
