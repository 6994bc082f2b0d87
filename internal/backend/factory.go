package backend

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ftt/internal/amqp"
	"ftt/internal/ledger"
	"ftt/internal/log"
	"ftt/internal/storage"
	"ftt/internal/store/memory"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend builds the provider for config.Type and, when an AMQP URL
// is configured, the event publisher. A broker that cannot be reached is
// logged and the app runs without notifications.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	var (
		provider Provider
		cleanup  []CleanupFunc
	)

	switch config.Type {
	case MemoryBackend:
		provider = newMemoryProvider()
	case SQLiteBackend:
		db, err := storage.Open(ctx, f.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite storage: %w", err)
		}
		provider = &sqliteProvider{db: db}
		cleanup = append(cleanup, db.Close)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{Provider: provider}

	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without notifications", log.FieldError, err)
		} else {
			result.Publisher = client
			cleanup = append(cleanup, client.Close)
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
		}
	}

	result.Cleanup = func() error {
		var errs []error
		for i := len(cleanup) - 1; i >= 0; i-- {
			errs = append(errs, cleanup[i]())
		}
		return errors.Join(errs...)
	}

	f.logger.Info("Initialized backend",
		"type", config.Type.String(),
		"amqp_enabled", result.Publisher != nil)
	return result, nil
}

type memoryProvider struct {
	mu     sync.Mutex
	stores map[string]*memory.Store
}

func newMemoryProvider() *memoryProvider {
	return &memoryProvider{stores: make(map[string]*memory.Store)}
}

func (p *memoryProvider) Store(sessionID string) ledger.Store {
	p.mu.Lock()
	defer p.mu.Unlock()
	s, ok := p.stores[sessionID]
	if !ok {
		s = memory.New()
		p.stores[sessionID] = s
	}
	return s
}

func (p *memoryProvider) Release(_ context.Context, sessionID string) error {
	p.mu.Lock()
	s := p.stores[sessionID]
	delete(p.stores, sessionID)
	p.mu.Unlock()
	if s != nil {
		s.Reset()
	}
	return nil
}

func (p *memoryProvider) Ping(context.Context) error { return nil }

func (p *memoryProvider) Type() BackendType { return MemoryBackend }

type sqliteProvider struct {
	db *storage.DB
}

func (p *sqliteProvider) Store(sessionID string) ledger.Store {
	return p.db.Store(sessionID)
}

func (p *sqliteProvider) Release(ctx context.Context, sessionID string) error {
	return p.db.DropSession(ctx, sessionID)
}

func (p *sqliteProvider) Ping(ctx context.Context) error {
	return p.db.Ping(ctx)
}

func (p *sqliteProvider) Type() BackendType { return SQLiteBackend }
