// Package backend selects where session ledgers are stored and wires the
// optional event publisher.
package backend

import (
	"context"

	"ftt/internal/ledger"
)

// Provider hands out one ledger.Store per page session.
type Provider interface {
	// Store returns the store owned by sessionID, creating it on first use.
	Store(sessionID string) ledger.Store
	// Release frees everything held for sessionID.
	Release(ctx context.Context, sessionID string) error
	// Ping reports whether the backend can serve requests.
	Ping(ctx context.Context) error
	Type() BackendType
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the provider, the publisher (nil when AMQP is off)
// and a cleanup function.
type BackendResult struct {
	Provider  Provider
	Publisher ledger.Publisher
	Cleanup   CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

type Config struct {
	Type BackendType

	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend BackendType = "memory"
	SQLiteBackend BackendType = "sqlite"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend:
		return true
	default:
		return false
	}
}
