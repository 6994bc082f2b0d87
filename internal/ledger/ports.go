package ledger

import (
	"context"

	"ftt/internal/core"
)

// Ports for the backing adapters of a Book.
type (
	// Store keeps the companies and tasks of one book in insertion order.
	Store interface {
		SaveCompany(ctx context.Context, c core.Company) error
		SaveTask(ctx context.Context, t core.Task) error
		Companies(ctx context.Context) ([]core.Company, error)
		Tasks(ctx context.Context) ([]core.Task, error)
	}

	// Publisher receives an event after every successful add.
	Publisher interface {
		Publish(ctx context.Context, e core.Event) error
	}
)
