// Package ledger holds the application state of one page session: the
// company and task lists together with their id counters.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ftt/internal/core"
	"ftt/internal/log"
)

var (
	ErrEmptyName      = errors.New("company name is required")
	ErrMissingField   = errors.New("required task field missing")
	ErrUnknownCompany = errors.New("company not found")
)

// TaskInput carries the fields of a task submission.
type TaskInput struct {
	Description string
	Amount      core.Money
	CompanyID   int64
	Date        core.Date
	Status      core.PaymentStatus
}

// Book is the only mutator of a session's lists. Ids start at 1 and only
// advance on a successful add.
type Book struct {
	id        string
	store     Store
	publisher Publisher

	mu            sync.Mutex
	nextCompanyID int64
	nextTaskID    int64
}

// NewBook creates an empty book. publisher may be nil.
func NewBook(id string, store Store, publisher Publisher) *Book {
	return &Book{
		id:            id,
		store:         store,
		publisher:     publisher,
		nextCompanyID: 1,
		nextTaskID:    1,
	}
}

// ID returns the session id the book belongs to.
func (b *Book) ID() string {
	return b.id
}

// AddCompany appends a company named after the trimmed input.
func (b *Book) AddCompany(ctx context.Context, name string) (core.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return core.Company{}, ErrEmptyName
	}

	b.mu.Lock()
	c := core.Company{ID: b.nextCompanyID, Name: name}
	if err := b.store.SaveCompany(ctx, c); err != nil {
		b.mu.Unlock()
		return core.Company{}, fmt.Errorf("save company: %w", err)
	}
	b.nextCompanyID++
	b.mu.Unlock()

	b.publish(ctx, core.NewCompanyAdded(b.id, c))
	return c, nil
}

// AddTask appends a task billed to an existing company. The company name is
// copied into the task at creation time.
func (b *Book) AddTask(ctx context.Context, in TaskInput) (core.Task, error) {
	if strings.TrimSpace(in.Description) == "" || in.Date.IsZero() || !in.Status.Valid() {
		return core.Task{}, ErrMissingField
	}
	if err := in.Amount.Validate(); err != nil {
		return core.Task{}, ErrMissingField
	}

	b.mu.Lock()
	company, err := b.lookupCompany(ctx, in.CompanyID)
	if err != nil {
		b.mu.Unlock()
		return core.Task{}, err
	}

	t := core.Task{
		ID:          b.nextTaskID,
		Code:        core.TaskCode(b.nextTaskID),
		Description: strings.TrimSpace(in.Description),
		Amount:      in.Amount,
		CompanyID:   company.ID,
		CompanyName: company.Name,
		Date:        in.Date,
		Status:      in.Status,
	}
	if err := b.store.SaveTask(ctx, t); err != nil {
		b.mu.Unlock()
		return core.Task{}, fmt.Errorf("save task: %w", err)
	}
	b.nextTaskID++
	b.mu.Unlock()

	b.publish(ctx, core.NewTaskAdded(b.id, t))
	return t, nil
}

// Companies returns all companies in insertion order.
func (b *Book) Companies(ctx context.Context) ([]core.Company, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Companies(ctx)
}

// Tasks returns all tasks in insertion order.
func (b *Book) Tasks(ctx context.Context) ([]core.Task, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.store.Tasks(ctx)
}

// NextTaskID is the id the next accepted task will receive.
func (b *Book) NextTaskID() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nextTaskID
}

// lookupCompany must be called with b.mu held.
func (b *Book) lookupCompany(ctx context.Context, id int64) (core.Company, error) {
	if id <= 0 {
		return core.Company{}, ErrUnknownCompany
	}
	companies, err := b.store.Companies(ctx)
	if err != nil {
		return core.Company{}, fmt.Errorf("list companies: %w", err)
	}
	for _, c := range companies {
		if c.ID == id {
			return c, nil
		}
	}
	return core.Company{}, ErrUnknownCompany
}

func (b *Book) publish(ctx context.Context, e core.Event) {
	if b.publisher == nil {
		return
	}
	if err := b.publisher.Publish(ctx, e); err != nil {
		// The add already happened; a lost notification does not undo it.
		log.FromContext(ctx).WithComponent(log.ComponentLedger).WarnContext(ctx, "Failed to publish event",
			log.FieldSession, b.id,
			log.FieldOperation, log.OpPublish,
			log.FieldEvent, string(e.Kind),
			log.FieldError, err)
	}
}
