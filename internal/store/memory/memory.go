// Package memory is a process-local ledger.Store backed by slices.
package memory

import (
	"context"
	"sync"

	"ftt/internal/core"
)

type Store struct {
	mu        sync.Mutex
	companies []core.Company
	tasks     []core.Task
}

func New() *Store {
	return &Store{}
}

// SaveCompany validates and appends the company.
func (s *Store) SaveCompany(_ context.Context, c core.Company) error {
	if err := c.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies = append(s.companies, c)
	return nil
}

// SaveTask validates and appends the task.
func (s *Store) SaveTask(_ context.Context, t core.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, t)
	return nil
}

// Companies returns a copy of the company list.
func (s *Store) Companies(_ context.Context) ([]core.Company, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Company(nil), s.companies...), nil
}

// Tasks returns a copy of the task list.
func (s *Store) Tasks(_ context.Context) ([]core.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Task(nil), s.tasks...), nil
}

// Reset drops everything the store holds.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.companies = nil
	s.tasks = nil
}
