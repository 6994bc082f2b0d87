// Package ui tracks which panel of the tab container is visible.
package ui

import (
	"errors"
	"sync"
)

const (
	TabTasks     = 0
	TabCompanies = 1
)

var ErrInvalidTab = errors.New("invalid tab index")

// Panel describes one tab header.
type Panel struct {
	Index int
	Key   string
	Label string
}

var panels = []Panel{
	{Index: TabTasks, Key: "tasks", Label: "Tasks"},
	{Index: TabCompanies, Key: "companies", Label: "Companies"},
}

// Tabs is a two-state selector. The zero value shows the Tasks panel.
type Tabs struct {
	mu     sync.RWMutex
	active int
}

func NewTabs() *Tabs {
	return &Tabs{active: TabTasks}
}

// Select makes index the visible panel. Out-of-range indices leave the
// selection unchanged.
func (t *Tabs) Select(index int) error {
	if index < 0 || index >= len(panels) {
		return ErrInvalidTab
	}
	t.mu.Lock()
	t.active = index
	t.mu.Unlock()
	return nil
}

func (t *Tabs) Active() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active
}

func (t *Tabs) IsActive(index int) bool {
	return t.Active() == index
}

// ActivePanel returns the visible panel.
func (t *Tabs) ActivePanel() Panel {
	return panels[t.Active()]
}

// Panels returns the tab headers in display order.
func (t *Tabs) Panels() []Panel {
	return append([]Panel(nil), panels...)
}
