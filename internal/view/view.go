// Package view projects ledger state into the rows and models the HTML
// templates render. Nothing here mutates state.
package view

import (
	"ftt/internal/core"
	"ftt/internal/ui"
)

const (
	BadgePaid   = "badge badge-paid bg-green-100 text-green-800"
	BadgeUnpaid = "badge badge-unpaid bg-yellow-100 text-yellow-800"
)

type (
	CompanyRow struct {
		ID   int64
		Name string
	}

	TaskRow struct {
		Code        string
		Description string
		Amount      string
		CompanyName string
		Date        string
		Status      string
		BadgeClass  string
	}

	// TaskFormModel carries the defaults of a fresh task form.
	TaskFormModel struct {
		NextCode  string
		Date      string
		Status    string
		Statuses  []string
		Companies []CompanyRow
	}

	TabModel struct {
		Index  int
		Key    string
		Label  string
		Active bool
	}

	// Container is everything the tab container partial needs.
	Container struct {
		SessionID string
		Tabs      []TabModel
		Active    string
		Companies []CompanyRow
		Tasks     []TaskRow
		TaskForm  TaskFormModel
	}
)

// Formatter renders amounts with a fixed currency symbol.
type Formatter struct {
	Symbol string
}

func NewFormatter(symbol string) Formatter {
	if symbol == "" {
		symbol = "$"
	}
	return Formatter{Symbol: symbol}
}

// BadgeClass picks the badge colour for a payment status: green for Paid,
// yellow for anything else.
func BadgeClass(s core.PaymentStatus) string {
	if s == core.StatusPaid {
		return BadgePaid
	}
	return BadgeUnpaid
}

func (f Formatter) Companies(cs []core.Company) []CompanyRow {
	rows := make([]CompanyRow, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, CompanyRow{ID: c.ID, Name: c.Name})
	}
	return rows
}

func (f Formatter) Tasks(ts []core.Task) []TaskRow {
	rows := make([]TaskRow, 0, len(ts))
	for _, t := range ts {
		rows = append(rows, TaskRow{
			Code:        t.Code,
			Description: t.Description,
			Amount:      t.Amount.Format(f.Symbol),
			CompanyName: t.CompanyName,
			Date:        t.Date.Display(),
			Status:      t.Status.String(),
			BadgeClass:  BadgeClass(t.Status),
		})
	}
	return rows
}

// TaskForm builds the reset task form: today's date, Unpaid status and the
// code the next task will receive.
func (f Formatter) TaskForm(nextTaskID int64, companies []core.Company, today core.Date) TaskFormModel {
	return TaskFormModel{
		NextCode:  core.TaskCode(nextTaskID),
		Date:      today.ISO(),
		Status:    core.StatusUnpaid.String(),
		Statuses:  []string{core.StatusUnpaid.String(), core.StatusPaid.String()},
		Companies: f.Companies(companies),
	}
}

// Snapshot is the state a Container is built from.
type Snapshot struct {
	SessionID  string
	Tabs       *ui.Tabs
	Companies  []core.Company
	Tasks      []core.Task
	NextTaskID int64
	Today      core.Date
}

// Build assembles the tab container model.
func (f Formatter) Build(s Snapshot) Container {
	tabs := s.Tabs
	if tabs == nil {
		tabs = ui.NewTabs()
	}
	c := Container{
		SessionID: s.SessionID,
		Active:    tabs.ActivePanel().Key,
		Companies: f.Companies(s.Companies),
		Tasks:     f.Tasks(s.Tasks),
		TaskForm:  f.TaskForm(s.NextTaskID, s.Companies, s.Today),
	}
	for _, p := range tabs.Panels() {
		c.Tabs = append(c.Tabs, TabModel{
			Index:  p.Index,
			Key:    p.Key,
			Label:  p.Label,
			Active: tabs.IsActive(p.Index),
		})
	}
	return c
}
