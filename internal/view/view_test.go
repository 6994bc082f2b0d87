package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ftt/internal/core"
	"ftt/internal/ui"
)

func sampleTasks() []core.Task {
	return []core.Task{
		{ID: 1, Code: "0001", Description: "Invoice", Amount: core.Money{Cents: 25000}, CompanyID: 1, CompanyName: "Acme", Date: core.NewDate(2024, 1, 15), Status: core.StatusUnpaid},
		{ID: 2, Code: "0002", Description: "Retainer", Amount: core.Money{Cents: 123450}, CompanyID: 1, CompanyName: "Acme", Date: core.NewDate(2024, 12, 1), Status: core.StatusPaid},
	}
}

func TestTaskRows(t *testing.T) {
	rows := NewFormatter("").Tasks(sampleTasks())
	require.Len(t, rows, 2)

	assert.Equal(t, TaskRow{
		Code: "0001", Description: "Invoice", Amount: "$250.00", CompanyName: "Acme",
		Date: "Jan 15, 2024", Status: "Unpaid", BadgeClass: BadgeUnpaid,
	}, rows[0])
	assert.Equal(t, "$1234.50", rows[1].Amount)
	assert.Equal(t, "Dec 1, 2024", rows[1].Date)
	assert.Equal(t, BadgePaid, rows[1].BadgeClass)
}

func TestBadgeColours(t *testing.T) {
	assert.Contains(t, BadgeClass(core.StatusPaid), "green")
	assert.Contains(t, BadgeClass(core.StatusUnpaid), "yellow")
}

func TestCurrencySymbol(t *testing.T) {
	rows := NewFormatter("€").Tasks(sampleTasks()[:1])
	assert.Equal(t, "€250.00", rows[0].Amount)
}

func TestCompanyRowsKeepOrder(t *testing.T) {
	rows := NewFormatter("$").Companies([]core.Company{{ID: 2, Name: "B"}, {ID: 1, Name: "A"}})
	assert.Equal(t, []CompanyRow{{ID: 2, Name: "B"}, {ID: 1, Name: "A"}}, rows)
	assert.NotNil(t, NewFormatter("$").Companies(nil))
}

func TestTaskFormDefaults(t *testing.T) {
	m := NewFormatter("$").TaskForm(3, []core.Company{{ID: 1, Name: "Acme"}}, core.NewDate(2024, 2, 29))
	assert.Equal(t, "0003", m.NextCode)
	assert.Equal(t, "2024-02-29", m.Date)
	assert.Equal(t, "Unpaid", m.Status)
	assert.Equal(t, []string{"Unpaid", "Paid"}, m.Statuses)
	assert.Len(t, m.Companies, 1)
}

func TestBuildMarksActiveTab(t *testing.T) {
	tabs := ui.NewTabs()
	require.NoError(t, tabs.Select(ui.TabCompanies))

	c := NewFormatter("$").Build(Snapshot{
		SessionID:  "s1",
		Tabs:       tabs,
		Tasks:      sampleTasks(),
		NextTaskID: 3,
		Today:      core.NewDate(2024, 1, 1),
	})

	assert.Equal(t, "companies", c.Active)
	require.Len(t, c.Tabs, 2)
	assert.False(t, c.Tabs[0].Active)
	assert.True(t, c.Tabs[1].Active)
	assert.Len(t, c.Tasks, 2)
	assert.Equal(t, "0003", c.TaskForm.NextCode)
}
