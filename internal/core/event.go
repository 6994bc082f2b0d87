package core

import "time"

const (
	EventCompanyAdded EventKind = "company.added"
	EventTaskAdded    EventKind = "task.added"
)

type (
	EventKind string

	// Event records a successful add on a session's book.
	Event struct {
		Kind    EventKind
		Session string
		Company *Company
		Task    *Task
		At      time.Time
	}
)

func NewCompanyAdded(session string, c Company) Event {
	return Event{Kind: EventCompanyAdded, Session: session, Company: &c, At: time.Now()}
}

func NewTaskAdded(session string, t Task) Event {
	return Event{Kind: EventTaskAdded, Session: session, Task: &t, At: time.Now()}
}

// Message is the user-facing success text for the event.
func (e Event) Message() string {
	switch e.Kind {
	case EventCompanyAdded:
		return "Company added successfully"
	case EventTaskAdded:
		return "Task added successfully"
	}
	return ""
}
