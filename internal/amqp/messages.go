package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"ftt/internal/core"
)

// EventMessage is the wire form of a ledger event.
type EventMessage struct {
	Kind      string          `json:"kind"`
	SessionID string          `json:"session_id"`
	Company   *CompanyPayload `json:"company,omitempty"`
	Task      *TaskPayload    `json:"task,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

type CompanyPayload struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type TaskPayload struct {
	ID            int64  `json:"id"`
	Code          string `json:"code"`
	Description   string `json:"description"`
	AmountCents   int64  `json:"amount_cents"`
	Amount        string `json:"amount"`
	CompanyID     int64  `json:"company_id"`
	CompanyName   string `json:"company_name"`
	Date          string `json:"date"`
	PaymentStatus string `json:"payment_status"`
}

// NewEventMessage converts a ledger event into its wire form.
func NewEventMessage(e core.Event) *EventMessage {
	msg := &EventMessage{
		Kind:      string(e.Kind),
		SessionID: e.Session,
		Timestamp: e.At,
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}
	if e.Company != nil {
		msg.Company = &CompanyPayload{ID: e.Company.ID, Name: e.Company.Name}
	}
	if e.Task != nil {
		t := e.Task
		msg.Task = &TaskPayload{
			ID:            t.ID,
			Code:          t.Code,
			Description:   t.Description,
			AmountCents:   t.Amount.Cents,
			Amount:        t.Amount.Decimal().StringFixed(2),
			CompanyID:     t.CompanyID,
			CompanyName:   t.CompanyName,
			Date:          t.Date.ISO(),
			PaymentStatus: t.Status.String(),
		}
	}
	return msg
}

// Validate checks that the payload matches the kind.
func (m *EventMessage) Validate() error {
	switch core.EventKind(m.Kind) {
	case core.EventCompanyAdded:
		if m.Company == nil {
			return fmt.Errorf("%s message without company", m.Kind)
		}
	case core.EventTaskAdded:
		if m.Task == nil {
			return fmt.Errorf("%s message without task", m.Kind)
		}
	default:
		return fmt.Errorf("unknown event kind %q", m.Kind)
	}
	return nil
}

// Summary is a one-line human description used by the notification log.
func (m *EventMessage) Summary() string {
	switch {
	case m.Company != nil:
		return fmt.Sprintf("company #%d %q added", m.Company.ID, m.Company.Name)
	case m.Task != nil:
		return fmt.Sprintf("task %s %q for %s (%s, %s) added",
			m.Task.Code, m.Task.Description, m.Task.CompanyName, m.Task.Amount, m.Task.PaymentStatus)
	}
	return m.Kind
}

func (m *EventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EventMessageFromJSON(data []byte) (*EventMessage, error) {
	var msg EventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
