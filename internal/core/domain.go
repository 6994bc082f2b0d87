package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	StatusPaid   PaymentStatus = "Paid"
	StatusUnpaid PaymentStatus = "Unpaid"
)

const (
	// ISOLayout is the calendar form used by <input type="date"> and storage.
	ISOLayout = "2006-01-02"
	// DisplayLayout renders dates as month/day/year, e.g. "Jan 15, 2024".
	DisplayLayout = "Jan 2, 2006"
)

type (
	PaymentStatus string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Company struct {
		ID   int64
		Name string
	}

	Task struct {
		ID          int64
		Code        string // zero-padded display identifier
		Description string
		Amount      Money
		CompanyID   int64
		CompanyName string // snapshot taken when the task was created
		Date        Date
		Status      PaymentStatus
	}
)

var (
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidStatus    = errors.New("invalid payment status")
	ErrEmptyName        = errors.New("empty company name")
	ErrEmptyDescription = errors.New("empty description")
	ErrInvalidCompanyID = errors.New("invalid company id")
)

// TaskCode derives the display code of a task from its id.
// Ids wider than four digits are kept whole.
func TaskCode(id int64) string {
	return fmt.Sprintf("%04d", id)
}

// ParsePaymentStatus accepts "Paid" or "Unpaid" in any letter case.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	s = strings.TrimSpace(s)
	switch {
	case strings.EqualFold(s, string(StatusPaid)):
		return StatusPaid, nil
	case strings.EqualFold(s, string(StatusUnpaid)):
		return StatusUnpaid, nil
	}
	return "", ErrInvalidStatus
}

func (p PaymentStatus) Valid() bool {
	return p == StatusPaid || p == StatusUnpaid
}

func (p PaymentStatus) String() string {
	return string(p)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current local calendar day.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses an ISO calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(ISOLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// ISO returns the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) ISO() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(ISOLayout)
}

// Display returns the human readable month/day/year form.
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DisplayLayout)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (c Company) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t Task) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return ErrEmptyDescription
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if t.CompanyID <= 0 {
		return ErrInvalidCompanyID
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}
