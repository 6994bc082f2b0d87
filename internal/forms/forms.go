// Package forms turns submitted form values into ledger inputs.
//
// A form that fails the required-field checks is suppressed: the caller
// answers without touching state and without surfacing an error.
package forms

import (
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"ftt/internal/core"
	"ftt/internal/ledger"
)

const (
	FormCompany = "company"
	FormTask    = "task"
)

// ErrSuppressed marks a submission that must be dropped silently.
var ErrSuppressed = errors.New("submission suppressed")

// SuppressedError names the form and field that caused the drop.
type SuppressedError struct {
	Form   string
	Reason string
}

func (e *SuppressedError) Error() string {
	return fmt.Sprintf("%s form suppressed: %s", e.Form, e.Reason)
}

func (e *SuppressedError) Unwrap() error { return ErrSuppressed }

// Reason extracts the suppression reason, or "" for other errors.
func Reason(err error) string {
	var se *SuppressedError
	if errors.As(err, &se) {
		return se.Reason
	}
	return ""
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// CompanyForm is the single-field company entry form.
type CompanyForm struct {
	Name string `form:"name" validate:"required"`
}

// ParseCompany reads and trims the company name.
func ParseCompany(values url.Values) (CompanyForm, error) {
	f := CompanyForm{Name: strings.TrimSpace(values.Get("name"))}
	if err := check(FormCompany, f); err != nil {
		return CompanyForm{}, err
	}
	return f, nil
}

// TaskForm holds the raw task fields as submitted.
type TaskForm struct {
	Description string `form:"description" validate:"required"`
	Amount      string `form:"amount" validate:"required"`
	CompanyID   string `form:"companyId" validate:"required,number"`
	Date        string `form:"date" validate:"required,datetime=2006-01-02"`
	Status      string `form:"paymentStatus" validate:"omitempty,oneof=Paid Unpaid"`
}

// ParseTask reads the task fields. A missing payment status defaults to
// Unpaid.
func ParseTask(values url.Values) (TaskForm, error) {
	f := TaskForm{
		Description: strings.TrimSpace(values.Get("description")),
		Amount:      strings.TrimSpace(values.Get("amount")),
		CompanyID:   strings.TrimSpace(values.Get("companyId")),
		Date:        strings.TrimSpace(values.Get("date")),
		Status:      strings.TrimSpace(values.Get("paymentStatus")),
	}
	if f.Status == "" {
		f.Status = string(core.StatusUnpaid)
	}
	if st, err := core.ParsePaymentStatus(f.Status); err == nil {
		f.Status = st.String()
	}
	if err := check(FormTask, f); err != nil {
		return TaskForm{}, err
	}
	return f, nil
}

// Input converts the validated fields into a ledger.TaskInput.
func (f TaskForm) Input() (ledger.TaskInput, error) {
	amount, err := core.ParseAmount(f.Amount)
	if err != nil {
		return ledger.TaskInput{}, &SuppressedError{Form: FormTask, Reason: "amount.parse"}
	}
	companyID, err := strconv.ParseInt(f.CompanyID, 10, 64)
	if err != nil {
		return ledger.TaskInput{}, &SuppressedError{Form: FormTask, Reason: "companyId.parse"}
	}
	date, err := core.ParseDate(f.Date)
	if err != nil {
		return ledger.TaskInput{}, &SuppressedError{Form: FormTask, Reason: "date.parse"}
	}
	status, err := core.ParsePaymentStatus(f.Status)
	if err != nil {
		return ledger.TaskInput{}, &SuppressedError{Form: FormTask, Reason: "paymentStatus.parse"}
	}
	return ledger.TaskInput{
		Description: f.Description,
		Amount:      amount,
		CompanyID:   companyID,
		Date:        date,
		Status:      status,
	}, nil
}

func check(form string, v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &SuppressedError{Form: form, Reason: verrs[0].Field() + "." + verrs[0].Tag()}
	}
	return fmt.Errorf("validate %s form: %w", form, err)
}
