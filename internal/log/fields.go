package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldSession     = "session_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldQuery       = "query"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldForm        = "form"
	FieldReason      = "reason"
	FieldCompanyID   = "company_id"
	FieldCompanyName = "company_name"
	FieldTaskID      = "task_id"
	FieldTaskCode    = "task_code"
	FieldAmountCents = "amount_cents"
	FieldStatus      = "payment_status"
	FieldEvent       = "event"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentSession   = "session"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
)

// Operations
const (
	OpCreate   = "create"
	OpValidate = "validate"
	OpRender   = "render"
	OpRelease  = "release"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithSession(id string) LogFields {
	if id != "" {
		f[FieldSession] = id
	}
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error text, skipping nil errors.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithCompany adds company fields.
func (f LogFields) WithCompany(id int64, name string) LogFields {
	f[FieldCompanyID] = id
	f[FieldCompanyName] = name
	return f
}

// WithTask adds task fields.
func (f LogFields) WithTask(id int64, code string, amountCents int64, status string) LogFields {
	f[FieldTaskID] = id
	f[FieldTaskCode] = code
	f[FieldAmountCents] = amountCents
	f[FieldStatus] = status
	return f
}

// WithRejection records why a form submission was dropped.
func (f LogFields) WithRejection(form, reason string) LogFields {
	f[FieldForm] = form
	f[FieldReason] = reason
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
