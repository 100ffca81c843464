package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldSessionID   = "session_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldSuccess     = "success"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldRecords     = "records"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldBudgetCents = "budget_cents"
	FieldMissing     = "missing_columns"
	FieldFile        = "file"
	FieldImageKind   = "image_kind"
	FieldOnline      = "online"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentSession = "session"
	ComponentAMQP    = "amqp"
	ComponentProbe   = "probe"
	ComponentCache   = "cache"
	ComponentReport  = "report"
)

// Operations defines standard operation names
const (
	OpAppend    = "append"
	OpImport    = "import"
	OpExport    = "export"
	OpSave      = "save"
	OpReset     = "reset"
	OpSample    = "load_sample"
	OpBudget    = "set_budget"
	OpImage     = "set_image"
	OpSummarize = "summarize"
	OpPublish   = "publish"
	OpShutdown  = "shutdown"
	OpStartup   = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithRecords adds the ledger record count
func (f LogFields) WithRecords(n int) LogFields {
	f[FieldRecords] = n
	return f
}

// WithExpense adds expense-related fields
func (f LogFields) WithExpense(category string, amountCents int64) LogFields {
	f[FieldCategory] = category
	f[FieldAmountCents] = amountCents
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
