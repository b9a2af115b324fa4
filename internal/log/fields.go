package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldSuccess      = "success"
	FieldError        = "error"
	FieldErrorType    = "error_type"
	FieldOperation    = "operation"
	FieldActor        = "actor"
	FieldCollection   = "collection"
	FieldEntityID     = "entity_id"
	FieldProjectID    = "project_id"
	FieldBudgetCodeID = "budget_code_id"
	FieldEntryID      = "entry_id"
	FieldEntryType    = "entry_type"
	FieldAmount       = "amount"
	FieldSpent        = "spent"
	FieldBudget       = "budget"
	FieldPercentage   = "percentage"
	FieldNotifyType   = "notification_type"
	FieldRecipients   = "recipients"
	FieldKey          = "key"
	FieldBackend      = "backend"
	FieldDuration     = "duration_ms"
	FieldCount        = "count"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentStore   = "store"
	ComponentRollup  = "rollup"
	ComponentNotify  = "notify"
	ComponentPersist = "persist"
	ComponentStorage = "storage"
	ComponentRemote  = "remote"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentCache   = "cache"
	ComponentBackend = "backend"
	ComponentMetrics = "metrics"
	ComponentMirror  = "mirror"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpLoad     = "load"
	OpSave     = "save"
	OpFlush    = "flush"
	OpPublish  = "publish"
	OpConsume  = "consume"
	OpSync     = "sync"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// ErrorTypes defines standard error type categories
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeAuth          = "auth_error"
	ErrorTypeSchema        = "schema_error"
	ErrorTypeTimeout       = "timeout_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeForbidden     = "forbidden_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithErrorType adds the error category
func (f LogFields) WithErrorType(errorType string) LogFields {
	f[FieldErrorType] = errorType
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithActor adds the id of the user performing the mutation
func (f LogFields) WithActor(actorID string) LogFields {
	f[FieldActor] = actorID
	return f
}

// WithEntity adds collection and entity id fields
func (f LogFields) WithEntity(collection, id string) LogFields {
	f[FieldCollection] = collection
	f[FieldEntityID] = id
	return f
}

// WithEntry adds budget-entry fields
func (f LogFields) WithEntry(entryID, projectID, budgetCodeID, entryType string, amount string) LogFields {
	f[FieldEntryID] = entryID
	f[FieldProjectID] = projectID
	if budgetCodeID != "" {
		f[FieldBudgetCodeID] = budgetCodeID
	}
	f[FieldEntryType] = entryType
	f[FieldAmount] = amount
	return f
}

// WithUsage adds budget usage fields
func (f LogFields) WithUsage(spent, budget string, percentage float64) LogFields {
	f[FieldSpent] = spent
	f[FieldBudget] = budget
	f[FieldPercentage] = percentage
	return f
}

// WithNotification adds fan-out fields
func (f LogFields) WithNotification(notifyType string, recipients int) LogFields {
	f[FieldNotifyType] = notifyType
	f[FieldRecipients] = recipients
	return f
}

// WithKey adds a persistence key field
func (f LogFields) WithKey(key string) LogFields {
	f[FieldKey] = key
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
