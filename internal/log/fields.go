package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldContract    = "contract"
	FieldEventType   = "event_type"
	FieldAmountCents = "amount_cents"
	FieldStatus      = "status"
	FieldRows        = "rows"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentImporter = "importer"
	ComponentAMQP     = "amqp"
	ComponentAstrea   = "astrea"
	ComponentTemplate = "template"
)

// Operations defines standard operation names
const (
	OpImport   = "import"
	OpAppend   = "append"
	OpRead     = "read"
	OpRender   = "render"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
