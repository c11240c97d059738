package log

// FieldComponent is the attribute key every Logger stamps on its records.
const FieldComponent = "component"

// Standard component names.
const (
	ComponentApp    = "app"
	ComponentHTTP   = "http"
	ComponentWorker = "worker"
	ComponentNotify = "notify"
	ComponentExport = "export"
)
