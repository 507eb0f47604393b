package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRunID       = "run_id"
	FieldProvenance  = "provenance"
	FieldSnapshot    = "snapshot"
	FieldTier        = "tier"
	FieldRecordID    = "record_id"
	FieldRecordCount = "record_count"
	FieldRejected    = "rejected"
	FieldPage        = "page"
	FieldOffset      = "offset"
	FieldAttempt     = "attempt"
	FieldMonth       = "month"
	FieldCategory    = "category"
	FieldTotal       = "total"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldSink        = "sink"
	FieldPath        = "path"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentConfig    = "config"
	ComponentLedger    = "ledger"
	ComponentPaginator = "paginator"
	ComponentNormalize = "normalize"
	ComponentResolver  = "resolver"
	ComponentSnapshot  = "snapshot"
	ComponentStats     = "stats"
	ComponentPipeline  = "pipeline"
	ComponentReport    = "report"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
)
