package shared

// Task types routed through asynq. Kept here (không để trong domain packages)
// to avoid import cycles between job producers and consumers.
const (
	TypeIngestBook       = "book:ingest"
	TypeSweepTempUploads = "book:sweep_temp_uploads"
	TypeFailStuckBooks   = "book:fail_stuck"
)

// Worker queue names by priority.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// IngestBookPayload carries everything the worker needs to run one ingestion.
// Plain data only: the task may be picked up by a different process than the
// one that accepted the upload.
type IngestBookPayload struct {
	BookID           string `json:"book_id"`
	UserID           string `json:"user_id"`
	TempPath         string `json:"temp_path"`
	OriginalFilename string `json:"original_filename"`
}

// SweepTempUploadsPayload bounds one sweep run.
type SweepTempUploadsPayload struct {
	OlderThanHours int `json:"older_than_hours"`
}

// FailStuckBooksPayload bounds the stuck-processing janitor.
type FailStuckBooksPayload struct {
	OlderThanHours int `json:"older_than_hours"`
}
