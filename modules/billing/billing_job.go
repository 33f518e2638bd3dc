package billing

import "time"

// JobStatus is server-authoritative; the client only observes progress by
// re-fetching the job.
type JobStatus string

const (
	JobStatusQueued    JobStatus = "queued"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
)

// BillingJob is a batch billing-generation run for a period and area office.
// The server mutates status and counts asynchronously after creation.
type BillingJob struct {
	ID                 int64      `json:"id"`
	Period             string     `json:"period"`
	AreaOfficeID       int64      `json:"areaOfficeId,omitempty"`
	Status             JobStatus  `json:"status"`
	DraftedCount       int        `json:"draftedCount"`
	FinalizedCount     int        `json:"finalizedCount"`
	SkippedCount       int        `json:"skippedCount"`
	TotalCustomers     int        `json:"totalCustomers"`
	ProcessedCustomers int        `json:"processedCustomers"`
	LastError          string     `json:"lastError,omitempty"`
	RequestedAtUtc     time.Time  `json:"requestedAtUtc"`
	StartedAtUtc       *time.Time `json:"startedAtUtc,omitempty"`
	CompletedAtUtc     *time.Time `json:"completedAtUtc,omitempty"`
}
