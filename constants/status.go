package constants

// SubmissionStatus is the lifecycle of one posting handed to the worker queue.
type SubmissionStatus string

const (
	SubmissionQueued    SubmissionStatus = "QUEUED"
	SubmissionRunning   SubmissionStatus = "RUNNING"
	SubmissionCommitted SubmissionStatus = "COMMITTED" // extraction persisted
	SubmissionSkipped   SubmissionStatus = "SKIPPED"   // idempotency key already stored
	SubmissionFailed    SubmissionStatus = "FAILED"
)
