package async

import (
	"context"
	"errors"
	"time"

	"github.com/joseph-ayodele/jobfit/constants"
	"github.com/joseph-ayodele/jobfit/internal/pipeline"
)

var (
	ErrQueueClosed   = errors.New("queue is shutting down")
	ErrAlreadyQueued = errors.New("posting already queued")
)

// Job is one posting waiting for a worker.
type Job struct {
	Key         string
	HTML        string
	SubmittedAt time.Time
	TraceID     string
}

// JobStatus is the last known state of a key handed to the queue.
type JobStatus struct {
	Key       string                     `json:"key"`
	Status    constants.SubmissionStatus `json:"status"`
	Error     string                     `json:"error,omitempty"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// Handler processes one posting; *pipeline.Processor satisfies it.
type Handler interface {
	Process(ctx context.Context, key, html string) (*pipeline.Outcome, error)
}

type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Status(key string) (JobStatus, bool)
	Shutdown(ctx context.Context)
}
