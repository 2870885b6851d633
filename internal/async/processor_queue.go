package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/jobfit/constants"
	"github.com/joseph-ayodele/jobfit/internal/common"
)

type ProcessorQueue struct {
	handler Handler
	logger  *slog.Logger
	workers int
	timeout time.Duration

	ch   chan Job
	wg   sync.WaitGroup
	once sync.Once

	// sendMu guards closed and the channel send; statusMu guards statuses so
	// workers never wait on a blocked producer.
	sendMu   sync.Mutex
	closed   bool
	statusMu sync.Mutex
	statuses map[string]JobStatus
}

type Option func(*ProcessorQueue)

func WithWorkers(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.workers = n
		}
	}
}
func WithQueueSize(n int) Option {
	return func(q *ProcessorQueue) {
		if n > 0 {
			q.ch = make(chan Job, n)
		}
	}
}
func WithProcessTimeout(d time.Duration) Option {
	return func(q *ProcessorQueue) {
		if d > 0 {
			q.timeout = d
		}
	}
}

func NewProcessorQueue(handler Handler, logger *slog.Logger, opts ...Option) *ProcessorQueue {
	if logger == nil {
		logger = slog.Default()
	}
	q := &ProcessorQueue{
		handler:  handler,
		logger:   logger,
		workers:  2,
		timeout:  3 * time.Minute,
		ch:       make(chan Job, 64),
		statuses: make(map[string]JobStatus),
	}
	for _, o := range opts {
		o(q)
	}
	q.start()
	return q
}

func (q *ProcessorQueue) start() {
	q.once.Do(func() {
		for i := 0; i < q.workers; i++ {
			q.wg.Add(1)
			go func(workerID int) {
				defer q.wg.Done()
				q.logger.Info("queue.worker.started", "worker_id", workerID)
				for job := range q.ch {
					q.run(workerID, job)
				}
				q.logger.Info("queue.worker.stopped", "worker_id", workerID)
			}(i + 1)
		}
	})
}

func (q *ProcessorQueue) run(workerID int, job Job) {
	q.setStatus(job.Key, constants.SubmissionRunning, "")

	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	ctx = common.WithRequestID(ctx, job.TraceID)
	out, err := q.handler.Process(ctx, job.Key, job.HTML)
	cancel()

	wait := time.Since(job.SubmittedAt).Milliseconds()
	switch {
	case err != nil:
		q.setStatus(job.Key, constants.SubmissionFailed, err.Error())
		q.logger.Error("queue.job.failed", "worker_id", workerID, "key", job.Key, "trace_id", job.TraceID, "code", common.CodeOf(err), "error", err)
	case out != nil && out.Skipped:
		q.setStatus(job.Key, constants.SubmissionSkipped, "")
		q.logger.Info("queue.job.skipped", "worker_id", workerID, "key", job.Key, "trace_id", job.TraceID)
	default:
		q.setStatus(job.Key, constants.SubmissionCommitted, "")
		q.logger.Info("queue.job.committed", "worker_id", workerID, "key", job.Key, "trace_id", job.TraceID, "since_submit_ms", wait)
	}
}

// Enqueue blocks while the queue is full, until ctx is done. A key that is
// still queued or running is rejected with ErrAlreadyQueued.
func (q *ProcessorQueue) Enqueue(ctx context.Context, job Job) error {
	if job.TraceID == "" {
		job.TraceID = uuid.New().String()
	}
	if job.SubmittedAt.IsZero() {
		job.SubmittedAt = time.Now()
	}

	q.sendMu.Lock()
	defer q.sendMu.Unlock()
	if q.closed {
		q.logger.Warn("queue.enqueue.closed", "key", job.Key)
		return ErrQueueClosed
	}

	q.statusMu.Lock()
	if st, ok := q.statuses[job.Key]; ok &&
		(st.Status == constants.SubmissionQueued || st.Status == constants.SubmissionRunning) {
		q.statusMu.Unlock()
		return ErrAlreadyQueued
	}
	prev, hadPrev := q.statuses[job.Key]
	q.statuses[job.Key] = JobStatus{Key: job.Key, Status: constants.SubmissionQueued, UpdatedAt: time.Now()}
	q.statusMu.Unlock()

	select {
	case q.ch <- job:
	default:
		q.logger.Warn("queue.enqueue.backpressure", "key", job.Key)
		select {
		case q.ch <- job:
		case <-ctx.Done():
			q.statusMu.Lock()
			if hadPrev {
				q.statuses[job.Key] = prev
			} else {
				delete(q.statuses, job.Key)
			}
			q.statusMu.Unlock()
			return ctx.Err()
		}
	}
	q.logger.Info("queue.enqueue.ok", "key", job.Key, "trace_id", job.TraceID)
	return nil
}

func (q *ProcessorQueue) Status(key string) (JobStatus, bool) {
	q.statusMu.Lock()
	defer q.statusMu.Unlock()
	st, ok := q.statuses[key]
	return st, ok
}

func (q *ProcessorQueue) setStatus(key string, s constants.SubmissionStatus, msg string) {
	q.statusMu.Lock()
	q.statuses[key] = JobStatus{Key: key, Status: s, Error: msg, UpdatedAt: time.Now()}
	q.statusMu.Unlock()
}

func (q *ProcessorQueue) Shutdown(ctx context.Context) {
	q.sendMu.Lock()
	if q.closed {
		q.sendMu.Unlock()
		return
	}
	q.closed = true
	close(q.ch)
	q.sendMu.Unlock()

	done := make(chan struct{})
	go func() { defer close(done); q.wg.Wait() }()

	select {
	case <-ctx.Done():
		q.logger.Warn("queue.shutdown.interrupted")
	case <-done:
		q.logger.Info("queue.shutdown.drained")
	}
}
