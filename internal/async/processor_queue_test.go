package async_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/jobfit/constants"
	"github.com/joseph-ayodele/jobfit/internal/async"
	"github.com/joseph-ayodele/jobfit/internal/pipeline"
)

type stubHandler struct {
	mu    sync.Mutex
	seen  []string
	block chan struct{}
	fn    func(key string) (*pipeline.Outcome, error)
}

func (s *stubHandler) Process(ctx context.Context, key, _ string) (*pipeline.Outcome, error) {
	if s.block != nil {
		<-s.block
	}
	s.mu.Lock()
	s.seen = append(s.seen, key)
	s.mu.Unlock()
	if s.fn != nil {
		return s.fn(key)
	}
	return &pipeline.Outcome{Key: key, Status: constants.SubmissionCommitted}, nil
}

func (s *stubHandler) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.seen...)
}

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestProcessorQueue_DrainsOnShutdown(t *testing.T) {
	h := &stubHandler{}
	q := async.NewProcessorQueue(h, quietLogger(), async.WithWorkers(3), async.WithQueueSize(2))

	ctx := context.Background()
	for _, k := range []string{"a", "b", "c", "d", "e"} {
		if err := q.Enqueue(ctx, async.Job{Key: k, HTML: "<p>x</p>"}); err != nil {
			t.Fatalf("enqueue %s: %v", k, err)
		}
	}

	sctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	q.Shutdown(sctx)

	if got := len(h.keys()); got != 5 {
		t.Fatalf("processed %d jobs, want 5", got)
	}
	st, ok := q.Status("c")
	if !ok || st.Status != constants.SubmissionCommitted {
		t.Fatalf("status(c) = %+v, %v", st, ok)
	}
}

func TestProcessorQueue_EnqueueAfterShutdown(t *testing.T) {
	q := async.NewProcessorQueue(&stubHandler{}, quietLogger())
	q.Shutdown(context.Background())

	err := q.Enqueue(context.Background(), async.Job{Key: "late"})
	if !errors.Is(err, async.ErrQueueClosed) {
		t.Fatalf("err = %v, want ErrQueueClosed", err)
	}
	// second shutdown is a no-op
	q.Shutdown(context.Background())
}

func TestProcessorQueue_RejectsInFlightDuplicate(t *testing.T) {
	h := &stubHandler{block: make(chan struct{})}
	q := async.NewProcessorQueue(h, quietLogger(), async.WithWorkers(1))

	ctx := context.Background()
	if err := q.Enqueue(ctx, async.Job{Key: "dup"}); err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if err := q.Enqueue(ctx, async.Job{Key: "dup"}); !errors.Is(err, async.ErrAlreadyQueued) {
		t.Fatalf("second enqueue err = %v, want ErrAlreadyQueued", err)
	}
	close(h.block)
	q.Shutdown(ctx)

	if got := h.keys(); len(got) != 1 {
		t.Fatalf("processed %v, want one job", got)
	}
	// a finished key may be submitted again; the pipeline decides it is a skip
	q2 := async.NewProcessorQueue(&stubHandler{}, quietLogger())
	defer q2.Shutdown(ctx)
	if err := q2.Enqueue(ctx, async.Job{Key: "dup"}); err != nil {
		t.Fatalf("enqueue on fresh queue: %v", err)
	}
}

func TestProcessorQueue_RecordsOutcome(t *testing.T) {
	boom := errors.New("boom")
	h := &stubHandler{fn: func(key string) (*pipeline.Outcome, error) {
		switch key {
		case "skip":
			return &pipeline.Outcome{Key: key, Status: constants.SubmissionSkipped, Skipped: true}, nil
		case "fail":
			return &pipeline.Outcome{Key: key, Status: constants.SubmissionFailed}, boom
		}
		return &pipeline.Outcome{Key: key, Status: constants.SubmissionCommitted}, nil
	}}
	q := async.NewProcessorQueue(h, quietLogger(), async.WithWorkers(2))

	ctx := context.Background()
	for _, k := range []string{"ok", "skip", "fail"} {
		if err := q.Enqueue(ctx, async.Job{Key: k}); err != nil {
			t.Fatalf("enqueue %s: %v", k, err)
		}
	}
	q.Shutdown(ctx)

	tests := []struct {
		key     string
		want    constants.SubmissionStatus
		wantErr bool
	}{
		{"ok", constants.SubmissionCommitted, false},
		{"skip", constants.SubmissionSkipped, false},
		{"fail", constants.SubmissionFailed, true},
	}
	for _, tt := range tests {
		st, ok := q.Status(tt.key)
		if !ok {
			t.Fatalf("no status for %s", tt.key)
		}
		if st.Status != tt.want {
			t.Errorf("%s: status = %s, want %s", tt.key, st.Status, tt.want)
		}
		if (st.Error != "") != tt.wantErr {
			t.Errorf("%s: error = %q", tt.key, st.Error)
		}
	}
	if _, ok := q.Status("never"); ok {
		t.Error("unknown key should have no status")
	}
}

func TestProcessorQueue_EnqueueHonoursContextWhenFull(t *testing.T) {
	h := &stubHandler{block: make(chan struct{})}
	q := async.NewProcessorQueue(h, quietLogger(), async.WithWorkers(1), async.WithQueueSize(1))
	defer func() {
		close(h.block)
		q.Shutdown(context.Background())
	}()

	ctx := context.Background()
	// first is picked up by the worker (blocked), second fills the buffer
	if err := q.Enqueue(ctx, async.Job{Key: "1"}); err != nil {
		t.Fatal(err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for {
		if st, _ := q.Status("1"); st.Status == constants.SubmissionRunning || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	if err := q.Enqueue(ctx, async.Job{Key: "2"}); err != nil {
		t.Fatal(err)
	}

	tctx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	if err := q.Enqueue(tctx, async.Job{Key: "3"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("err = %v, want DeadlineExceeded", err)
	}
}
