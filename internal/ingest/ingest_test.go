package ingest_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/joseph-ayodele/jobfit/constants"
	"github.com/joseph-ayodele/jobfit/internal/async"
	"github.com/joseph-ayodele/jobfit/internal/ingest"
	"github.com/joseph-ayodele/jobfit/internal/pipeline"
)

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

type stubProcessor struct {
	mu   sync.Mutex
	seen map[string]string // key -> html
}

func (s *stubProcessor) Process(_ context.Context, key, html string) (*pipeline.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.seen == nil {
		s.seen = map[string]string{}
	}
	if strings.Contains(html, "explode") {
		return nil, errors.New("extraction failed")
	}
	if _, dup := s.seen[key]; dup {
		return &pipeline.Outcome{Key: key, Status: constants.SubmissionSkipped, Skipped: true}, nil
	}
	s.seen[key] = html
	return &pipeline.Outcome{Key: key, Status: constants.SubmissionCommitted}, nil
}

// ── Keys ───────────────────────────────────────────────────────────────────

func TestKeyFor(t *testing.T) {
	a := ingest.KeyFor([]byte("<p>a</p>"))
	if len(a) != 64 {
		t.Fatalf("key length = %d, want 64 hex chars", len(a))
	}
	if a != ingest.KeyFor([]byte("<p>a</p>")) {
		t.Error("same content must give the same key")
	}
	if a == ingest.KeyFor([]byte("<p>b</p>")) {
		t.Error("different content must give different keys")
	}
}

func TestIsHidden(t *testing.T) {
	tests := map[string]bool{
		"a/.git":      true,
		".env":        true,
		"a/b.html":    false,
		".":           false,
		"dir/..":      false,
		"x/.hidden.h": true,
	}
	for in, want := range tests {
		if got := ingest.IsHidden(in); got != want {
			t.Errorf("IsHidden(%q) = %v, want %v", in, got, want)
		}
	}
}

// ── Directory ingest ───────────────────────────────────────────────────────

func TestIngestDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.html"), "<p>alpha</p>")
	writeFile(t, filepath.Join(root, "nested", "b.HTM"), "<p>beta</p>")
	writeFile(t, filepath.Join(root, "copy.html"), "<p>alpha</p>") // same content as a.html
	writeFile(t, filepath.Join(root, "bad.html"), "<p>explode</p>")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(root, ".hidden", "c.html"), "<p>hidden</p>")
	writeFile(t, filepath.Join(root, ".d.html"), "<p>hidden file</p>")

	proc := &stubProcessor{}
	ing := ingest.NewDirIngestor(proc, quietLogger())

	results, stats, err := ing.IngestDirectory(context.Background(), root, true)
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	if stats.Matched != 4 {
		t.Errorf("matched = %d, want 4", stats.Matched)
	}
	if stats.Succeeded != 2 || stats.Skipped != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 2 succeeded, 1 skipped, 1 failed", stats)
	}
	if len(results) != 4 {
		t.Fatalf("results = %d, want 4", len(results))
	}
	for _, r := range results {
		if strings.Contains(r.Path, "hidden") {
			t.Errorf("hidden path ingested: %s", r.Path)
		}
	}
}

func TestIngestDirectory_IncludesHiddenWhenAsked(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden", "c.html"), "<p>hidden</p>")

	ing := ingest.NewDirIngestor(&stubProcessor{}, quietLogger())
	_, stats, err := ing.IngestDirectory(context.Background(), root, false)
	if err != nil {
		t.Fatalf("IngestDirectory: %v", err)
	}
	if stats.Succeeded != 1 {
		t.Errorf("succeeded = %d, want 1", stats.Succeeded)
	}
}

func TestIngestDirectory_RequiresRoot(t *testing.T) {
	ing := ingest.NewDirIngestor(&stubProcessor{}, quietLogger())
	if _, _, err := ing.IngestDirectory(context.Background(), "  ", true); err == nil {
		t.Fatal("expected error for blank root")
	}
}

func TestReadPosting_SizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.html")
	writeFile(t, path, strings.Repeat("x", ingest.MaxFileBytes+1))
	if _, err := ingest.ReadPosting(path); err == nil {
		t.Fatal("expected size limit error")
	}
}

// ── Watcher ────────────────────────────────────────────────────────────────

func TestStartWatcher_InitialScan(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.html"), "<p>a</p>")
	writeFile(t, filepath.Join(root, "sub", "b.htm"), "<p>b</p>")
	writeFile(t, filepath.Join(root, "skip.txt"), "x")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := ingest.StartWatcher(ctx, ingest.WatchConfig{Roots: []string{root}, InitialScan: true}, quietLogger())
	if err != nil {
		t.Fatalf("StartWatcher: %v", err)
	}

	var got []string
	timeout := time.After(3 * time.Second)
	for len(got) < 2 {
		select {
		case p := <-events:
			got = append(got, filepath.Base(p))
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	sort.Strings(got)
	if got[0] != "a.html" || got[1] != "b.htm" {
		t.Errorf("events = %v", got)
	}
}

func TestStartWatcher_NoRoots(t *testing.T) {
	if _, _, err := ingest.StartWatcher(context.Background(), ingest.WatchConfig{}, quietLogger()); err == nil {
		t.Fatal("expected error without roots")
	}
}

type stubQueue struct {
	jobs chan async.Job
}

func (q *stubQueue) Enqueue(_ context.Context, job async.Job) error {
	q.jobs <- job
	return nil
}
func (q *stubQueue) Status(string) (async.JobStatus, bool) { return async.JobStatus{}, false }
func (q *stubQueue) Shutdown(context.Context)              {}

func TestWatch_EnqueuesByContentKey(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.html"), "<p>a</p>")

	q := &stubQueue{jobs: make(chan async.Job, 4)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- ingest.Watch(ctx, ingest.WatchConfig{Roots: []string{root}, InitialScan: true}, q, quietLogger())
	}()

	select {
	case job := <-q.jobs:
		if job.Key != ingest.KeyFor([]byte("<p>a</p>")) || job.HTML != "<p>a</p>" {
			t.Errorf("job = %+v", job)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no job enqueued")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
