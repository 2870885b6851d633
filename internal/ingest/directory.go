package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/jobfit/internal/common"
)

// DirIngestor runs every posting file under a directory through the processor.
type DirIngestor struct {
	proc   Processor
	logger *slog.Logger
}

func NewDirIngestor(proc Processor, logger *slog.Logger) *DirIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &DirIngestor{proc: proc, logger: logger}
}

// IngestDirectory walks root, skips hidden entries if requested, and processes each
// .html/.htm file. A failing file is recorded and the walk continues.
func (i *DirIngestor) IngestDirectory(ctx context.Context, root string, skipHidden bool) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, common.NewAppError(common.CodeInvalidInput, "root path is required", common.ErrInvalidInput)
	}
	start := time.Now()

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{Path: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if skipHidden && path != root && IsHidden(path) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !allowed(path) {
			return nil
		}
		stats.Matched++

		r := i.IngestFile(ctx, path)
		results = append(results, r)
		switch {
		case r.Err != "":
			stats.Failed++
		case r.Skipped:
			stats.Skipped++
		default:
			stats.Succeeded++
		}
		return nil
	})

	i.logger.Info("ingest.dir.done",
		"root", root,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}
	return results, stats, nil
}

// IngestFile reads one posting and processes it under its content key.
func (i *DirIngestor) IngestFile(ctx context.Context, path string) FileResult {
	b, err := ReadPosting(path)
	if err != nil {
		i.logger.Warn("ingest.file.read_failed", "path", path, "error", err)
		return FileResult{Path: path, Err: err.Error()}
	}
	key := KeyFor(b)
	out, err := i.proc.Process(ctx, key, string(b))
	if err != nil {
		i.logger.Warn("ingest.file.failed", "path", path, "key", key, "code", common.CodeOf(err), "error", err)
		return FileResult{Path: path, Key: key, Err: err.Error()}
	}
	return FileResult{Path: path, Key: key, Status: out.Status, Skipped: out.Skipped}
}

// ReadPosting reads a posting file, refusing anything above MaxFileBytes.
func ReadPosting(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	b, err := io.ReadAll(io.LimitReader(f, MaxFileBytes+1))
	if err != nil {
		return nil, err
	}
	if len(b) > MaxFileBytes {
		return nil, errors.New("file exceeds size limit")
	}
	return b, nil
}
