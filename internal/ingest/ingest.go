package ingest

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/jobfit/constants"
	"github.com/joseph-ayodele/jobfit/internal/pipeline"
)

// MaxFileBytes caps a single posting read from disk.
const MaxFileBytes = 5 << 20

// Processor is the behaviour directory ingest depends on; *pipeline.Processor satisfies it.
type Processor interface {
	Process(ctx context.Context, key, html string) (*pipeline.Outcome, error)
}

// FileResult is the per-file ingest outcome.
type FileResult struct {
	Path    string                     `json:"path"`
	Key     string                     `json:"key,omitempty"`
	Status  constants.SubmissionStatus `json:"status,omitempty"`
	Skipped bool                       `json:"skipped,omitempty"`
	Err     string                     `json:"error,omitempty"`
}

// DirStats summarizes a directory ingest.
type DirStats struct {
	Scanned   uint32 `json:"scanned"`
	Matched   uint32 `json:"matched"`
	Succeeded uint32 `json:"succeeded"`
	Skipped   uint32 `json:"skipped"`
	Failed    uint32 `json:"failed"`
}

// KeyFor derives the idempotency key of a posting read from disk.
func KeyFor(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// IsHidden checks if a file or directory is hidden (starts with '.').
func IsHidden(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") && base != "." && base != ".."
}

func allowed(path string) bool {
	return constants.IsHTMLExt(filepath.Ext(path))
}
