package llm

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/joseph-ayodele/jobfit/internal/common"
)

// ExcerptLen bounds the raw text attached to parse failures.
const ExcerptLen = 200

var (
	reFence    = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")
	reFenceTag = regexp.MustCompile(`^[A-Za-z0-9_-]*[ \t]*\r?\n?`)
)

// Result is a successfully parsed model response.
type Result struct {
	Value     any      // decoded with json.Number for numbers
	Canonical []byte   // two-space indented, key order as the model wrote it
	Repairs   []string // repair steps that changed the text before it parsed
}

// Normalizer turns raw completion text into JSON or a definitive failure.
type Normalizer struct {
	steps  []RepairStep
	logger *slog.Logger
}

// NewNormalizer uses DefaultRepairSteps when no steps are given.
func NewNormalizer(logger *slog.Logger, steps ...RepairStep) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	if len(steps) == 0 {
		steps = DefaultRepairSteps()
	}
	return &Normalizer{steps: steps, logger: logger}
}

// Normalize runs raw through a default Normalizer.
func Normalize(raw string) (Result, error) {
	return NewNormalizer(nil).Normalize(raw)
}

// Normalize extracts the first fenced block (if any), parses it, and on failure
// retries after each repair step. It fails with common.ErrEmptyResponse for blank
// input and common.ErrInvalidJSON when nothing parses.
func (n *Normalizer) Normalize(raw string) (Result, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Result{}, common.NewAppError(common.CodeEmptyResponse, "model returned no text", common.ErrEmptyResponse)
	}

	// A document that is already valid JSON is taken as is, even if a string
	// value happens to contain a fence.
	if res, ok := parseCanonical(trimmed); ok {
		return res, nil
	}
	candidate := ExtractFenced(trimmed)
	if candidate != trimmed {
		if res, ok := parseCanonical(candidate); ok {
			return res, nil
		}
	}

	var applied []string
	for _, step := range n.steps {
		next, changed := step.Apply(candidate)
		if !changed {
			continue
		}
		candidate = strings.TrimSpace(next)
		applied = append(applied, step.Name)
		if res, ok := parseCanonical(candidate); ok {
			res.Repairs = applied
			n.logger.Warn("llm.normalize.repaired", "steps", applied, "raw_len", len(raw))
			return res, nil
		}
	}

	n.logger.Warn("llm.normalize.invalid_json", "steps", applied, "raw_len", len(raw))
	return Result{}, common.NewAppError(common.CodeInvalidJSON, common.Excerpt(raw, ExcerptLen), common.ErrInvalidJSON)
}

// ExtractFenced returns the interior of the first ``` fence, tolerating a missing
// closing fence. Text without a fence is returned unchanged.
func ExtractFenced(s string) string {
	if m := reFence.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	if i := strings.Index(s, "```"); i >= 0 {
		rest := reFenceTag.ReplaceAllString(s[i+3:], "")
		return strings.TrimSpace(rest)
	}
	return s
}

func parseCanonical(candidate string) (Result, bool) {
	b := []byte(candidate)
	if !json.Valid(b) {
		return Result{}, false
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, b, "", "  "); err != nil {
		return Result{}, false
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return Result{}, false
	}
	return Result{Value: v, Canonical: buf.Bytes()}, true
}
