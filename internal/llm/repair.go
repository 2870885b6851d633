package llm

import "regexp"

// RepairStep is one textual fix applied to model output that failed to parse.
// Steps run in order and accumulate; parsing is retried after each.
type RepairStep struct {
	Name        string
	Pattern     *regexp.Regexp
	Replacement string
}

// Apply returns the repaired text and whether anything changed.
func (s RepairStep) Apply(text string) (string, bool) {
	out := s.Pattern.ReplaceAllString(text, s.Replacement)
	return out, out != text
}

// DefaultRepairSteps covers the markdown habits of chat models asked for JSON.
// Each step only touches characters the record schemas never need.
func DefaultRepairSteps() []RepairStep {
	return []RepairStep{
		{Name: "strip_bold", Pattern: regexp.MustCompile(`\*\*([^*\n]+?)\*\*`), Replacement: "$1"},
		{Name: "strip_underscore_bold", Pattern: regexp.MustCompile(`__([^_\n]+?)__`), Replacement: "$1"},
		{Name: "strip_italic", Pattern: regexp.MustCompile(`\*([^*\n]+?)\*`), Replacement: "$1"},
		{Name: "strip_headers", Pattern: regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t].*$`), Replacement: ""},
		{Name: "strip_bullets", Pattern: regexp.MustCompile(`(?m)^[ \t]*[-*+][ \t]+`), Replacement: ""},
		{Name: "strip_numbering", Pattern: regexp.MustCompile(`(?m)^[ \t]*\d+\.[ \t]+`), Replacement: ""},
		{Name: "strip_backticks", Pattern: regexp.MustCompile("`+"), Replacement: ""},
		{Name: "strip_blockquote", Pattern: regexp.MustCompile(`(?m)^[ \t]*>[ \t]?`), Replacement: ""},
		{Name: "trailing_commas", Pattern: regexp.MustCompile(`,(\s*[}\]])`), Replacement: "$1"},
	}
}
