package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// MaxPromptInputChars caps the posting or resume text embedded in a prompt.
const MaxPromptInputChars = 12000

// Templates holds the instruction text for each prompt. The user-side text is
// followed by the task input, so it should end with a short lead-in line.
type Templates struct {
	ExtractionSystem string
	Extraction       string
	FeedbackSystem   string
	Feedback         string
	TailorSystem     string
	Tailor           string
}

// DefaultTemplates returns the built-in prompt text.
func DefaultTemplates() Templates {
	return Templates{
		ExtractionSystem: "You are a precise job-posting parser. Return ONLY a JSON object, no prose and no markdown.",
		Extraction: strings.Join([]string{
			"Parse this job description and extract every skill that could help match a candidate.",
			"Include technical skills (stated and implied), software and tools, methodologies, and domain expertise.",
			`Return JSON of this shape: {"company": "...", "position": {"name": "...", "level": "..."}, "location": "...", "remote": true|false|null, "compensation": {"min": 0, "max": 0, "currency": "USD"} or null, "skills": [{"name": "...", "type": "technical|soft|domain", "priority": 1-5, "isMustHave": true|false, "yearsRequired": number or null, "proficiencyLevel": "...", "context": "exact text where mentioned"}]}.`,
			"Priority 5 means most critical. Keep 'context' verbatim from the posting.",
			"If a field is not present, omit it.",
		}, " "),
		FeedbackSystem: "You are a resume evaluation assistant. Score how well each resume section matches the job requirements. Return ONLY JSON.",
		Feedback: strings.Join([]string{
			"Score how each part of this resume matches the job requirements. Be honest about what is missing or weak.",
			`Return JSON: {"overall_score": 0-10, "overall_comments": "2-3 sentences", "sections": [{"name": "...", "score": 0-10, "score_reasoning": "...", "original_content": "...", "missing_skills": [{"name": "...", "importance": 1-10}]}]}.`,
		}, " "),
		TailorSystem: "You are a resume optimization expert who tailors resume bullets to a specific job. Return ONLY JSON.",
		Tailor: strings.Join([]string{
			"Rewrite the weakest resume bullets so they match the job requirements using the feedback below.",
			"Keep each rewritten bullet close to its original length and never invent employers or dates.",
			`Return JSON: {"items": [{"id": "...", "section": "...", "original_text": "...", "transformed_text": "...", "original_skills": ["..."], "added_skills": ["..."], "original_score": 0-10, "new_score": 0-10, "improvement_explanation": "..."}]}.`,
		}, " "),
	}
}

// LoadTemplates reads extraction.txt, feedback.txt and tailor.txt from dir and
// overrides the matching defaults. Missing files keep the default text.
func LoadTemplates(dir string) (Templates, error) {
	t := DefaultTemplates()
	if strings.TrimSpace(dir) == "" {
		return t, nil
	}
	files := map[string]*string{
		"extraction.txt": &t.Extraction,
		"feedback.txt":   &t.Feedback,
		"tailor.txt":     &t.Tailor,
	}
	for name, dst := range files {
		b, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return t, fmt.Errorf("read prompt %s: %w", name, err)
		}
		if s := strings.TrimSpace(string(b)); s != "" {
			*dst = s
		}
	}
	return t, nil
}

// BuildExtractionPrompt packages reduced posting text for the extraction call.
func BuildExtractionPrompt(t Templates, reduced string) Prompt {
	var b strings.Builder
	b.WriteString(t.Extraction)
	b.WriteString("\n\nJob description:\n")
	b.WriteString(truncate(reduced, MaxPromptInputChars))
	return Prompt{System: t.ExtractionSystem, User: b.String()}
}

// BuildFeedbackPrompt pairs the extracted job with the candidate resume.
func BuildFeedbackPrompt(t Templates, job JobRecord, resume string) (Prompt, error) {
	jb, err := json.Marshal(map[string]any{"parsed_job_desc": job})
	if err != nil {
		return Prompt{}, fmt.Errorf("encode job record: %w", err)
	}
	parts := []string{
		t.Feedback,
		"Job requirements:\n" + string(jb),
		"Resume:\n" + truncate(resume, MaxPromptInputChars),
	}
	return Prompt{System: t.FeedbackSystem, User: strings.Join(parts, "\n\n")}, nil
}

// BuildTailorPrompt pairs the job (and its feedback, when one exists) with the candidate resume.
func BuildTailorPrompt(t Templates, job JobRecord, fb *FeedbackRecord, resume string) (Prompt, error) {
	jb, err := json.Marshal(map[string]any{"parsed_job_desc": job})
	if err != nil {
		return Prompt{}, fmt.Errorf("encode job record: %w", err)
	}
	parts := []string{t.Tailor, "Job requirements:\n" + string(jb)}
	if fb != nil {
		fbb, err := json.Marshal(map[string]any{"feedback": fb})
		if err != nil {
			return Prompt{}, fmt.Errorf("encode feedback: %w", err)
		}
		parts = append(parts, "Feedback:\n"+string(fbb))
	}
	parts = append(parts, "Resume:\n"+truncate(resume, MaxPromptInputChars))
	return Prompt{System: t.TailorSystem, User: strings.Join(parts, "\n\n")}, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "\n…(truncated)"
}
