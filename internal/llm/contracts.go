package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/joseph-ayodele/jobfit/constants"
)

// Prompt is a single synchronous completion request.
type Prompt struct {
	System          string
	User            string
	MaxOutputTokens int
}

// Oracle is the text-completion service the orchestrators depend on.
// Implementations return the raw completion text; an empty string is not an error here.
type Oracle interface {
	Complete(ctx context.Context, p Prompt) (string, error)
}

// JobRecord is the normalized shape we want from the extraction prompt.
type JobRecord struct {
	Company      string        `json:"company"`
	Position     Position      `json:"position"`
	Location     string        `json:"location,omitempty"`
	Remote       *bool         `json:"remote,omitempty"`
	Compensation *Compensation `json:"compensation,omitempty"`
	Skills       []Skill       `json:"skills"`
}

type Position struct {
	Name  string `json:"name"`
	Level Level  `json:"level,omitempty"`
}

// Level is a seniority label or a number of years; models emit either.
type Level string

func (l *Level) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*l = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = Level(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err == nil {
		*l = Level(n.String())
		return nil
	}
	return fmt.Errorf("position level: want string or number, got %s", b)
}

type Compensation struct {
	Min      *float64 `json:"min,omitempty"`
	Max      *float64 `json:"max,omitempty"`
	Currency string   `json:"currency,omitempty"`
}

// Skill is one requirement extracted from a posting. Context is the verbatim source phrase.
type Skill struct {
	Name             string              `json:"name"`
	Type             constants.SkillType `json:"type"`
	Priority         int                 `json:"priority"`   // 1-5, 5 = most critical
	IsMustHave       bool                `json:"isMustHave"` // default false
	YearsRequired    *int                `json:"yearsRequired"`
	ProficiencyLevel string              `json:"proficiencyLevel,omitempty"`
	Context          string              `json:"context"`
}

// FeedbackRecord scores a resume against a JobRecord.
type FeedbackRecord struct {
	OverallScore    float64        `json:"overall_score"` // 0-10
	OverallComments string         `json:"overall_comments"`
	Sections        []SectionScore `json:"sections"`
}

type SectionScore struct {
	Name            string         `json:"name"`
	Score           float64        `json:"score"`
	ScoreReasoning  string         `json:"score_reasoning"`
	OriginalContent string         `json:"original_content"`
	MissingSkills   []MissingSkill `json:"missing_skills"`
}

type MissingSkill struct {
	Name       string `json:"name"`
	Importance int    `json:"importance"` // 1-10
}

// TailoredBullets holds rewritten resume bullets with before/after justification.
type TailoredBullets struct {
	Items []TailoredBullet `json:"items"`
}

type TailoredBullet struct {
	ID                     string   `json:"id,omitempty"`
	Section                string   `json:"section,omitempty"`
	OriginalText           string   `json:"original_text"`
	TransformedText        string   `json:"transformed_text"`
	CharCountOriginal      int      `json:"char_count_original"`
	CharCountNew           int      `json:"char_count_new"`
	OriginalSkills         []string `json:"original_skills"`
	AddedSkills            []string `json:"added_skills"`
	OriginalScore          float64  `json:"original_score"`
	NewScore               float64  `json:"new_score"`
	ImprovementExplanation string   `json:"improvement_explanation"`
}
