package llm

import "github.com/joseph-ayodele/jobfit/constants"

// BuildJobRecordJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a generic map.
// Every top-level field is optional; a completion that yields {} is still a valid record.
func BuildJobRecordJSONSchema() map[string]any {
	skill := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":             map[string]any{"type": "string", "minLength": 1},
			"type":             map[string]any{"type": "string", "enum": constants.SkillTypesAsStringSlice()},
			"priority":         map[string]any{"type": "integer", "minimum": constants.MinSkillPriority, "maximum": constants.MaxSkillPriority},
			"isMustHave":       map[string]any{"type": "boolean"},
			"yearsRequired":    map[string]any{"type": []any{"integer", "null"}, "minimum": 0},
			"proficiencyLevel": map[string]any{"type": "string"},
			"context":          map[string]any{"type": "string"},
		},
		"required": []string{"name"},
	}

	props := map[string]any{
		"company": map[string]any{"type": "string"},
		"position": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"name":  map[string]any{"type": "string"},
				"level": map[string]any{"type": []any{"string", "number", "null"}},
			},
		},
		"location": map[string]any{"type": "string"},
		"remote":   map[string]any{"type": []any{"boolean", "null"}},
		"compensation": map[string]any{
			"type": []any{"object", "null"},
			"properties": map[string]any{
				"min":      map[string]any{"type": []any{"number", "null"}},
				"max":      map[string]any{"type": []any{"number", "null"}},
				"currency": map[string]any{"type": "string"},
			},
		},
		"skills": map[string]any{"type": "array", "items": skill},
	}

	return map[string]any{
		"type":       "object",
		"properties": props,
	}
}

// BuildFeedbackJSONSchema describes the evaluation document.
func BuildFeedbackJSONSchema() map[string]any {
	missing := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":       map[string]any{"type": "string"},
			"importance": map[string]any{"type": []any{"integer", "null"}, "minimum": 0, "maximum": 10},
		},
		"required": []string{"name"},
	}
	section := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"name":             map[string]any{"type": "string"},
			"score":            scoreProp(),
			"score_reasoning":  map[string]any{"type": "string"},
			"original_content": map[string]any{"type": "string"},
			"missing_skills":   map[string]any{"type": "array", "items": missing},
		},
		"required": []string{"name"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overall_score":    scoreProp(),
			"overall_comments": map[string]any{"type": "string"},
			"sections":         map[string]any{"type": "array", "items": section},
		},
		"required": []string{"overall_score"},
	}
}

// BuildTailoredJSONSchema describes the rewritten-bullets document.
func BuildTailoredJSONSchema() map[string]any {
	item := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"id":                      map[string]any{"type": "string"},
			"section":                 map[string]any{"type": "string"},
			"original_text":           map[string]any{"type": "string"},
			"transformed_text":        map[string]any{"type": "string", "minLength": 1},
			"char_count_original":     map[string]any{"type": "integer"},
			"char_count_new":          map[string]any{"type": "integer"},
			"original_skills":         stringArray(),
			"added_skills":            stringArray(),
			"original_score":          scoreProp(),
			"new_score":               scoreProp(),
			"improvement_explanation": map[string]any{"type": "string"},
		},
		"required": []string{"original_text", "transformed_text"},
	}
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"items": map[string]any{"type": "array", "items": item},
		},
		"required": []string{"items"},
	}
}

func scoreProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0, "maximum": 10}
}

func stringArray() map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}}
}
