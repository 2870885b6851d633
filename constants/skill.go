package constants

import (
	"strings"
)

type SkillType string

const (
	Technical SkillType = "technical"
	Soft      SkillType = "soft"
	Domain    SkillType = "domain"
)

var allSkillTypes = []SkillType{
	Technical,
	Soft,
	Domain,
}

const (
	DefaultSkillPriority = 3
	MinSkillPriority     = 1
	MaxSkillPriority     = 5
)

func SkillTypesAsStringSlice() []string {
	result := make([]string, len(allSkillTypes))
	for i, t := range allSkillTypes {
		result[i] = string(t)
	}
	return result
}

// CanonicalizeSkillType maps a model-provided label onto the three stored types.
// The bool is false when the label was unknown and Technical was assumed.
func CanonicalizeSkillType(input string) (SkillType, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return Technical, false
	}

	for _, t := range allSkillTypes {
		if normalized == string(t) {
			return t, true
		}
	}

	synonyms := map[string]SkillType{
		"hard":          Technical,
		"hard skill":    Technical,
		"tech":          Technical,
		"tool":          Technical,
		"tools":         Technical,
		"language":      Technical,
		"framework":     Technical,
		"interpersonal": Soft,
		"soft skill":    Soft,
		"behavioral":    Soft,
		"behavioural":   Soft,
		"industry":      Domain,
		"business":      Domain,
	}
	if t, ok := synonyms[normalized]; ok {
		return t, true
	}
	return Technical, false
}
