package entity

import (
	"encoding/json"
	"time"
)

// Application is a stored job application for data transfer between layers.
type Application struct {
	Key                  string          `json:"key"`
	CompanyID            int64           `json:"company_id"`
	Company              string          `json:"company"`
	PositionName         string          `json:"position_name"`
	PositionLevel        string          `json:"position_level,omitempty"`
	Location             string          `json:"location,omitempty"`
	RemoteStatus         string          `json:"remote_status,omitempty"`
	CompensationMin      *float64        `json:"compensation_min,omitempty"`
	CompensationMax      *float64        `json:"compensation_max,omitempty"`
	CompensationCurrency string          `json:"compensation_currency,omitempty"`
	ATSScore             *float64        `json:"ats_score,omitempty"`
	RawJSON              json.RawMessage `json:"raw_json"`
	Feedback             json.RawMessage `json:"feedback,omitempty"`
	TailoredBullets      json.RawMessage `json:"tailored_bullets,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	Skills               []SkillLink     `json:"skills,omitempty"`
}

// SkillLink is one skill as required by a specific posting.
type SkillLink struct {
	SkillID          int64  `json:"skill_id"`
	Name             string `json:"name"`
	Type             string `json:"type"`
	Priority         int    `json:"priority"`
	IsMustHave       bool   `json:"is_must_have"`
	YearsRequired    *int   `json:"years_required,omitempty"`
	ProficiencyLevel string `json:"proficiency_level,omitempty"`
	Context          string `json:"context,omitempty"`
}
