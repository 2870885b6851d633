package profile

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Resume is the part of a rendercv-style master CV the prompts need.
type Resume struct {
	CV struct {
		Name     string   `yaml:"name"`
		Sections Sections `yaml:"sections"`
	} `yaml:"cv"`
}

type Sections struct {
	TechnicalSkills        []SkillLine  `yaml:"technical_skills"`
	ProfessionalExperience []Experience `yaml:"professional_experience"`
	Projects               []Project    `yaml:"projects"`
}

// SkillLine is either "Go, SQL" or {label: Languages, details: "Go, SQL"}.
type SkillLine struct {
	Label   string `yaml:"label"`
	Details string `yaml:"details"`
}

func (s *SkillLine) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		s.Details = strings.TrimSpace(node.Value)
		return nil
	}
	type plain SkillLine
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*s = SkillLine(p)
	return nil
}

type Experience struct {
	Company    string   `yaml:"company"`
	Position   string   `yaml:"position"`
	Location   string   `yaml:"location"`
	StartDate  string   `yaml:"start_date"`
	EndDate    string   `yaml:"end_date"`
	Highlights []string `yaml:"highlights"`
}

type Project struct {
	Name       string   `yaml:"name"`
	Date       string   `yaml:"date"`
	Highlights []string `yaml:"highlights"`
}

// Load reads and parses a YAML master CV.
func Load(path string) (*Resume, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read resume profile: %w", err)
	}
	return Parse(b)
}

func Parse(b []byte) (*Resume, error) {
	var r Resume
	if err := yaml.Unmarshal(b, &r); err != nil {
		return nil, fmt.Errorf("parse resume profile: %w", err)
	}
	s := r.CV.Sections
	if len(s.TechnicalSkills) == 0 && len(s.ProfessionalExperience) == 0 && len(s.Projects) == 0 {
		return nil, fmt.Errorf("resume profile has no technical_skills, professional_experience or projects")
	}
	return &r, nil
}

// Text renders the resume as plain text for prompt embedding.
func (r *Resume) Text() string {
	var b strings.Builder
	if n := strings.TrimSpace(r.CV.Name); n != "" {
		b.WriteString(n)
		b.WriteString("\n\n")
	}

	s := r.CV.Sections
	if len(s.TechnicalSkills) > 0 {
		b.WriteString("TECHNICAL SKILLS\n")
		for _, line := range s.TechnicalSkills {
			if line.Label != "" {
				fmt.Fprintf(&b, "- %s: %s\n", line.Label, line.Details)
			} else {
				fmt.Fprintf(&b, "- %s\n", line.Details)
			}
		}
		b.WriteString("\n")
	}

	if len(s.ProfessionalExperience) > 0 {
		b.WriteString("PROFESSIONAL EXPERIENCE\n")
		for _, e := range s.ProfessionalExperience {
			header := strings.TrimSpace(e.Position + " at " + e.Company)
			if dates := joinNonEmpty(" - ", e.StartDate, e.EndDate); dates != "" {
				header += " (" + dates + ")"
			}
			b.WriteString(header)
			b.WriteString("\n")
			writeHighlights(&b, e.Highlights)
		}
		b.WriteString("\n")
	}

	if len(s.Projects) > 0 {
		b.WriteString("PROJECTS\n")
		for _, p := range s.Projects {
			b.WriteString(p.Name)
			b.WriteString("\n")
			writeHighlights(&b, p.Highlights)
		}
	}
	return strings.TrimSpace(b.String())
}

func writeHighlights(b *strings.Builder, hs []string) {
	for _, h := range hs {
		if h = strings.TrimSpace(h); h != "" {
			b.WriteString("- ")
			b.WriteString(h)
			b.WriteString("\n")
		}
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	out := parts[:0:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
