package profile_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/joseph-ayodele/jobfit/internal/profile"
)

const sampleCV = `
cv:
  name: Jane Doe
  sections:
    technical_skills:
      - label: Languages
        details: Go, Java, SQL
      - Kubernetes, Terraform
    professional_experience:
      - company: Globex
        position: Backend Engineer
        start_date: 2021-03
        end_date: present
        highlights:
          - Built billing APIs in Go
          - "  "
    projects:
      - name: jobfit
        highlights:
          - Job posting parser
`

func TestParseAndText(t *testing.T) {
	r, err := profile.Parse([]byte(sampleCV))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	if got := r.CV.Sections.TechnicalSkills[1].Details; got != "Kubernetes, Terraform" {
		t.Errorf("scalar skill line = %q", got)
	}

	text := r.Text()
	for _, want := range []string{
		"Jane Doe",
		"- Languages: Go, Java, SQL",
		"- Kubernetes, Terraform",
		"Backend Engineer at Globex (2021-03 - present)",
		"- Built billing APIs in Go",
		"PROJECTS\njobfit\n- Job posting parser",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Text() missing %q:\n%s", want, text)
		}
	}
	if strings.Contains(text, "- \n") {
		t.Error("blank highlight rendered")
	}
}

func TestParse_EmptyProfile(t *testing.T) {
	if _, err := profile.Parse([]byte("cv:\n  name: Nobody\n")); err == nil {
		t.Error("Parse of a profile without sections expected error, got nil")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cv.yaml")
	if err := os.WriteFile(path, []byte(sampleCV), 0o644); err != nil {
		t.Fatal(err)
	}
	r, err := profile.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if r.CV.Name != "Jane Doe" {
		t.Errorf("Name = %q", r.CV.Name)
	}
	if _, err := profile.Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load of a missing file expected error, got nil")
	}
}
