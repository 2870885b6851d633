package llm_test

import (
	"encoding/json"
	"testing"

	"github.com/joseph-ayodele/jobfit/constants"
	"github.com/joseph-ayodele/jobfit/internal/llm"
)

func sanitizeToRecord(t *testing.T, raw string) llm.JobRecord {
	t.Helper()
	out, _, err := llm.SanitizeJobRecordJSON([]byte(raw), nil)
	if err != nil {
		t.Fatalf("SanitizeJobRecordJSON returned error: %v", err)
	}
	if err := llm.ValidateJSONAgainstSchema(llm.BuildJobRecordJSONSchema(), out); err != nil {
		t.Fatalf("sanitized output fails schema: %v\n%s", err, out)
	}
	var rec llm.JobRecord
	if err := json.Unmarshal(out, &rec); err != nil {
		t.Fatalf("decode sanitized output: %v", err)
	}
	return rec
}

// ── Top-level synonyms ─────────────────────────────────────────────────────

func TestSanitize_CompanyAndTitleSynonyms(t *testing.T) {
	rec := sanitizeToRecord(t, `{"company_name":"  Acme ","title":"Backend Engineer","level":"Senior"}`)
	if rec.Company != "Acme" {
		t.Errorf("Company = %q, want %q", rec.Company, "Acme")
	}
	if rec.Position.Name != "Backend Engineer" {
		t.Errorf("Position.Name = %q, want %q", rec.Position.Name, "Backend Engineer")
	}
	if rec.Position.Level != "Senior" {
		t.Errorf("Position.Level = %q, want %q", rec.Position.Level, "Senior")
	}
}

func TestSanitize_CompanyInfoFlattened(t *testing.T) {
	rec := sanitizeToRecord(t, `{"company_info":{"name":"Globex","position":"SRE","level":"Mid"}}`)
	if rec.Company != "Globex" || rec.Position.Name != "SRE" || rec.Position.Level != "Mid" {
		t.Errorf("got %+v", rec)
	}
}

func TestSanitize_StringPosition(t *testing.T) {
	rec := sanitizeToRecord(t, `{"position":"Data Engineer"}`)
	if rec.Position.Name != "Data Engineer" {
		t.Errorf("Position.Name = %q", rec.Position.Name)
	}
}

func TestSanitize_NumericLevel(t *testing.T) {
	rec := sanitizeToRecord(t, `{"position":{"name":"Dev","level":3}}`)
	if rec.Position.Level != "3" {
		t.Errorf("Position.Level = %q, want %q", rec.Position.Level, "3")
	}
}

// ── Skills ─────────────────────────────────────────────────────────────────

func TestSanitize_SkillDefaultsAndClamping(t *testing.T) {
	rec := sanitizeToRecord(t, `{"skills":[
		{"name":" Go ","type":"Hard","priority":9,"yearsRequired":"5+","context":"5+ years of Go"},
		{"name":"Teamwork","type":"interpersonal","priority":0,"isMustHave":"yes"},
		"Kubernetes",
		{"name":"   "},
		42
	]}`)
	if len(rec.Skills) != 3 {
		t.Fatalf("len(Skills) = %d, want 3: %+v", len(rec.Skills), rec.Skills)
	}

	goSkill := rec.Skills[0]
	if goSkill.Name != "Go" || goSkill.Type != "technical" || goSkill.Priority != 5 {
		t.Errorf("Skills[0] = %+v", goSkill)
	}
	if goSkill.YearsRequired == nil || *goSkill.YearsRequired != 5 {
		t.Errorf("Skills[0].YearsRequired = %v, want 5", goSkill.YearsRequired)
	}
	if goSkill.Context != "5+ years of Go" {
		t.Errorf("Skills[0].Context = %q", goSkill.Context)
	}

	soft := rec.Skills[1]
	if soft.Type != "soft" || soft.Priority != constants.DefaultSkillPriority || !soft.IsMustHave {
		t.Errorf("Skills[1] = %+v", soft)
	}

	k8s := rec.Skills[2]
	if k8s.Name != "Kubernetes" || k8s.Priority != 3 || k8s.IsMustHave || k8s.YearsRequired != nil {
		t.Errorf("Skills[2] = %+v", k8s)
	}
}

func TestSanitize_FoldsSplitSkillLists(t *testing.T) {
	rec := sanitizeToRecord(t, `{
		"required_skills":[{"name":"Java","context":"5+ years of Java"}],
		"nice_to_have_skills":["Scala"]
	}`)
	if len(rec.Skills) != 2 {
		t.Fatalf("len(Skills) = %d, want 2", len(rec.Skills))
	}
	if rec.Skills[0].Name != "Java" || !rec.Skills[0].IsMustHave {
		t.Errorf("Skills[0] = %+v", rec.Skills[0])
	}
	if rec.Skills[1].Name != "Scala" || rec.Skills[1].IsMustHave {
		t.Errorf("Skills[1] = %+v", rec.Skills[1])
	}
}

func TestSanitize_RemoteCoercion(t *testing.T) {
	rec := sanitizeToRecord(t, `{"remote":"yes"}`)
	if rec.Remote == nil || !*rec.Remote {
		t.Errorf("Remote = %v, want true", rec.Remote)
	}
	rec = sanitizeToRecord(t, `{"remote":"maybe"}`)
	if rec.Remote != nil {
		t.Errorf("Remote = %v, want nil", *rec.Remote)
	}
}

func TestSanitize_ReportsChanges(t *testing.T) {
	_, changes, err := llm.SanitizeJobRecordJSON([]byte(`{"company":"Acme","skills":[]}`), nil)
	if err != nil {
		t.Fatalf("SanitizeJobRecordJSON returned error: %v", err)
	}
	if len(changes) != 0 {
		t.Errorf("changes = %v, want none for an already-clean record", changes)
	}
}

func TestSanitize_RejectsNonObject(t *testing.T) {
	if _, _, err := llm.SanitizeJobRecordJSON([]byte(`[1,2]`), nil); err == nil {
		t.Error("SanitizeJobRecordJSON([1,2]) expected error, got nil")
	}
}

// ── Null optional fields ───────────────────────────────────────────────────

func TestSanitize_NullOptionalStringsDropped(t *testing.T) {
	rec := sanitizeToRecord(t, `{
		"company":"Acme",
		"location":null,
		"position":{"name":null,"level":"Senior"},
		"compensation":{"min":100000,"max":null,"currency":null}
	}`)
	if rec.Company != "Acme" || rec.Location != "" || rec.Position.Name != "" || rec.Position.Level != "Senior" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Compensation == nil || rec.Compensation.Currency != "" {
		t.Fatalf("Compensation = %+v", rec.Compensation)
	}
	if rec.Compensation.Min == nil || *rec.Compensation.Min != 100000 {
		t.Errorf("Compensation.Min = %v, want 100000", rec.Compensation.Min)
	}
}

func TestSanitize_NonStringOptionalsDropped(t *testing.T) {
	rec := sanitizeToRecord(t, `{"location":42,"position":{"name":["Dev"]},"compensation":{"currency":5}}`)
	if rec.Location != "" || rec.Position.Name != "" || rec.Compensation == nil || rec.Compensation.Currency != "" {
		t.Errorf("record = %+v", rec)
	}
	rec = sanitizeToRecord(t, `{"compensation":"competitive"}`)
	if rec.Compensation != nil {
		t.Errorf("Compensation = %+v, want nil", rec.Compensation)
	}
}
