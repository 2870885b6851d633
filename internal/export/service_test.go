package export_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/jobfit/internal/entity"
	"github.com/joseph-ayodele/jobfit/internal/export"
)

type stubLister struct {
	apps  []*entity.Application
	err   error
	limit int
}

func (s *stubLister) ListRecent(_ context.Context, limit int) ([]*entity.Application, error) {
	s.limit = limit
	return s.apps, s.err
}

func floatPtr(f float64) *float64 { return &f }
func intPtr(n int) *int           { return &n }

func TestExportApplicationsXLSX(t *testing.T) {
	lister := &stubLister{apps: []*entity.Application{
		{
			Key:          "k1",
			Company:      "Acme",
			PositionName: "Backend Engineer",
			RemoteStatus: "remote",
			ATSScore:     floatPtr(7),
			CreatedAt:    time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC),
			Skills: []entity.SkillLink{
				{Name: "Java", Type: "technical", Priority: 5, IsMustHave: true, YearsRequired: intPtr(5)},
				{Name: "SQL", Type: "technical", Priority: 4},
			},
		},
		{Key: "k2", Company: "Globex", PositionName: "Data Engineer"},
	}}
	svc := export.NewService(lister, nil)

	b, err := svc.ExportApplicationsXLSX(context.Background(), 10)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if lister.limit != 10 {
		t.Errorf("limit passed = %d, want 10", lister.limit)
	}

	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(export.ApplicationsSheet)
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("application rows = %d, want header + 2", len(rows))
	}
	if rows[0][0] != "Key" || rows[1][0] != "k1" || rows[2][1] != "Globex" {
		t.Errorf("unexpected rows: %v", rows)
	}
	if rows[1][9] != "7" {
		t.Errorf("ats cell = %q, want 7", rows[1][9])
	}
	if rows[1][10] != "Java, SQL" {
		t.Errorf("skills cell = %q", rows[1][10])
	}

	skills, err := f.GetRows(export.SkillsSheet)
	if err != nil {
		t.Fatalf("skill rows: %v", err)
	}
	if len(skills) != 3 {
		t.Fatalf("skill rows = %d, want header + 2", len(skills))
	}
	if skills[1][2] != "Java" || skills[1][5] != "yes" || skills[1][6] != "5" {
		t.Errorf("first skill row = %v", skills[1])
	}
}

func TestExportApplicationsXLSX_Empty(t *testing.T) {
	svc := export.NewService(&stubLister{}, nil)
	b, err := svc.ExportApplicationsXLSX(context.Background(), 0)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("open xlsx: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(export.ApplicationsSheet)
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want header only", len(rows))
	}
}

func TestExportApplicationsXLSX_ListError(t *testing.T) {
	boom := errors.New("db down")
	svc := export.NewService(&stubLister{err: boom}, nil)
	if _, err := svc.ExportApplicationsXLSX(context.Background(), 5); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped boom", err)
	}
}
