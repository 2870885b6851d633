package export

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/jobfit/internal/entity"
)

const (
	ApplicationsSheet = "Applications"
	SkillsSheet       = "Skills"
)

// Lister is the read side of the application repository the export needs.
type Lister interface {
	ListRecent(ctx context.Context, limit int) ([]*entity.Application, error)
}

// Service produces XLSX bytes for the tracked applications.
type Service struct {
	repo   Lister
	logger *slog.Logger
}

func NewService(repo Lister, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger}
}

// ExportApplicationsXLSX writes the newest limit applications to one sheet and
// their skill links to a second one, keyed by the application key.
func (s *Service) ExportApplicationsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	apps, err := s.repo.ListRecent(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query applications: %w", err)
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	// the default workbook ships with Sheet1; rename it rather than leave it empty
	if err := f.SetSheetName("Sheet1", ApplicationsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(SkillsSheet); err != nil {
		return nil, err
	}
	idx, _ := f.GetSheetIndex(ApplicationsSheet)
	f.SetActiveSheet(idx)

	writeRow(f, ApplicationsSheet, 1, []any{
		"Key", "Company", "Position", "Level", "Location", "Remote",
		"Comp Min", "Comp Max", "Currency", "ATS Score", "Skills", "Created",
	})
	writeRow(f, SkillsSheet, 1, []any{
		"Key", "Company", "Skill", "Type", "Priority", "Must Have", "Years", "Proficiency", "Context",
	})

	skillRow := 2
	for i, a := range apps {
		names := make([]string, 0, len(a.Skills))
		for _, sk := range a.Skills {
			names = append(names, sk.Name)
			writeRow(f, SkillsSheet, skillRow, []any{
				a.Key, a.Company, sk.Name, sk.Type, sk.Priority, yesNo(sk.IsMustHave),
				intOrBlank(sk.YearsRequired), sk.ProficiencyLevel, truncate(sk.Context, 140),
			})
			skillRow++
		}

		writeRow(f, ApplicationsSheet, i+2, []any{
			a.Key,
			a.Company,
			a.PositionName,
			a.PositionLevel,
			a.Location,
			a.RemoteStatus,
			floatOrBlank(a.CompensationMin),
			floatOrBlank(a.CompensationMax),
			a.CompensationCurrency,
			floatOrBlank(a.ATSScore),
			truncate(strings.Join(names, ", "), 200),
			a.CreatedAt.UTC().Format("2006-01-02 15:04"),
		})
	}

	_ = f.SetColWidth(ApplicationsSheet, "A", "A", 24) // key
	_ = f.SetColWidth(ApplicationsSheet, "B", "C", 28)
	_ = f.SetColWidth(ApplicationsSheet, "E", "E", 24)
	_ = f.SetColWidth(ApplicationsSheet, "K", "K", 60) // skills
	_ = f.SetColWidth(ApplicationsSheet, "L", "L", 18)
	_ = f.SetColWidth(SkillsSheet, "A", "C", 24)
	_ = f.SetColWidth(SkillsSheet, "I", "I", 60) // context

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.logger.Info("export.xlsx.ok",
		"rows", len(apps),
		"skill_rows", skillRow-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func floatOrBlank(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func intOrBlank(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}
