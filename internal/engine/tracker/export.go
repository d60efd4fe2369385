package tracker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	applicationsSheet = "Applications"
	summarySheet      = "Summary"
	exportLimit       = 10000
)

var exportHeaders = []string{
	"ID", "Company", "Job Title", "Date Applied", "Status", "Follow-up Date", "Interview Date",
	"Location", "Salary", "ATS", "Cover Letter", "URL", "Notes",
}

// ExportExcel writes every application and a summary sheet to an .xlsx file
// at path and returns the number of application rows.
func (s *Store) ExportExcel(ctx context.Context, path string) (int, error) {
	apps, err := s.listAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("tracker export: %w", err)
	}
	stats, err := s.Stats(ctx)
	if err != nil {
		return 0, fmt.Errorf("tracker export: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", applicationsSheet); err != nil {
		return 0, fmt.Errorf("tracker export: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(applicationsSheet, cell, h) //nolint:errcheck
	}
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#1E3A5F"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	endCell, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	f.SetCellStyle(applicationsSheet, "A1", endCell, headerStyle) //nolint:errcheck

	for r, a := range apps {
		row := []any{
			a.ID, a.Company, a.JobTitle, a.DateApplied, string(a.Status), a.FollowUpDate, a.InterviewDate,
			a.Location, a.Salary, a.ATSPlatform, yesNo(a.CoverLetterIncluded), a.URL, a.Notes,
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(applicationsSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("tracker export: row %d: %w", r+2, err)
		}
	}
	for i := range exportHeaders {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(applicationsSheet, col, col, 20) //nolint:errcheck
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return 0, fmt.Errorf("tracker export: %w", err)
	}
	summary := [][]any{
		{"Total applications", stats.Total},
		{"Submitted", stats.Submitted},
		{"Response rate (%)", stats.ResponseRate},
		{"Interview rate (%)", stats.InterviewRate},
		{"Applied this week", stats.ThisWeek},
	}
	for _, st := range Statuses {
		summary = append(summary, []any{"Status: " + string(st), stats.ByStatus[string(st)]})
	}
	for r, row := range summary {
		cell, _ := excelize.CoordinatesToCellName(1, r+1)
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return 0, fmt.Errorf("tracker export: summary: %w", err)
		}
	}
	f.SetColWidth(summarySheet, "A", "A", 24) //nolint:errcheck

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return 0, fmt.Errorf("tracker export: mkdir: %w", err)
	}
	if err := f.SaveAs(path); err != nil {
		return 0, fmt.Errorf("tracker export: save %s: %w", path, err)
	}
	return len(apps), nil
}

func (s *Store) listAll(ctx context.Context) ([]Application, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT `+applicationColumns+` FROM applications
		ORDER BY date_applied DESC, id DESC LIMIT ?`), exportLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	apps := []Application{}
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, *a)
	}
	return apps, rows.Err()
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
