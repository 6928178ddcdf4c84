package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/strogmv/apiblocks/internal/domain"
	"github.com/strogmv/apiblocks/internal/runtime"
)

const (
	summarySheet = "Summary"
	callsSheet   = "Calls"
	linesSheet   = "Observations"

	patternType    = "pattern"
	patternValue   = 1
	errorBgColor   = "FFC7CE"
	successBgColor = "C6EFCE"
)

var callHeaders = []string{"Block", "Method", "URL", "Status", "Duration (ms)", "Error", "Curl"}

// XLSX writes run into a workbook with summary, call and observation sheets.
func (g *Generator) XLSX(run *domain.Run) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	for _, name := range []string{callsSheet, linesSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	errorStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: patternType, Pattern: patternValue, Color: []string{errorBgColor}},
	})
	if err != nil {
		return nil, err
	}
	successStyle, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: patternType, Pattern: patternValue, Color: []string{successBgColor}},
	})
	if err != nil {
		return nil, err
	}
	boldStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	summary := [][2]any{
		{"Run", run.ID},
		{"Program", run.ProgramName},
		{"Program hash", run.ProgramHash},
		{"Status", string(run.Status)},
		{"Started", run.StartedAt.UTC().Format("2006-01-02 15:04:05")},
		{"Duration (ms)", run.Duration().Milliseconds()},
		{"Steps", run.Steps},
		{"Calls", len(run.Calls)},
	}
	if run.Failure != nil {
		summary = append(summary,
			[2]any{"Failure kind", string(run.Failure.Kind)},
			[2]any{"Failure block", run.Failure.BlockID},
			[2]any{"Failure message", run.Failure.Message},
		)
	}
	for i, kv := range summary {
		r := i + 1
		setRow(f, summarySheet, r, kv[0], kv[1])
		_ = f.SetCellStyle(summarySheet, cell(1, r), cell(1, r), boldStyle)
	}
	statusStyle := successStyle
	if run.Status != domain.RunPassed {
		statusStyle = errorStyle
	}
	_ = f.SetCellStyle(summarySheet, "B4", "B4", statusStyle)
	_ = f.SetColWidth(summarySheet, "A", "A", 18)
	_ = f.SetColWidth(summarySheet, "B", "B", 60)

	headers := make([]any, len(callHeaders))
	for i, h := range callHeaders {
		headers[i] = h
	}
	setRow(f, callsSheet, 1, headers...)
	_ = f.SetCellStyle(callsSheet, "A1", cell(len(callHeaders), 1), boldStyle)
	for i, c := range run.Calls {
		r := i + 2
		setRow(f, callsSheet, r, c.BlockID, c.Method, c.URL, c.Status, c.DurationMS, c.Error, c.Curl)
		if c.Error != "" {
			_ = f.SetCellStyle(callsSheet, cell(1, r), cell(len(callHeaders), r), errorStyle)
		}
	}
	_ = f.SetColWidth(callsSheet, "C", "C", 50)
	_ = f.SetColWidth(callsSheet, "G", "G", 80)

	setRow(f, linesSheet, 1, "Time", "Level", "Block", "Text")
	_ = f.SetCellStyle(linesSheet, "A1", "D1", boldStyle)
	for i, l := range run.Lines {
		r := i + 2
		setRow(f, linesSheet, r, l.Time.UTC().Format("15:04:05.000"), string(l.Level), l.BlockID, l.Text)
		if l.Level == runtime.LevelError {
			_ = f.SetCellStyle(linesSheet, cell(1, r), cell(4, r), errorStyle)
		}
	}
	_ = f.SetColWidth(linesSheet, "D", "D", 80)

	f.SetActiveSheet(0)
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func setRow(f *excelize.File, sheet string, r int, values ...any) {
	for i, v := range values {
		_ = f.SetCellValue(sheet, cell(i+1, r), v)
	}
}

func cell(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
