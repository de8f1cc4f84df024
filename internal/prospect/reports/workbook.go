// Package reports renders performance reports as XLSX workbooks.
package reports

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"prospectai_backend/internal/prospect/domain"
	"prospectai_backend/internal/prospect/performance"

	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet  = "Resumo"
	TimelineSheet = "Feedbacks"

	// ContentType is the MIME type of the generated workbook.
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var timelineHeaders = []string{"Data", "Lead", "Status", "Feedback", "Imagens"}

// FileName returns the download name of a report generated at now.
func FileName(now time.Time, loc *time.Location) string {
	return fmt.Sprintf("desempenho-%s.xlsx", now.In(loc).Format("2006-01-02"))
}

// WritePerformanceWorkbook writes a workbook with a KPI summary sheet and the
// feedback timeline. Timestamps are rendered in loc.
func WritePerformanceWorkbook(w io.Writer, report performance.Report, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(TimelineSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}

	if err := writeSummary(f, report, loc, headerStyle); err != nil {
		return err
	}
	if err := writeTimeline(f, report.Metrics.Timeline, loc, headerStyle); err != nil {
		return err
	}

	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeSummary(f *excelize.File, report performance.Report, loc *time.Location, headerStyle int) error {
	m := report.Metrics
	rows := [][]interface{}{
		{"Indicador", "Valor"},
		{"Período", periodLabel(report, loc)},
		{"Total de leads", m.TotalLeads},
		{"Convertidos", m.Converted},
		{"Não convertidos", m.NotConverted},
		{"Taxa de conversão (%)", round2(m.ConversionRate)},
		{"Tempo médio de resposta (min)", round2(m.AvgResponseTime.Minutes())},
		{"Tempo médio de fechamento (h)", round2(m.AvgClosingTime.Hours())},
	}
	if report.MonthlyLeads != nil {
		rows = append(rows, []interface{}{"Leads recebidos no mês", *report.MonthlyLeads})
	}
	rows = append(rows, []interface{}{}, []interface{}{"Etapa", "Leads"})
	stageHeaderRow := len(rows)
	for _, sc := range m.StageCounts {
		rows = append(rows, []interface{}{sc.Name, sc.Count})
	}

	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(SummarySheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write summary row: %w", err)
		}
	}
	for _, r := range []int{1, stageHeaderRow} {
		if err := f.SetCellStyle(SummarySheet, fmt.Sprintf("A%d", r), fmt.Sprintf("B%d", r), headerStyle); err != nil {
			return fmt.Errorf("failed to style summary: %w", err)
		}
	}
	if err := f.SetColWidth(SummarySheet, "A", "A", 34); err != nil {
		return fmt.Errorf("failed to size summary: %w", err)
	}
	return f.SetColWidth(SummarySheet, "B", "B", 24)
}

func writeTimeline(f *excelize.File, timeline []domain.TimelineEntry, loc *time.Location, headerStyle int) error {
	header := make([]interface{}, len(timelineHeaders))
	for i, h := range timelineHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(TimelineSheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write timeline header: %w", err)
	}
	if err := f.SetCellStyle(TimelineSheet, "A1", "E1", headerStyle); err != nil {
		return fmt.Errorf("failed to style timeline: %w", err)
	}

	for i, entry := range timeline {
		row := []interface{}{
			entry.CreatedAt.In(loc).Format("02/01/2006 15:04"),
			entry.LeadName,
			entry.LeadStatus,
			entry.Text,
			strings.Join(entry.Images, "\n"),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(TimelineSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write timeline row: %w", err)
		}
	}

	widths := []float64{18, 28, 26, 60, 40}
	for i, width := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(TimelineSheet, col, col, width); err != nil {
			return fmt.Errorf("failed to size timeline: %w", err)
		}
	}
	return nil
}

func periodLabel(report performance.Report, loc *time.Location) string {
	r := report.Range
	switch {
	case r.From != nil && r.To != nil:
		return fmt.Sprintf("%s a %s", r.From.In(loc).Format("02/01/2006"), r.To.In(loc).Format("02/01/2006"))
	case r.From != nil:
		return "desde " + r.From.In(loc).Format("02/01/2006")
	case r.To != nil:
		return "até " + r.To.In(loc).Format("02/01/2006")
	}
	return "Todo o período"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
