package export

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/joseph-ayodele/vehicle-intake/constants"
	"github.com/joseph-ayodele/vehicle-intake/internal/intake"
)

const (
	SheetExtractions = "Extractions"
	SheetSummary     = "Summary"
)

var extractionHeaders = []string{
	"Photo Path",
	"Field",
	"Value",
	"Confidence",
	"Method",
	"Needs Review",
	"Status",
	"Make",
	"Model",
	"Year",
	"Error",
}

// Service renders intake outcomes as XLSX workbooks.
type Service struct {
	logger *slog.Logger
}

func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// WriteOutcomesXLSX returns a workbook with one row per outcome on the
// Extractions sheet and per-field counts on the Summary sheet.
func (s *Service) WriteOutcomesXLSX(outcomes []intake.Outcome) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			s.logger.Warn("xlsx close failed", "error", err)
		}
	}()
	if err := f.SetSheetName(f.GetSheetName(0), SheetExtractions); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return nil, fmt.Errorf("new sheet: %w", err)
	}
	idx, _ := f.GetSheetIndex(SheetExtractions)
	f.SetActiveSheet(idx)

	if err := writeRow(f, SheetExtractions, 1, toAny(extractionHeaders)); err != nil {
		return nil, err
	}
	for i, o := range outcomes {
		if err := writeRow(f, SheetExtractions, i+2, outcomeRow(o)); err != nil {
			return nil, err
		}
	}

	_ = f.SetColWidth(SheetExtractions, "A", "A", 60) // path
	_ = f.SetColWidth(SheetExtractions, "B", "B", 10) // field
	_ = f.SetColWidth(SheetExtractions, "C", "C", 22) // value
	_ = f.SetColWidth(SheetExtractions, "E", "E", 28) // method
	_ = f.SetColWidth(SheetExtractions, "K", "K", 48) // error

	if err := writeSummary(f, outcomes); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}
	s.logger.Info("export.xlsx.ok",
		"rows", len(outcomes),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func outcomeRow(o intake.Outcome) []any {
	var mk, model, year string
	if o.Vehicle != nil {
		mk, model, year = o.Vehicle.Make, o.Vehicle.Model, o.Vehicle.Year
	}
	errText := o.Error
	if errText == "" {
		errText = o.DecodeError
	}
	return []any{
		o.Path,
		string(o.Field),
		o.Result.Value,
		o.Result.Confidence,
		string(o.Result.Method),
		yesNo(o.NeedsReview),
		string(o.Status),
		mk,
		model,
		year,
		truncate(errText, 140),
	}
}

type fieldSummary struct {
	total, readable, review, failed int
}

func writeSummary(f *excelize.File, outcomes []intake.Outcome) error {
	counts := map[constants.Field]*fieldSummary{}
	for _, fld := range constants.Fields() {
		counts[fld] = &fieldSummary{}
	}
	for _, o := range outcomes {
		c, ok := counts[o.Field]
		if !ok {
			c = &fieldSummary{}
			counts[o.Field] = c
		}
		c.total++
		if o.Result.Success {
			c.readable++
		}
		if o.NeedsReview {
			c.review++
		}
		if o.Status == constants.JobStatusFailed {
			c.failed++
		}
	}

	if err := writeRow(f, SheetSummary, 1, []any{"Field", "Photos", "Readable", "Needs Review", "Failed", "Readable Rate"}); err != nil {
		return err
	}
	fields := make([]string, 0, len(counts))
	for fld := range counts {
		fields = append(fields, string(fld))
	}
	sort.Strings(fields)

	row := 2
	var all fieldSummary
	for _, name := range fields {
		c := counts[constants.Field(name)]
		all.total += c.total
		all.readable += c.readable
		all.review += c.review
		all.failed += c.failed
		if err := writeRow(f, SheetSummary, row, summaryRow(name, *c)); err != nil {
			return err
		}
		row++
	}
	return writeRow(f, SheetSummary, row, summaryRow("TOTAL", all))
}

func summaryRow(name string, c fieldSummary) []any {
	rate := 0.0
	if c.total > 0 {
		rate = float64(c.readable) / float64(c.total)
	}
	return []any{name, c.total, c.readable, c.review, c.failed, rate}
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}
