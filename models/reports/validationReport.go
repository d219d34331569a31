package reports

import (
	"fmt"
	"io"

	"github.com/kilo/kilo_backend/models"
	"github.com/kilo/kilo_backend/reconcile"
	"github.com/xuri/excelize/v2"
)

const (
	SummarySheet  = "Summary"
	VerdictsSheet = "Verdicts"

	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	summaryHeadings  = []interface{}{"Document", "Category", "AI Status", "Approval", "Match %", "Checks Matched", "Checks Considered", "Disposition"}
	verdictsHeadings = []interface{}{"Document", "Field", "Order Value", "Extracted Value", "Result", "Delta %"}
)

// ReportFilename is the attachment name for an order's report.
func ReportFilename(order *models.Order) string {
	ref := order.PoNumber
	if ref == "" {
		ref = order.ID
	}
	return fmt.Sprintf("validation-%s.xlsx", ref)
}

// WriteValidationReport renders the stored validation results of an order's
// documents as an xlsx workbook: one summary row per document and one row per
// verdict. Documents never validated appear in the summary only.
func WriteValidationReport(w io.Writer, order *models.Order, docs []models.Document) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(VerdictsSheet); err != nil {
		return err
	}
	if err := f.SetSheetRow(SummarySheet, "A1", &summaryHeadings); err != nil {
		return err
	}
	if err := f.SetSheetRow(VerdictsSheet, "A1", &verdictsHeadings); err != nil {
		return err
	}

	verdictRow := 2
	for i := range docs {
		doc := &docs[i]
		res, ok, err := doc.StoredValidation()
		if err != nil {
			return fmt.Errorf("document %s: %w", doc.ID, err)
		}

		name := doc.FileName
		if name == "" {
			name = doc.ID
		}
		summary := []interface{}{name, string(doc.Category), string(doc.AiStatus), string(doc.ApprovalStatus)}
		if ok {
			summary = append(summary, res.MatchPercentage, res.ChecksMatched, res.ChecksConsidered, res.Disposition.Label())
		} else {
			summary = append(summary, "", "", "", "Not validated")
		}
		if err := setRow(f, SummarySheet, i+2, summary); err != nil {
			return err
		}

		for _, v := range res.Verdicts {
			delta := ""
			if v.DeltaPercent.Valid {
				delta = v.DeltaPercent.Decimal.StringFixed(2)
			}
			row := []interface{}{name, v.Label, v.OrderValue, v.ExtractedValue, outcomeLabel(v.Match), delta}
			if err := setRow(f, VerdictsSheet, verdictRow, row); err != nil {
				return err
			}
			verdictRow++
		}
	}

	if order != nil {
		title := fmt.Sprintf("Order %s", order.PoNumber)
		if err := f.SetDocProps(&excelize.DocProperties{Title: title, Creator: "kilo"}); err != nil {
			return err
		}
	}
	_, err := f.WriteTo(w)
	return err
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}

func outcomeLabel(o reconcile.Outcome) string {
	switch o {
	case reconcile.Matched:
		return "Match"
	case reconcile.Mismatched:
		return "Mismatch"
	default:
		return "Info"
	}
}
