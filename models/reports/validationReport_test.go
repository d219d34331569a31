package reports

import (
	"bytes"
	"testing"

	"github.com/kilo/kilo_backend/models"
	"github.com/kilo/kilo_backend/reconcile"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

func TestWriteValidationReport(t *testing.T) {
	qty := int64(2000)
	order := &models.Order{
		ID:            "order-1",
		PoNumber:      "PO-77",
		ProductName:   "Kiwi",
		TotalQuantity: &qty,
		TotalAmount:   decimal.NewNullDecimal(decimal.NewFromInt(5000)),
	}
	res := reconcile.NewEngine(reconcile.DefaultThresholds()).Validate(order.ReconcileValues(), map[string]any{
		"total_amount":   5050,
		"product_name":   "Kiwi Premium",
		"total_quantity": 2000,
		"invoice_number": "INV-001",
	})
	b, err := res.JSON()
	if err != nil {
		t.Fatal(err)
	}
	docs := []models.Document{
		{ID: "doc-1", FileName: "invoice.pdf", Category: models.DocumentCategoryCommercialInvoice,
			AiStatus: models.AiStatusSuccess, ApprovalStatus: models.ApprovalStatusPending, ValidationResult: datatypes.JSON(b)},
		{ID: "doc-2", FileName: "packing.pdf", Category: models.DocumentCategoryPackingList, AiStatus: models.AiStatusPending},
	}

	var buf bytes.Buffer
	if err := WriteValidationReport(&buf, order, docs); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	summary, err := f.GetRows(SummarySheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(summary) != 3 {
		t.Fatalf("summary rows = %d", len(summary))
	}
	if summary[1][0] != "invoice.pdf" || summary[1][4] != "100" || summary[1][7] != "Auto-approval recommended" {
		t.Fatalf("summary row %v", summary[1])
	}
	if summary[2][7] != "Not validated" {
		t.Fatalf("unvalidated row %v", summary[2])
	}

	verdicts, err := f.GetRows(VerdictsSheet)
	if err != nil {
		t.Fatal(err)
	}
	if len(verdicts) != 5 {
		t.Fatalf("verdict rows = %d", len(verdicts))
	}
	if verdicts[1][1] != "Total Amount" || verdicts[1][4] != "Match" || verdicts[1][5] != "1.00" {
		t.Fatalf("amount row %v", verdicts[1])
	}
	if verdicts[4][4] != "Info" {
		t.Fatalf("invoice row %v", verdicts[4])
	}
}

func TestReportFilename(t *testing.T) {
	if got := ReportFilename(&models.Order{ID: "o-1"}); got != "validation-o-1.xlsx" {
		t.Fatalf("got %s", got)
	}
	if got := ReportFilename(&models.Order{ID: "o-1", PoNumber: "PO-9"}); got != "validation-PO-9.xlsx" {
		t.Fatalf("got %s", got)
	}
}
