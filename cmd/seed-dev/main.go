// seed-dev creates a demo order with an extracted commercial invoice and
// prints bearer tokens for its importer, supplier and broker.
//
// Usage (from backend directory):
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/seed-dev
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/kilo/kilo_backend/config"
	"github.com/kilo/kilo_backend/models"
	"github.com/kilo/kilo_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm/clause"
)

const (
	orderID    = "00000000-0000-4000-8000-000000000001"
	invoiceID  = "00000000-0000-4000-8000-000000000002"
	packingID  = "00000000-0000-4000-8000-000000000003"
	importerID = "00000000-0000-4000-8000-0000000000a1"
	supplierID = "00000000-0000-4000-8000-0000000000b1"
	brokerID   = "00000000-0000-4000-8000-0000000000c1"
)

const invoiceAiData = `{
  "invoice_number": "INV-2024-001",
  "invoice_date": "2024-03-01",
  "total_amount": "USD 5,050.00",
  "total_quantity": 2000,
  "products": [{"name": "Kiwi Gold", "quantity": 2000}],
  "found_types": ["commercial_invoice", "packing list"],
  "missing_types": ["phytosanitary", "bill of lading"],
  "analysis_data": {
    "supplier_name": "Zespri Growers Ltd",
    "invoice_number": "INV-2024-001",
    "invoice_date": "2024-03-01",
    "total_price": "5050.00",
    "currency": "USD",
    "line_items": [
      {"description": "Kiwi Gold 3.3kg", "quantity": "2000", "unit_price": "2.525", "total_line_price": "5050.00"}
    ]
  }
}`

func main() {
	ctx := utils.WithoutParticipantScope(context.Background())
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}
	if !config.SkipMigrations() {
		models.MigrateTable()
	}

	quantity := int64(2000)
	broker := brokerID
	order := models.Order{
		ID:            orderID,
		PoNumber:      "PO-DEMO-001",
		Status:        models.OrderStatusOrderConfirmed,
		ProductName:   "Kiwi",
		Variety:       "Gold",
		TotalQuantity: &quantity,
		TotalAmount:   decimal.NewNullDecimal(decimal.NewFromInt(5000)),
		Currency:      "USD",
		SupplierId:    supplierID,
		ImporterId:    importerID,
		BrokerId:      &broker,
	}
	if err := db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&order).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to seed order: %v\n", err)
		os.Exit(1)
	}

	now := time.Now().UTC()
	confidence := 0.93
	docs := []models.Document{
		{
			ID:                invoiceID,
			OrderId:           orderID,
			Category:          models.DocumentCategoryCommercialInvoice,
			FileName:          "commercial-invoice.pdf",
			MimeType:          "application/pdf",
			AiStatus:          models.AiStatusSuccess,
			AiData:            datatypes.JSON(invoiceAiData),
			AiConfidenceScore: &confidence,
			AiProcessedAt:     &now,
			ApprovalStatus:    models.ApprovalStatusPending,
			UploaderId:        supplierID,
			Version:           1,
		},
		{
			ID:             packingID,
			OrderId:        orderID,
			Category:       models.DocumentCategoryPackingList,
			FileName:       "packing-list.pdf",
			MimeType:       "application/pdf",
			AiStatus:       models.AiStatusPending,
			ApprovalStatus: models.ApprovalStatusPending,
			UploaderId:     supplierID,
			Version:        1,
		},
	}
	for i := range docs {
		if err := db.WithContext(ctx).Clauses(clause.OnConflict{UpdateAll: true}).Create(&docs[i]).Error; err != nil {
			fmt.Fprintf(os.Stderr, "failed to seed document %s: %v\n", docs[i].ID, err)
			os.Exit(1)
		}
	}
	fmt.Printf("Seeded order=%s documents=%s,%s\n", orderID, invoiceID, packingID)

	for _, caller := range []struct {
		id   string
		role models.UserRole
	}{
		{importerID, models.UserRoleImporter},
		{supplierID, models.UserRoleSupplier},
		{brokerID, models.UserRoleBroker},
	} {
		token, err := utils.JwtGenerate(caller.id, string(caller.role))
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to sign %s token: %v\n", caller.role, err)
			os.Exit(1)
		}
		fmt.Printf("%s token: %s\n", caller.role, token)
	}
}
