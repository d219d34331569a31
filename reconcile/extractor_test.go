package reconcile

import "testing"

func TestExtractAliases(t *testing.T) {
	payload, err := DecodePayload([]byte(`{
		"total_amount": "5,050.00",
		"document_number": "DOC-9",
		"invoice_date": "",
		"document_date": "2024-03-01",
		"products": [{"name": "Kiwi Gold"}, {"name": "Apple"}]
	}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	set := Extract(payload)

	if !set.TotalAmount.Valid || set.TotalAmount.Value.String() != "5050" {
		t.Fatalf("total_amount = %#v", set.TotalAmount)
	}
	if set.TotalQuantity.Valid {
		t.Fatalf("total_quantity should be absent, got %s", set.TotalQuantity.Value)
	}
	if set.InvoiceNumber.Value != "DOC-9" {
		t.Fatalf("invoice_number = %#v", set.InvoiceNumber)
	}
	if set.InvoiceDate.Value != "2024-03-01" {
		t.Fatalf("invoice_date should skip blank key, got %#v", set.InvoiceDate)
	}
	if set.ProductName.Value != "Kiwi Gold" {
		t.Fatalf("product_name should fall back to products[0], got %#v", set.ProductName)
	}
}

func TestExtractPrefersDirectProductName(t *testing.T) {
	set := Extract(map[string]any{
		"product_name": "Kiwi",
		"products":     []any{map[string]any{"name": "Other"}},
	})
	if set.ProductName.Value != "Kiwi" {
		t.Fatalf("product_name = %#v", set.ProductName)
	}
}

func TestExtractEmptyPayload(t *testing.T) {
	for _, raw := range []string{"", "null", "{}"} {
		payload, err := DecodePayload([]byte(raw))
		if err != nil {
			t.Fatalf("decode %q: %v", raw, err)
		}
		if set := Extract(payload); set != (ExtractedFieldSet{}) {
			t.Fatalf("payload %q: expected all fields absent, got %#v", raw, set)
		}
	}
	if _, err := DecodePayload([]byte(`[1,2]`)); err == nil {
		t.Fatal("expected error for non-object payload")
	}
}
