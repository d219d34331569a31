package reconcile

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// fieldAliases lists, per tracked field, the payload keys the extractor may
// have used for it. The first non-empty key wins.
var fieldAliases = map[Field][]string{
	FieldTotalAmount:   {"total_amount"},
	FieldProductName:   {"product_name"},
	FieldTotalQuantity: {"total_quantity"},
	FieldInvoiceNumber: {"invoice_number", "document_number"},
	FieldInvoiceDate:   {"invoice_date", "document_date"},
}

const (
	productsKey    = "products"
	productNameKey = "name"
)

// DecodePayload decodes a raw AI extraction payload. Numbers are kept as
// json.Number so no precision is lost before decimal coercion.
func DecodePayload(raw []byte) (map[string]any, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode ai payload: %w", err)
	}
	if payload == nil {
		payload = map[string]any{}
	}
	return payload, nil
}

// Extract locates each tracked field in the payload. Missing or uncoercible
// fields are absent; Extract never fails.
func Extract(payload map[string]any) ExtractedFieldSet {
	var set ExtractedFieldSet
	if payload == nil {
		return set
	}

	set.TotalAmount = firstDecimal(payload, fieldAliases[FieldTotalAmount])
	set.TotalQuantity = firstDecimal(payload, fieldAliases[FieldTotalQuantity])
	set.InvoiceNumber = firstText(payload, fieldAliases[FieldInvoiceNumber])
	set.InvoiceDate = firstText(payload, fieldAliases[FieldInvoiceDate])

	set.ProductName = firstText(payload, fieldAliases[FieldProductName])
	if !set.ProductName.Valid {
		set.ProductName = firstProductName(payload)
	}
	return set
}

func firstDecimal(payload map[string]any, keys []string) Optional[decimal.Decimal] {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok {
			continue
		}
		if d := ToDecimal(v); d.Valid {
			return d
		}
	}
	return None[decimal.Decimal]()
}

func firstText(payload map[string]any, keys []string) Optional[string] {
	for _, k := range keys {
		v, ok := payload[k]
		if !ok {
			continue
		}
		if s := ToText(v); s.Valid {
			return s
		}
	}
	return None[string]()
}

// firstProductName reads products[0].name.
func firstProductName(payload map[string]any) Optional[string] {
	products, ok := payload[productsKey].([]any)
	if !ok || len(products) == 0 {
		return None[string]()
	}
	first, ok := products[0].(map[string]any)
	if !ok {
		return None[string]()
	}
	return ToText(first[productNameKey])
}
