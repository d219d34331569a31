package reconcile

// LineItem is one row of the extracted invoice lines.
type LineItem struct {
	Description    string `json:"description"`
	Quantity       string `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	TotalLinePrice string `json:"total_line_price"`
}

// ExtractedSummary is the reviewer-facing view of the analysis_data block.
// Empty strings mean the extractor did not report the value.
type ExtractedSummary struct {
	SupplierName           string     `json:"supplier_name"`
	SupplierVAT            string     `json:"supplier_vat"`
	InvoiceNumber          string     `json:"invoice_number"`
	InvoiceDate            string     `json:"invoice_date"`
	TotalPrice             string     `json:"total_price"`
	Currency               string     `json:"currency"`
	ContainerNumber        string     `json:"container_number"`
	PhytoCertificateNumber string     `json:"phyto_certificate_number"`
	LineItems              []LineItem `json:"line_items"`
}

// Summarize reads payload.analysis_data for display. It is not scored.
func Summarize(payload map[string]any) ExtractedSummary {
	s := ExtractedSummary{LineItems: []LineItem{}}
	data, ok := payload["analysis_data"].(map[string]any)
	if !ok {
		return s
	}
	text := func(m map[string]any, key string) string {
		return ToText(m[key]).Value
	}
	s.SupplierName = text(data, "supplier_name")
	s.SupplierVAT = text(data, "supplier_vat")
	s.InvoiceNumber = text(data, "invoice_number")
	s.InvoiceDate = text(data, "invoice_date")
	s.TotalPrice = text(data, "total_price")
	s.Currency = text(data, "currency")
	s.ContainerNumber = text(data, "container_number")
	s.PhytoCertificateNumber = text(data, "phyto_certificate_number")

	items, _ := data["line_items"].([]any)
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			continue
		}
		s.LineItems = append(s.LineItems, LineItem{
			Description:    text(m, "description"),
			Quantity:       text(m, "quantity"),
			UnitPrice:      text(m, "unit_price"),
			TotalLinePrice: text(m, "total_line_price"),
		})
	}
	return s
}

// DisplayTotal renders the total with its currency, or "" when absent.
func (s ExtractedSummary) DisplayTotal() string {
	if s.TotalPrice == "" {
		return ""
	}
	if s.Currency == "" {
		return s.TotalPrice
	}
	return s.Currency + " " + s.TotalPrice
}
