package reconcile

import "strings"

// DocumentKind is one entry of the expected shipping-document checklist.
type DocumentKind struct {
	Key     string
	Label   string
	Aliases []string
}

// Checklist is matched in this order.
var Checklist = []DocumentKind{
	{Key: "commercial_invoice", Label: "Commercial Invoice", Aliases: []string{"invoice", "commercial"}},
	{Key: "packing_list", Label: "Packing List", Aliases: []string{"packing"}},
	{Key: "bill_of_lading", Label: "Bill of Lading", Aliases: []string{"lading", "waybill", "bol"}},
	{Key: "phytosanitary_certificate", Label: "Phytosanitary Certificate", Aliases: []string{"phyto", "phytosanitary"}},
	{Key: "eur1_certificate", Label: "EUR1 Certificate", Aliases: []string{"eur1", "eur.1", "certificate of origin", "origin"}},
}

type ChecklistItem struct {
	Key             string `json:"key"`
	Label           string `json:"label"`
	Found           bool   `json:"found"`
	ReportedMissing bool   `json:"reported_missing"`
}

// Matches reports whether a reported type names this kind: exact key, or
// containing any alias, case-insensitively.
func (k DocumentKind) Matches(reported string) bool {
	t := strings.ToLower(strings.TrimSpace(reported))
	if t == "" {
		return false
	}
	if t == k.Key {
		return true
	}
	for _, a := range k.Aliases {
		if strings.Contains(t, strings.ToLower(a)) {
			return true
		}
	}
	return false
}

func (k DocumentKind) matchesAny(types []string) bool {
	for _, t := range types {
		if k.Matches(t) {
			return true
		}
	}
	return false
}

// CheckDocumentTypes resolves presence per checklist kind from the type
// strings reported by the extractor.
func CheckDocumentTypes(found, missing []string) []ChecklistItem {
	items := make([]ChecklistItem, 0, len(Checklist))
	for _, k := range Checklist {
		isFound := k.matchesAny(found)
		items = append(items, ChecklistItem{
			Key:             k.Key,
			Label:           k.Label,
			Found:           isFound,
			ReportedMissing: !isFound && k.matchesAny(missing),
		})
	}
	return items
}

// DocumentTypesFromPayload reads the found_types and missing_types arrays.
// Non-string entries are skipped.
func DocumentTypesFromPayload(payload map[string]any) (found, missing []string) {
	return stringList(payload["found_types"]), stringList(payload["missing_types"])
}

func stringList(v any) []string {
	list, ok := v.([]any)
	if !ok {
		if ss, ok := v.([]string); ok {
			return ss
		}
		return nil
	}
	out := make([]string, 0, len(list))
	for _, item := range list {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
