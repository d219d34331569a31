package reconcile

import "testing"

func kind(t *testing.T, key string) DocumentKind {
	t.Helper()
	for _, k := range Checklist {
		if k.Key == key {
			return k
		}
	}
	t.Fatalf("unknown kind %s", key)
	return DocumentKind{}
}

func TestBillOfLadingAliases(t *testing.T) {
	bol := kind(t, "bill_of_lading")
	for _, s := range []string{"bill_of_lading", "Bill of Lading", "Sea WAYBILL", "BOL", "ocean_bol"} {
		if !bol.Matches(s) {
			t.Fatalf("%q should match bill_of_lading", s)
		}
	}
	for _, s := range []string{"invoice", "packing list", ""} {
		if bol.Matches(s) {
			t.Fatalf("%q should not match bill_of_lading", s)
		}
	}
}

func TestCheckDocumentTypes(t *testing.T) {
	items := CheckDocumentTypes(
		[]string{"Commercial Invoice", "phyto certificate"},
		[]string{"packing_list", "invoice"},
	)
	if len(items) != len(Checklist) {
		t.Fatalf("got %d items", len(items))
	}
	want := map[string][2]bool{
		"commercial_invoice":        {true, false},
		"packing_list":              {false, true},
		"bill_of_lading":            {false, false},
		"phytosanitary_certificate": {true, false},
		"eur1_certificate":          {false, false},
	}
	for _, it := range items {
		w := want[it.Key]
		if it.Found != w[0] || it.ReportedMissing != w[1] {
			t.Fatalf("%s: found=%v missing=%v, want %v", it.Key, it.Found, it.ReportedMissing, w)
		}
	}
}

func TestDocumentTypesFromPayload(t *testing.T) {
	payload, err := DecodePayload([]byte(`{"found_types": ["EUR.1", 3, "certificate of origin"], "missing_types": "bad"}`))
	if err != nil {
		t.Fatal(err)
	}
	found, missing := DocumentTypesFromPayload(payload)
	if len(found) != 2 || missing != nil {
		t.Fatalf("found=%v missing=%v", found, missing)
	}
	items := CheckDocumentTypes(found, missing)
	if !items[4].Found {
		t.Fatalf("eur1 should be found: %#v", items[4])
	}
}
