package catalog

import "testing"

const wellFormed = `
service_catalog:
  catalog:
    categories:
      - name: Access Management
        requests:
          - name: Reset forgotten password
            sla:
              unit: hours
              value: 4
      - name: Hardware Support
        requests:
          - name: Laptop Repair/Replacement
            sla:
              unit: days
              value: 3
`

func TestParseNestedPath(t *testing.T) {
	cat := Parse([]byte(wellFormed))
	if len(cat.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(cat.Categories))
	}
	sla, ok := cat.RequestTypeSLA("Access Management", "Reset forgotten password")
	if !ok || sla.Unit != "hours" || sla.Value != 4 {
		t.Fatalf("unexpected SLA %+v ok=%v", sla, ok)
	}
}

func TestParseAlternatePaths(t *testing.T) {
	docs := map[string]string{
		"catalog.categories": `
catalog:
  categories:
    - name: Security
      requests:
        - name: Report Phishing Email
          sla: {unit: hours, value: 1}
`,
		"categories": `
categories:
  - name: Security
    requests:
      - name: Report Phishing Email
        sla: {unit: hours, value: 1}
`,
		"root list": `
- name: Security
  requests:
    - name: Report Phishing Email
      sla: {unit: hours, value: 1}
`,
	}
	for label, doc := range docs {
		cat := Parse([]byte(doc))
		if len(cat.Categories) != 1 || cat.Categories[0].Name != "Security" {
			t.Fatalf("%s: expected single Security category, got %+v", label, cat.Categories)
		}
	}
}

func TestParseEmptyAndInvalid(t *testing.T) {
	if cat := Parse(nil); len(cat.Categories) != 0 {
		t.Fatalf("expected empty catalog for empty input, got %d categories", len(cat.Categories))
	}
	if cat := Parse([]byte("{{{not yaml")); len(cat.Categories) != 0 {
		t.Fatalf("expected empty catalog for invalid input, got %d categories", len(cat.Categories))
	}
	if cat := Parse([]byte("unrelated: {keys: here}")); len(cat.Categories) != 0 {
		t.Fatalf("expected empty catalog when no categories found, got %d categories", len(cat.Categories))
	}
}

func TestParseDuplicateCategoryNames(t *testing.T) {
	doc := `
categories:
  - name: IT
    requests: []
  - name: IT
    requests: []
`
	cat := Parse([]byte(doc))
	if len(cat.Categories) != 2 {
		t.Fatalf("expected both duplicate categories kept, got %d", len(cat.Categories))
	}
	if cat.Categories[0].Name != "IT" || cat.Categories[1].Name != "IT (2)" {
		t.Fatalf("expected disambiguated names, got %q and %q", cat.Categories[0].Name, cat.Categories[1].Name)
	}
}

func TestParseMissingCategoryName(t *testing.T) {
	doc := `
categories:
  - name: Network & Connectivity
    requests: []
  - requests: []
`
	cat := Parse([]byte(doc))
	if len(cat.Categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(cat.Categories))
	}
	if cat.Categories[1].Name != "Unknown Category 2" {
		t.Fatalf("expected synthesized name, got %q", cat.Categories[1].Name)
	}
}

func TestParseSkipsMalformedEntries(t *testing.T) {
	doc := `
categories:
  - just a string, not a mapping
  - name: Hardware Support
    requests:
      - name: Good Request
        sla: {unit: hours, value: 8}
      - name: Bad SLA Value
        sla: {unit: hours, value: soon}
      - also not a mapping
      - name: No SLA At All
`
	cat := Parse([]byte(doc))
	if len(cat.Categories) != 1 {
		t.Fatalf("expected non-mapping category skipped, got %d categories", len(cat.Categories))
	}
	names := cat.Categories[0].RequestNames()
	if len(names) != 2 || names[0] != "Good Request" || names[1] != "No SLA At All" {
		t.Fatalf("expected malformed requests skipped, got %v", names)
	}
	sla := cat.Categories[0].Requests[1].SLA
	if !sla.IsEmpty() {
		t.Fatalf("request without sla should have empty SLA, got %+v", sla)
	}
}

func TestParseNormalizesSLAUnits(t *testing.T) {
	doc := `
categories:
  - name: HR & Onboarding
    requests:
      - name: New Employee Setup
        sla: {unit: Days, value: 2}
`
	cat := Parse([]byte(doc))
	sla := cat.Categories[0].Requests[0].SLA
	if sla.Unit != "days" || sla.Value != 2 {
		t.Fatalf("expected normalized unit days, got %+v", sla)
	}
}
