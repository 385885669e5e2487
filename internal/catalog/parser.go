// Package catalog parses the semi-structured service catalog document into
// the in-memory model. Parsing never fails: malformed input degrades to a
// smaller (possibly empty) catalog with diagnostics logged.
package catalog

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"ticketbot/internal/domain"
)

// Parse converts a raw catalog document into a Catalog. The categories list
// is located by trying a fixed set of traversal paths, so the source can
// restructure its wrapper keys between runs without breaking the pipeline.
func Parse(data []byte) domain.Catalog {
	var root any
	if err := yaml.Unmarshal(data, &root); err != nil {
		log.Printf("catalog parse: invalid document, using empty catalog: %v", err)
		return domain.Catalog{}
	}
	if root == nil {
		log.Println("catalog parse: empty document, using empty catalog")
		return domain.Catalog{}
	}

	entries := findCategories(root)
	if len(entries) == 0 {
		log.Println("catalog parse: could not find categories, using empty catalog")
		return domain.Catalog{}
	}

	var categories []domain.Category
	seen := make(map[string]bool)

	for idx, entry := range entries {
		raw, ok := entry.(map[string]any)
		if !ok {
			log.Printf("catalog parse: skipping malformed category entry at index %d", idx)
			continue
		}

		name := strings.TrimSpace(stringify(raw["name"]))
		if name == "" {
			name = fmt.Sprintf("Unknown Category %d", idx+1)
			log.Printf("catalog parse: category at index %d has no name, assigned %q", idx, name)
		} else if seen[name] {
			original := name
			name = fmt.Sprintf("%s (%d)", name, idx+1)
			log.Printf("catalog parse: duplicate category name %q, renamed to %q", original, name)
		}
		seen[name] = true

		categories = append(categories, domain.Category{
			Name:     name,
			Requests: parseRequests(raw["requests"]),
		})
	}

	totalTypes := 0
	for _, cat := range categories {
		totalTypes += len(cat.Requests)
	}
	log.Printf("catalog parse: %d categories, %d request types", len(categories), totalTypes)

	return domain.Catalog{Categories: categories}
}

// findCategories tries, in order: service_catalog.catalog.categories,
// catalog.categories, categories, and finally the root itself as a list.
// The first path yielding a non-empty sequence wins.
func findCategories(root any) []any {
	paths := [][]string{
		{"service_catalog", "catalog", "categories"},
		{"catalog", "categories"},
		{"categories"},
		nil,
	}
	for _, path := range paths {
		if seq := sequenceAt(root, path); len(seq) > 0 {
			return seq
		}
	}
	return nil
}

func sequenceAt(node any, path []string) []any {
	for _, key := range path {
		m, ok := node.(map[string]any)
		if !ok {
			return nil
		}
		node = m[key]
	}
	seq, _ := node.([]any)
	return seq
}

func parseRequests(raw any) []domain.CatalogRequest {
	entries, _ := raw.([]any)

	var requests []domain.CatalogRequest
	for _, entry := range entries {
		req, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		slaData, ok := req["sla"].(map[string]any)
		if !ok {
			slaData = map[string]any{}
		}
		value, err := coerceInt(slaData["value"])
		if err != nil || value < 0 {
			log.Printf("catalog parse: skipping malformed request entry: bad sla value %v", slaData["value"])
			continue
		}

		name := stringify(req["name"])
		if name == "" {
			name = "Unknown"
		}

		requests = append(requests, domain.CatalogRequest{
			Name: name,
			SLA:  domain.NewSLA(stringify(slaData["unit"]), value),
		})
	}
	return requests
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// coerceInt accepts the numeric shapes a loose YAML source can produce.
// Missing values default to zero; anything non-numeric is an error so the
// caller can skip the whole entry.
func coerceInt(v any) (int, error) {
	switch x := v.(type) {
	case nil:
		return 0, nil
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case uint64:
		return int(x), nil
	case float64:
		return int(x), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return 0, fmt.Errorf("not an integer: %q", x)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("unsupported value type %T", v)
	}
}
