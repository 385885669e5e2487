package domain

import (
	"fmt"
	"strings"
	"time"
)

// SLA is a resolution time budget for a request type. The zero value means
// "not set". Treat as immutable once constructed.
type SLA struct {
	Unit  string `yaml:"unit" json:"unit"`
	Value int    `yaml:"value" json:"value"`
}

// NewSLA normalizes the unit string: anything containing "hour" becomes
// "hours", anything containing "day" becomes "days", everything else is
// passed through lowercased and trimmed (empty allowed).
func NewSLA(unit string, value int) SLA {
	unit = strings.ToLower(strings.TrimSpace(unit))
	if unit != "" && unit != "hours" && unit != "days" {
		switch {
		case strings.Contains(unit, "hour"):
			unit = "hours"
		case strings.Contains(unit, "day"):
			unit = "days"
		}
	}
	return SLA{Unit: unit, Value: value}
}

func (s SLA) IsEmpty() bool {
	return s.Unit == "" || s.Value == 0
}

// Human renders the SLA the way it appears in the LLM catalog context,
// e.g. "4 hours", or "N/A" when no value is set.
func (s SLA) Human() string {
	if s.Value <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%d %s", s.Value, s.Unit)
}

// Ticket is a single helpdesk request. Classification fields (Category,
// RequestType, SLA) arrive empty from the helpdesk and are filled exactly
// once by the classifier.
type Ticket struct {
	ID               string `json:"id"`
	ShortDescription string `json:"short_description"`
	LongDescription  string `json:"long_description"`
	RequesterEmail   string `json:"requester_email"`
	Category         string `json:"request_category"`
	RequestType      string `json:"request_type"`
	SLA              SLA    `json:"sla"`
}

func (t Ticket) NeedsClassification() bool {
	return t.Category == "" || t.RequestType == "" || t.SLA.IsEmpty()
}

// ApplyClassification sets the final triple on an exclusively held ticket.
func (t *Ticket) ApplyClassification(category, requestType string, sla SLA) {
	t.Category = category
	t.RequestType = requestType
	t.SLA = sla
}

// CatalogRequest is a request type within a category.
type CatalogRequest struct {
	Name string
	SLA  SLA
}

// Category groups the request types of one service area. Immutable after
// parse; name is unique within a Catalog (enforced by the parser).
type Category struct {
	Name     string
	Requests []CatalogRequest
}

func (c Category) RequestNames() []string {
	names := make([]string, 0, len(c.Requests))
	for _, req := range c.Requests {
		names = append(names, req.Name)
	}
	return names
}

// FindRequest looks up a request type by name, case-insensitive exact match.
func (c Category) FindRequest(name string) (CatalogRequest, bool) {
	lower := strings.ToLower(name)
	for _, req := range c.Requests {
		if strings.ToLower(req.Name) == lower {
			return req, true
		}
	}
	return CatalogRequest{}, false
}

// Catalog is the full service taxonomy for one pipeline run. It is built
// fresh from the fetched source on each run and never mutated afterwards,
// so it is safe to share read-only across classification calls.
type Catalog struct {
	Categories []Category
}

func (c Catalog) CategoryNames() []string {
	names := make([]string, 0, len(c.Categories))
	for _, cat := range c.Categories {
		names = append(names, cat.Name)
	}
	return names
}

// FindCategory looks up a category by name, case-insensitive exact match
// only; fuzzy resolution happens one level up in the classifier.
func (c Catalog) FindCategory(name string) (Category, bool) {
	lower := strings.ToLower(name)
	for _, cat := range c.Categories {
		if strings.ToLower(cat.Name) == lower {
			return cat, true
		}
	}
	return Category{}, false
}

func (c Catalog) RequestTypeSLA(category, requestType string) (SLA, bool) {
	cat, ok := c.FindCategory(category)
	if !ok {
		return SLA{}, false
	}
	req, ok := cat.FindRequest(requestType)
	if !ok {
		return SLA{}, false
	}
	return req.SLA, true
}

// ClassificationContext renders the catalog as text for the LLM user prompt:
// each category header followed by its request types and human SLA strings.
func (c Catalog) ClassificationContext() string {
	lines := []string{"IT SERVICE CATALOG:\n"}
	for _, cat := range c.Categories {
		lines = append(lines, fmt.Sprintf("\n## Category: %s", cat.Name))
		for _, req := range cat.Requests {
			lines = append(lines, fmt.Sprintf("  - %s (SLA: %s)", req.Name, req.SLA.Human()))
		}
	}
	return strings.Join(lines, "\n")
}

// ClassificationResult is the raw, unvalidated LLM output for one ticket.
// It is consumed immediately by normalization and then discarded.
type ClassificationResult struct {
	RequestCategory string  `json:"request_category"`
	RequestType     string  `json:"request_type"`
	Confidence      float64 `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
}

// ClassificationRecord is one audit trail row.
type ClassificationRecord struct {
	ID           int64
	TicketID     string
	Category     string
	RequestType  string
	Confidence   float64
	Reasoning    string
	LLMProvider  string
	LLMModel     string
	Fallback     bool
	ClassifiedAt time.Time
}

// ClassificationStats aggregates the audit trail. Buckets follow the
// confidence bands the system prompt asks the model to calibrate to.
type ClassificationStats struct {
	Total         int
	Fallbacks     int
	AvgConfidence float64
	BucketBelow50 int
	Bucket50to70  int
	Bucket70to90  int
	Bucket90Plus  int
}
