package classify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ticketbot/internal/domain"
)

func sampleCatalog() domain.Catalog {
	return domain.Catalog{Categories: []domain.Category{
		{
			Name: "Access Management",
			Requests: []domain.CatalogRequest{
				{Name: "Reset forgotten password", SLA: domain.NewSLA("hours", 4)},
				{Name: "Multi-Factor Authentication (MFA) Reset", SLA: domain.NewSLA("hours", 4)},
			},
		},
		{
			Name: "Hardware Support",
			Requests: []domain.CatalogRequest{
				{Name: "Laptop Repair/Replacement", SLA: domain.NewSLA("days", 3)},
				{Name: "Peripheral Request (Mouse/Keyboard/Monitor)", SLA: domain.NewSLA("days", 3)},
			},
		},
		{
			Name: "Software & Licensing",
			Requests: []domain.CatalogRequest{
				{Name: "SaaS Platform Access (Jira/Salesforce)", SLA: domain.NewSLA("hours", 8)},
				{Name: "Software Installation Issue", SLA: domain.NewSLA("hours", 24)},
			},
		},
	}}
}

// fakeCompleter returns canned responses, failing the first failures calls.
type fakeCompleter struct {
	response string
	failures int
	calls    int
}

func (f *fakeCompleter) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	if f.calls <= f.failures {
		return "", errors.New("transient api error")
	}
	return f.response, nil
}

func classification(category, requestType string) string {
	b, _ := json.Marshal(domain.ClassificationResult{
		RequestCategory: category,
		RequestType:     requestType,
		Confidence:      0.9,
		Reasoning:       "test",
	})
	return string(b)
}

func newTestClassifier(llm Completer, cat domain.Catalog) *Classifier {
	c := New(llm, cat)
	c.retryDelay = time.Millisecond
	return c
}

func TestNormalizeExactMatch(t *testing.T) {
	c := newTestClassifier(nil, sampleCatalog())
	cat, typ := c.Normalize("access management", "reset forgotten password")
	if cat != "Access Management" || typ != "Reset forgotten password" {
		t.Fatalf("expected exact resolution, got %q / %q", cat, typ)
	}
}

func TestNormalizeFuzzyNames(t *testing.T) {
	c := newTestClassifier(nil, sampleCatalog())
	cat, typ := c.Normalize("Acces Management", "Reset forgoten password")
	if cat != "Access Management" || typ != "Reset forgotten password" {
		t.Fatalf("expected fuzzy resolution, got %q / %q", cat, typ)
	}
}

func TestNormalizeTypeOverridesCategory(t *testing.T) {
	c := newTestClassifier(nil, sampleCatalog())
	cat, typ := c.Normalize("Hardware Support", "SaaS Platform Access (Jira/Salesforce)")
	if cat != "Software & Licensing" || typ != "SaaS Platform Access (Jira/Salesforce)" {
		t.Fatalf("expected type match to override category, got %q / %q", cat, typ)
	}
}

func TestNormalizeFieldSwapRecovery(t *testing.T) {
	c := newTestClassifier(nil, sampleCatalog())
	cat, typ := c.Normalize("Reset forgotten password", "Some other value")
	if cat != "Access Management" || typ != "Reset forgotten password" {
		t.Fatalf("expected swap recovery, got %q / %q", cat, typ)
	}
}

func TestNormalizeUnknownCategoryFallback(t *testing.T) {
	c := newTestClassifier(nil, sampleCatalog())
	cat, typ := c.Normalize("Completely Unknown Category", "Unknown Type")
	if cat != FallbackCategory || typ != FallbackType {
		t.Fatalf("expected fallback pair, got %q / %q", cat, typ)
	}
}

func TestNormalizeUnknownTypeInKnownCategory(t *testing.T) {
	c := newTestClassifier(nil, sampleCatalog())
	cat, typ := c.Normalize("Access Management", "Completely Unknown Type")
	if cat != "Access Management" || typ != "Reset forgotten password" {
		t.Fatalf("expected first declared type of the category, got %q / %q", cat, typ)
	}
}

func TestNormalizeEmptyCatalog(t *testing.T) {
	c := newTestClassifier(nil, domain.Catalog{})
	cat, typ := c.Normalize("Anything", "At All")
	if cat != FallbackCategory || typ != FallbackType {
		t.Fatalf("expected fallback pair on empty catalog, got %q / %q", cat, typ)
	}
}

func TestNormalizeCategoryWithNoTypes(t *testing.T) {
	c := newTestClassifier(nil, domain.Catalog{Categories: []domain.Category{
		{Name: "Empty Category"},
	}})
	cat, typ := c.Normalize("Empty Category", "Whatever")
	if cat != FallbackCategory || typ != FallbackType {
		t.Fatalf("expected fallback for category without types, got %q / %q", cat, typ)
	}
}

func TestClassifyAndUpdateAttachesSLA(t *testing.T) {
	llm := &fakeCompleter{response: classification("Access Management", "Reset forgotten password")}
	c := newTestClassifier(llm, sampleCatalog())

	ticket := domain.Ticket{ID: "REQ-1", ShortDescription: "Forgot my password", RequesterEmail: "a@b.com"}
	updated, outcome, err := c.ClassifyAndUpdate(context.Background(), ticket)
	if err != nil {
		t.Fatalf("ClassifyAndUpdate failed: %v", err)
	}
	if updated.Category != "Access Management" || updated.RequestType != "Reset forgotten password" {
		t.Fatalf("unexpected classification %q / %q", updated.Category, updated.RequestType)
	}
	if updated.SLA.Unit != "hours" || updated.SLA.Value != 4 {
		t.Fatalf("expected catalog SLA, got %+v", updated.SLA)
	}
	if outcome.Confidence != 0.9 || outcome.Fallback {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestClassifyAndUpdateDefaultSLAOnLookupMiss(t *testing.T) {
	// Unresolvable pair normalizes to the fallback pair, which has no
	// catalog SLA, so the fixed default applies.
	llm := &fakeCompleter{response: classification("Nonsense Category", "Nonsense Type")}
	c := newTestClassifier(llm, sampleCatalog())

	updated, _, err := c.ClassifyAndUpdate(context.Background(), domain.Ticket{ID: "REQ-2"})
	if err != nil {
		t.Fatalf("ClassifyAndUpdate failed: %v", err)
	}
	if updated.Category != FallbackCategory || updated.RequestType != FallbackType {
		t.Fatalf("expected fallback pair, got %q / %q", updated.Category, updated.RequestType)
	}
	if updated.SLA.Unit != "hours" || updated.SLA.Value != 24 {
		t.Fatalf("expected default 24h SLA, got %+v", updated.SLA)
	}
}

func TestClassifyRequestRetriesTransientFailures(t *testing.T) {
	llm := &fakeCompleter{
		response: classification("Access Management", "Reset forgotten password"),
		failures: 2,
	}
	c := newTestClassifier(llm, sampleCatalog())

	_, _, err := c.ClassifyAndUpdate(context.Background(), domain.Ticket{ID: "REQ-3"})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if llm.calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", llm.calls)
	}
}

func TestClassifyRequestExhaustsRetries(t *testing.T) {
	llm := &fakeCompleter{failures: 10}
	c := newTestClassifier(llm, sampleCatalog())

	_, _, err := c.ClassifyAndUpdate(context.Background(), domain.Ticket{ID: "REQ-4"})
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if llm.calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", llm.calls)
	}
}

func TestClassifyRequestRetriesMalformedResponses(t *testing.T) {
	llm := &fakeCompleter{response: "this is not json"}
	c := newTestClassifier(llm, sampleCatalog())

	_, _, err := c.ClassifyAndUpdate(context.Background(), domain.Ticket{ID: "REQ-5"})
	if err == nil {
		t.Fatal("expected error for malformed responses")
	}
	if llm.calls != 3 {
		t.Fatalf("parse failures should be retried, got %d attempts", llm.calls)
	}
}

// batchCompleter fails permanently for ticket ids listed in fail.
type batchCompleter struct {
	fail map[string]bool
}

func (b *batchCompleter) Complete(_ context.Context, _, userPrompt string) (string, error) {
	for id := range b.fail {
		if strings.Contains(userPrompt, fmt.Sprintf("**ID**: %s\n", id)) {
			return "", errors.New("permanent failure")
		}
	}
	return classification("Hardware Support", "Laptop Repair/Replacement"), nil
}

func TestClassifyBatchKeepsCardinalityAndOrder(t *testing.T) {
	llm := &batchCompleter{fail: map[string]bool{"REQ-B": true}}
	c := newTestClassifier(llm, sampleCatalog())

	tickets := []domain.Ticket{
		{ID: "REQ-A", ShortDescription: "Broken laptop"},
		{ID: "REQ-B", ShortDescription: "Will fail"},
		{ID: "REQ-C", ShortDescription: "Broken screen"},
	}
	classified, outcomes := c.ClassifyBatch(context.Background(), tickets, 2)

	if len(classified) != 3 || len(outcomes) != 3 {
		t.Fatalf("expected 3 outputs, got %d tickets %d outcomes", len(classified), len(outcomes))
	}
	for i, want := range []string{"REQ-A", "REQ-B", "REQ-C"} {
		if classified[i].ID != want {
			t.Fatalf("expected input order preserved, got %s at %d", classified[i].ID, i)
		}
	}

	failed := classified[1]
	if failed.Category != FallbackCategory || failed.RequestType != FallbackType {
		t.Fatalf("failed ticket should get fallback pair, got %q / %q", failed.Category, failed.RequestType)
	}
	if failed.SLA.Unit != "hours" || failed.SLA.Value != 24 {
		t.Fatalf("failed ticket should get default SLA, got %+v", failed.SLA)
	}
	if !outcomes[1].Fallback {
		t.Fatal("failed ticket outcome should be marked as fallback")
	}

	ok := classified[0]
	if ok.Category != "Hardware Support" || ok.RequestType != "Laptop Repair/Replacement" {
		t.Fatalf("successful ticket misclassified: %q / %q", ok.Category, ok.RequestType)
	}
}

func TestClassifyBatchEmpty(t *testing.T) {
	c := newTestClassifier(&fakeCompleter{}, sampleCatalog())
	classified, outcomes := c.ClassifyBatch(context.Background(), nil, 5)
	if len(classified) != 0 || len(outcomes) != 0 {
		t.Fatalf("expected empty outputs, got %d/%d", len(classified), len(outcomes))
	}
}

func TestParseClassificationResponseFenced(t *testing.T) {
	fenced := "```json\n" + classification("Security", "Report Phishing Email") + "\n```"
	result, err := parseClassificationResponse(fenced)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if result.RequestCategory != "Security" || result.RequestType != "Report Phishing Email" {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestBuildUserPromptIncludesCatalogAndTicket(t *testing.T) {
	ticket := domain.Ticket{
		ID:               "REQ-9",
		ShortDescription: "Jira is down",
		LongDescription:  "500 error when loading Jira",
		RequesterEmail:   "user@example.com",
	}
	prompt := BuildUserPrompt(ticket, sampleCatalog())

	for _, want := range []string{
		"IT SERVICE CATALOG:",
		"## Category: Software & Licensing",
		"SaaS Platform Access (Jira/Salesforce) (SLA: 8 hours)",
		"**ID**: REQ-9",
		"**Short Description**: Jira is down",
		"**Requester**: user@example.com",
	} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
