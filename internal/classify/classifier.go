// Package classify holds the classification normalization engine: it turns
// untrusted LLM output into catalog-resolvable (category, request type, SLA)
// triples and drives the per-ticket and batch classification flows.
package classify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/avast/retry-go/v4"

	"ticketbot/internal/domain"
	"ticketbot/internal/match"
)

// Fixed fallback used when no resolution against the catalog is possible.
// The pair does not need to exist in the catalog itself.
const (
	FallbackCategory = "Other/Uncategorized"
	FallbackType     = "General Inquiry/Undefined"
)

// FallbackSLA is substituted when the normalized pair has no catalog SLA.
func FallbackSLA() domain.SLA {
	return domain.NewSLA("hours", 24)
}

const maxAttempts = 3

// Completer is the LLM collaborator: one request/response call returning the
// raw model text for a system+user prompt pair.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Outcome carries per-ticket classification metadata for the audit trail.
type Outcome struct {
	TicketID   string
	Category   string
	Type       string
	Confidence float64
	Reasoning  string
	Fallback   bool
}

// Classifier resolves LLM classifications against one run's catalog. The
// name caches are computed once at construction and never mutated, so a
// Classifier is safe for concurrent use.
type Classifier struct {
	llm     Completer
	catalog domain.Catalog

	categoryNames   []string
	typesByCategory map[string][]string
	allTypes        []string

	// Base retry delay, overridable in tests.
	retryDelay time.Duration
}

func New(llm Completer, cat domain.Catalog) *Classifier {
	c := &Classifier{
		llm:             llm,
		catalog:         cat,
		categoryNames:   cat.CategoryNames(),
		typesByCategory: make(map[string][]string, len(cat.Categories)),
		retryDelay:      2 * time.Second,
	}
	for _, category := range cat.Categories {
		names := category.RequestNames()
		c.typesByCategory[category.Name] = names
		c.allTypes = append(c.allTypes, names...)
	}
	log.Printf("classifier ready categories=%d types=%d", len(c.categoryNames), len(c.allTypes))
	return c
}

// findCategoryForType returns the first category (in catalog order) that
// declares the exact type name.
func (c *Classifier) findCategoryForType(typeName string) (string, bool) {
	for _, category := range c.catalog.Categories {
		for _, name := range c.typesByCategory[category.Name] {
			if name == typeName {
				return category.Name, true
			}
		}
	}
	return "", false
}

// Normalize resolves a raw (category, type) pair from the LLM to a valid
// catalog pair, or the fixed fallback pair. It handles the common failure
// modes of model output: near-miss names, a request type placed in the
// category field, and a type attributed to the wrong category. Type-name
// matches are authoritative over category-name matches when they conflict,
// because type names are more specific.
func (c *Classifier) Normalize(rawCategory, rawType string) (string, string) {
	matchedCategory, ok := match.FindBestMatch(rawCategory, c.categoryNames)

	if !ok {
		// The model may have put a request type in the category field.
		if matchedAsType, ok := match.FindBestMatch(rawCategory, c.allTypes); ok {
			if owner, ok := c.findCategoryForType(matchedAsType); ok {
				log.Printf("classify normalize: category field held type %q, resolved to category %q", rawCategory, owner)
				return owner, matchedAsType
			}
		}
		log.Printf("classify normalize: category %q not found in catalog, using fallback", rawCategory)
		return FallbackCategory, FallbackType
	}

	typeCandidates := c.typesByCategory[matchedCategory]
	matchedType, ok := match.FindBestMatch(rawType, typeCandidates)
	if ok {
		return matchedCategory, matchedType
	}

	// Cross-category search: the type may exist under another category, in
	// which case that category overrides the one matched above.
	if matchedType, ok = match.FindBestMatch(rawType, c.allTypes); ok {
		if owner, found := c.findCategoryForType(matchedType); found && owner != matchedCategory {
			log.Printf("classify normalize: type %q belongs to %q, overriding category %q", matchedType, owner, matchedCategory)
			matchedCategory = owner
		}
		return matchedCategory, matchedType
	}

	log.Printf("classify normalize: type %q not found, using first type of %q", rawType, matchedCategory)
	if len(typeCandidates) == 0 {
		return FallbackCategory, FallbackType
	}
	return matchedCategory, typeCandidates[0]
}

// classifyRequest calls the LLM and parses its reply, retrying any failure
// (network or malformed output alike) with exponential backoff.
func (c *Classifier) classifyRequest(ctx context.Context, ticket domain.Ticket) (domain.ClassificationResult, error) {
	userPrompt := BuildUserPrompt(ticket, c.catalog)

	var result domain.ClassificationResult
	err := retry.Do(
		func() error {
			responseText, err := c.llm.Complete(ctx, SystemPrompt, userPrompt)
			if err != nil {
				return err
			}
			result, err = parseClassificationResponse(responseText)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(maxAttempts),
		retry.Delay(c.retryDelay),
		retry.MaxDelay(10*time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Printf("classify retry ticket=%s attempt=%d err=%v", ticket.ID, n+1, err)
		}),
	)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("failed to classify %s: %w", ticket.ID, err)
	}
	return result, nil
}

// ClassifyAndUpdate classifies one ticket, normalizes the result against the
// catalog, attaches the SLA (or the fixed default on a lookup miss) and
// returns the updated ticket. An error means the LLM call was exhausted;
// the batch loop owns the fallback in that case.
func (c *Classifier) ClassifyAndUpdate(ctx context.Context, ticket domain.Ticket) (domain.Ticket, Outcome, error) {
	result, err := c.classifyRequest(ctx, ticket)
	if err != nil {
		return ticket, Outcome{}, err
	}

	category, requestType := c.Normalize(result.RequestCategory, result.RequestType)

	sla, ok := c.catalog.RequestTypeSLA(category, requestType)
	if !ok {
		log.Printf("classify: no SLA for %s/%s, using default 24h", category, requestType)
		sla = FallbackSLA()
	}

	ticket.ApplyClassification(category, requestType, sla)

	return ticket, Outcome{
		TicketID:   ticket.ID,
		Category:   category,
		Type:       requestType,
		Confidence: result.Confidence,
		Reasoning:  result.Reasoning,
	}, nil
}

// ClassifyBatch processes tickets sequentially, in input order. A ticket
// whose classification fails outright is assigned the fixed fallback triple
// and kept at its original position: the output always has exactly one
// ticket per input ticket. Progress is logged every batchSize tickets.
func (c *Classifier) ClassifyBatch(ctx context.Context, tickets []domain.Ticket, batchSize int) ([]domain.Ticket, []Outcome) {
	if batchSize < 1 {
		batchSize = 5
	}
	total := len(tickets)
	classified := make([]domain.Ticket, 0, total)
	outcomes := make([]Outcome, 0, total)

	log.Printf("classify batch start total=%d", total)

	for i, ticket := range tickets {
		updated, outcome, err := c.ClassifyAndUpdate(ctx, ticket)
		if err != nil {
			log.Printf("classify batch: ticket %s failed, assigning fallback: %v", ticket.ID, err)
			updated = ticket
			updated.ApplyClassification(FallbackCategory, FallbackType, FallbackSLA())
			outcome = Outcome{
				TicketID: ticket.ID,
				Category: FallbackCategory,
				Type:     FallbackType,
				Fallback: true,
			}
		}
		classified = append(classified, updated)
		outcomes = append(outcomes, outcome)

		if (i+1)%batchSize == 0 || i+1 == total {
			log.Printf("classify progress %d/%d", i+1, total)
		}
	}

	log.Printf("classify batch complete processed=%d", len(classified))
	return classified, outcomes
}
