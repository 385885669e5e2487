// Package app wires the full pipeline: fetch tickets and catalog, classify,
// generate the Excel report, then deliver it.
package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"ticketbot/internal/catalog"
	"ticketbot/internal/classify"
	"ticketbot/internal/config"
	"ticketbot/internal/domain"
	"ticketbot/internal/email"
	"ticketbot/internal/fetch"
	"ticketbot/internal/httpx"
	"ticketbot/internal/integrations/llm"
	"ticketbot/internal/integrations/slack"
	"ticketbot/internal/report"
	"ticketbot/internal/storage/sqlite"
)

// RunOptions are per-invocation overrides on top of the loaded config.
type RunOptions struct {
	SkipEmail  bool
	OutputPath string // overrides cfg.ReportPath() when set
	Debug      bool
}

// RunResult summarizes one pipeline run.
type RunResult struct {
	TicketCount   int
	FallbackCount int
	ReportPath    string
	EmailSent     bool
	Duration      time.Duration
}

// RunPipeline executes one end-to-end classification run.
func RunPipeline(ctx context.Context, cfg config.Config, opts RunOptions) (RunResult, error) {
	start := time.Now()
	var result RunResult

	httpx.Configure(cfg.RequestTimeoutSeconds)

	if problems := cfg.Validate(opts.SkipEmail); len(problems) > 0 {
		return result, fmt.Errorf("configuration invalid: %s", strings.Join(problems, "; "))
	}

	// 1. Fetch tickets.
	helpdesk := fetch.NewHelpdeskClient(cfg.HelpdeskWebhookURL, cfg.HelpdeskAPIKey, cfg.HelpdeskAPISecret)
	tickets, err := helpdesk.FetchTickets(ctx)
	if err != nil {
		return result, fmt.Errorf("fetching tickets: %w", err)
	}
	log.Printf("fetched tickets count=%d", len(tickets))
	if len(tickets) == 0 {
		// An empty ticket list still produces (and delivers) a
		// header-only report.
		log.Printf("no tickets to classify, generating empty report")
	}

	// 2. Fetch and parse the service catalog. An unreachable catalog
	// aborts the run; a malformed document parses to an empty catalog.
	raw, err := fetch.NewCatalogClient(cfg.ServiceCatalogURL).FetchRaw(ctx)
	if err != nil {
		return result, fmt.Errorf("fetching catalog: %w", err)
	}
	cat := catalog.Parse(raw)
	log.Printf("catalog loaded categories=%d", len(cat.Categories))

	// 3. Classify.
	completer, err := llm.New(llm.Config{
		Provider:    cfg.LLMProvider,
		Model:       cfg.LLMModel,
		APIKey:      cfg.ProviderAPIKey(),
		BaseURL:     cfg.OpenAIBaseURL,
		Temperature: cfg.LLMTemperature,
		MaxTokens:   cfg.LLMMaxTokens,
	})
	if err != nil {
		return result, fmt.Errorf("creating LLM client: %w", err)
	}

	classifier := classify.New(completer, cat)
	classified, outcomes := classifier.ClassifyBatch(ctx, tickets, cfg.BatchSize)
	result.TicketCount = len(classified)
	for _, o := range outcomes {
		if o.Fallback {
			result.FallbackCount++
		}
	}

	// 4. Audit trail (optional).
	if cfg.DBPath != "" {
		if err := recordRun(cfg, outcomes); err != nil {
			log.Printf("audit trail write failed: %v", err)
		}
	}

	// 5. Report.
	reportPath := cfg.ReportPath()
	if opts.OutputPath != "" {
		reportPath = opts.OutputPath
	}
	if err := report.Generate(classified, reportPath); err != nil {
		return result, fmt.Errorf("generating report: %w", err)
	}
	result.ReportPath = reportPath
	log.Printf("report generated path=%s tickets=%d", reportPath, len(classified))

	// 6. Email.
	if opts.SkipEmail {
		log.Printf("email delivery skipped")
	} else {
		sender := email.NewSender(cfg)
		if err := sender.SendReport(reportPath, len(classified)); err != nil {
			return result, fmt.Errorf("emailing report: %w", err)
		}
		result.EmailSent = true
	}

	// 7. Slack (optional).
	result.Duration = time.Since(start)
	notifier := slack.NewNotifier(cfg.SlackBotToken, cfg.SlackChannelID)
	if notifier.Enabled() {
		if err := notifier.PostSummary(FormatRunSummary(result)); err != nil {
			log.Printf("slack summary failed: %v", err)
		}
		if err := notifier.UploadReport(reportPath, len(classified)); err != nil {
			log.Printf("slack upload failed: %v", err)
		}
	}

	log.Printf("run complete tickets=%d fallbacks=%d duration=%s",
		result.TicketCount, result.FallbackCount, result.Duration.Round(time.Millisecond))
	return result, nil
}

func recordRun(cfg config.Config, outcomes []classify.Outcome) error {
	db, err := sqlite.InitDB(cfg.DBPath)
	if err != nil {
		return err
	}
	defer db.Close()

	records := make([]domain.ClassificationRecord, 0, len(outcomes))
	for _, o := range outcomes {
		records = append(records, domain.ClassificationRecord{
			TicketID:    o.TicketID,
			Category:    o.Category,
			RequestType: o.Type,
			Confidence:  o.Confidence,
			Reasoning:   o.Reasoning,
			LLMProvider: cfg.LLMProvider,
			LLMModel:    cfg.LLMModel,
			Fallback:    o.Fallback,
		})
	}
	return sqlite.InsertClassifications(db, records)
}

// FormatRunSummary renders a one-line run summary for logs and Slack.
func FormatRunSummary(r RunResult) string {
	if r.TicketCount == 0 {
		return "Classification run complete: no tickets to process"
	}
	msg := fmt.Sprintf("Classification run complete: %d tickets processed in %s",
		r.TicketCount, r.Duration.Round(time.Second))
	if r.FallbackCount > 0 {
		msg += fmt.Sprintf(" (%d fell back to Other/Uncategorized)", r.FallbackCount)
	}
	if r.EmailSent {
		msg += ", report emailed"
	}
	return msg
}
