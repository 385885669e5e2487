// ticketbot fetches open helpdesk tickets, classifies them against the IT
// service catalog with an LLM, and delivers a styled Excel report.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"ticketbot/internal/app"
	"ticketbot/internal/config"
	"ticketbot/internal/storage/sqlite"
)

func main() {
	var opts app.RunOptions

	rootCmd := &cobra.Command{
		Use:   "ticketbot",
		Short: "Classify helpdesk tickets against the IT service catalog",
		Long: `ticketbot runs the ticket classification pipeline once: it fetches
open requests from the helpdesk webhook, classifies each against the IT
service catalog using an LLM, writes a formatted Excel report, and emails it
to the configured recipient.

Use "ticketbot schedule" to run it on a cron schedule instead.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if opts.Debug {
				log.SetFlags(log.LstdFlags | log.Lshortfile)
			}
			_, err = app.RunPipeline(signalContext(), cfg, opts)
			return err
		},
	}

	rootCmd.PersistentFlags().BoolVar(&opts.SkipEmail, "skip-email", false, "generate the report but do not email it")
	rootCmd.PersistentFlags().StringVar(&opts.OutputPath, "output", "", "write the report to this path instead of the configured one")
	rootCmd.PersistentFlags().BoolVar(&opts.Debug, "debug", false, "enable verbose logging")

	validateCmd := &cobra.Command{
		Use:   "validate",
		Short: "Check configuration and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if problems := cfg.Validate(opts.SkipEmail); len(problems) > 0 {
				return fmt.Errorf("configuration invalid:\n  - %s", strings.Join(problems, "\n  - "))
			}
			fmt.Println("Configuration OK")
			return nil
		},
	}

	scheduleCmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the pipeline on the configured cron schedule",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			return app.RunScheduler(signalContext(), cfg, opts)
		},
	}

	var sinceDays int
	statsCmd := &cobra.Command{
		Use:   "stats [ticket-id]",
		Short: "Show classification audit trail statistics",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			if cfg.DBPath == "" {
				return fmt.Errorf("db_path is not set, no audit trail to query")
			}
			db, err := sqlite.InitDB(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("opening audit trail: %w", err)
			}
			defer db.Close()

			if len(args) == 1 {
				records, err := sqlite.GetClassificationsByTicket(db, args[0])
				if err != nil {
					return err
				}
				if len(records) == 0 {
					fmt.Printf("No classifications recorded for %s\n", args[0])
					return nil
				}
				for _, r := range records {
					fmt.Printf("%s  %s / %s  confidence=%.2f fallback=%v model=%s\n",
						r.ClassifiedAt.Format("2006-01-02 15:04"),
						r.Category, r.RequestType, r.Confidence, r.Fallback, r.LLMModel)
				}
				return nil
			}

			since := time.Now().AddDate(0, 0, -sinceDays)
			stats, err := sqlite.GetStats(db, since)
			if err != nil {
				return err
			}
			fmt.Printf("Classifications since %s: %d (%d fallbacks)\n",
				since.Format("2006-01-02"), stats.Total, stats.Fallbacks)
			fmt.Printf("Average confidence: %.2f\n", stats.AvgConfidence)
			fmt.Printf("Confidence buckets: <0.50: %d  0.50-0.70: %d  0.70-0.90: %d  >=0.90: %d\n",
				stats.BucketBelow50, stats.Bucket50to70, stats.Bucket70to90, stats.Bucket90Plus)
			return nil
		},
	}
	statsCmd.Flags().IntVar(&sinceDays, "since-days", 30, "how many days of history to aggregate")

	rootCmd.AddCommand(validateCmd, scheduleCmd, statsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func signalContext() context.Context {
	ctx, stop := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-ch
		log.Println("shutdown signal received")
		stop()
	}()
	return ctx
}
