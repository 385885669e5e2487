package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"ticketbot/internal/config"
)

// RunScheduler blocks and runs the pipeline on the configured cron schedule.
// The schedule is a standard 5-field cron expression (minute hour day-of-month
// month day-of-week), e.g. "0 8 * * 1-5" for weekdays at 8am.
func RunScheduler(ctx context.Context, cfg config.Config, opts RunOptions) error {
	sched, err := parseSchedule(cfg.Schedule)
	if err != nil {
		return err
	}

	log.Printf("scheduler started cron=%q timezone=%s", strings.TrimSpace(cfg.Schedule), cfg.Timezone)

	for {
		next, wait := nextRun(sched, time.Now().In(cfg.Location))
		log.Printf("next run at %s (in %s)", next.Format("Mon Jan 2 15:04"), wait.Round(time.Minute))

		select {
		case <-ctx.Done():
			log.Printf("scheduler stopped: %v", ctx.Err())
			return ctx.Err()
		case <-time.After(wait):
		}

		if _, err := RunPipeline(ctx, cfg, opts); err != nil {
			log.Printf("scheduled run failed: %v", err)
		}
	}
}

func parseSchedule(expr string) (cron.Schedule, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, fmt.Errorf("schedule is not set")
	}
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	sched, err := parser.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule %q: %w", expr, err)
	}
	return sched, nil
}

// nextRun computes the next firing time after now and how long to wait.
func nextRun(sched cron.Schedule, now time.Time) (time.Time, time.Duration) {
	next := sched.Next(now)
	return next, next.Sub(now)
}
