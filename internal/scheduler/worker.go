package scheduler

import (
	"context"
	"fmt"
	"log"

	"github.com/amityadav/researchcrew/internal/config"
	"github.com/amityadav/researchcrew/internal/core"
	"github.com/amityadav/researchcrew/internal/store"
	"github.com/robfig/cron/v3"
)

// ReportRunner executes a research run to completion
type ReportRunner interface {
	RunSync(ctx context.Context, req core.Request) (*store.Run, error)
}

// Worker runs the configured research report on a cron schedule
type Worker struct {
	runner ReportRunner
	report config.ReportConfig
	cron   *cron.Cron
}

// NewWorker creates a new report worker
func NewWorker(runner ReportRunner, report config.ReportConfig) *Worker {
	return &Worker{
		runner: runner,
		report: report,
		cron:   cron.New(),
	}
}

// Start schedules the report. It is a no-op when no schedule is configured.
func (w *Worker) Start() error {
	if !w.report.Enabled() {
		log.Println("[Worker] No report schedule configured")
		return nil
	}

	_, err := w.cron.AddFunc(w.report.Schedule, func() {
		// Run async to not block the scheduler
		go w.RunReport(context.Background())
	})
	if err != nil {
		return fmt.Errorf("invalid REPORT_SCHEDULE %q: %w", w.report.Schedule, err)
	}

	w.cron.Start()
	log.Printf("[Worker] Scheduled report on %q for %s (topic: %q)", w.report.Schedule, w.report.Recipient, w.report.Topic)
	return nil
}

// Stop stops the scheduler and waits for running jobs to be released
func (w *Worker) Stop() {
	<-w.cron.Stop().Done()
	log.Println("[Worker] Stopped")
}

// RunReport runs the configured report once
func (w *Worker) RunReport(ctx context.Context) (*store.Run, error) {
	req := core.Request{
		Topic:      w.report.Topic,
		Recipient:  w.report.Recipient,
		Format:     w.report.Format,
		NumResults: w.report.NumResults,
	}

	log.Printf("[Worker] Running scheduled report: %q", req.Topic)
	run, err := w.runner.RunSync(ctx, req)
	if err != nil {
		log.Printf("[Worker] Scheduled report failed to start: %v", err)
		return nil, err
	}
	log.Printf("[Worker] Scheduled report %s finished with status %s", run.ID, run.Status)
	return run, nil
}
