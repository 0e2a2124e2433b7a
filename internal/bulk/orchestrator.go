// Package bulk runs multi-site deployments one item at a time and narrates
// their progress into the console tracker.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/charliek/woconsole/internal/constants"
	"github.com/charliek/woconsole/internal/domain"
)

const (
	genericFailure  = "deployment failed"
	cancelledLabel  = "cancelled"
	invalidDetail   = "Invalid domain format"
	duplicateDetail = "Duplicate domain"
)

// Executor performs the network call for one item
type Executor interface {
	CreateSite(ctx context.Context, req domain.SiteRequest) error
}

// Reporter receives progress. *console.Tracker implements it.
type Reporter interface {
	Start(name string) string
	Log(message string, category domain.Category) error
	Complete(outcome domain.ProcessStatus) error
}

// Config is the per-item configuration shared by every domain in a run
type Config struct {
	PHPVersion string
	Features   []string
	Plugins    []string
	TenantID   *int
}

func (c Config) request(item string) domain.SiteRequest {
	php := c.PHPVersion
	if php == "" {
		php = constants.DefaultPHPVersion
	}
	return domain.SiteRequest{
		Domain:     item,
		PHPVersion: php,
		Features:   c.Features,
		Plugins:    c.Plugins,
		TenantID:   c.TenantID,
	}
}

// Report is the outcome of one run
type Report struct {
	JobID     string
	Results   []domain.BulkResult
	Succeeded int
	Total     int
	Status    domain.ProcessStatus
}

// Failed returns the results that did not succeed
func (r *Report) Failed() []domain.BulkResult {
	var out []domain.BulkResult
	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}

// Orchestrator executes bulk runs strictly sequentially
type Orchestrator struct {
	exec     Executor
	reporter Reporter
	logger   *slog.Logger
}

// NewOrchestrator creates an orchestrator
func NewOrchestrator(exec Executor, reporter Reporter, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{exec: exec, reporter: reporter, logger: logger}
}

// Run deploys every item in order. Item i+1 starts only after item i's
// call has returned. Per-item failures are recorded and never abort the
// batch; a malformed or repeated domain fails on its own without a call.
// Only an empty list is rejected before the reporter is touched.
//
// Cancelling ctx stops scheduling; items not yet started are recorded as
// failed with detail "cancelled".
func (o *Orchestrator) Run(ctx context.Context, items []string, cfg Config) (*Report, error) {
	if err := ValidateItems(items); err != nil {
		return nil, err
	}

	total := len(items)
	report := &Report{
		JobID:   o.reporter.Start(fmt.Sprintf("Bulk deploy (%d sites)", total)),
		Results: make([]domain.BulkResult, 0, total),
		Total:   total,
	}
	log := o.logger.With("job", report.JobID)
	log.Info("bulk deploy started", "sites", total)

	seen := make(map[string]bool, total)

	for i, item := range items {
		if ctx.Err() != nil {
			o.cancelRemaining(report, items[i:])
			log.Warn("bulk deploy cancelled", "skipped", total-i)
			break
		}

		if err := checkItem(item, seen); err != nil {
			detail := itemDetail(err)
			report.Results = append(report.Results, domain.BulkResult{Input: item, ErrorDetail: detail})
			o.logf(domain.CategoryError, "[%d/%d] %s skipped: %s", i+1, total, item, detail)
			log.Warn("site skipped", "domain", item, "error", err)
			continue
		}

		o.logf(domain.CategoryRunning, "[%d/%d] processing %s…", i+1, total, item)

		err := o.exec.CreateSite(ctx, cfg.request(item))
		if err == nil {
			report.Succeeded++
			report.Results = append(report.Results, domain.BulkResult{Input: item, Success: true})
			o.logf(domain.CategorySuccess, "%s deployed", item)
			log.Info("site deployed", "domain", item)
			continue
		}

		detail := failureDetail(ctx, err)
		report.Results = append(report.Results, domain.BulkResult{Input: item, ErrorDetail: detail})
		o.logf(domain.CategoryError, "%s failed: %s", item, detail)
		log.Warn("site deployment failed", "domain", item, "error", err)
	}

	category := domain.CategorySuccess
	report.Status = domain.ProcessStatusSuccess
	if report.Succeeded != total {
		category = domain.CategoryError
		report.Status = domain.ProcessStatusError
	}
	o.logf(category, "Deployed %d/%d sites", report.Succeeded, total)

	if err := o.reporter.Complete(report.Status); err != nil {
		log.Warn("completing console process", "error", err)
	}
	log.Info("bulk deploy finished", "succeeded", report.Succeeded, "total", total, "status", report.Status)

	return report, nil
}

func (o *Orchestrator) cancelRemaining(report *Report, rest []string) {
	for _, item := range rest {
		report.Results = append(report.Results, domain.BulkResult{Input: item, ErrorDetail: cancelledLabel})
	}
	o.logf(domain.CategoryError, "Cancelled, %d remaining sites skipped", len(rest))
}

func (o *Orchestrator) logf(category domain.Category, format string, args ...any) {
	if err := o.reporter.Log(fmt.Sprintf(format, args...), category); err != nil {
		o.logger.Warn("console log", "error", err)
	}
}

// failureDetail returns the server-reported detail if there is one
func failureDetail(ctx context.Context, err error) string {
	var d interface{ Detail() string }
	if errors.As(err, &d) && d.Detail() != "" {
		return d.Detail()
	}
	if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
		return cancelledLabel
	}
	return genericFailure
}
