// Package scheduler exposes the externally-invoked entry point that feeds
// time-based triggers through the workflow engine for every tenant.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"crm-automation/backend/internal/logging"
	"crm-automation/backend/internal/workflow"
	"crm-automation/backend/pkg/models"
)

// TenantLister loads the tenants a scheduler pass iterates over.
type TenantLister interface {
	ListActiveTenants(ctx context.Context) ([]*models.Tenant, error)
}

// TriggerRunner processes one tenant's date-based triggers.
type TriggerRunner interface {
	RunDateTriggers(ctx context.Context, tenant *models.Tenant, now time.Time) (workflow.TenantResult, error)
}

// Runner drives a full scheduler pass. Tenants are processed sequentially
// and independently: a failure in one tenant is appended to the summary's
// error list and processing continues with the next.
type Runner struct {
	tenants TenantLister
	engine  TriggerRunner
	logger  *logging.Logger

	triggersEvaluated metric.Int64Counter
	workflowsExecuted metric.Int64Counter
	eventsProcessed   metric.Int64Counter
}

// NewRunner creates a new Runner.
func NewRunner(tenants TenantLister, engine TriggerRunner, logger *logging.Logger) *Runner {
	meter := otel.Meter("crm-automation/backend/internal/scheduler")
	triggers, _ := meter.Int64Counter("workflow_triggers_evaluated",
		metric.WithDescription("Trigger conditions evaluated per scheduler pass"))
	executed, _ := meter.Int64Counter("workflow_runs_executed",
		metric.WithDescription("Workflow runs that passed matching and deduplication"))
	events, _ := meter.Int64Counter("workflow_events_processed",
		metric.WithDescription("Candidate subject entities examined"))
	return &Runner{
		tenants:           tenants,
		engine:            engine,
		logger:            logger,
		triggersEvaluated: triggers,
		workflowsExecuted: executed,
		eventsProcessed:   events,
	}
}

// Run performs one scheduler pass as of now. It returns an error only for
// the fatal case where the tenant list itself cannot be loaded; everything
// below that boundary is captured in the summary.
func (r *Runner) Run(ctx context.Context, now time.Time) (models.RunSummary, error) {
	start := time.Now()
	summary := models.RunSummary{
		Errors:  []string{},
		Tenants: []string{},
	}

	tenants, err := r.tenants.ListActiveTenants(ctx)
	if err != nil {
		return summary, fmt.Errorf("list tenants: %w", err)
	}

	for _, tenant := range tenants {
		res, err := r.engine.RunDateTriggers(ctx, tenant, now)
		summary.TriggersProcessed += res.TriggersProcessed
		summary.WorkflowsExecuted += res.WorkflowsExecuted
		summary.EventsProcessed += res.EventsProcessed

		attrs := metric.WithAttributes(attribute.String("tenant", tenant.Name))
		r.triggersEvaluated.Add(ctx, int64(res.TriggersProcessed), attrs)
		r.workflowsExecuted.Add(ctx, int64(res.WorkflowsExecuted), attrs)
		r.eventsProcessed.Add(ctx, int64(res.EventsProcessed), attrs)

		if err != nil {
			r.logger.Error("tenant processing failed", "tenant", tenant.Name, "error", err)
			summary.Errors = append(summary.Errors, fmt.Sprintf("[%s] %v", tenant.Name, err))
			continue
		}
		summary.Tenants = append(summary.Tenants, tenant.Name)
		r.logger.Info("tenant processed",
			"tenant", tenant.Name,
			"triggers", res.TriggersProcessed,
			"executed", res.WorkflowsExecuted,
			"events", res.EventsProcessed)
	}

	summary.Success = len(summary.Errors) == 0
	summary.Duration = time.Since(start).String()
	return summary, nil
}
