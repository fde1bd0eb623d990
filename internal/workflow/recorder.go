package workflow

import (
	"context"
	"time"

	"crm-automation/backend/internal/logging"
	"crm-automation/backend/internal/repository"
	"crm-automation/backend/pkg/models"
)

// Recorder persists execution records and backs the deduplication guard.
// A record is written even when every action failed, so a fully-failed run
// still counts toward deduplication and stays visible for debugging.
type Recorder struct {
	repo   repository.Repository
	logger *logging.Logger
}

// NewRecorder creates a new Recorder.
func NewRecorder(repo repository.Repository, logger *logging.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

// HasAlreadyRun reports whether an execution record exists for the
// (workflow, subject entity, window) tuple. The window is the calendar day
// in the tenant's reference timezone.
func (r *Recorder) HasAlreadyRun(ctx context.Context, tenantID, workflowID, entityID string, windowDate time.Time) (bool, error) {
	return r.repo.HasExecution(ctx, tenantID, workflowID, entityID, windowDate)
}

// Record writes the execution record. It returns false when the ledger's
// unique constraint rejected the insert, meaning a concurrent invocation won
// the race for this window.
func (r *Recorder) Record(ctx context.Context, rec *models.ExecutionRecord) (bool, error) {
	inserted, err := r.repo.InsertExecution(ctx, rec)
	if err != nil {
		return false, err
	}
	if !inserted {
		r.logger.Warn("duplicate workflow execution suppressed by ledger constraint",
			"workflow", rec.WorkflowID, "entity", rec.SubjectEntityID, "window", rec.WindowDate.Format("2006-01-02"))
	}
	return inserted, nil
}
