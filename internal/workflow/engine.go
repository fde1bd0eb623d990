package workflow

import (
	"context"
	"fmt"
	"sort"
	"time"

	"crm-automation/backend/internal/logging"
	"crm-automation/backend/internal/repository"
	"crm-automation/backend/pkg/models"
)

// TenantResult summarizes one tenant's processing pass.
type TenantResult struct {
	TriggersProcessed int
	WorkflowsExecuted int
	EventsProcessed   int
}

// Engine ties the matcher, deduplication guard, executor and recorder into
// the per-tenant pipeline. All work within one tenant is sequential; callers
// isolate tenant failures from each other.
type Engine struct {
	repo     repository.Repository
	executor *Executor
	recorder *Recorder
	logger   *logging.Logger
}

// NewEngine creates a new Engine.
func NewEngine(repo repository.Repository, logger *logging.Logger) *Engine {
	return &Engine{
		repo:     repo,
		executor: NewExecutor(repo, logger),
		recorder: NewRecorder(repo, logger),
		logger:   logger,
	}
}

// RunDateTriggers processes every event_date_approaching workflow for one
// tenant: for each distinct configured offset it loads the events falling on
// today + offset and runs the matcher/guard/executor/recorder pipeline for
// every (event, workflow) pair.
func (e *Engine) RunDateTriggers(ctx context.Context, tenant *models.Tenant, now time.Time) (TenantResult, error) {
	var res TenantResult
	loc := tenant.Location()

	workflows, err := e.repo.ListActiveWorkflows(ctx, tenant.ID, models.TriggerEventDateApproaching)
	if err != nil {
		return res, fmt.Errorf("list workflows: %w", err)
	}

	type candidate struct {
		wf  *models.Workflow
		cfg TriggerConfig
	}
	byOffset := make(map[int][]candidate)
	for _, wf := range workflows {
		cfg, err := ParseTriggerConfig(wf.TriggerType, wf.TriggerConfig)
		if err != nil {
			// Configuration errors are skips, not failures.
			e.logger.Debug("skipping workflow with malformed trigger config",
				"workflow", wf.ID, "error", err)
			continue
		}
		byOffset[cfg.DaysBefore] = append(byOffset[cfg.DaysBefore], candidate{wf: wf, cfg: cfg})
	}

	offsets := make([]int, 0, len(byOffset))
	for off := range byOffset {
		offsets = append(offsets, off)
	}
	sort.Ints(offsets)

	today := CalendarDay(now, loc)
	for _, off := range offsets {
		events, err := e.repo.ListEventsOnDate(ctx, tenant.ID, today.AddDate(0, 0, off))
		if err != nil {
			return res, fmt.Errorf("list events at offset %d: %w", off, err)
		}
		for _, ev := range events {
			res.EventsProcessed++
			subj := SubjectFromEvent(ev)
			for _, c := range byOffset[off] {
				res.TriggersProcessed++
				if !Match(c.wf, c.cfg, subj, now, loc) {
					continue
				}
				executed, err := e.runWorkflow(ctx, tenant, c.wf, subj, today, now)
				if err != nil {
					// Per-entity failures must not abort sibling entities.
					e.logger.Warn("workflow run failed",
						"tenant", tenant.ID, "workflow", c.wf.ID, "entity", subj.ID, "error", err)
					continue
				}
				if executed {
					res.WorkflowsExecuted++
				}
			}
		}
	}
	return res, nil
}

// HandleTaskStatusChanged is the domain-event entry point for the
// task_status_changed trigger. The previous status must be read before the
// update was applied; the matcher itself is stateless.
func (e *Engine) HandleTaskStatusChanged(ctx context.Context, tenant *models.Tenant, task *models.Task, previous models.TaskStatus, now time.Time) error {
	loc := tenant.Location()
	workflows, err := e.repo.ListActiveWorkflows(ctx, tenant.ID, models.TriggerTaskStatusChanged)
	if err != nil {
		return fmt.Errorf("list workflows: %w", err)
	}

	subj := SubjectFromTask(task, previous)
	today := CalendarDay(now, loc)
	for _, wf := range workflows {
		cfg, err := ParseTriggerConfig(wf.TriggerType, wf.TriggerConfig)
		if err != nil {
			e.logger.Debug("skipping workflow with malformed trigger config",
				"workflow", wf.ID, "error", err)
			continue
		}
		if !Match(wf, cfg, subj, now, loc) {
			continue
		}
		if _, err := e.runWorkflow(ctx, tenant, wf, subj, today, now); err != nil {
			e.logger.Warn("workflow run failed",
				"tenant", tenant.ID, "workflow", wf.ID, "entity", subj.ID, "error", err)
		}
	}
	return nil
}

// runWorkflow executes one matched (workflow, subject) pair: dedup check,
// ordered action execution with partial-failure semantics, then the ledger
// write. It returns whether the workflow actually executed.
func (e *Engine) runWorkflow(ctx context.Context, tenant *models.Tenant, wf *models.Workflow, subj Subject, windowDate, now time.Time) (bool, error) {
	already, err := e.recorder.HasAlreadyRun(ctx, tenant.ID, wf.ID, subj.ID, windowDate)
	if err != nil {
		return false, fmt.Errorf("dedup lookup: %w", err)
	}
	if already {
		e.logger.Debug("workflow already ran in window",
			"workflow", wf.ID, "entity", subj.ID, "window", windowDate.Format("2006-01-02"))
		return false, nil
	}

	actions, err := e.repo.ListWorkflowActions(ctx, wf.ID)
	if err != nil {
		return false, fmt.Errorf("list actions: %w", err)
	}

	wctx := Context{Tenant: tenant, Workflow: wf, Now: now}
	artifacts := []string{}
	warnings := []string{}
	for _, action := range actions {
		artifactID, err := e.executor.Execute(ctx, action, subj, wctx)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("action %d: %v", action.Position, err))
			continue
		}
		artifacts = append(artifacts, artifactID)
	}

	// A record is written even when all actions failed; the run still counts
	// toward deduplication and the warnings stay visible for debugging.
	inserted, err := e.recorder.Record(ctx, &models.ExecutionRecord{
		TenantID:        tenant.ID,
		WorkflowID:      wf.ID,
		SubjectEntityID: subj.ID,
		WindowDate:      windowDate,
		ArtifactIDs:     artifacts,
		Warnings:        warnings,
	})
	if err != nil {
		return true, fmt.Errorf("record execution: %w", err)
	}
	if !inserted {
		// A concurrent invocation recorded this window first. The actions
		// above already ran; the conflict is surfaced in the logs.
		return false, nil
	}
	return true, nil
}
