package workflow

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"crm-automation/backend/internal/logging"
	"crm-automation/backend/internal/repository"
	"crm-automation/backend/pkg/models"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([a-zA-Z0-9_]+)\s*\}\}`)

// Context carries the workflow run's surroundings into action execution.
type Context struct {
	Tenant   *models.Tenant
	Workflow *models.Workflow
	Now      time.Time
}

// Executor runs a single workflow action against a subject entity.
type Executor struct {
	repo   repository.Repository
	logger *logging.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(repo repository.Repository, logger *logging.Logger) *Executor {
	return &Executor{repo: repo, logger: logger}
}

// Execute performs one action and returns the created artifact id. Each
// action is independent: a failure here is recorded as a warning by the
// caller and does not prevent later actions from running.
func (e *Executor) Execute(ctx context.Context, action *models.WorkflowAction, subj Subject, wctx Context) (string, error) {
	switch action.ActionType {
	case models.ActionCreateTask:
		return e.createTask(ctx, action, subj, wctx)
	default:
		return "", fmt.Errorf("unsupported action type %q", action.ActionType)
	}
}

func (e *Executor) createTask(ctx context.Context, action *models.WorkflowAction, subj Subject, wctx Context) (string, error) {
	tpl, err := e.repo.GetTaskTemplate(ctx, wctx.Tenant.ID, action.TaskTemplateID)
	if err != nil {
		return "", fmt.Errorf("load task template %s: %w", action.TaskTemplateID, err)
	}

	var dueDate *time.Time
	if action.DueOffsetDays != nil && !subj.ReferenceDate.IsZero() {
		d := subj.ReferenceDate.AddDate(0, 0, *action.DueOffsetDays)
		dueDate = &d
	}

	vars := placeholderVars(subj, wctx, dueDate)

	task := &models.Task{
		TenantID:         wctx.Tenant.ID,
		Title:            ResolvePlaceholders(tpl.Title, vars),
		Description:      ResolvePlaceholders(tpl.Description, vars),
		Status:           models.TaskStatusOpen,
		Priority:         tpl.Priority,
		DueDate:          dueDate,
		AssignedToUserID: resolveAssignee(action, tpl),
		WorkflowActionID: &action.ID,
	}
	if subj.Kind == SubjectEvent {
		id := subj.ID
		task.EventID = &id
	}

	if err := e.repo.CreateTask(ctx, task); err != nil {
		return "", fmt.Errorf("create task: %w", err)
	}
	return task.ID, nil
}

// resolveAssignee picks the task assignee: the action's explicit target wins,
// then the template default, else the task stays unassigned.
func resolveAssignee(action *models.WorkflowAction, tpl *models.TaskTemplate) *string {
	if action.AssignedToUserID != nil {
		return action.AssignedToUserID
	}
	if tpl.DefaultAssigneeID != nil {
		return tpl.DefaultAssigneeID
	}
	return nil
}

// placeholderVars builds the substitution set for a subject. Keys not present
// here are left as literal text in the template.
func placeholderVars(subj Subject, wctx Context, dueDate *time.Time) map[string]string {
	vars := map[string]string{
		"tenant_name":   wctx.Tenant.Name,
		"workflow_name": wctx.Workflow.Name,
	}
	switch subj.Kind {
	case SubjectEvent:
		vars["event_title"] = subj.Title
		if !subj.ReferenceDate.IsZero() {
			vars["event_date"] = subj.ReferenceDate.Format("2006-01-02")
		}
	case SubjectTask:
		vars["task_title"] = subj.Title
		vars["task_status"] = subj.Status
		vars["previous_status"] = subj.PreviousStatus
	}
	if dueDate != nil {
		vars["due_date"] = dueDate.Format("2006-01-02")
	}
	return vars
}

// ResolvePlaceholders substitutes {{name}} markers from vars. Unresolved
// placeholders are left as literal text rather than erroring, so a cosmetic
// template issue cannot fail the whole workflow.
func ResolvePlaceholders(s string, vars map[string]string) string {
	return placeholderRe.ReplaceAllStringFunc(s, func(m string) string {
		name := placeholderRe.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		return m
	})
}
