package workflow

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"crm-automation/backend/internal/repository"
	"crm-automation/backend/pkg/models"
)

// fakeStore is an in-memory Repository for engine tests. Methods the engine
// never touches are inherited from the embedded nil interface and panic if
// called.
type fakeStore struct {
	repository.Repository

	tenants   []*models.Tenant
	workflows map[string][]*models.Workflow       // tenant id -> workflows
	actions   map[string][]*models.WorkflowAction // workflow id -> ordered actions
	templates map[string]*models.TaskTemplate     // template id -> template
	events    map[string][]*models.Event          // tenant id -> events

	tasks      []*models.Task
	executions []*models.ExecutionRecord

	failListWorkflows map[string]error // tenant id -> forced error
	failActions       map[string]bool  // action id -> CreateTask fails
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		workflows:         make(map[string][]*models.Workflow),
		actions:           make(map[string][]*models.WorkflowAction),
		templates:         make(map[string]*models.TaskTemplate),
		events:            make(map[string][]*models.Event),
		failListWorkflows: make(map[string]error),
		failActions:       make(map[string]bool),
	}
}

func (f *fakeStore) ListActiveTenants(ctx context.Context) ([]*models.Tenant, error) {
	return f.tenants, nil
}

func (f *fakeStore) ListActiveWorkflows(ctx context.Context, tenantID string, trigger models.TriggerType) ([]*models.Workflow, error) {
	if err := f.failListWorkflows[tenantID]; err != nil {
		return nil, err
	}
	var out []*models.Workflow
	for _, wf := range f.workflows[tenantID] {
		if wf.Active && wf.TriggerType == trigger {
			out = append(out, wf)
		}
	}
	return out, nil
}

func (f *fakeStore) ListWorkflowActions(ctx context.Context, workflowID string) ([]*models.WorkflowAction, error) {
	return f.actions[workflowID], nil
}

func (f *fakeStore) GetTaskTemplate(ctx context.Context, tenantID, id string) (*models.TaskTemplate, error) {
	tpl, ok := f.templates[id]
	if !ok || tpl.TenantID != tenantID {
		return nil, fmt.Errorf("task template %s not found", id)
	}
	return tpl, nil
}

func (f *fakeStore) ListEventsOnDate(ctx context.Context, tenantID string, day time.Time) ([]*models.Event, error) {
	var out []*models.Event
	for _, ev := range f.events[tenantID] {
		if sameDate(ev.StartDate, day) {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (f *fakeStore) CreateTask(ctx context.Context, task *models.Task) error {
	if task.WorkflowActionID != nil && f.failActions[*task.WorkflowActionID] {
		return fmt.Errorf("simulated insert failure")
	}
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	task.CreatedAt = time.Now().UTC()
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeStore) HasExecution(ctx context.Context, tenantID, workflowID, entityID string, windowDate time.Time) (bool, error) {
	for _, rec := range f.executions {
		if rec.TenantID == tenantID && rec.WorkflowID == workflowID &&
			rec.SubjectEntityID == entityID && sameDate(rec.WindowDate, windowDate) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertExecution(ctx context.Context, rec *models.ExecutionRecord) (bool, error) {
	for _, existing := range f.executions {
		if existing.WorkflowID == rec.WorkflowID && existing.SubjectEntityID == rec.SubjectEntityID &&
			sameDate(existing.WindowDate, rec.WindowDate) {
			return false, nil
		}
	}
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now().UTC()
	f.executions = append(f.executions, rec)
	return true, nil
}

// addWorkflow registers a workflow with one or more actions and returns it.
func (f *fakeStore) addWorkflow(tenantID string, trigger models.TriggerType, cfg map[string]interface{}, actions ...*models.WorkflowAction) *models.Workflow {
	wf := &models.Workflow{
		ID:            uuid.New().String(),
		TenantID:      tenantID,
		Name:          "test workflow",
		TriggerType:   trigger,
		TriggerConfig: cfg,
		Active:        true,
	}
	f.workflows[tenantID] = append(f.workflows[tenantID], wf)
	for i, a := range actions {
		if a.ID == "" {
			a.ID = uuid.New().String()
		}
		a.WorkflowID = wf.ID
		a.Position = i + 1
		f.actions[wf.ID] = append(f.actions[wf.ID], a)
	}
	return wf
}

func (f *fakeStore) addTemplate(tenantID, title, description string) *models.TaskTemplate {
	tpl := &models.TaskTemplate{
		ID:          uuid.New().String(),
		TenantID:    tenantID,
		Title:       title,
		Description: description,
		Priority:    models.TaskPriorityMedium,
	}
	f.templates[tpl.ID] = tpl
	return tpl
}

func (f *fakeStore) addEvent(tenantID, title string, date time.Time, status models.EventStatus) *models.Event {
	ev := &models.Event{
		ID:        uuid.New().String(),
		TenantID:  tenantID,
		Title:     title,
		Status:    status,
		StartDate: date,
	}
	f.events[tenantID] = append(f.events[tenantID], ev)
	return ev
}
