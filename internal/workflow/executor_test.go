package workflow

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-automation/backend/internal/logging"
	"crm-automation/backend/pkg/models"
)

func TestResolvePlaceholders(t *testing.T) {
	vars := map[string]string{
		"event_title": "Spring Gala",
		"due_date":    "2026-05-03",
	}

	tests := []struct {
		in   string
		want string
	}{
		{"Confirm setup for {{event_title}}", "Confirm setup for Spring Gala"},
		{"Due {{ due_date }}", "Due 2026-05-03"},
		{"No placeholders here", "No placeholders here"},
		// Unresolved placeholders stay literal instead of erroring.
		{"Hello {{unknown_field}}", "Hello {{unknown_field}}"},
		{"{{event_title}} / {{event_title}}", "Spring Gala / Spring Gala"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ResolvePlaceholders(tt.in, vars))
	}
}

func TestExecuteCreateTask(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	assignee := "user-42"
	templateAssignee := "user-7"
	tpl := store.addTemplate("t1", "Prep {{event_title}}", "Venue walkthrough before {{due_date}} for {{tenant_name}}.")
	tpl.DefaultAssigneeID = &templateAssignee

	offset := -2
	action := &models.WorkflowAction{
		ID:               "a1",
		ActionType:       models.ActionCreateTask,
		TaskTemplateID:   tpl.ID,
		AssignedToUserID: &assignee,
		DueOffsetDays:    &offset,
		Position:         1,
	}

	event := store.addEvent("t1", "Spring Gala", dateUTC(2026, 5, 4), models.EventStatusScheduled)
	wctx := Context{
		Tenant:   testTenant("t1", "Acme"),
		Workflow: &models.Workflow{ID: "w1", Name: "Event prep"},
		Now:      time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC),
	}

	exec := NewExecutor(store, logging.NewLogger())
	artifactID, err := exec.Execute(ctx, action, SubjectFromEvent(event), wctx)
	require.NoError(t, err)

	require.Len(t, store.tasks, 1)
	task := store.tasks[0]
	assert.Equal(t, artifactID, task.ID)
	assert.Equal(t, "Prep Spring Gala", task.Title)
	assert.Equal(t, "Venue walkthrough before 2026-05-02 for Acme.", task.Description)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, dateUTC(2026, 5, 2), *task.DueDate)
	// Explicit action assignment wins over the template default.
	require.NotNil(t, task.AssignedToUserID)
	assert.Equal(t, assignee, *task.AssignedToUserID)
	assert.Equal(t, models.TaskStatusOpen, task.Status)
}

func TestExecuteAssignmentFallsBackToTemplate(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	templateAssignee := "user-7"
	tpl := store.addTemplate("t1", "Task", "")
	tpl.DefaultAssigneeID = &templateAssignee

	action := &models.WorkflowAction{ID: "a1", ActionType: models.ActionCreateTask, TaskTemplateID: tpl.ID}
	event := store.addEvent("t1", "Event", dateUTC(2026, 5, 4), models.EventStatusScheduled)
	wctx := Context{Tenant: testTenant("t1", "Acme"), Workflow: &models.Workflow{ID: "w1"}, Now: time.Now()}

	exec := NewExecutor(store, logging.NewLogger())
	_, err := exec.Execute(ctx, action, SubjectFromEvent(event), wctx)
	require.NoError(t, err)

	require.Len(t, store.tasks, 1)
	require.NotNil(t, store.tasks[0].AssignedToUserID)
	assert.Equal(t, templateAssignee, *store.tasks[0].AssignedToUserID)

	// No offset configured means no due date.
	assert.Nil(t, store.tasks[0].DueDate)
}

func TestExecuteUnsupportedActionType(t *testing.T) {
	store := newFakeStore()
	exec := NewExecutor(store, logging.NewLogger())

	action := &models.WorkflowAction{ID: "a1", ActionType: models.ActionType("send_sms")}
	wctx := Context{Tenant: testTenant("t1", "Acme"), Workflow: &models.Workflow{ID: "w1"}, Now: time.Now()}

	_, err := exec.Execute(context.Background(), action, Subject{ID: "e1"}, wctx)
	assert.Error(t, err)
	assert.Empty(t, store.tasks)
}
