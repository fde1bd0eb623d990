package repository

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"crm-automation/backend/internal/logging"
	"crm-automation/backend/pkg/models"
)

func TestPostgresStore(t *testing.T) {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("test-db"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2)),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %s", err)
		}
	}()

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatal(err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()

	schema, err := os.ReadFile("../../db/schema.sql")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := pool.Exec(ctx, string(schema)); err != nil {
		t.Fatal(err)
	}

	store := NewPostgresStore(pool, logging.NewLogger())

	tenant := &models.Tenant{Name: "Acme Events", Domain: "acme.test", Timezone: "America/New_York"}
	require.NoError(t, store.CreateTenant(ctx, tenant))

	t.Run("tenant lookup", func(t *testing.T) {
		byDomain, err := store.GetTenantByDomain(ctx, "acme.test")
		assert.NoError(t, err)
		assert.Equal(t, tenant.ID, byDomain.ID)
		assert.Equal(t, "America/New_York", byDomain.Timezone)
		assert.True(t, byDomain.Active)

		active, err := store.ListActiveTenants(ctx)
		assert.NoError(t, err)
		assert.Len(t, active, 1)
	})

	tpl := &models.TaskTemplate{
		TenantID:    tenant.ID,
		Title:       "Confirm setup for {{event_title}}",
		Description: "Walk the venue.",
		Priority:    models.TaskPriorityHigh,
	}
	require.NoError(t, store.CreateTaskTemplate(ctx, tpl))

	wf := &models.Workflow{
		TenantID:      tenant.ID,
		Name:          "Event setup reminder",
		TriggerType:   models.TriggerEventDateApproaching,
		TriggerConfig: map[string]interface{}{"days_before": float64(3)},
		Active:        true,
	}
	require.NoError(t, store.CreateWorkflow(ctx, wf))

	offset := -1
	action := &models.WorkflowAction{
		WorkflowID:     wf.ID,
		Position:       1,
		ActionType:     models.ActionCreateTask,
		TaskTemplateID: tpl.ID,
		DueOffsetDays:  &offset,
	}
	require.NoError(t, store.CreateWorkflowAction(ctx, action))

	t.Run("workflow roundtrip", func(t *testing.T) {
		got, err := store.ListActiveWorkflows(ctx, tenant.ID, models.TriggerEventDateApproaching)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, wf.ID, got[0].ID)
		assert.Equal(t, float64(3), got[0].TriggerConfig["days_before"])

		// Other trigger types and other tenants see nothing.
		none, err := store.ListActiveWorkflows(ctx, tenant.ID, models.TriggerTaskStatusChanged)
		assert.NoError(t, err)
		assert.Empty(t, none)

		actions, err := store.ListWorkflowActions(ctx, wf.ID)
		require.NoError(t, err)
		require.Len(t, actions, 1)
		assert.Equal(t, tpl.ID, actions[0].TaskTemplateID)
		require.NotNil(t, actions[0].DueOffsetDays)
		assert.Equal(t, -1, *actions[0].DueOffsetDays)
	})

	t.Run("task template lookup is tenant scoped", func(t *testing.T) {
		got, err := store.GetTaskTemplate(ctx, tenant.ID, tpl.ID)
		require.NoError(t, err)
		assert.Equal(t, tpl.Title, got.Title)

		_, err = store.GetTaskTemplate(ctx, uuid.New().String(), tpl.ID)
		assert.Error(t, err)
	})

	eventDay := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	event := &models.Event{
		TenantID:  tenant.ID,
		Title:     "Spring Gala",
		Status:    models.EventStatusScheduled,
		StartDate: eventDay,
	}
	require.NoError(t, store.CreateEvent(ctx, event))

	t.Run("events by date", func(t *testing.T) {
		got, err := store.ListEventsOnDate(ctx, tenant.ID, eventDay)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, "Spring Gala", got[0].Title)
		assert.Equal(t, eventDay, got[0].StartDate.UTC())

		empty, err := store.ListEventsOnDate(ctx, tenant.ID, eventDay.AddDate(0, 0, 1))
		assert.NoError(t, err)
		assert.Empty(t, empty)
	})

	due := eventDay.AddDate(0, 0, -1)
	task := &models.Task{
		TenantID:         tenant.ID,
		Title:            "Confirm setup for Spring Gala",
		Priority:         models.TaskPriorityHigh,
		DueDate:          &due,
		EventID:          &event.ID,
		WorkflowActionID: &action.ID,
	}
	require.NoError(t, store.CreateTask(ctx, task))

	t.Run("task lifecycle", func(t *testing.T) {
		got, err := store.GetTask(ctx, tenant.ID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusOpen, got.Status)
		require.NotNil(t, got.DueDate)
		assert.Equal(t, due, got.DueDate.UTC())

		require.NoError(t, store.UpdateTaskStatus(ctx, tenant.ID, task.ID, models.TaskStatusDone))
		got, err = store.GetTask(ctx, tenant.ID, task.ID)
		require.NoError(t, err)
		assert.Equal(t, models.TaskStatusDone, got.Status)

		err = store.UpdateTaskStatus(ctx, uuid.New().String(), task.ID, models.TaskStatusOpen)
		assert.ErrorIs(t, err, pgx.ErrNoRows)
	})

	t.Run("execution dedup constraint", func(t *testing.T) {
		window := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
		rec := &models.ExecutionRecord{
			TenantID:        tenant.ID,
			WorkflowID:      wf.ID,
			SubjectEntityID: event.ID,
			WindowDate:      window,
			ArtifactIDs:     []string{task.ID},
			Warnings:        []string{},
		}
		inserted, err := store.InsertExecution(ctx, rec)
		require.NoError(t, err)
		assert.True(t, inserted)

		exists, err := store.HasExecution(ctx, tenant.ID, wf.ID, event.ID, window)
		assert.NoError(t, err)
		assert.True(t, exists)

		// Same tuple again: the unique constraint suppresses the insert.
		dup := &models.ExecutionRecord{
			TenantID:        tenant.ID,
			WorkflowID:      wf.ID,
			SubjectEntityID: event.ID,
			WindowDate:      window,
			ArtifactIDs:     []string{},
			Warnings:        []string{},
		}
		inserted, err = store.InsertExecution(ctx, dup)
		require.NoError(t, err)
		assert.False(t, inserted)

		// A different window date is a fresh run.
		next := &models.ExecutionRecord{
			TenantID:        tenant.ID,
			WorkflowID:      wf.ID,
			SubjectEntityID: event.ID,
			WindowDate:      window.AddDate(0, 0, 1),
			ArtifactIDs:     []string{},
			Warnings:        []string{},
		}
		inserted, err = store.InsertExecution(ctx, next)
		require.NoError(t, err)
		assert.True(t, inserted)

		recs, err := store.ListExecutions(ctx, tenant.ID, wf.ID)
		require.NoError(t, err)
		require.Len(t, recs, 2)
		var first *models.ExecutionRecord
		for _, r := range recs {
			if r.WindowDate.Format("2006-01-02") == "2026-05-01" {
				first = r
			}
		}
		require.NotNil(t, first)
		assert.Equal(t, []string{task.ID}, first.ArtifactIDs)
	})
}
