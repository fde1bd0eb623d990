package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"crm-automation/backend/internal/logging"
	"crm-automation/backend/pkg/models"
)

// PostgresStore is a PostgreSQL implementation of the Repository interface.
type PostgresStore struct {
	db     *pgxpool.Pool
	logger *logging.Logger
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(db *pgxpool.Pool, logger *logging.Logger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

// Ping verifies the backing store is reachable.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// ListActiveTenants returns every tenant the scheduler should process.
func (s *PostgresStore) ListActiveTenants(ctx context.Context) ([]*models.Tenant, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, domain, timezone, active, created_at, updated_at
		 FROM tenants WHERE active ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		var t models.Tenant
		if err := rows.Scan(&t.ID, &t.Name, &t.Domain, &t.Timezone, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, err
		}
		tenants = append(tenants, &t)
	}
	return tenants, rows.Err()
}

// GetTenantByDomain looks up a tenant by its email domain.
func (s *PostgresStore) GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	var t models.Tenant
	err := s.db.QueryRow(ctx,
		`SELECT id, name, domain, timezone, active, created_at, updated_at
		 FROM tenants WHERE domain = $1`, domain).
		Scan(&t.ID, &t.Name, &t.Domain, &t.Timezone, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// GetTenant looks up a tenant by id.
func (s *PostgresStore) GetTenant(ctx context.Context, id string) (*models.Tenant, error) {
	var t models.Tenant
	err := s.db.QueryRow(ctx,
		`SELECT id, name, domain, timezone, active, created_at, updated_at
		 FROM tenants WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Domain, &t.Timezone, &t.Active, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTenant inserts a tenant, assigning an id when missing.
func (s *PostgresStore) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	if tenant.Timezone == "" {
		tenant.Timezone = "UTC"
	}
	now := time.Now().UTC()
	tenant.CreatedAt = now
	tenant.UpdatedAt = now
	tenant.Active = true
	_, err := s.db.Exec(ctx,
		`INSERT INTO tenants (id, name, domain, timezone, active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tenant.ID, tenant.Name, tenant.Domain, tenant.Timezone, tenant.Active, tenant.CreatedAt, tenant.UpdatedAt)
	return err
}

// ListWorkflows returns all workflows belonging to a tenant.
func (s *PostgresStore) ListWorkflows(ctx context.Context, tenantID string) ([]*models.Workflow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, name, description, trigger_type, trigger_config, active, created_by, created_at, updated_at
		 FROM workflows WHERE tenant_id = $1 ORDER BY created_at`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkflows(rows)
}

// ListActiveWorkflows returns active workflows of one trigger type for a tenant.
func (s *PostgresStore) ListActiveWorkflows(ctx context.Context, tenantID string, trigger models.TriggerType) ([]*models.Workflow, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, name, description, trigger_type, trigger_config, active, created_by, created_at, updated_at
		 FROM workflows WHERE tenant_id = $1 AND trigger_type = $2 AND active ORDER BY id`, tenantID, trigger)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanWorkflows(rows)
}

func scanWorkflows(rows pgx.Rows) ([]*models.Workflow, error) {
	var workflows []*models.Workflow
	for rows.Next() {
		var w models.Workflow
		if err := rows.Scan(&w.ID, &w.TenantID, &w.Name, &w.Description, &w.TriggerType,
			&w.TriggerConfig, &w.Active, &w.CreatedBy, &w.CreatedAt, &w.UpdatedAt); err != nil {
			return nil, err
		}
		workflows = append(workflows, &w)
	}
	return workflows, rows.Err()
}

// ListWorkflowActions returns a workflow's actions in execution order.
func (s *PostgresStore) ListWorkflowActions(ctx context.Context, workflowID string) ([]*models.WorkflowAction, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, workflow_id, position, action_type, task_template_id, assigned_to_user_id, due_offset_days, created_at
		 FROM workflow_actions WHERE workflow_id = $1 ORDER BY position`, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var actions []*models.WorkflowAction
	for rows.Next() {
		var a models.WorkflowAction
		if err := rows.Scan(&a.ID, &a.WorkflowID, &a.Position, &a.ActionType,
			&a.TaskTemplateID, &a.AssignedToUserID, &a.DueOffsetDays, &a.CreatedAt); err != nil {
			return nil, err
		}
		actions = append(actions, &a)
	}
	return actions, rows.Err()
}

// CreateWorkflow inserts a workflow, assigning an id when missing.
func (s *PostgresStore) CreateWorkflow(ctx context.Context, workflow *models.Workflow) error {
	if workflow.ID == "" {
		workflow.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	workflow.CreatedAt = now
	workflow.UpdatedAt = now
	_, err := s.db.Exec(ctx,
		`INSERT INTO workflows (id, tenant_id, name, description, trigger_type, trigger_config, active, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		workflow.ID, workflow.TenantID, workflow.Name, workflow.Description, workflow.TriggerType,
		workflow.TriggerConfig, workflow.Active, workflow.CreatedBy, workflow.CreatedAt, workflow.UpdatedAt)
	return err
}

// CreateWorkflowAction inserts a workflow action, assigning an id when missing.
func (s *PostgresStore) CreateWorkflowAction(ctx context.Context, action *models.WorkflowAction) error {
	if action.ID == "" {
		action.ID = uuid.New().String()
	}
	action.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(ctx,
		`INSERT INTO workflow_actions (id, workflow_id, position, action_type, task_template_id, assigned_to_user_id, due_offset_days, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		action.ID, action.WorkflowID, action.Position, action.ActionType,
		action.TaskTemplateID, action.AssignedToUserID, action.DueOffsetDays, action.CreatedAt)
	return err
}

// GetTaskTemplate loads a task template scoped by tenant.
func (s *PostgresStore) GetTaskTemplate(ctx context.Context, tenantID, id string) (*models.TaskTemplate, error) {
	var t models.TaskTemplate
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, title, description, priority, default_assignee_id, created_at
		 FROM task_templates WHERE tenant_id = $1 AND id = $2`, tenantID, id).
		Scan(&t.ID, &t.TenantID, &t.Title, &t.Description, &t.Priority, &t.DefaultAssigneeID, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTaskTemplate inserts a task template, assigning an id when missing.
func (s *PostgresStore) CreateTaskTemplate(ctx context.Context, tpl *models.TaskTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.New().String()
	}
	tpl.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(ctx,
		`INSERT INTO task_templates (id, tenant_id, title, description, priority, default_assignee_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		tpl.ID, tpl.TenantID, tpl.Title, tpl.Description, tpl.Priority, tpl.DefaultAssigneeID, tpl.CreatedAt)
	return err
}

// ListEventsOnDate returns a tenant's events whose start date falls on the
// given calendar day. The day is compared by date, not by instant.
func (s *PostgresStore) ListEventsOnDate(ctx context.Context, tenantID string, day time.Time) ([]*models.Event, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, title, status, start_date, location, created_at, updated_at
		 FROM events WHERE tenant_id = $1 AND start_date = $2::date ORDER BY id`,
		tenantID, day.Format("2006-01-02"))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Title, &e.Status, &e.StartDate,
			&e.Location, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		events = append(events, &e)
	}
	return events, rows.Err()
}

// CreateEvent inserts an event, assigning an id when missing.
func (s *PostgresStore) CreateEvent(ctx context.Context, event *models.Event) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now
	_, err := s.db.Exec(ctx,
		`INSERT INTO events (id, tenant_id, title, status, start_date, location, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		event.ID, event.TenantID, event.Title, event.Status,
		event.StartDate.Format("2006-01-02"), event.Location, event.CreatedAt, event.UpdatedAt)
	return err
}

// GetTask loads a task scoped by tenant.
func (s *PostgresStore) GetTask(ctx context.Context, tenantID, id string) (*models.Task, error) {
	var t models.Task
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, title, description, status, priority, due_date, assigned_to_user_id, event_id, workflow_action_id, created_at, updated_at
		 FROM tasks WHERE tenant_id = $1 AND id = $2`, tenantID, id).
		Scan(&t.ID, &t.TenantID, &t.Title, &t.Description, &t.Status, &t.Priority,
			&t.DueDate, &t.AssignedToUserID, &t.EventID, &t.WorkflowActionID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTask inserts a task, assigning an id when missing.
func (s *PostgresStore) CreateTask(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.TaskStatusOpen
	}
	_, err := s.db.Exec(ctx,
		`INSERT INTO tasks (id, tenant_id, title, description, status, priority, due_date, assigned_to_user_id, event_id, workflow_action_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		task.ID, task.TenantID, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, task.AssignedToUserID, task.EventID, task.WorkflowActionID, task.CreatedAt, task.UpdatedAt)
	return err
}

// UpdateTaskStatus sets a task's status, scoped by tenant.
func (s *PostgresStore) UpdateTaskStatus(ctx context.Context, tenantID, id string, status models.TaskStatus) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tasks SET status = $1, updated_at = $2 WHERE tenant_id = $3 AND id = $4`,
		status, time.Now().UTC(), tenantID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// HasExecution reports whether an execution record already exists for the
// (workflow, subject entity, window) tuple.
func (s *PostgresStore) HasExecution(ctx context.Context, tenantID, workflowID, entityID string, windowDate time.Time) (bool, error) {
	var exists bool
	err := s.db.QueryRow(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM workflow_executions
			WHERE tenant_id = $1 AND workflow_id = $2 AND subject_entity_id = $3 AND window_date = $4::date
		 )`,
		tenantID, workflowID, entityID, windowDate.Format("2006-01-02")).Scan(&exists)
	return exists, err
}

// InsertExecution writes an execution record. The table carries a unique
// constraint on (workflow_id, subject_entity_id, window_date); a conflicting
// insert is ignored and reported as inserted == false so concurrent scheduler
// invocations cannot double-run a workflow.
func (s *PostgresStore) InsertExecution(ctx context.Context, rec *models.ExecutionRecord) (bool, error) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	rec.CreatedAt = time.Now().UTC()
	tag, err := s.db.Exec(ctx,
		`INSERT INTO workflow_executions (id, tenant_id, workflow_id, subject_entity_id, window_date, artifact_ids, warnings, created_at)
		 VALUES ($1, $2, $3, $4, $5::date, $6, $7, $8)
		 ON CONFLICT (workflow_id, subject_entity_id, window_date) DO NOTHING`,
		rec.ID, rec.TenantID, rec.WorkflowID, rec.SubjectEntityID,
		rec.WindowDate.Format("2006-01-02"), rec.ArtifactIDs, rec.Warnings, rec.CreatedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// ListExecutions returns a workflow's execution records, newest first.
func (s *PostgresStore) ListExecutions(ctx context.Context, tenantID, workflowID string) ([]*models.ExecutionRecord, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, workflow_id, subject_entity_id, window_date, artifact_ids, warnings, created_at
		 FROM workflow_executions WHERE tenant_id = $1 AND workflow_id = $2 ORDER BY created_at DESC`,
		tenantID, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.ExecutionRecord
	for rows.Next() {
		var r models.ExecutionRecord
		if err := rows.Scan(&r.ID, &r.TenantID, &r.WorkflowID, &r.SubjectEntityID,
			&r.WindowDate, &r.ArtifactIDs, &r.Warnings, &r.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, &r)
	}
	return recs, rows.Err()
}
