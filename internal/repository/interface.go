package repository

import (
	"context"
	"time"

	"crm-automation/backend/pkg/models"
)

// Repository is the data access interface for the automation service. All
// reads and writes are scoped by tenant id; callers must never mix data
// across tenants.
type Repository interface {
	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Tenants
	ListActiveTenants(ctx context.Context) ([]*models.Tenant, error)
	GetTenantByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	GetTenant(ctx context.Context, id string) (*models.Tenant, error)
	CreateTenant(ctx context.Context, tenant *models.Tenant) error

	// Workflows (read-only to the engine)
	ListWorkflows(ctx context.Context, tenantID string) ([]*models.Workflow, error)
	ListActiveWorkflows(ctx context.Context, tenantID string, trigger models.TriggerType) ([]*models.Workflow, error)
	ListWorkflowActions(ctx context.Context, workflowID string) ([]*models.WorkflowAction, error)
	CreateWorkflow(ctx context.Context, workflow *models.Workflow) error
	CreateWorkflowAction(ctx context.Context, action *models.WorkflowAction) error

	// Task templates
	GetTaskTemplate(ctx context.Context, tenantID, id string) (*models.TaskTemplate, error)
	CreateTaskTemplate(ctx context.Context, tpl *models.TaskTemplate) error

	// Events
	ListEventsOnDate(ctx context.Context, tenantID string, day time.Time) ([]*models.Event, error)
	CreateEvent(ctx context.Context, event *models.Event) error

	// Tasks
	GetTask(ctx context.Context, tenantID, id string) (*models.Task, error)
	CreateTask(ctx context.Context, task *models.Task) error
	UpdateTaskStatus(ctx context.Context, tenantID, id string, status models.TaskStatus) error

	// Execution ledger
	HasExecution(ctx context.Context, tenantID, workflowID, entityID string, windowDate time.Time) (bool, error)
	InsertExecution(ctx context.Context, rec *models.ExecutionRecord) (bool, error)
	ListExecutions(ctx context.Context, tenantID, workflowID string) ([]*models.ExecutionRecord, error)
}
