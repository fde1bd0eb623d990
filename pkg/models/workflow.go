package models

import (
	"time"
)

// TriggerType enumerates the conditions a workflow can fire on.
type TriggerType string

const (
	TriggerEventDateApproaching TriggerType = "event_date_approaching"
	TriggerTaskStatusChanged    TriggerType = "task_status_changed"
)

// ActionType enumerates the effects a workflow action can perform.
type ActionType string

const (
	ActionCreateTask ActionType = "create_task"
)

// Workflow is a tenant-owned automation rule: a trigger condition plus an
// ordered list of actions. The engine treats workflows as read-only; they are
// created and edited through the admin configuration surface.
type Workflow struct {
	ID            string                 `json:"id"`
	TenantID      string                 `json:"tenant_id"` // Multi-tenancy isolation
	Name          string                 `json:"name"`
	Description   string                 `json:"description"`
	TriggerType   TriggerType            `json:"trigger_type"`
	TriggerConfig map[string]interface{} `json:"trigger_config"` // structured payload, e.g. {"days_before": 3}
	Active        bool                   `json:"active"`
	CreatedBy     string                 `json:"created_by"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

// WorkflowAction belongs to exactly one workflow. Position ordering is
// significant: actions execute in listed order.
type WorkflowAction struct {
	ID               string     `json:"id"`
	WorkflowID       string     `json:"workflow_id"`
	Position         int        `json:"position"`
	ActionType       ActionType `json:"action_type"`
	TaskTemplateID   string     `json:"task_template_id"`
	AssignedToUserID *string    `json:"assigned_to_user_id,omitempty"`
	DueOffsetDays    *int       `json:"due_offset_days,omitempty"` // relative to the subject's reference date; may be negative
	CreatedAt        time.Time  `json:"created_at"`
}

// ExecutionRecord is the immutable audit row written once per attempted run.
// At most one record may exist per (workflow, subject entity, window date);
// the store enforces this with a unique constraint so a concurrent duplicate
// insert surfaces as an ignorable conflict rather than a silent double-run.
type ExecutionRecord struct {
	ID              string    `json:"id"`
	TenantID        string    `json:"tenant_id"`
	WorkflowID      string    `json:"workflow_id"`
	SubjectEntityID string    `json:"subject_entity_id"`
	WindowDate      time.Time `json:"window_date"` // calendar day in the tenant's timezone
	ArtifactIDs     []string  `json:"artifact_ids"`
	Warnings        []string  `json:"warnings"`
	CreatedAt       time.Time `json:"created_at"`
}
