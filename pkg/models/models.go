// Package models defines the domain models for the automation service.
package models

import (
	"time"
)

// EventStatus represents the lifecycle state of a CRM event.
type EventStatus string

const (
	EventStatusScheduled EventStatus = "scheduled"
	EventStatusConfirmed EventStatus = "confirmed"
	EventStatusCancelled EventStatus = "cancelled"
	EventStatusCompleted EventStatus = "completed"
)

// TaskStatus represents the lifecycle state of a task.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// TaskPriority represents the urgency of a task.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

// Event is a trigger subject entity for date-based workflows. Only the id,
// tenant id and the fields referenced by trigger conditions or action
// templates matter to the engine; everything else is opaque payload.
type Event struct {
	ID        string      `json:"id"`
	TenantID  string      `json:"tenant_id"`
	Title     string      `json:"title"`
	Status    EventStatus `json:"status"`
	StartDate time.Time   `json:"start_date"` // earliest relevant date of the event
	Location  *string     `json:"location,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

// TaskTemplate is the blueprint a create-task action instantiates. Title and
// description may contain {{placeholder}} markers resolved against the
// triggering entity.
type TaskTemplate struct {
	ID                string       `json:"id"`
	TenantID          string       `json:"tenant_id"`
	Title             string       `json:"title"`
	Description       string       `json:"description"`
	Priority          TaskPriority `json:"priority"`
	DefaultAssigneeID *string      `json:"default_assignee_id,omitempty"`
	CreatedAt         time.Time    `json:"created_at"`
}

// Task is the artifact a workflow run creates. WorkflowActionID and EventID
// back-reference the action and subject entity that produced it.
type Task struct {
	ID               string       `json:"id"`
	TenantID         string       `json:"tenant_id"`
	Title            string       `json:"title"`
	Description      string       `json:"description"`
	Status           TaskStatus   `json:"status"`
	Priority         TaskPriority `json:"priority"`
	DueDate          *time.Time   `json:"due_date,omitempty"`
	AssignedToUserID *string      `json:"assigned_to_user_id,omitempty"`
	EventID          *string      `json:"event_id,omitempty"`
	WorkflowActionID *string      `json:"workflow_action_id,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	UpdatedAt        time.Time    `json:"updated_at"`
}

// RunSummary is the response body of the scheduler endpoint.
type RunSummary struct {
	Success           bool     `json:"success"`
	TriggersProcessed int      `json:"triggersProcessed"`
	WorkflowsExecuted int      `json:"workflowsExecuted"`
	EventsProcessed   int      `json:"eventsProcessed"`
	Errors            []string `json:"errors"`
	Tenants           []string `json:"tenants"`
	Duration          string   `json:"duration"`
}

// HealthStatus represents service health.
type HealthStatus struct {
	Status    string            `json:"status"`
	Service   string            `json:"service"`
	Version   string            `json:"version"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProblemDetails represents RFC 7807 Problem Details.
type ProblemDetails struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}
