// Package workflow implements the automation engine: trigger matching,
// deduplication, action execution and execution recording.
package workflow

import (
	"encoding/json"
	"fmt"
	"time"

	"crm-automation/backend/pkg/models"
)

// SubjectKind identifies the domain record a trigger evaluates against.
type SubjectKind string

const (
	SubjectEvent SubjectKind = "event"
	SubjectTask  SubjectKind = "task"
)

// Subject is the trigger subject entity. Only the fields referenced by
// trigger conditions or action templates are carried; everything else stays
// behind in the store.
type Subject struct {
	Kind           SubjectKind
	ID             string
	TenantID       string
	Title          string
	ReferenceDate  time.Time // earliest relevant date; zero for subjects without one
	Cancelled      bool
	Status         string
	PreviousStatus string // supplied by the caller; the matcher is stateless
}

// SubjectFromEvent builds the trigger subject for an event record.
func SubjectFromEvent(ev *models.Event) Subject {
	return Subject{
		Kind:          SubjectEvent,
		ID:            ev.ID,
		TenantID:      ev.TenantID,
		Title:         ev.Title,
		ReferenceDate: ev.StartDate,
		Cancelled:     ev.Status == models.EventStatusCancelled,
		Status:        string(ev.Status),
	}
}

// SubjectFromTask builds the trigger subject for a task whose status just
// changed. The previous status must be read before the update is applied.
func SubjectFromTask(t *models.Task, previous models.TaskStatus) Subject {
	s := Subject{
		Kind:           SubjectTask,
		ID:             t.ID,
		TenantID:       t.TenantID,
		Title:          t.Title,
		Status:         string(t.Status),
		PreviousStatus: string(previous),
	}
	if t.DueDate != nil {
		s.ReferenceDate = *t.DueDate
	}
	return s
}

// TriggerConfig is the typed form of a workflow's trigger configuration.
type TriggerConfig struct {
	DaysBefore int
}

// ParseTriggerConfig validates the raw trigger payload for the given trigger
// type. A malformed config (missing or non-numeric days_before) is a
// configuration error; callers skip the workflow with a debug note rather
// than failing the run.
func ParseTriggerConfig(trigger models.TriggerType, raw map[string]interface{}) (TriggerConfig, error) {
	switch trigger {
	case models.TriggerEventDateApproaching:
		v, ok := raw["days_before"]
		if !ok {
			return TriggerConfig{}, fmt.Errorf("trigger config missing days_before")
		}
		days, err := toInt(v)
		if err != nil {
			return TriggerConfig{}, fmt.Errorf("trigger config days_before: %w", err)
		}
		if days < 0 {
			return TriggerConfig{}, fmt.Errorf("trigger config days_before is negative: %d", days)
		}
		return TriggerConfig{DaysBefore: days}, nil
	case models.TriggerTaskStatusChanged:
		return TriggerConfig{}, nil
	default:
		// Unknown trigger types carry no parseable config; the matcher fails
		// closed on them anyway.
		return TriggerConfig{}, nil
	}
}

func toInt(v interface{}) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		if n != float64(int(n)) {
			return 0, fmt.Errorf("not a whole number: %v", n)
		}
		return int(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("not numeric: %v", n)
		}
		return int(i), nil
	default:
		return 0, fmt.Errorf("not numeric: %v (%T)", v, v)
	}
}
