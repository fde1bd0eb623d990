package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"crm-automation/backend/pkg/models"
)

func dateUTC(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestMatchEventDateApproaching(t *testing.T) {
	wf := &models.Workflow{TriggerType: models.TriggerEventDateApproaching}
	cfg := TriggerConfig{DaysBefore: 7}
	now := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		event models.Event
		want  bool
	}{
		{
			name:  "exactly seven days out",
			event: models.Event{StartDate: dateUTC(2026, 4, 8), Status: models.EventStatusScheduled},
			want:  true,
		},
		{
			name:  "six days out",
			event: models.Event{StartDate: dateUTC(2026, 4, 7), Status: models.EventStatusScheduled},
			want:  false,
		},
		{
			name:  "eight days out",
			event: models.Event{StartDate: dateUTC(2026, 4, 9), Status: models.EventStatusScheduled},
			want:  false,
		},
		{
			name:  "cancelled event never matches",
			event: models.Event{StartDate: dateUTC(2026, 4, 8), Status: models.EventStatusCancelled},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subj := SubjectFromEvent(&tt.event)
			assert.Equal(t, tt.want, Match(wf, cfg, subj, now, time.UTC))
		})
	}
}

func TestMatchUsesTenantTimezone(t *testing.T) {
	wf := &models.Workflow{TriggerType: models.TriggerEventDateApproaching}
	cfg := TriggerConfig{DaysBefore: 3}

	// 03:00 UTC on March 10 is still March 9 in New York.
	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	ny, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	event := &models.Event{StartDate: dateUTC(2026, 3, 12), Status: models.EventStatusScheduled}
	subj := SubjectFromEvent(event)

	assert.True(t, Match(wf, cfg, subj, now, ny))
	assert.False(t, Match(wf, cfg, subj, now, time.UTC))
}

func TestMatchTaskStatusChanged(t *testing.T) {
	wf := &models.Workflow{TriggerType: models.TriggerTaskStatusChanged}
	now := time.Now()

	task := &models.Task{Status: models.TaskStatusDone}

	changed := SubjectFromTask(task, models.TaskStatusOpen)
	assert.True(t, Match(wf, TriggerConfig{}, changed, now, time.UTC))

	unchanged := SubjectFromTask(task, models.TaskStatusDone)
	assert.False(t, Match(wf, TriggerConfig{}, unchanged, now, time.UTC))
}

func TestMatchUnknownTriggerFailsClosed(t *testing.T) {
	wf := &models.Workflow{TriggerType: models.TriggerType("contact_birthday")}
	event := &models.Event{StartDate: dateUTC(2026, 4, 8), Status: models.EventStatusScheduled}

	matched := Match(wf, TriggerConfig{}, SubjectFromEvent(event), time.Now(), time.UTC)
	assert.False(t, matched)
}

func TestCalendarDay(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	assert.NoError(t, err)

	now := time.Date(2026, 3, 10, 3, 0, 0, 0, time.UTC)
	assert.Equal(t, dateUTC(2026, 3, 10), CalendarDay(now, time.UTC))
	assert.Equal(t, dateUTC(2026, 3, 9), CalendarDay(now, ny))
}
