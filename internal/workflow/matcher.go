package workflow

import (
	"time"

	"crm-automation/backend/pkg/models"
)

// CalendarDay truncates an instant to its calendar day in the given location.
// The returned value is midnight UTC of that day, matching how date columns
// come back from the store.
func CalendarDay(now time.Time, loc *time.Location) time.Time {
	y, m, d := now.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Match decides whether a workflow should fire for a subject entity. It is a
// pure function of its inputs: no side effects, no store access. Unknown
// trigger types never match.
func Match(wf *models.Workflow, cfg TriggerConfig, subj Subject, now time.Time, loc *time.Location) bool {
	switch wf.TriggerType {
	case models.TriggerEventDateApproaching:
		if subj.Cancelled {
			return false
		}
		if subj.ReferenceDate.IsZero() {
			return false
		}
		target := CalendarDay(now, loc).AddDate(0, 0, cfg.DaysBefore)
		return sameDate(subj.ReferenceDate, target)
	case models.TriggerTaskStatusChanged:
		return subj.Status != subj.PreviousStatus
	default:
		return false
	}
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
