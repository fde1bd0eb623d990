package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"crm-automation/backend/pkg/models"
)

// taskStatusUpdate is the allow-listed partial-update payload for a task.
// Only the status field can change through this endpoint.
type taskStatusUpdate struct {
	Status models.TaskStatus `json:"status"`
}

var validTaskStatuses = map[models.TaskStatus]bool{
	models.TaskStatusOpen:       true,
	models.TaskStatusInProgress: true,
	models.TaskStatusDone:       true,
	models.TaskStatusCancelled:  true,
}

// UpdateTaskStatus sets a task's status and fires the task_status_changed
// trigger. The previous status is read before the update, since the matcher
// is stateless and needs it supplied.
// (PATCH /api/v1/tasks/:id/status)
func (s *Server) UpdateTaskStatus(c echo.Context) error {
	ctx := c.Request().Context()

	tid, err := tenantID(c)
	if err != nil {
		return err
	}

	var body taskStatusUpdate
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body: "+err.Error())
	}
	if !validTaskStatuses[body.Status] {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid task status: "+string(body.Status))
	}

	tenant, err := s.Repo.GetTenant(ctx, tid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load tenant: "+err.Error())
	}

	task, err := s.Repo.GetTask(ctx, tid, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Task not found")
	}

	previous := task.Status
	if err := s.Repo.UpdateTaskStatus(ctx, tid, task.ID, body.Status); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to update task: "+err.Error())
	}
	task.Status = body.Status

	// Trigger processing failures never fail the update itself; they are
	// logged and visible in the execution ledger.
	if err := s.Engine.HandleTaskStatusChanged(ctx, tenant, task, previous, time.Now()); err != nil {
		s.Logger.Warn("task status trigger processing failed",
			"tenant", tid, "task", task.ID, "error", err)
	}

	return c.JSON(http.StatusOK, task)
}
