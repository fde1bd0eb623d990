// Package api contains the HTTP handlers for the automation service
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"crm-automation/backend/internal/logging"
	"crm-automation/backend/internal/repository"
	"crm-automation/backend/internal/workflow"
	"crm-automation/backend/pkg/models"
)

// Server holds the dependencies for the API server.
type Server struct {
	Repo   repository.Repository
	Engine *workflow.Engine
	Logger *logging.Logger
}

// NewServer creates a new Server.
func NewServer(repo repository.Repository, engine *workflow.Engine, logger *logging.Logger) *Server {
	return &Server{Repo: repo, Engine: engine, Logger: logger}
}

// RegisterHandlers mounts the tenant-scoped REST API on the given group.
func RegisterHandlers(g *echo.Group, s *Server) {
	g.GET("/workflows", s.ListWorkflows)
	g.GET("/workflows/:id/executions", s.ListWorkflowExecutions)
	g.PATCH("/tasks/:id/status", s.UpdateTaskStatus)
}

// Health returns basic health status including a data store check.
// (GET /healthz)
func (s *Server) Health(c echo.Context) error {
	checks := map[string]string{"db": "ok"}
	status := "ok"
	if err := s.Repo.Ping(c.Request().Context()); err != nil {
		checks["db"] = err.Error()
		status = "degraded"
	}
	return c.JSON(http.StatusOK, models.HealthStatus{
		Status:    status,
		Service:   "crm-automation",
		Version:   "1.0.0",
		Timestamp: time.Now(),
		Checks:    checks,
	})
}
