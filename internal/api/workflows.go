package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"crm-automation/backend/internal/auth"
)

// tenantID extracts the tenant scope the auth middleware injected.
func tenantID(c echo.Context) (string, error) {
	id, ok := c.Request().Context().Value(auth.ContextKeyTenantID).(string)
	if !ok || id == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "Tenant ID not found in context")
	}
	return id, nil
}

// ListWorkflows returns the calling tenant's workflows
// (GET /api/v1/workflows)
func (s *Server) ListWorkflows(c echo.Context) error {
	ctx := c.Request().Context()

	tid, err := tenantID(c)
	if err != nil {
		return err
	}

	workflows, err := s.Repo.ListWorkflows(ctx, tid)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, workflows)
}

// ListWorkflowExecutions returns the execution ledger for one workflow
// (GET /api/v1/workflows/:id/executions)
func (s *Server) ListWorkflowExecutions(c echo.Context) error {
	ctx := c.Request().Context()

	tid, err := tenantID(c)
	if err != nil {
		return err
	}

	executions, err := s.Repo.ListExecutions(ctx, tid, c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, executions)
}
