package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"crm-automation/backend/internal/repository"
	"crm-automation/backend/internal/scheduler"
)

// Server exposes a read-mostly debug surface over the automation engine:
// workflow inspection per tenant plus a manual scheduler pass.
type Server struct {
	mcpServer *server.MCPServer
	repo      repository.Repository
	runner    *scheduler.Runner
}

func NewServer(repo repository.Repository, runner *scheduler.Runner) *Server {
	s := &Server{
		mcpServer: server.NewMCPServer(
			"CRM Automation",
			"1.0.0",
			server.WithToolCapabilities(true),
		),
		repo:   repo,
		runner: runner,
	}

	s.registerTools()
	return s
}

func (s *Server) GetMCPServer() *server.MCPServer {
	return s.mcpServer
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_workflows",
			mcp.WithDescription("List a tenant's automation workflows"),
			mcp.WithString("tenant_domain", mcp.Required(), mcp.Description("The tenant's email domain")),
		),
		s.handleListWorkflows,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"list_executions",
			mcp.WithDescription("List a workflow's execution ledger"),
			mcp.WithString("tenant_domain", mcp.Required(), mcp.Description("The tenant's email domain")),
			mcp.WithString("workflow_id", mcp.Required(), mcp.Description("The workflow to inspect")),
		),
		s.handleListExecutions,
	)

	s.mcpServer.AddTool(
		mcp.NewTool(
			"run_daily_triggers",
			mcp.WithDescription("Run a scheduler pass over all tenants now"),
		),
		s.handleRunDailyTriggers,
	)
}

func (s *Server) handleListWorkflows(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	domain, ok := args["tenant_domain"].(string)
	if !ok || domain == "" {
		return mcp.NewToolResultError("Missing required parameter: tenant_domain"), nil
	}

	tenant, err := s.repo.GetTenantByDomain(ctx, domain)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Unknown tenant %q: %v", domain, err)), nil
	}

	workflows, err := s.repo.ListWorkflows(ctx, tenant.ID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list workflows: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(workflows)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleListExecutions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("Invalid arguments type"), nil
	}

	domain, ok := args["tenant_domain"].(string)
	if !ok || domain == "" {
		return mcp.NewToolResultError("Missing required parameter: tenant_domain"), nil
	}

	workflowID, ok := args["workflow_id"].(string)
	if !ok || workflowID == "" {
		return mcp.NewToolResultError("Missing required parameter: workflow_id"), nil
	}

	tenant, err := s.repo.GetTenantByDomain(ctx, domain)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Unknown tenant %q: %v", domain, err)), nil
	}

	executions, err := s.repo.ListExecutions(ctx, tenant.ID, workflowID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list executions: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(executions)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleRunDailyTriggers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := s.runner.Run(ctx, time.Now())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Scheduler pass failed: %v", err)), nil
	}

	jsonBytes, _ := json.Marshal(summary)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func MountHTTPHandlers(mux *http.ServeMux, mcpServer *server.MCPServer) {
	// Use SSE server for /mcp/sse and /mcp/message endpoints
	sseServer := server.NewSSEServer(mcpServer, server.WithStaticBasePath("/mcp"))

	mux.HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		// Direct POST for tool calls
		if r.Method == http.MethodPost {
			sseServer.ServeHTTP(w, r)
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	})

	// SSE endpoints
	mux.HandleFunc("/mcp/sse", sseServer.ServeHTTP)
	mux.HandleFunc("/mcp/message", sseServer.ServeHTTP)
}
