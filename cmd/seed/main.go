package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"crm-automation/backend/internal/config"
	"crm-automation/backend/internal/logging"
	"crm-automation/backend/internal/repository"
	"crm-automation/backend/pkg/models"
)

func main() {
	ctx := context.Background()
	logger := logging.NewLogger()

	// Load config
	cfg, err := config.LoadConfig("")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Connect to DB
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.DB.Host, cfg.DB.Port, cfg.DB.User, cfg.DB.Password, cfg.DB.Name, cfg.DB.SSLMode,
	)
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		log.Fatalf("Failed to connect to DB: %v", err)
	}
	defer pool.Close()

	store := repository.NewPostgresStore(pool, logger)

	// 1. Ensure Tenant Exists
	domain := "localhost"
	tenant, err := store.GetTenantByDomain(ctx, domain)
	if err != nil {
		logger.Info("Creating default tenant", "domain", domain)
		tenant = &models.Tenant{
			Name:     "Local Dev Tenant",
			Domain:   domain,
			Timezone: "UTC",
		}
		if err := store.CreateTenant(ctx, tenant); err != nil {
			log.Fatalf("Failed to create tenant: %v", err)
		}
	} else {
		logger.Info("Found existing tenant", "id", tenant.ID)
	}

	// 2. Check for existing workflows to prevent duplicates
	existingWorkflows, err := store.ListWorkflows(ctx, tenant.ID)
	if err != nil {
		log.Fatalf("Failed to list existing workflows: %v", err)
	}
	existingMap := make(map[string]bool)
	for _, w := range existingWorkflows {
		existingMap[w.Name] = true
	}

	if existingMap["Event setup reminder"] {
		logger.Info("Skipping existing workflow", "name", "Event setup reminder")
	} else {
		// 3. Create a task template plus a date-approaching workflow
		tpl := &models.TaskTemplate{
			TenantID:    tenant.ID,
			Title:       "Confirm setup for {{event_title}}",
			Description: "The event {{event_title}} takes place on {{event_date}}. Confirm venue setup by {{due_date}}.",
			Priority:    models.TaskPriorityHigh,
		}
		if err := store.CreateTaskTemplate(ctx, tpl); err != nil {
			log.Fatalf("Failed to create task template: %v", err)
		}

		wf := &models.Workflow{
			TenantID:    tenant.ID,
			Name:        "Event setup reminder",
			Description: "Creates a setup task three days before every event.",
			TriggerType: models.TriggerEventDateApproaching,
			TriggerConfig: map[string]interface{}{
				"days_before": 3,
			},
			Active:    true,
			CreatedBy: "seed-script",
		}
		if err := store.CreateWorkflow(ctx, wf); err != nil {
			log.Fatalf("Failed to create workflow: %v", err)
		}

		offset := -1
		action := &models.WorkflowAction{
			WorkflowID:     wf.ID,
			Position:       1,
			ActionType:     models.ActionCreateTask,
			TaskTemplateID: tpl.ID,
			DueOffsetDays:  &offset,
		}
		if err := store.CreateWorkflowAction(ctx, action); err != nil {
			log.Fatalf("Failed to create workflow action: %v", err)
		}
		logger.Info("Seeded workflow", "name", wf.Name, "id", wf.ID)
	}

	// 4. Seed a demo event three days out so the workflow fires on the next pass
	event := &models.Event{
		TenantID:  tenant.ID,
		Title:     "Spring Gala",
		Status:    models.EventStatusScheduled,
		StartDate: time.Now().UTC().AddDate(0, 0, 3),
	}
	if err := store.CreateEvent(ctx, event); err != nil {
		log.Printf("Failed to create event %s: %v", event.Title, err)
	} else {
		logger.Info("Seeded event", "title", event.Title, "date", event.StartDate.Format("2006-01-02"))
	}

	logger.Info("Seeding complete!")
}
