package scheduler

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"crm-automation/backend/internal/config"
	"crm-automation/backend/internal/logging"
)

// HeaderCronSecret is the provider-specific secret header the cron caller
// may present instead of a bearer token.
const HeaderCronSecret = "X-Cron-Secret"

// Adapter is the HTTP surface of the Runner. GET and POST behave
// identically; any request body is ignored. The endpoint is idempotent-safe
// thanks to the deduplication guard, so callers can re-invoke it freely.
type Adapter struct {
	runner *Runner
	cfg    *config.Config
	logger *logging.Logger
}

// NewAdapter creates a new Adapter.
func NewAdapter(runner *Runner, cfg *config.Config, logger *logging.Logger) *Adapter {
	return &Adapter{runner: runner, cfg: cfg, logger: logger}
}

// Register mounts the scheduler endpoint on the echo instance.
func (a *Adapter) Register(e *echo.Echo) {
	e.GET("/api/cron/daily-triggers", a.Handle)
	e.POST("/api/cron/daily-triggers", a.Handle)
}

// Handle authenticates the caller and runs a scheduler pass. Per-tenant
// failures come back embedded in the summary with a 200; only auth failure
// (401) and the fatal cannot-list-tenants case (500) break that shape.
func (a *Adapter) Handle(c echo.Context) error {
	if !a.authorized(c.Request()) {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid cron secret")
	}

	start := time.Now()
	summary, err := a.runner.Run(c.Request().Context(), start)
	if err != nil {
		a.logger.Error("scheduler pass failed", "error", err)
		summary.Success = false
		summary.Errors = append(summary.Errors, err.Error())
		summary.Duration = time.Since(start).String()
		return c.JSON(http.StatusInternalServerError, summary)
	}
	return c.JSON(http.StatusOK, summary)
}

// authorized checks the shared cron secret, presented either as the
// provider-specific header or as a bearer token. Local development mode
// bypasses the check entirely.
func (a *Adapter) authorized(r *http.Request) bool {
	if a.cfg.AuthBypassed() {
		return true
	}
	secret := a.cfg.Cron.Secret
	if secret == "" {
		return false
	}
	if v := r.Header.Get(HeaderCronSecret); v != "" {
		return subtle.ConstantTimeCompare([]byte(v), []byte(secret)) == 1
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		token := strings.TrimPrefix(auth, "Bearer ")
		return subtle.ConstantTimeCompare([]byte(token), []byte(secret)) == 1
	}
	return false
}
