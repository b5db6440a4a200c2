// Package health serves the liveness, readiness and detailed health probes
// of the run API. The detailed probe also reports the most recent run.
package health

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/pkg/models"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
	StatusDegraded  Status = "degraded"
)

const checkTimeout = 5 * time.Second

type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

type Response struct {
	Status     Status                 `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Uptime     string                 `json:"uptime,omitempty"`
	Checks     map[string]CheckResult `json:"checks,omitempty"`
	LastRun    *models.RunSummary     `json:"last_run,omitempty"`
	ReportedAt time.Time              `json:"reported_at"`
}

// Check pings one backing service
type Check func(ctx context.Context) error

// LastRun returns the summary of the most recent run, nil if none exists
type LastRun func(ctx context.Context) (*models.RunSummary, error)

type check struct {
	run      Check
	optional bool
}

// Checker aggregates the backend checks. Required checks gate readiness;
// optional ones (graph export) only degrade the detailed status.
type Checker struct {
	version   string
	startTime time.Time
	checks    map[string]check
	lastRun   LastRun

	mu    sync.RWMutex
	ready bool
}

func NewChecker(version string) *Checker {
	return &Checker{
		version:   version,
		startTime: time.Now(),
		checks:    make(map[string]check),
	}
}

func (c *Checker) AddCheck(name string, fn Check) {
	c.checks[name] = check{run: fn}
}

func (c *Checker) AddOptionalCheck(name string, fn Check) {
	c.checks[name] = check{run: fn, optional: true}
}

// SetLastRun reports fn's summary in the detailed probe
func (c *Checker) SetLastRun(fn LastRun) {
	c.lastRun = fn
}

// SetReady flips readiness once every dependency has started
func (c *Checker) SetReady(ready bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ready = ready
}

func (c *Checker) IsReady() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ready
}

func (c *Checker) uptime() string {
	return time.Since(c.startTime).Round(time.Second).String()
}

func (c *Checker) Liveness(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, Response{
		Status:     StatusHealthy,
		Version:    c.version,
		Uptime:     c.uptime(),
		ReportedAt: time.Now(),
	})
}

// Readiness runs only the required checks
func (c *Checker) Readiness(ctx echo.Context) error {
	if !c.IsReady() {
		return ctx.JSON(http.StatusServiceUnavailable, Response{
			Status:     StatusUnhealthy,
			Version:    c.version,
			Checks:     map[string]CheckResult{"startup": {Status: StatusUnhealthy, Message: "service is still starting up"}},
			ReportedAt: time.Now(),
		})
	}

	checks := c.run(ctx.Request().Context(), false)
	return c.respond(ctx, checks, nil)
}

// Health runs every check and attaches the last run
func (c *Checker) Health(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	checks := c.run(reqCtx, true)

	var last *models.RunSummary
	if c.lastRun != nil {
		summary, err := c.lastRun(reqCtx)
		if err != nil {
			checks["last_run"] = CheckResult{Status: StatusDegraded, Message: err.Error()}
		}
		last = summary
	}
	return c.respond(ctx, checks, last)
}

func (c *Checker) respond(ctx echo.Context, checks map[string]CheckResult, last *models.RunSummary) error {
	status := overall(checks)
	code := http.StatusOK
	if status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	return ctx.JSON(code, Response{
		Status:     status,
		Version:    c.version,
		Uptime:     c.uptime(),
		Checks:     checks,
		LastRun:    last,
		ReportedAt: time.Now(),
	})
}

// run executes the checks concurrently, each bounded by checkTimeout
func (c *Checker) run(ctx context.Context, includeOptional bool) map[string]CheckResult {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(c.checks))
	)
	for name, chk := range c.checks {
		if chk.optional && !includeOptional {
			continue
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := runCheck(ctx, chk)
			mu.Lock()
			results[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

func runCheck(ctx context.Context, chk check) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	start := time.Now()
	err := chk.run(ctx)
	result := CheckResult{Status: StatusHealthy, Latency: time.Since(start).String()}
	if err != nil {
		result.Status, result.Message = StatusUnhealthy, err.Error()
		if chk.optional {
			result.Status = StatusDegraded
		}
	}
	return result
}

func overall(checks map[string]CheckResult) Status {
	status := StatusHealthy
	for _, result := range checks {
		switch result.Status {
		case StatusUnhealthy:
			return StatusUnhealthy
		case StatusDegraded:
			status = StatusDegraded
		}
	}
	return status
}

// RegisterRoutes mounts the probes under /api/v1/health
func (c *Checker) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/health")
	g.GET("", c.Health)
	g.GET("/live", c.Liveness)
	g.GET("/ready", c.Readiness)
}
