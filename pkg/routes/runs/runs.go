package runs

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/labstack/echo/v4"

	"github.com/Ramsey-B/clover/internal/repositories/runsnapshot"
	"github.com/Ramsey-B/clover/internal/runner"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/pipeline"
)

// Trigger starts a run
type Trigger interface {
	Trigger(ctx context.Context, req runner.Request) (*pipeline.Result, error)
}

// Store reads stored runs
type Store interface {
	GetByID(ctx context.Context, id string) (*runsnapshot.Snapshot, error)
	Latest(ctx context.Context) (*runsnapshot.Snapshot, error)
	List(ctx context.Context, limit int) ([]models.RunSummary, error)
}

// ClusterReader looks up exported clusters
type ClusterReader interface {
	ClusterOf(ctx context.Context, runID, referenceID string) ([]string, error)
}

// Handler serves the run endpoints
type Handler struct {
	trigger  Trigger
	store    Store
	clusters ClusterReader
	logger   ectologger.Logger
}

// NewHandler creates a new Handler. clusters may be nil when graph export is disabled.
func NewHandler(trigger Trigger, store Store, clusters ClusterReader, logger ectologger.Logger) *Handler {
	return &Handler{
		trigger:  trigger,
		store:    store,
		clusters: clusters,
		logger:   logger,
	}
}

// Register registers run routes
func (h *Handler) Register(g *echo.Group) {
	g.POST("", h.CreateRun)
	g.GET("", h.ListRuns)
	g.GET("/latest", h.GetLatestRun)
	g.GET("/:id", h.GetRun)
	g.GET("/:id/clusters/:referenceId", h.GetCluster)
}

// CreateRun triggers a run and returns its summary
func (h *Handler) CreateRun(c echo.Context) error {
	ctx := c.Request().Context()

	var req runner.Request
	if c.Request().ContentLength != 0 {
		if err := c.Bind(&req); err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
		}
	}

	result, err := h.trigger.Trigger(ctx, req)
	if err != nil {
		return err
	}

	summary := result.Summary()
	h.logger.WithContext(ctx).WithFields(map[string]any{
		"run_id":   summary.RunID,
		"clusters": summary.Clusters,
	}).Info("Completed run")

	return c.JSON(http.StatusCreated, summary)
}

// ListRuns lists run summaries, newest first
func (h *Handler) ListRuns(c echo.Context) error {
	ctx := c.Request().Context()

	limit := 0
	if v := c.QueryParam("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return httperror.NewHTTPError(http.StatusBadRequest, "limit must be a positive number")
		}
		limit = n
	}

	summaries, err := h.store.List(ctx, limit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summaries)
}

// GetLatestRun returns the newest stored run
func (h *Handler) GetLatestRun(c echo.Context) error {
	snapshot, err := h.store.Latest(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

// GetRun returns a stored run by id
func (h *Handler) GetRun(c echo.Context) error {
	snapshot, err := h.store.GetByID(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, snapshot)
}

// GetCluster returns the members of the cluster holding a record
func (h *Handler) GetCluster(c echo.Context) error {
	if h.clusters == nil {
		return httperror.NewHTTPError(http.StatusNotFound, "graph export is disabled")
	}

	members, err := h.clusters.ClusterOf(c.Request().Context(), c.Param("id"), c.Param("referenceId"))
	if err != nil {
		return err
	}
	if len(members) == 0 {
		return httperror.NewHTTPError(http.StatusNotFound, "record is not part of a cluster")
	}
	return c.JSON(http.StatusOK, map[string]any{"run_id": c.Param("id"), "members": members})
}
