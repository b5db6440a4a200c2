package runsnapshot

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/pipeline"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

const (
	snapshotTable = "run_snapshots"
	warningTable  = "run_warnings"
)

// Snapshot is a stored run
type Snapshot struct {
	ID          string                            `db:"id" json:"id"`
	Fingerprint string                            `db:"fingerprint" json:"fingerprint"`
	Status      string                            `db:"status" json:"status"`
	Summary     database.JSONB[models.RunSummary] `db:"summary" json:"summary"`
	Data        database.JSONB[*pipeline.Result]  `db:"snapshot" json:"snapshot"`
	StartedAt   time.Time                         `db:"started_at" json:"started_at"`
	FinishedAt  time.Time                         `db:"finished_at" json:"finished_at"`
	CreatedAt   time.Time                         `db:"created_at" json:"created_at"`
}

// summaryRow is the listing projection without the snapshot payload
type summaryRow struct {
	Summary database.JSONB[models.RunSummary] `db:"summary"`
}

// Repository handles run snapshot persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new run snapshot repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Save stores the result and its warning counts in one transaction
func (r *Repository) Save(ctx context.Context, result *pipeline.Result) error {
	ctx, span := tracing.StartSpan(ctx, "runsnapshot.Repository.Save")
	defer span.End()

	log := r.logger.WithContext(ctx).WithField("run_id", result.RunID)
	summary := result.Summary()

	err := database.WithTx(ctx, r.db, func(ctx context.Context, tx database.Tx) error {
		ib := sqlbuilder.PostgreSQL.NewInsertBuilder()
		ib.InsertInto(snapshotTable)
		ib.Cols("id", "fingerprint", "status", "summary", "snapshot", "started_at", "finished_at", "created_at")
		ib.Values(result.RunID, result.Fingerprint, summary.Status,
			database.NewJSONB(summary), database.NewJSONB(result),
			result.StartedAt, result.FinishedAt, time.Now().UTC())

		query, args := ib.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert run snapshot: %w", err)
		}

		if len(summary.Warnings) == 0 {
			return nil
		}
		kinds := make([]string, 0, len(summary.Warnings))
		for kind := range summary.Warnings {
			kinds = append(kinds, kind)
		}
		sort.Strings(kinds)

		wb := sqlbuilder.PostgreSQL.NewInsertBuilder()
		wb.InsertInto(warningTable)
		wb.Cols("run_id", "kind", "count")
		for _, kind := range kinds {
			wb.Values(result.RunID, kind, summary.Warnings[kind])
		}
		query, args = wb.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to insert run warnings: %w", err)
		}
		return nil
	})
	if err != nil {
		log.WithError(err).Error("Failed to save run snapshot")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to save run snapshot")
	}

	log.WithFields(map[string]any{"warnings": len(result.Warnings)}).Info("Saved run snapshot")
	return nil
}

func selectSnapshot() *sqlbuilder.SelectBuilder {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "fingerprint", "status", "summary", "snapshot", "started_at", "finished_at", "created_at")
	sb.From(snapshotTable)
	return sb
}

// GetByID retrieves a snapshot by run id
func (r *Repository) GetByID(ctx context.Context, id string) (*Snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "runsnapshot.Repository.GetByID")
	defer span.End()

	sb := selectSnapshot()
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var snapshot Snapshot
	if err := r.db.GetContext(ctx, &snapshot, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, fmt.Sprintf("run %s not found", id))
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get run snapshot")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get run snapshot")
	}
	return &snapshot, nil
}

// Latest retrieves the most recently stored snapshot
func (r *Repository) Latest(ctx context.Context) (*Snapshot, error) {
	ctx, span := tracing.StartSpan(ctx, "runsnapshot.Repository.Latest")
	defer span.End()

	sb := selectSnapshot()
	sb.OrderBy("created_at DESC")
	sb.Limit(1)

	query, args := sb.Build()
	var snapshot Snapshot
	if err := r.db.GetContext(ctx, &snapshot, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, httperror.NewHTTPError(http.StatusNotFound, "no runs found")
		}
		r.logger.WithContext(ctx).WithError(err).Error("Failed to get latest run snapshot")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get latest run snapshot")
	}
	return &snapshot, nil
}

// List returns the summaries of the most recent runs, newest first
func (r *Repository) List(ctx context.Context, limit int) ([]models.RunSummary, error) {
	ctx, span := tracing.StartSpan(ctx, "runsnapshot.Repository.List")
	defer span.End()

	if limit < 1 || limit > 100 {
		limit = 20
	}

	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("summary")
	sb.From(snapshotTable)
	sb.OrderBy("created_at DESC")
	sb.Limit(limit)

	query, args := sb.Build()
	var rows []summaryRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list run snapshots")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list runs")
	}

	out := make([]models.RunSummary, len(rows))
	for i, row := range rows {
		out[i] = row.Summary.Data
	}
	return out, nil
}
