package runsnapshot_test

import (
	"context"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Ramsey-B/clover/internal/repositories/runsnapshot"
	"github.com/Ramsey-B/clover/pkg/database"
	clerrors "github.com/Ramsey-B/clover/pkg/errors"
	"github.com/Ramsey-B/clover/pkg/pipeline"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	t.Helper()
	host := os.Getenv("DB_HOST")
	if host == "" {
		t.Skip("DB_HOST not set, skipping integration test")
	}

	cfg := database.ConnectionConfig{
		Host:     host,
		Port:     envOr("DB_PORT", "5432"),
		User:     envOr("DB_USER_NAME", "user"),
		Password: envOr("DB_PASSWORD", "password"),
		Name:     envOr("DB_NAME", "clover"),
	}

	logger := getTestLogger()
	db, err := database.Connect(context.Background(), cfg, logger)
	require.NoError(t, err, "Failed to connect to test database")
	t.Cleanup(func() { _ = db.Close() })

	migrations := database.NewMigrationService(logger, &database.MigrationConfig{MigrationFolderPath: "../../../migrations"})
	require.NoError(t, migrations.MigratePostgres(db.DB.DB, cfg.Name))
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func assertNotFound(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, httperror.IsHTTPError(err), "expected HTTP error, got: %v", err)
	assert.Equal(t, http.StatusNotFound, httperror.GetStatusCode(err))
}

func TestIntegrationRepository_SaveAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	db := getTestDB(t)
	repo := runsnapshot.NewRepository(db, getTestLogger())
	ctx := context.Background()

	result := &pipeline.Result{
		RunID:       uuid.NewString(),
		Fingerprint: "abc",
		StartedAt:   time.Now().UTC().Add(-time.Minute),
		FinishedAt:  time.Now().UTC(),
		Warnings: []clerrors.DataQualityWarning{
			clerrors.NewDataQualityWarning(clerrors.WarningUnparseableZip, "r1", "postal code %q is not numeric", "x"),
			clerrors.NewDataQualityWarning(clerrors.WarningUnparseableZip, "r2", "postal code %q is not numeric", "y"),
		},
	}
	require.NoError(t, repo.Save(ctx, result))

	got, err := repo.GetByID(ctx, result.RunID)
	require.NoError(t, err)
	assert.Equal(t, "abc", got.Fingerprint)
	assert.Equal(t, 2, got.Summary.Data.Warnings[string(clerrors.WarningUnparseableZip)])
	require.NotNil(t, got.Data.Data)
	assert.Len(t, got.Data.Data.Warnings, 2)

	latest, err := repo.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.RunID, latest.ID)

	summaries, err := repo.List(ctx, 5)
	require.NoError(t, err)
	require.NotEmpty(t, summaries)
	assert.Equal(t, result.RunID, summaries[0].RunID)

	_, err = repo.GetByID(ctx, uuid.NewString())
	assertNotFound(t, err)
}
