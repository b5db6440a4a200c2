package database

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONB(t *testing.T) {
	type payload struct {
		Runs int `json:"runs"`
	}

	v, err := NewJSONB(payload{Runs: 3}).Value()
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"runs":3}`), v)

	var out JSONB[payload]
	require.NoError(t, out.Scan([]byte(`{"runs":7}`)))
	assert.Equal(t, 7, out.Data.Runs)

	require.NoError(t, out.Scan(`{"runs":1}`))
	assert.Equal(t, 1, out.Data.Runs)

	require.NoError(t, out.Scan(nil))
	assert.Equal(t, 0, out.Data.Runs)

	assert.Error(t, out.Scan(42))

	encoded, err := json.Marshal(struct {
		Payload JSONB[payload] `json:"payload"`
	}{NewJSONB(payload{Runs: 2})})
	require.NoError(t, err)
	assert.JSONEq(t, `{"payload":{"runs":2}}`, string(encoded))

	require.NoError(t, json.Unmarshal([]byte(`{"runs":5}`), &out))
	assert.Equal(t, 5, out.Data.Runs)
}

func TestConnectionConfig_DSN(t *testing.T) {
	cfg := ConnectionConfig{Host: "db", Port: "5432", User: "clover", Password: "secret", Name: "clover"}
	assert.Equal(t, "host=db port=5432 user=clover password=secret dbname=clover sslmode=disable", cfg.DSN())

	cfg.SSLMode = "require"
	assert.Contains(t, cfg.DSN(), "sslmode=require")
}

func TestLatestVersion(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{
		"000001_create_run_snapshots.up.sql",
		"000001_create_run_snapshots.down.sql",
		"000003_add_index.up.sql",
		"000002_add_column.up.sql",
		"README.md",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("--"), 0o600))
	}

	v, err := LatestVersion(dir)
	require.NoError(t, err)
	assert.Equal(t, 3, v)

	_, err = LatestVersion(t.TempDir())
	assert.Error(t, err)
}
