package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	cfg := Default()
	cfg.Database.URL = "postgres://localhost/receipts"
	cfg.CustomExclusions = []CustomExclusion{
		{
			Name:                "june-2017-brokerage",
			Start:               "2017-06-07",
			End:                 "2017-06-12",
			DescriptionContains: "INTERACTIVE BROK ACH TRANSF",
		},
	}

	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, cfg.Database.URL, got.Database.URL)
	assert.Equal(t, cfg.Log, got.Log)
	assert.Equal(t, cfg.Import, got.Import)
	assert.Equal(t, cfg.ExclusionFilters, got.ExclusionFilters)
	require.Len(t, got.CustomExclusions, 1)
	assert.Equal(t, "INTERACTIVE BROK ACH TRANSF", got.CustomExclusions[0].DescriptionContains)
	assert.Equal(t, ":8080", got.Server.Addr)
}

func TestDefaults(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, "import", cfg.Import.Dir)
	assert.Contains(t, cfg.ExclusionFilters, "exclusion_conditions")
	assert.Contains(t, cfg.ExclusionFilters, "credit_payments")
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.CustomExclusions)
}

func TestLoadNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "import", cfg.Import.Dir)
	assert.NotEmpty(t, cfg.ExclusionFilters)
}

func TestValidate_CustomExclusions(t *testing.T) {
	tests := []struct {
		name string
		ce   CustomExclusion
		ok   bool
	}{
		{"valid", CustomExclusion{Name: "a", Start: "2018-05-01", End: "2018-05-07"}, true},
		{"single day", CustomExclusion{Name: "a", Start: "2018-04-09", End: "2018-04-09"}, true},
		{"missing name", CustomExclusion{Start: "2018-05-01", End: "2018-05-07"}, false},
		{"bad start", CustomExclusion{Name: "a", Start: "05/01/2018", End: "2018-05-07"}, false},
		{"reversed", CustomExclusion{Name: "a", Start: "2018-05-07", End: "2018-05-01"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.CustomExclusions = []CustomExclusion{tt.ce}
			err := cfg.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("RECEIPTS_LOG_LEVEL=warn\n"), 0o644))
	t.Setenv(EnvDatabaseURL, "postgres://env/receipts")
	t.Setenv(EnvLogLevel, "")
	os.Unsetenv(EnvLogLevel)

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(dir))
	assert.Equal(t, "postgres://env/receipts", cfg.Database.URL)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestApplyEnv_NoDotEnv(t *testing.T) {
	t.Setenv(EnvDatabaseURL, "")
	t.Setenv(EnvDatabaseURLAlt, "postgres://alt/receipts")

	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(t.TempDir()))
	assert.Equal(t, "postgres://alt/receipts", cfg.Database.URL)
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.Resolve("/srv/books")
	assert.Equal(t, "/srv/books/import", cfg.Import.Dir)
	assert.Equal(t, "/srv/books/import/processed", cfg.Import.ProcessedDir)
	assert.Equal(t, "/srv/books/logs/itemize-log.csv", cfg.Import.RunLog)
}
