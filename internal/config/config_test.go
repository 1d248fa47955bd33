package config_test

import (
	"testing"
	"time"

	"github.com/examgrid/gradeflow/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "Gradeflow Client", cfg.App.Name)
	assert.Equal(t, "development", cfg.App.Environment)
	assert.Equal(t, "http://localhost:8000", cfg.Backend.BaseURL)
	assert.Equal(t, time.Duration(0), cfg.Backend.RequestTimeoutDuration())
	assert.Equal(t, int64(50), cfg.Backend.MaxUploadSizeMB)
	assert.False(t, cfg.AuxStore.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("BACKEND_BASEURL", "https://grader.example.com")
	t.Setenv("BACKEND_REQUESTTIMEOUT", "30")
	t.Setenv("AUXSTORE_ENABLED", "true")
	t.Setenv("LOGGING_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://grader.example.com", cfg.Backend.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Backend.RequestTimeoutDuration())
	assert.True(t, cfg.AuxStore.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestAuxStoreConnectionString(t *testing.T) {
	cfg := config.AuxStoreConfig{
		Host:     "db.internal",
		Port:     5433,
		Name:     "gradeflow",
		User:     "reader",
		Password: "secret",
		SSLMode:  "require",
	}

	assert.Equal(t,
		"host=db.internal port=5433 user=reader password=secret dbname=gradeflow sslmode=require",
		cfg.ConnectionString(),
	)
}
