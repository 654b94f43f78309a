package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, DefaultBaseURL, cfg.API.BaseURL)
	assert.Equal(t, DefaultTimeout, cfg.API.Timeout)
	assert.Equal(t, DefaultPageSize, cfg.Fetch.PageSize)
	assert.Equal(t, DefaultRequestDelay, cfg.Fetch.RequestDelay)
	assert.Equal(t, 1, cfg.Fetch.DetailWorkers)
	assert.Empty(t, cfg.Database.URL)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PAGE_SIZE", "50")
	t.Setenv("REQUEST_DELAY", "100ms")
	t.Setenv("DETAIL_WORKERS", "4")
	t.Setenv("DATABASE_URL", "postgres://localhost/difc")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 50, cfg.Fetch.PageSize)
	assert.Equal(t, 100*time.Millisecond, cfg.Fetch.RequestDelay)
	assert.Equal(t, 4, cfg.Fetch.DetailWorkers)
	assert.Equal(t, "postgres://localhost/difc", cfg.Database.URL)
}

func TestLoad_RejectsInvalid(t *testing.T) {
	t.Setenv("PAGE_SIZE", "-1")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_IgnoresUnparseableOverrides(t *testing.T) {
	t.Setenv("PAGE_SIZE", "not-a-number")
	t.Setenv("REQUEST_DELAY", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, cfg.Fetch.PageSize)
	assert.Equal(t, DefaultRequestDelay, cfg.Fetch.RequestDelay)
}
