package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "dev", cfg.Env)
	assert.Equal(t, 15.0, cfg.PresentBelowCm)
	assert.Equal(t, 20.0, cfg.AbsentAboveCm)
	assert.Equal(t, 3, cfg.MaxConfirmAttempts)
	assert.Equal(t, 2*time.Minute, cfg.ConfirmTimeout)
	assert.Equal(t, 2*time.Minute, cfg.RestoreTimeout)
	assert.Equal(t, 30, cfg.TelemetryRetentionDays)
	assert.Equal(t, "/images/", cfg.ImageBaseURL)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("FOODSTATION_HTTP_ADDR", ":9999")
	t.Setenv("FOODSTATION_ENV", "PROD")
	t.Setenv("FOODSTATION_PRESENT_BELOW_CM", "10")
	t.Setenv("FOODSTATION_ABSENT_ABOVE_CM", "30")
	t.Setenv("FOODSTATION_CONFIRM_TIMEOUT", "45s")
	t.Setenv("FOODSTATION_RESTORE_TIMEOUT", "90s")
	t.Setenv("FOODSTATION_IMAGE_BASE_URL", "https://cdn.example/food")

	cfg, err := FromEnv()
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.HTTPAddr)
	assert.Equal(t, "prod", cfg.Env)
	assert.Equal(t, 10.0, cfg.PresentBelowCm)
	assert.Equal(t, 30.0, cfg.AbsentAboveCm)
	assert.Equal(t, 45*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, 90*time.Second, cfg.RestoreTimeout)
	assert.Equal(t, "https://cdn.example/food/", cfg.ImageBaseURL)
}

func TestFromEnv_UnknownEnvFallsBackToDev(t *testing.T) {
	t.Setenv("FOODSTATION_ENV", "staging")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.Env)
}

func TestFromEnv_InvertedThresholdsRejected(t *testing.T) {
	t.Setenv("FOODSTATION_PRESENT_BELOW_CM", "25")
	t.Setenv("FOODSTATION_ABSENT_ABOVE_CM", "20")

	_, err := FromEnv()
	require.Error(t, err)
}

func TestFromEnv_BadDuration(t *testing.T) {
	t.Setenv("FOODSTATION_CONFIRM_TIMEOUT", "soon")

	_, err := FromEnv()
	require.Error(t, err)
}

func TestLoadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stations:
  StationA:
    present_below_cm: 12
    absent_above_cm: 22
    racks:
      R3:
        present_below_cm: 9
        debounce_samples: 2
`), 0o600))

	p, err := LoadPolicy(path)
	require.NoError(t, err)

	sp, ok := p.Stations["StationA"]
	require.True(t, ok)
	require.NotNil(t, sp.PresentBelowCm)
	assert.Equal(t, 12.0, *sp.PresentBelowCm)
	require.NotNil(t, sp.Racks["R3"].DebounceSamples)
	assert.Equal(t, 2, *sp.Racks["R3"].DebounceSamples)
	assert.Nil(t, sp.Racks["R3"].AbsentAboveCm)
}

func TestLoadPolicy_EmptyPathIsNoop(t *testing.T) {
	p, err := LoadPolicy("")
	require.NoError(t, err)
	assert.Empty(t, p.Stations)
}

func TestLoadPolicy_InvalidThresholds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
stations:
  StationA:
    present_below_cm: 30
    absent_above_cm: 20
`), 0o600))

	_, err := LoadPolicy(path)
	require.Error(t, err)
}
