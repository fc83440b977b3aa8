package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "backupmpps", cfg.ServiceName)
	assert.Equal(t, "https://extraviados.mx", cfg.APIEndpointURL)
	assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 120*time.Second, cfg.CompressTimeout)
	assert.Equal(t, "https://us-southeast-1.linodeobjects.com", cfg.Storage.Endpoint)
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("EXTRAVIADOSMX_ENDPOINT_URL", "http://localhost:8000")
	t.Setenv("REQUEST_TIMEOUT", "30s")
	t.Setenv("LOG_JSON", "true")

	cfg := Load()

	assert.Equal(t, "http://localhost:8000", cfg.APIEndpointURL)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.True(t, cfg.LogJSON)
}

func TestLoadIgnoresMalformedDuration(t *testing.T) {
	t.Setenv("REQUEST_TIMEOUT", "not-a-duration")

	cfg := Load()

	assert.Equal(t, 120*time.Second, cfg.RequestTimeout)
}

func TestValidateCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "AKIA123")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "secret")
	require.NoError(t, Load().ValidateCredentials())

	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	err := Load().ValidateCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AWS_SECRET_ACCESS_KEY")

	t.Setenv("AWS_ACCESS_KEY_ID", "")
	err = Load().ValidateCredentials()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AWS_ACCESS_KEY_ID")
}
