package global

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv(EnvTenantId, "tenant-1")
	t.Setenv(EnvClientId, "client-1")
	t.Setenv(EnvClientSecret, "secret-1")
}

func TestConfigFromEnv_Defaults(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvListenAddress, "")
	t.Setenv(EnvRunTimeout, "")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "tenant-1", cfg.TenantId)
	assert.Equal(t, "client-1", cfg.ClientId)
	assert.Equal(t, "secret-1", cfg.ClientSecret)
	assert.Equal(t, "0.0.0.0:8080", cfg.ListenAddress)
	assert.Equal(t, 2*time.Minute, cfg.RunTimeout)
}

func TestConfigFromEnv_Overrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvListenAddress, "127.0.0.1:9090")
	t.Setenv(EnvRunTimeout, "45s")

	cfg, err := ConfigFromEnv()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9090", cfg.ListenAddress)
	assert.Equal(t, 45*time.Second, cfg.RunTimeout)
}

func TestConfigFromEnv_ReportsEveryMissingVariable(t *testing.T) {
	t.Setenv(EnvTenantId, "")
	t.Setenv(EnvClientId, "")
	t.Setenv(EnvClientSecret, "secret-1")
	t.Setenv(EnvListenAddress, "")
	t.Setenv(EnvRunTimeout, "")

	_, err := ConfigFromEnv()
	require.Error(t, err)

	assert.Contains(t, err.Error(), EnvTenantId)
	assert.Contains(t, err.Error(), EnvClientId)
	assert.NotContains(t, err.Error(), EnvClientSecret)
}

func TestConfigFromEnv_InvalidRunTimeout(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv(EnvListenAddress, "")
	t.Setenv(EnvRunTimeout, "soon")

	_, err := ConfigFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), EnvRunTimeout)
}
