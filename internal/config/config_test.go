package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrefix = "SHALOMCFGTEST_"

func setRequired(t *testing.T, env string) {
	t.Helper()
	t.Setenv(testPrefix+"PRIMARY__ENV", env)
	t.Setenv(testPrefix+"DATABASE__HOST", "localhost")
	t.Setenv(testPrefix+"DATABASE__PORT", "5432")
	t.Setenv(testPrefix+"DATABASE__USER", "shalom")
	t.Setenv(testPrefix+"DATABASE__PASSWORD", "secret")
	t.Setenv(testPrefix+"DATABASE__NAME", "shalom")
	t.Setenv(testPrefix+"DATABASE__SSL_MODE", "disable")
}

func noEnv(string) string { return "" }

func TestLoad_Defaults(t *testing.T) {
	setRequired(t, EnvDevelopment)

	cfg, err := Load(testPrefix, noEnv)
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.False(t, cfg.IsProduction())
	assert.False(t, cfg.AuthEnabled())
	assert.Equal(t, DefaultPort, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
	assert.Equal(t, "public", cfg.Server.StaticDir)
	assert.Equal(t, "shalom-ministry_logs", cfg.LogStore.Collection)
	assert.Equal(t, "logs/responses.log", cfg.LogStore.FilePath)
	assert.Equal(t, 10*time.Second, cfg.LogStore.WriteTimeout)

	require.NotNil(t, cfg.Observability)
	assert.Equal(t, "shalom-ministry", cfg.Observability.ServiceName)
	assert.Equal(t, EnvDevelopment, cfg.Observability.Environment)
}

func TestLoad_PortFallsBackToPORT(t *testing.T) {
	setRequired(t, EnvTest)

	cfg, err := Load(testPrefix, func(key string) string {
		if key == "PORT" {
			return "8081"
		}
		return ""
	})
	require.NoError(t, err)
	assert.Equal(t, "8081", cfg.Server.Port)

	t.Setenv(testPrefix+"SERVER__PORT", "9000")
	cfg, err = Load(testPrefix, noEnv)
	require.NoError(t, err)
	assert.Equal(t, "9000", cfg.Server.Port)
}

func TestLoad_RejectsUnknownEnvironment(t *testing.T) {
	setRequired(t, "staging")

	_, err := Load(testPrefix, noEnv)
	assert.Error(t, err)
}

func TestLoad_RequiresDatabase(t *testing.T) {
	t.Setenv(testPrefix+"PRIMARY__ENV", EnvTest)

	_, err := Load(testPrefix, noEnv)
	assert.Error(t, err)
}

func TestLoad_AuthAndLogStore(t *testing.T) {
	setRequired(t, EnvProduction)
	t.Setenv(testPrefix+"AUTH__SECRET_KEY", "sk_test")
	t.Setenv(testPrefix+"LOG_STORE__HOST", "mongodb+srv")
	t.Setenv(testPrefix+"LOG_STORE__WRITE_TIMEOUT", "3s")

	cfg, err := Load(testPrefix, noEnv)
	require.NoError(t, err)

	assert.True(t, cfg.AuthEnabled())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "mongodb+srv", cfg.LogStore.Host)
	assert.Equal(t, 3*time.Second, cfg.LogStore.WriteTimeout)
}

func TestObservability_HasCheck(t *testing.T) {
	obs := DefaultObservabilityConfig()
	assert.True(t, obs.HasCheck("database"))
	assert.True(t, obs.HasCheck("log_store"))
	assert.False(t, obs.HasCheck("kafka"))

	obs.HealthChecks.Enabled = false
	assert.False(t, obs.HasCheck("database"))
}
