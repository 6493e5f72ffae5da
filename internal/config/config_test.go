package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_PORT", "")
	t.Setenv("LENDING_MODE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AGENT_TIMEOUT_MS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.Equal(t, "ap-south-1", cfg.Region)
	assert.Equal(t, 600*time.Second, cfg.AgentTimeout)
	assert.Equal(t, int64(65536), cfg.MaxMessageSize)
	assert.False(t, cfg.CarryPartialObjects)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lending.yaml")
	content := `
http_port: 9000
region: us-east-1
agent_arn: arn:aws:bedrock-agentcore:us-east-1:123456789012:runtime/lending
agent_timeout: 2m
carry_partial_objects: true
mode: MOCK
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("WS_PING_INTERVAL_MS", "1500")
	t.Setenv("LENDING_MODE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AGENT_TIMEOUT_MS", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.HTTPPort)
	assert.Equal(t, "us-east-1", cfg.Region)
	assert.Equal(t, 2*time.Minute, cfg.AgentTimeout)
	assert.Equal(t, 1500*time.Millisecond, cfg.PingInterval)
	assert.True(t, cfg.CarryPartialObjects)
	assert.Equal(t, "MOCK", cfg.Mode)
}

func TestLoadBadFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}

func TestInvalidEnvKeepsDefault(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("HTTP_PORT", "not-a-number")
	t.Setenv("CARRY_PARTIAL_OBJECTS", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.HTTPPort)
	assert.False(t, cfg.CarryPartialObjects)
}
