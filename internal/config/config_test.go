package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "amazon.nova-lite-v1:0", cfg.ModelID)
	require.Equal(t, cfg.ModelID, cfg.ChatModelID)
	require.Equal(t, "MedicalAI_ChatHistory", cfg.HistoryTable)
	require.Equal(t, 15*time.Minute, cfg.SessionTTL)
	require.Equal(t, time.Minute, cfg.SweepInterval)
	require.False(t, cfg.AgentConfigured())
	require.False(t, cfg.ReportsConfigured())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("BEDROCK_MODEL_ID", "amazon.nova-pro-v1:0")
	t.Setenv("BEDROCK_AGENT_ID", "agent-1")
	t.Setenv("BEDROCK_AGENT_ALIAS_ID", "alias-1")
	t.Setenv("AGENT_SESSION_TTL", "30m")
	t.Setenv("AGENT_SWEEP_INTERVAL", "45")
	t.Setenv("S3_USE_SSL", "false")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.Port)
	require.Equal(t, "amazon.nova-pro-v1:0", cfg.ModelID)
	require.True(t, cfg.AgentConfigured())
	require.Equal(t, 30*time.Minute, cfg.SessionTTL)
	require.Equal(t, 45*time.Second, cfg.SweepInterval)
	require.False(t, cfg.S3UseSSL)
}

func TestValidateRejectsEmptyPort(t *testing.T) {
	t.Setenv("PORT", "")
	_, err := Load()
	require.Error(t, err)
}
