package config_test

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"

	"github.com/cloudnebula/reddwarf/internal/config"
)

func newServerCmd() *cobra.Command {
	cmd := &cobra.Command{Use: "test"}
	config.BindServerFlags(cmd)
	return cmd
}

func TestLoadServerConfigDefaults(t *testing.T) {
	cmd := newServerCmd()
	cfg, err := config.LoadServerConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, "./reddwarf-data", cfg.DataDir)
	require.Equal(t, "127.0.0.1:8080", cfg.APIAddr)
	require.False(t, cfg.LogJSON)
}

func TestLoadServerConfigEnvFallback(t *testing.T) {
	t.Setenv("REDDWARF_DATA_DIR", "/var/lib/reddwarf")
	cmd := newServerCmd()
	cfg, err := config.LoadServerConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, "/var/lib/reddwarf", cfg.DataDir)
}

func TestLoadServerConfigFlagOverridesEnv(t *testing.T) {
	t.Setenv("REDDWARF_DATA_DIR", "/var/lib/reddwarf")
	cmd := newServerCmd()
	require.NoError(t, cmd.Flags().Set("data-dir", "/explicit"))
	cfg, err := config.LoadServerConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, "/explicit", cfg.DataDir)
}

func TestLoadAgentConfigRequiresNodeName(t *testing.T) {
	cmd := &cobra.Command{Use: "agent"}
	config.BindAgentFlags(cmd)
	_, err := config.LoadAgentConfig(cmd)
	require.Error(t, err)
}

func TestLoadAgentConfigWithNodeName(t *testing.T) {
	cmd := &cobra.Command{Use: "agent"}
	config.BindAgentFlags(cmd)
	require.NoError(t, cmd.Flags().Set("node-name", "node-1"))
	cfg, err := config.LoadAgentConfig(cmd)
	require.NoError(t, err)
	require.Equal(t, "node-1", cfg.NodeName)
}
