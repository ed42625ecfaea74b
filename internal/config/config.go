package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

// ServerConfig configures the reddwarfd control-plane process.
type ServerConfig struct {
	DataDir      string
	APIAddr      string
	HealthAddr   string
	LogLevel     string
	LogJSON      bool
	SecretKeyEnv string // name of the env var holding the base64 AES-256 key

	PodSweepInterval    time.Duration
	NodeSweepInterval   time.Duration
	NodeStaleAfter      time.Duration
	ReconcileMaxBackoff time.Duration
	HealthCheckInterval time.Duration
}

// AgentConfig configures the reddwarf-agent process: a thin process that
// registers a Node resource with reddwarfd and keeps its heartbeat current.
// Running the zone runtime itself is out of scope for the agent;
// reddwarfd drives pkg/runtime.Runtime directly, so the agent never
// touches containerd.
type AgentConfig struct {
	NodeName        string
	ManagerAddr     string
	HeartbeatPeriod time.Duration
}

// BindServerFlags registers reddwarfd's flags on cmd, mirroring the
// teacher's flat flag-per-setting style rather than a nested config
// struct flag.
func BindServerFlags(cmd *cobra.Command) {
	cmd.Flags().String("data-dir", "./reddwarf-data", "Data directory for the embedded store")
	cmd.Flags().String("api-addr", "127.0.0.1:8080", "Address for the REST API")
	cmd.Flags().String("health-addr", "127.0.0.1:8081", "Address for health and metrics endpoints")
	cmd.Flags().String("log-level", "info", "Log level (debug, info, warn, error)")
	cmd.Flags().Bool("log-json", false, "Output logs in JSON format")
	cmd.Flags().String("secret-key-env", "REDDWARF_SECRET_KEY", "Env var holding the base64-encoded AES-256 secret-encryption key")
	cmd.Flags().Duration("pod-sweep-interval", 30*time.Second, "Full Pod reconciliation sweep interval")
	cmd.Flags().Duration("node-sweep-interval", 15*time.Second, "Node heartbeat sweep interval")
	cmd.Flags().Duration("node-stale-after", 40*time.Second, "Time since last heartbeat before a Node is marked Unknown")
	cmd.Flags().Duration("reconcile-max-backoff", 30*time.Second, "Cap on per-resource reconcile retry backoff")
	cmd.Flags().Duration("health-check-interval", 10*time.Second, "Interval between container health check sweeps")
}

// LoadServerConfig reads cmd's bound flags, applying REDDWARF_* env
// fallbacks for any string flag left at its default; log-json and the
// duration flags have no env fallback.
func LoadServerConfig(cmd *cobra.Command) (ServerConfig, error) {
	var cfg ServerConfig
	var err error

	if cfg.DataDir, err = stringFlag(cmd, "data-dir", "REDDWARF_DATA_DIR"); err != nil {
		return cfg, err
	}
	if cfg.APIAddr, err = stringFlag(cmd, "api-addr", "REDDWARF_API_ADDR"); err != nil {
		return cfg, err
	}
	if cfg.HealthAddr, err = stringFlag(cmd, "health-addr", "REDDWARF_HEALTH_ADDR"); err != nil {
		return cfg, err
	}
	if cfg.LogLevel, err = stringFlag(cmd, "log-level", "REDDWARF_LOG_LEVEL"); err != nil {
		return cfg, err
	}
	if cfg.LogJSON, err = cmd.Flags().GetBool("log-json"); err != nil {
		return cfg, err
	}
	if cfg.SecretKeyEnv, err = stringFlag(cmd, "secret-key-env", "REDDWARF_SECRET_KEY_ENV"); err != nil {
		return cfg, err
	}
	if cfg.PodSweepInterval, err = cmd.Flags().GetDuration("pod-sweep-interval"); err != nil {
		return cfg, err
	}
	if cfg.NodeSweepInterval, err = cmd.Flags().GetDuration("node-sweep-interval"); err != nil {
		return cfg, err
	}
	if cfg.NodeStaleAfter, err = cmd.Flags().GetDuration("node-stale-after"); err != nil {
		return cfg, err
	}
	if cfg.ReconcileMaxBackoff, err = cmd.Flags().GetDuration("reconcile-max-backoff"); err != nil {
		return cfg, err
	}
	if cfg.HealthCheckInterval, err = cmd.Flags().GetDuration("health-check-interval"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// BindAgentFlags registers reddwarf-agent's flags on cmd.
func BindAgentFlags(cmd *cobra.Command) {
	cmd.Flags().String("node-name", "", "Unique Node name (required)")
	cmd.Flags().String("manager-addr", "http://127.0.0.1:8080", "reddwarfd REST API base URL")
	cmd.Flags().Duration("heartbeat-period", 10*time.Second, "Interval between Node heartbeat PATCH calls")
}

// LoadAgentConfig reads cmd's bound agent flags.
func LoadAgentConfig(cmd *cobra.Command) (AgentConfig, error) {
	var cfg AgentConfig
	var err error

	if cfg.NodeName, err = stringFlag(cmd, "node-name", "REDDWARF_NODE_NAME"); err != nil {
		return cfg, err
	}
	if cfg.NodeName == "" {
		return cfg, fmt.Errorf("config: --node-name is required")
	}
	if cfg.ManagerAddr, err = stringFlag(cmd, "manager-addr", "REDDWARF_MANAGER_ADDR"); err != nil {
		return cfg, err
	}
	if cfg.HeartbeatPeriod, err = cmd.Flags().GetDuration("heartbeat-period"); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// stringFlag reads a string flag, falling back to envVar when the flag
// was left unchanged from its registered default.
func stringFlag(cmd *cobra.Command, name, envVar string) (string, error) {
	val, err := cmd.Flags().GetString(name)
	if err != nil {
		return "", err
	}
	if !cmd.Flags().Changed(name) {
		if envVal := os.Getenv(envVar); envVal != "" {
			return envVal, nil
		}
	}
	return val, nil
}
