package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudnebula/reddwarf/internal/config"
	"github.com/cloudnebula/reddwarf/internal/rdlog"
	"github.com/cloudnebula/reddwarf/pkg/client"
	"github.com/cloudnebula/reddwarf/pkg/types"
)

var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "reddwarf-agent",
	Short: "Registers a Node with reddwarfd and keeps its heartbeat current",
	Long: `reddwarf-agent is a thin process that runs on a worker host.

It registers (or re-registers) a Node resource with reddwarfd and patches
its heartbeat on a fixed interval. reddwarfd drives the zone runtime
directly, so the agent never touches containerd itself; it only reports
that the node is alive.`,
	Version: Version,
	RunE:    runAgent,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("reddwarf-agent version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))
	rootCmd.PersistentFlags().String("log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().Bool("log-json", false, "Output logs in JSON format")
	config.BindAgentFlags(rootCmd)
	rootCmd.Flags().String("address", "", "Address other nodes can reach this node at")
	rootCmd.Flags().Int("cpu-cores", 0, "Reported CPU core capacity")
	rootCmd.Flags().Int64("memory-bytes", 0, "Reported memory capacity in bytes")
	rootCmd.Flags().Int64("disk-bytes", 0, "Reported disk capacity in bytes")
}

func runAgent(cmd *cobra.Command, _ []string) error {
	logLevel, _ := cmd.Flags().GetString("log-level")
	logJSON, _ := cmd.Flags().GetBool("log-json")
	rdlog.Init(rdlog.Config{Level: rdlog.Level(logLevel), JSONOutput: logJSON})

	cfg, err := config.LoadAgentConfig(cmd)
	if err != nil {
		return err
	}
	address, _ := cmd.Flags().GetString("address")
	cpuCores, _ := cmd.Flags().GetInt("cpu-cores")
	memBytes, _ := cmd.Flags().GetInt64("memory-bytes")
	diskBytes, _ := cmd.Flags().GetInt64("disk-bytes")

	logger := rdlog.WithNode(cfg.NodeName)
	c := client.New(cfg.ManagerAddr)
	ctx := context.Background()

	if err := registerNode(ctx, c, cfg.NodeName, address, cpuCores, memBytes, diskBytes); err != nil {
		return fmt.Errorf("register node: %w", err)
	}
	logger.Info().Str("manager", cfg.ManagerAddr).Msg("node registered")

	if err := heartbeat(ctx, c, cfg.NodeName); err != nil {
		logger.Error().Err(err).Msg("initial heartbeat failed")
	}

	ticker := time.NewTicker(cfg.HeartbeatPeriod)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	for {
		select {
		case <-ticker.C:
			if err := heartbeat(ctx, c, cfg.NodeName); err != nil {
				logger.Warn().Err(err).Msg("heartbeat failed")
			}
		case <-sigCh:
			logger.Info().Msg("shutdown signal received")
			return nil
		}
	}
}

// registerNode creates the Node if it doesn't exist yet; an existing Node
// (from a prior agent run on this host) is left as-is.
func registerNode(ctx context.Context, c *client.Client, name, address string, cpuCores int, memBytes, diskBytes int64) error {
	if _, err := c.GetNode(ctx, name); err == nil {
		return nil
	} else if apiErr, ok := err.(*client.APIError); !ok || apiErr.Reason != "NotFound" {
		return err
	}

	node := &types.Node{
		TypeMeta:   types.TypeMeta{APIVersion: "v1", Kind: "Node"},
		ObjectMeta: types.ObjectMeta{Name: name},
		Spec: types.NodeSpec{
			Address: address,
			Resources: types.NodeResources{
				CPUCores:    cpuCores,
				MemoryBytes: memBytes,
				DiskBytes:   diskBytes,
			},
		},
	}
	_, err := c.CreateNode(ctx, node)
	return err
}

func heartbeat(ctx context.Context, c *client.Client, name string) error {
	now := time.Now().UTC()
	patch := fmt.Sprintf(
		`{"status":{"lastHeartbeatTime":%q,"conditions":[{"type":"Ready","status":"True","reason":"NodeHeartbeat","message":"agent heartbeat received","lastTransitionTime":%q}]}}`,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	_, err := c.PatchNode(ctx, name, []byte(patch))
	return err
}
