package main

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudnebula/reddwarf/internal/config"
	"github.com/cloudnebula/reddwarf/internal/rdlog"
	"github.com/cloudnebula/reddwarf/internal/secretbox"
	"github.com/cloudnebula/reddwarf/pkg/api"
	"github.com/cloudnebula/reddwarf/pkg/controller"
	"github.com/cloudnebula/reddwarf/pkg/events"
	"github.com/cloudnebula/reddwarf/pkg/kv"
	"github.com/cloudnebula/reddwarf/pkg/metrics"
	"github.com/cloudnebula/reddwarf/pkg/runtime"
	"github.com/cloudnebula/reddwarf/pkg/store"
	"github.com/cloudnebula/reddwarf/pkg/version"
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
	Use:   "reddwarfd",
	Short: "Reddwarf control plane: REST API, resource store, and reconciler in one process",
	Long: `reddwarfd is Reddwarf's single-binary control plane.

It serves the /api/v1 REST surface, persists resources in an embedded
commit log, and runs the reconciliation loop that drives Pods through
the configured container runtime. One process, no external dependencies.`,
	Version: Version,
	RunE:    runServer,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("reddwarfd version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))
	config.BindServerFlags(rootCmd)
	rootCmd.Flags().String("containerd-socket", "/run/containerd/containerd.sock", "containerd socket path")
	rootCmd.Flags().Bool("fake-runtime", false, "Use an in-memory fake runtime instead of containerd (for local testing)")
}

func runServer(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadServerConfig(cmd)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	rdlog.Init(rdlog.Config{Level: rdlog.Level(cfg.LogLevel), JSONOutput: cfg.LogJSON})
	logger := rdlog.WithComponent("main")

	box, err := loadSecretBox(cfg.SecretKeyEnv)
	if err != nil {
		return fmt.Errorf("load secret key: %w", err)
	}
	if box == nil {
		logger.Warn().Str("env", cfg.SecretKeyEnv).Msg("no secret-encryption key configured, Secret data will be stored as plaintext")
	}

	engine, err := kv.Open(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open data dir: %w", err)
	}
	defer engine.Close()

	st := store.New(version.New(engine), events.NewBroker())

	rt, err := loadRuntime(cmd, cfg)
	if err != nil {
		return fmt.Errorf("init runtime: %w", err)
	}
	defer rt.Close()

	ctrl := controller.New(st, rt, controller.Config{
		PodSweepInterval:    cfg.PodSweepInterval,
		NodeSweepInterval:   cfg.NodeSweepInterval,
		NodeStaleAfter:      cfg.NodeStaleAfter,
		ReconcileMaxBackoff: cfg.ReconcileMaxBackoff,
		HealthCheckInterval: cfg.HealthCheckInterval,
	})
	ctrl.Start()
	defer ctrl.Stop()

	collector := metrics.NewCollector(st, 15*time.Second)
	collector.Start()
	defer collector.Stop()

	apiRouter := api.New(st, box)

	healthMux := http.NewServeMux()
	healthMux.Handle("/metrics", metrics.Handler())
	healthMux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	healthSrv := &http.Server{Addr: cfg.HealthAddr, Handler: healthMux}

	apiSrv := &http.Server{Addr: cfg.APIAddr, Handler: apiRouter.Handler()}

	errCh := make(chan error, 2)
	go func() {
		logger.Info().Str("addr", cfg.APIAddr).Msg("API server listening")
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("API server: %w", err)
		}
	}()
	go func() {
		logger.Info().Str("addr", cfg.HealthAddr).Msg("health/metrics server listening")
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("health server: %w", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info().Msg("shutdown signal received")
	case err := <-errCh:
		logger.Error().Err(err).Msg("server error, shutting down")
	}

	apiRouter.Shutdown()
	_ = apiSrv.Close()
	_ = healthSrv.Close()

	logger.Info().Msg("shutdown complete")
	return nil
}

func loadSecretBox(envVar string) (*secretbox.Box, error) {
	encoded := os.Getenv(envVar)
	if encoded == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode %s as base64: %w", envVar, err)
	}
	return secretbox.New(key)
}

func loadRuntime(cmd *cobra.Command, _ config.ServerConfig) (runtime.Runtime, error) {
	useFake, _ := cmd.Flags().GetBool("fake-runtime")
	if useFake {
		return runtime.NewFakeRuntime(), nil
	}
	socketPath, _ := cmd.Flags().GetString("containerd-socket")
	return runtime.NewContainerdRuntime(socketPath)
}
