package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudnebula/reddwarf/pkg/client"
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
	Use:     "reddwarfctl",
	Short:   "reddwarfctl talks to a reddwarfd REST API",
	Version: Version,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf("reddwarfctl version %s\nCommit: %s\nBuilt: %s\n", Version, Commit, BuildTime))
	rootCmd.PersistentFlags().String("server", "http://127.0.0.1:8080", "reddwarfd REST API base URL")
	rootCmd.AddCommand(applyCmd, getCmd, deleteCmd)
}

func newClient(cmd *cobra.Command) *client.Client {
	addr, _ := cmd.Flags().GetString("server")
	return client.New(addr)
}
