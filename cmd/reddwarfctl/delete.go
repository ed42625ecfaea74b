package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <kind> <name>",
	Short: "Delete a resource",
	Long: `Delete removes a single named resource.

The server marks the object by setting its deletion timestamp, and the
command returns without waiting for it to disappear; a Pod is removed
once the controller has finalized it.

Examples:
  reddwarfctl delete pod web-1
  reddwarfctl delete node worker-3`,
	Args: cobra.ExactArgs(2),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().StringP("namespace", "n", types.DefaultNamespaceName, "Namespace (ignored for cluster-scoped kinds)")
}

func runDelete(cmd *cobra.Command, args []string) error {
	c := newClient(cmd)
	ctx := context.Background()
	ns, _ := cmd.Flags().GetString("namespace")
	kind, name := args[0], args[1]

	switch normalizeKind(kind) {
	case "pod":
		if _, err := c.DeletePod(ctx, ns, name); err != nil {
			return fmt.Errorf("delete pod %s: %w", name, err)
		}
		fmt.Printf("pod/%s deleted\n", name)

	case "service":
		if _, err := c.DeleteService(ctx, ns, name); err != nil {
			return fmt.Errorf("delete service %s: %w", name, err)
		}
		fmt.Printf("service/%s deleted\n", name)

	case "secret":
		if _, err := c.DeleteSecret(ctx, ns, name); err != nil {
			return fmt.Errorf("delete secret %s: %w", name, err)
		}
		fmt.Printf("secret/%s deleted\n", name)

	case "namespace":
		if _, err := c.DeleteNamespace(ctx, name); err != nil {
			return fmt.Errorf("delete namespace %s: %w", name, err)
		}
		fmt.Printf("namespace/%s deleted\n", name)

	case "node":
		if _, err := c.DeleteNode(ctx, name); err != nil {
			return fmt.Errorf("delete node %s: %w", name, err)
		}
		fmt.Printf("node/%s deleted\n", name)

	default:
		return fmt.Errorf("unsupported kind %q", kind)
	}
	return nil
}
