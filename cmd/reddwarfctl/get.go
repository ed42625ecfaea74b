package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

var getCmd = &cobra.Command{
	Use:   "get <kind> [name]",
	Short: "Display one or more resources",
	Long: `Get lists all resources of a kind, or a single named resource.

Examples:
  reddwarfctl get pods
  reddwarfctl get pod web-1
  reddwarfctl get nodes`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runGet,
}

func init() {
	getCmd.Flags().StringP("namespace", "n", types.DefaultNamespaceName, "Namespace (ignored for cluster-scoped kinds)")
}

func runGet(cmd *cobra.Command, args []string) error {
	c := newClient(cmd)
	ctx := context.Background()
	ns, _ := cmd.Flags().GetString("namespace")
	kind := args[0]
	name := ""
	if len(args) == 2 {
		name = args[1]
	}

	switch normalizeKind(kind) {
	case "pod":
		if name != "" {
			pod, err := c.GetPod(ctx, ns, name)
			if err != nil {
				return fmt.Errorf("get pod %s: %w", name, err)
			}
			return printPods([]types.Pod{*pod})
		}
		pods, err := c.ListPods(ctx, ns)
		if err != nil {
			return fmt.Errorf("list pods: %w", err)
		}
		return printPods(pods)

	case "service":
		if name != "" {
			svc, err := c.GetService(ctx, ns, name)
			if err != nil {
				return fmt.Errorf("get service %s: %w", name, err)
			}
			return printServices([]types.Service{*svc})
		}
		svcs, err := c.ListServices(ctx, ns)
		if err != nil {
			return fmt.Errorf("list services: %w", err)
		}
		return printServices(svcs)

	case "secret":
		if name != "" {
			secret, err := c.GetSecret(ctx, ns, name)
			if err != nil {
				return fmt.Errorf("get secret %s: %w", name, err)
			}
			return printSecrets([]types.Secret{*secret})
		}
		secrets, err := c.ListSecrets(ctx, ns)
		if err != nil {
			return fmt.Errorf("list secrets: %w", err)
		}
		return printSecrets(secrets)

	case "namespace":
		if name != "" {
			namespace, err := c.GetNamespace(ctx, name)
			if err != nil {
				return fmt.Errorf("get namespace %s: %w", name, err)
			}
			return printNamespaces([]types.Namespace{*namespace})
		}
		namespaces, err := c.ListNamespaces(ctx)
		if err != nil {
			return fmt.Errorf("list namespaces: %w", err)
		}
		return printNamespaces(namespaces)

	case "node":
		if name != "" {
			node, err := c.GetNode(ctx, name)
			if err != nil {
				return fmt.Errorf("get node %s: %w", name, err)
			}
			return printNodes([]types.Node{*node})
		}
		nodes, err := c.ListNodes(ctx)
		if err != nil {
			return fmt.Errorf("list nodes: %w", err)
		}
		return printNodes(nodes)

	default:
		return fmt.Errorf("unsupported kind %q", kind)
	}
}

// normalizeKind accepts both singular and plural forms ("pod", "pods").
func normalizeKind(kind string) string {
	switch kind {
	case "pod", "pods":
		return "pod"
	case "service", "services", "svc":
		return "service"
	case "secret", "secrets":
		return "secret"
	case "namespace", "namespaces", "ns":
		return "namespace"
	case "node", "nodes":
		return "node"
	default:
		return kind
	}
}

func printPods(pods []types.Pod) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "NAMESPACE\tNAME\tPHASE\tPOD IP\tNODE")
	for _, p := range pods {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			p.ObjectMeta.Namespace, p.ObjectMeta.Name, p.Status.Phase, p.Status.PodIP, p.Spec.NodeName)
	}
	return nil
}

func printServices(svcs []types.Service) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "NAMESPACE\tNAME\tSELECTOR")
	for _, s := range svcs {
		fmt.Fprintf(w, "%s\t%s\t%v\n", s.ObjectMeta.Namespace, s.ObjectMeta.Name, s.Spec.Selector)
	}
	return nil
}

func printSecrets(secrets []types.Secret) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "NAMESPACE\tNAME\tTYPE")
	for _, s := range secrets {
		fmt.Fprintf(w, "%s\t%s\t%s\n", s.ObjectMeta.Namespace, s.ObjectMeta.Name, s.Spec.Type)
	}
	return nil
}

func printNamespaces(namespaces []types.Namespace) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "NAME\tPHASE")
	for _, n := range namespaces {
		fmt.Fprintf(w, "%s\t%s\n", n.ObjectMeta.Name, n.Status.Phase)
	}
	return nil
}

func printNodes(nodes []types.Node) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintln(w, "NAME\tADDRESS\tREADY")
	for _, n := range nodes {
		ready := "False"
		for _, cond := range n.Status.Conditions {
			if cond.Type == types.NodeReadyConditionType && cond.Status == "True" {
				ready = "True"
				break
			}
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", n.ObjectMeta.Name, n.Spec.Address, ready)
	}
	return nil
}
