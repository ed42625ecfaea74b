package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/cloudnebula/reddwarf/pkg/client"
	"github.com/cloudnebula/reddwarf/pkg/types"
)

var applyCmd = &cobra.Command{
	Use:   "apply",
	Short: "Apply one or more resources from a YAML file",
	Long: `Apply reads a YAML file of one or more "---"-separated resource
documents and applies each one against a reddwarfd REST API. A Pod or
Service is created, or replaced if it already exists; a Secret, Namespace
or Node is created, and skipped if it already exists.

Examples:
  reddwarfctl apply -f pod.yaml
  reddwarfctl apply -f cluster.yaml --server http://10.0.0.1:8080`,
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringP("file", "f", "", "YAML file to apply (required)")
	_ = applyCmd.MarkFlagRequired("file")
}

type resourceHeader struct {
	types.TypeMeta `yaml:",inline"`
	Metadata       struct {
		Name      string `yaml:"name"`
		Namespace string `yaml:"namespace"`
	} `yaml:"metadata"`
}

func runApply(cmd *cobra.Command, _ []string) error {
	filename, _ := cmd.Flags().GetString("file")
	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	defer f.Close()

	c := newClient(cmd)
	ctx := context.Background()

	dec := yaml.NewDecoder(f)
	for {
		var doc map[string]interface{}
		if err := dec.Decode(&doc); err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("parse %s: %w", filename, err)
		}
		if len(doc) == 0 {
			continue
		}
		raw, err := yamlDocToJSON(doc)
		if err != nil {
			return err
		}
		var header resourceHeader
		if err := yaml.Unmarshal(mustJSON(doc), &header); err != nil {
			return fmt.Errorf("parse resource header: %w", err)
		}
		if header.Metadata.Namespace == "" {
			header.Metadata.Namespace = types.DefaultNamespaceName
		}
		if err := applyOne(ctx, c, header, raw); err != nil {
			return err
		}
	}
	return nil
}

func yamlDocToJSON(doc map[string]interface{}) (json.RawMessage, error) {
	b, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode resource as JSON: %w", err)
	}
	return b, nil
}

func mustJSON(v interface{}) []byte {
	b, _ := json.Marshal(v)
	return b
}

func applyOne(ctx context.Context, c *client.Client, header resourceHeader, raw json.RawMessage) error {
	name, ns := header.Metadata.Name, header.Metadata.Namespace
	switch header.Kind {
	case "Pod":
		var pod types.Pod
		if err := json.Unmarshal(raw, &pod); err != nil {
			return fmt.Errorf("decode Pod %s: %w", name, err)
		}
		pod.ObjectMeta.Namespace = ns
		existing, err := c.GetPod(ctx, ns, name)
		if isNotFound(err) {
			if _, err := c.CreatePod(ctx, ns, &pod); err != nil {
				return fmt.Errorf("create pod %s: %w", name, err)
			}
			fmt.Printf("pod/%s created\n", name)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get pod %s: %w", name, err)
		}
		pod.ObjectMeta.ResourceVersion = existing.ObjectMeta.ResourceVersion
		if _, err := c.ReplacePod(ctx, ns, &pod); err != nil {
			return fmt.Errorf("replace pod %s: %w", name, err)
		}
		fmt.Printf("pod/%s configured\n", name)

	case "Service":
		var svc types.Service
		if err := json.Unmarshal(raw, &svc); err != nil {
			return fmt.Errorf("decode Service %s: %w", name, err)
		}
		svc.ObjectMeta.Namespace = ns
		existing, err := c.GetService(ctx, ns, name)
		if isNotFound(err) {
			if _, err := c.CreateService(ctx, ns, &svc); err != nil {
				return fmt.Errorf("create service %s: %w", name, err)
			}
			fmt.Printf("service/%s created\n", name)
			return nil
		}
		if err != nil {
			return fmt.Errorf("get service %s: %w", name, err)
		}
		svc.ObjectMeta.ResourceVersion = existing.ObjectMeta.ResourceVersion
		if _, err := c.ReplaceService(ctx, ns, &svc); err != nil {
			return fmt.Errorf("replace service %s: %w", name, err)
		}
		fmt.Printf("service/%s configured\n", name)

	case "Secret":
		var secret types.Secret
		if err := json.Unmarshal(raw, &secret); err != nil {
			return fmt.Errorf("decode Secret %s: %w", name, err)
		}
		secret.ObjectMeta.Namespace = ns
		if _, err := c.GetSecret(ctx, ns, name); err == nil {
			fmt.Printf("secret/%s already exists, skipping\n", name)
			return nil
		}
		if _, err := c.CreateSecret(ctx, ns, &secret); err != nil {
			return fmt.Errorf("create secret %s: %w", name, err)
		}
		fmt.Printf("secret/%s created\n", name)

	case "Namespace":
		var namespace types.Namespace
		if err := json.Unmarshal(raw, &namespace); err != nil {
			return fmt.Errorf("decode Namespace %s: %w", name, err)
		}
		if _, err := c.GetNamespace(ctx, name); err == nil {
			fmt.Printf("namespace/%s already exists, skipping\n", name)
			return nil
		}
		if _, err := c.CreateNamespace(ctx, &namespace); err != nil {
			return fmt.Errorf("create namespace %s: %w", name, err)
		}
		fmt.Printf("namespace/%s created\n", name)

	case "Node":
		var node types.Node
		if err := json.Unmarshal(raw, &node); err != nil {
			return fmt.Errorf("decode Node %s: %w", name, err)
		}
		if _, err := c.GetNode(ctx, name); err == nil {
			fmt.Printf("node/%s already exists, skipping\n", name)
			return nil
		}
		if _, err := c.CreateNode(ctx, &node); err != nil {
			return fmt.Errorf("create node %s: %w", name, err)
		}
		fmt.Printf("node/%s created\n", name)

	default:
		return fmt.Errorf("unsupported kind %q", header.Kind)
	}
	return nil
}

func isNotFound(err error) bool {
	apiErr, ok := err.(*client.APIError)
	return ok && apiErr.Reason == "NotFound"
}
