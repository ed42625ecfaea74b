package client

import (
	"context"
	"fmt"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

// --- Pod ---

func (c *Client) CreatePod(ctx context.Context, namespace string, pod *types.Pod) (*types.Pod, error) {
	var out types.Pod
	if err := c.create(ctx, podsPath(namespace), pod, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetPod(ctx context.Context, namespace, name string) (*types.Pod, error) {
	var out types.Pod
	if err := c.get(ctx, podPath(namespace, name), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListPods(ctx context.Context, namespace string) ([]types.Pod, error) {
	var out []types.Pod
	if err := c.list(ctx, podsPath(namespace), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ReplacePod(ctx context.Context, namespace string, pod *types.Pod) (*types.Pod, error) {
	var out types.Pod
	if err := c.replace(ctx, podPath(namespace, pod.ObjectMeta.Name), pod, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PatchPod(ctx context.Context, namespace, name string, mergePatch []byte) (*types.Pod, error) {
	var out types.Pod
	if err := c.patch(ctx, podPath(namespace, name), mergePatch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeletePod(ctx context.Context, namespace, name string) (*types.Pod, error) {
	var out types.Pod
	if err := c.delete(ctx, podPath(namespace, name), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FinalizePod(ctx context.Context, namespace, name string) error {
	return c.finalize(ctx, podPath(namespace, name))
}

func podsPath(namespace string) string {
	return fmt.Sprintf("/api/v1/namespaces/%s/pods", namespace)
}

func podPath(namespace, name string) string {
	return fmt.Sprintf("/api/v1/namespaces/%s/pods/%s", namespace, name)
}

// --- Service ---

func (c *Client) CreateService(ctx context.Context, namespace string, svc *types.Service) (*types.Service, error) {
	var out types.Service
	if err := c.create(ctx, servicesPath(namespace), svc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetService(ctx context.Context, namespace, name string) (*types.Service, error) {
	var out types.Service
	if err := c.get(ctx, servicePath(namespace, name), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListServices(ctx context.Context, namespace string) ([]types.Service, error) {
	var out []types.Service
	if err := c.list(ctx, servicesPath(namespace), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ReplaceService(ctx context.Context, namespace string, svc *types.Service) (*types.Service, error) {
	var out types.Service
	if err := c.replace(ctx, servicePath(namespace, svc.ObjectMeta.Name), svc, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PatchService(ctx context.Context, namespace, name string, mergePatch []byte) (*types.Service, error) {
	var out types.Service
	if err := c.patch(ctx, servicePath(namespace, name), mergePatch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteService(ctx context.Context, namespace, name string) (*types.Service, error) {
	var out types.Service
	if err := c.delete(ctx, servicePath(namespace, name), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FinalizeService(ctx context.Context, namespace, name string) error {
	return c.finalize(ctx, servicePath(namespace, name))
}

func servicesPath(namespace string) string {
	return fmt.Sprintf("/api/v1/namespaces/%s/services", namespace)
}

func servicePath(namespace, name string) string {
	return fmt.Sprintf("/api/v1/namespaces/%s/services/%s", namespace, name)
}

// --- Secret ---

func (c *Client) CreateSecret(ctx context.Context, namespace string, secret *types.Secret) (*types.Secret, error) {
	var out types.Secret
	if err := c.create(ctx, secretsPath(namespace), secret, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetSecret(ctx context.Context, namespace, name string) (*types.Secret, error) {
	var out types.Secret
	if err := c.get(ctx, secretPath(namespace, name), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListSecrets(ctx context.Context, namespace string) ([]types.Secret, error) {
	var out []types.Secret
	if err := c.list(ctx, secretsPath(namespace), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteSecret(ctx context.Context, namespace, name string) (*types.Secret, error) {
	var out types.Secret
	if err := c.delete(ctx, secretPath(namespace, name), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) FinalizeSecret(ctx context.Context, namespace, name string) error {
	return c.finalize(ctx, secretPath(namespace, name))
}

func secretsPath(namespace string) string {
	return fmt.Sprintf("/api/v1/namespaces/%s/secrets", namespace)
}

func secretPath(namespace, name string) string {
	return fmt.Sprintf("/api/v1/namespaces/%s/secrets/%s", namespace, name)
}

// --- Namespace ---

func (c *Client) CreateNamespace(ctx context.Context, ns *types.Namespace) (*types.Namespace, error) {
	var out types.Namespace
	if err := c.create(ctx, "/api/v1/namespaces", ns, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetNamespace(ctx context.Context, name string) (*types.Namespace, error) {
	var out types.Namespace
	if err := c.get(ctx, "/api/v1/namespaces/"+name, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListNamespaces(ctx context.Context) ([]types.Namespace, error) {
	var out []types.Namespace
	if err := c.list(ctx, "/api/v1/namespaces", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DeleteNamespace(ctx context.Context, name string) (*types.Namespace, error) {
	var out types.Namespace
	if err := c.delete(ctx, "/api/v1/namespaces/"+name, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- Node ---

func (c *Client) CreateNode(ctx context.Context, node *types.Node) (*types.Node, error) {
	var out types.Node
	if err := c.create(ctx, "/api/v1/nodes", node, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetNode(ctx context.Context, name string) (*types.Node, error) {
	var out types.Node
	if err := c.get(ctx, "/api/v1/nodes/"+name, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListNodes(ctx context.Context) ([]types.Node, error) {
	var out []types.Node
	if err := c.list(ctx, "/api/v1/nodes", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) PatchNode(ctx context.Context, name string, mergePatch []byte) (*types.Node, error) {
	var out types.Node
	if err := c.patch(ctx, "/api/v1/nodes/"+name, mergePatch, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteNode(ctx context.Context, name string) (*types.Node, error) {
	var out types.Node
	if err := c.delete(ctx, "/api/v1/nodes/"+name, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
