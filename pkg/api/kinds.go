package api

import (
	"encoding/json"
	"fmt"

	"github.com/cloudnebula/reddwarf/internal/apierror"
	"github.com/cloudnebula/reddwarf/internal/secretbox"
	"github.com/cloudnebula/reddwarf/pkg/types"
	"github.com/cloudnebula/reddwarf/pkg/validation"
)

// kindConfig binds one resource kind to its GVK, URL plural, and
// validation function. Namespaced controls which route tree a kind is
// mounted under (spec §4.3: /namespaces/{ns}/{kind}s vs /{kind}s).
type kindConfig struct {
	gvk        types.GVK
	plural     string
	namespaced bool
	validate   func(payload json.RawMessage) (types.ObjectMeta, *apierror.Error)
}

func validatePod(payload json.RawMessage) (types.ObjectMeta, *apierror.Error) {
	var p types.Pod
	if err := json.Unmarshal(payload, &p); err != nil {
		return types.ObjectMeta{}, apierror.New(apierror.KindBadRequest, "decode pod: %v", err)
	}
	if verr := validation.Pod(&p); verr != nil {
		return types.ObjectMeta{}, verr
	}
	return p.ObjectMeta, nil
}

func validateService(payload json.RawMessage) (types.ObjectMeta, *apierror.Error) {
	var s types.Service
	if err := json.Unmarshal(payload, &s); err != nil {
		return types.ObjectMeta{}, apierror.New(apierror.KindBadRequest, "decode service: %v", err)
	}
	if verr := validation.Service(&s); verr != nil {
		return types.ObjectMeta{}, verr
	}
	return s.ObjectMeta, nil
}

func validateNamespace(payload json.RawMessage) (types.ObjectMeta, *apierror.Error) {
	var ns types.Namespace
	if err := json.Unmarshal(payload, &ns); err != nil {
		return types.ObjectMeta{}, apierror.New(apierror.KindBadRequest, "decode namespace: %v", err)
	}
	if verr := validation.Namespace(&ns); verr != nil {
		return types.ObjectMeta{}, verr
	}
	return ns.ObjectMeta, nil
}

func validateNode(payload json.RawMessage) (types.ObjectMeta, *apierror.Error) {
	var n types.Node
	if err := json.Unmarshal(payload, &n); err != nil {
		return types.ObjectMeta{}, apierror.New(apierror.KindBadRequest, "decode node: %v", err)
	}
	if verr := validation.Node(&n); verr != nil {
		return types.ObjectMeta{}, verr
	}
	return n.ObjectMeta, nil
}

func validateSecret(payload json.RawMessage) (types.ObjectMeta, *apierror.Error) {
	var s types.Secret
	if err := json.Unmarshal(payload, &s); err != nil {
		return types.ObjectMeta{}, apierror.New(apierror.KindBadRequest, "decode secret: %v", err)
	}
	if verr := validation.Secret(&s); verr != nil {
		return types.ObjectMeta{}, verr
	}
	return s.ObjectMeta, nil
}

// sealSecret replaces a Secret payload's spec.data plaintext with
// ciphertext before it reaches the version store, so plaintext exists only
// in the client and in this layer, never at rest (see types.SecretSpec).
// A nil box is a no-op, for deployments or tests that
// have not configured a secret-encryption key.
func sealSecret(box *secretbox.Box, payload json.RawMessage) (json.RawMessage, error) {
	if box == nil {
		return payload, nil
	}
	var s types.Secret
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("api: decode secret: %w", err)
	}
	sealed, err := box.Seal(s.Spec.Data)
	if err != nil {
		return nil, fmt.Errorf("api: seal secret data: %w", err)
	}
	s.Spec.Data = sealed
	return json.Marshal(s)
}

// openSecret reverses sealSecret on the way out to the client.
func openSecret(box *secretbox.Box, payload json.RawMessage) (json.RawMessage, error) {
	if box == nil {
		return payload, nil
	}
	var s types.Secret
	if err := json.Unmarshal(payload, &s); err != nil {
		return nil, fmt.Errorf("api: decode secret: %w", err)
	}
	opened, err := box.Open(s.Spec.Data)
	if err != nil {
		return nil, fmt.Errorf("api: open secret data: %w", err)
	}
	s.Spec.Data = opened
	return json.Marshal(s)
}

var (
	podKind = kindConfig{gvk: types.GVKPod, plural: "pods", namespaced: true, validate: validatePod}

	serviceKind = kindConfig{gvk: types.GVKService, plural: "services", namespaced: true, validate: validateService}

	secretKind = kindConfig{gvk: types.GVKSecret, plural: "secrets", namespaced: true, validate: validateSecret}

	namespaceKind = kindConfig{gvk: types.GVKNamespace, plural: "namespaces", namespaced: false, validate: validateNamespace}

	nodeKind = kindConfig{gvk: types.GVKNode, plural: "nodes", namespaced: false, validate: validateNode}
)

// namespacedKinds mount under /api/v1/namespaces/{namespace}/{plural} and
// also get a read-only cross-namespace list at /api/v1/{plural}.
var namespacedKinds = []kindConfig{podKind, serviceKind, secretKind}

// clusterScopedKinds mount directly under /api/v1/{plural}. Namespace
// itself is cluster-scoped but is mounted separately by router.go since
// its plural ("namespaces") doubles as the path prefix namespaced kinds
// nest under.
var clusterScopedKinds = []kindConfig{nodeKind}
