package validation

import (
	"regexp"

	"github.com/cloudnebula/reddwarf/internal/apierror"
	"github.com/cloudnebula/reddwarf/pkg/types"
)

const dns1123MaxLength = 253

// dns1123Pattern matches a DNS-1123 subdomain: one or more dot-separated
// labels, each starting and ending with an alphanumeric and containing
// only lowercase letters, digits, and hyphens in between.
var dns1123Pattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?(\.[a-z0-9]([-a-z0-9]*[a-z0-9])?)*$`)

// Name validates a single name or namespace segment against the
// DNS-1123 subdomain rule.
func Name(field, value string) *apierror.Error {
	if value == "" {
		return apierror.New(apierror.KindInvalid, "%s: must not be empty", field)
	}
	if len(value) > dns1123MaxLength {
		return apierror.New(apierror.KindInvalid, "%s: must be no more than %d characters", field, dns1123MaxLength)
	}
	if !dns1123Pattern.MatchString(value) {
		return apierror.New(apierror.KindInvalid, "%s: %q is not a valid DNS-1123 subdomain", field, value)
	}
	return nil
}

// ObjectMeta validates the identity fields every kind shares.
func ObjectMeta(meta types.ObjectMeta, namespaced bool) *apierror.Error {
	if err := Name("name", meta.Name); err != nil {
		return err
	}
	if namespaced {
		if err := Name("namespace", meta.Namespace); err != nil {
			return err
		}
	} else if meta.Namespace != "" {
		return apierror.New(apierror.KindInvalid, "namespace: must be empty for cluster-scoped kind")
	}
	return nil
}

// Pod validates a Pod's spec beyond identity: it must declare at least
// one container, and every container needs a unique name and a non-empty
// image reference.
func Pod(p *types.Pod) *apierror.Error {
	if err := ObjectMeta(p.ObjectMeta, true); err != nil {
		return err
	}
	if len(p.Spec.Containers) == 0 {
		return apierror.New(apierror.KindInvalid, "spec.containers: must declare at least one container")
	}
	seen := make(map[string]struct{}, len(p.Spec.Containers))
	for i, c := range p.Spec.Containers {
		if c.Name == "" {
			return apierror.New(apierror.KindInvalid, "spec.containers[%d].name: must not be empty", i)
		}
		if _, dup := seen[c.Name]; dup {
			return apierror.New(apierror.KindInvalid, "spec.containers: duplicate container name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
		if c.Image == "" {
			return apierror.New(apierror.KindInvalid, "spec.containers[%d].image: must not be empty", i)
		}
	}
	return nil
}

// Service validates a Service's spec: at least one port, and each port
// in the valid TCP/UDP range.
func Service(s *types.Service) *apierror.Error {
	if err := ObjectMeta(s.ObjectMeta, true); err != nil {
		return err
	}
	if len(s.Spec.Ports) == 0 {
		return apierror.New(apierror.KindInvalid, "spec.ports: must declare at least one port")
	}
	for i, p := range s.Spec.Ports {
		if p.Port < 1 || p.Port > 65535 {
			return apierror.New(apierror.KindInvalid, "spec.ports[%d].port: %d out of range", i, p.Port)
		}
		if p.TargetPort < 1 || p.TargetPort > 65535 {
			return apierror.New(apierror.KindInvalid, "spec.ports[%d].targetPort: %d out of range", i, p.TargetPort)
		}
	}
	return nil
}

// Node validates a Node's spec.
func Node(n *types.Node) *apierror.Error {
	return ObjectMeta(n.ObjectMeta, false)
}

// Namespace validates a Namespace's identity.
func Namespace(ns *types.Namespace) *apierror.Error {
	return ObjectMeta(ns.ObjectMeta, false)
}

// Secret validates a Secret's identity; payload validity (ciphertext
// well-formedness) is checked by internal/secretbox at decrypt time.
func Secret(s *types.Secret) *apierror.Error {
	return ObjectMeta(s.ObjectMeta, true)
}
