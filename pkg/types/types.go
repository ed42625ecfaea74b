package types

import (
	"fmt"
	"time"
)

// GVK identifies a resource's type: its API group, version, and kind.
// Reddwarf only ships a single group/version today ("core/v1") but the
// triple is carried everywhere a bare Kind would do, so a future group
// never forces a key-layout migration.
type GVK struct {
	Group   string
	Version string
	Kind    string
}

func (g GVK) String() string {
	if g.Group == "" {
		return fmt.Sprintf("%s/%s", g.Version, g.Kind)
	}
	return fmt.Sprintf("%s/%s/%s", g.Group, g.Version, g.Kind)
}

// Core GVKs for the four kinds specified, plus the supplemental Secret kind.
var (
	GVKPod       = GVK{Version: "v1", Kind: "Pod"}
	GVKService   = GVK{Version: "v1", Kind: "Service"}
	GVKNamespace = GVK{Version: "v1", Kind: "Namespace"}
	GVKNode      = GVK{Version: "v1", Kind: "Node"}
	GVKSecret    = GVK{Version: "v1", Kind: "Secret"}
)

// Namespaced reports whether resources of this kind carry a namespace.
func (g GVK) Namespaced() bool {
	switch g.Kind {
	case GVKNamespace.Kind, GVKNode.Kind:
		return false
	default:
		return true
	}
}

// ResourceKey identifies one resource within a GVK: (namespace, name) for
// namespaced kinds, ("", name) for cluster-scoped kinds.
type ResourceKey struct {
	Namespace string
	Name      string
}

func (k ResourceKey) String() string {
	if k.Namespace == "" {
		return k.Name
	}
	return k.Namespace + "/" + k.Name
}

// TypeMeta carries the wire-visible apiVersion/kind pair every envelope
// includes, mirroring the Kubernetes JSON shape.
type TypeMeta struct {
	APIVersion string `json:"apiVersion"`
	Kind       string `json:"kind"`
}

// ObjectMeta is the metadata block shared by every resource kind.
type ObjectMeta struct {
	Name              string            `json:"name"`
	Namespace         string            `json:"namespace,omitempty"`
	UID               string            `json:"uid,omitempty"`
	ResourceVersion   string            `json:"resourceVersion,omitempty"`
	CreationTimestamp time.Time         `json:"creationTimestamp,omitempty"`
	DeletionTimestamp *time.Time        `json:"deletionTimestamp,omitempty"`
	Labels            map[string]string `json:"labels,omitempty"`
	Annotations       map[string]string `json:"annotations,omitempty"`
	Finalizers        []string          `json:"finalizers,omitempty"`
}

// Key returns the ResourceKey for this object.
func (m ObjectMeta) Key() ResourceKey {
	return ResourceKey{Namespace: m.Namespace, Name: m.Name}
}

// Terminating reports whether a soft-delete has been recorded.
func (m ObjectMeta) Terminating() bool {
	return m.DeletionTimestamp != nil
}

// Condition is a single observed condition on a resource's status, in the
// Kubernetes style (Type/Status/Reason/Message/LastTransitionTime).
type Condition struct {
	Type               string    `json:"type"`
	Status             string    `json:"status"` // "True", "False", "Unknown"
	Reason             string    `json:"reason,omitempty"`
	Message            string    `json:"message,omitempty"`
	LastTransitionTime time.Time `json:"lastTransitionTime,omitempty"`
}

// --- Pod ---

// PodPhase is the coarse-grained state of Pod provisioning, per the
// controller's state machine.
type PodPhase string

const (
	PodPending     PodPhase = "Pending"
	PodCreating    PodPhase = "Creating"
	PodRunning     PodPhase = "Running"
	PodFailed      PodPhase = "Failed"
	PodTerminating PodPhase = "Terminating"
	PodTerminated  PodPhase = "Terminated"
)

// HealthCheckType selects how a container's liveness is probed.
type HealthCheckType string

const (
	HealthCheckHTTP HealthCheckType = "http"
	HealthCheckTCP  HealthCheckType = "tcp"
	HealthCheckExec HealthCheckType = "exec"
)

// HealthCheck defines container liveness checking, carried from the
// container runtime's health-check contract.
type HealthCheck struct {
	Type     HealthCheckType `json:"type"`
	Endpoint string          `json:"endpoint,omitempty"`
	Command  []string        `json:"command,omitempty"`
	Interval time.Duration   `json:"interval,omitempty"`
	Timeout  time.Duration   `json:"timeout,omitempty"`
	Retries  int             `json:"retries,omitempty"`
}

// ContainerPort exposes a port from a container.
type ContainerPort struct {
	Name          string `json:"name,omitempty"`
	ContainerPort int    `json:"containerPort"`
	Protocol      string `json:"protocol,omitempty"` // "TCP" or "UDP"
}

// Container is one container within a Pod.
type Container struct {
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	Env         []string        `json:"env,omitempty"`
	Ports       []ContainerPort `json:"ports,omitempty"`
	HealthCheck *HealthCheck    `json:"healthCheck,omitempty"`
}

// PodSpec is the desired state of a Pod.
type PodSpec struct {
	NodeName      string      `json:"nodeName,omitempty"`
	Containers    []Container `json:"containers"`
	RestartPolicy string      `json:"restartPolicy,omitempty"` // "Always", "OnFailure", "Never"
}

// PodStatus is the observed state of a Pod.
type PodStatus struct {
	Phase      PodPhase    `json:"phase,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`
	HostIP     string      `json:"hostIP,omitempty"`
	PodIP      string      `json:"podIP,omitempty"`
	Message    string      `json:"message,omitempty"`
}

// Pod is a namespaced workload resource.
type Pod struct {
	TypeMeta   `json:",inline"`
	ObjectMeta ObjectMeta `json:"metadata"`
	Spec       PodSpec    `json:"spec"`
	Status     PodStatus  `json:"status,omitempty"`
}

// --- Service ---

// ServicePort maps an externally visible port to a target container port.
type ServicePort struct {
	Name       string `json:"name,omitempty"`
	Port       int    `json:"port"`
	TargetPort int    `json:"targetPort"`
	Protocol   string `json:"protocol,omitempty"`
}

// ServiceSpec is the desired state of a Service.
type ServiceSpec struct {
	Selector map[string]string `json:"selector,omitempty"`
	Ports    []ServicePort      `json:"ports,omitempty"`
	ClusterIP string            `json:"clusterIP,omitempty"`
}

// ServiceStatus is the observed state of a Service.
type ServiceStatus struct {
	Conditions []Condition `json:"conditions,omitempty"`
}

// Service is a namespaced resource describing a stable network identity
// for a set of Pods selected by label.
type Service struct {
	TypeMeta   `json:",inline"`
	ObjectMeta ObjectMeta    `json:"metadata"`
	Spec       ServiceSpec   `json:"spec"`
	Status     ServiceStatus `json:"status,omitempty"`
}

// --- Namespace ---

// NamespacePhase is the lifecycle phase of a Namespace.
type NamespacePhase string

const (
	NamespaceActive      NamespacePhase = "Active"
	NamespaceTerminating NamespacePhase = "Terminating"
)

// NamespaceSpec is the desired state of a Namespace (currently empty, but
// kept for symmetry with the other kinds and future finalizer config).
type NamespaceSpec struct{}

// NamespaceStatus is the observed state of a Namespace.
type NamespaceStatus struct {
	Phase NamespacePhase `json:"phase,omitempty"`
}

// Namespace is a cluster-scoped resource that scopes the (namespace, name)
// identity of namespaced kinds. "default" is created implicitly on first
// use, per spec.
type Namespace struct {
	TypeMeta   `json:",inline"`
	ObjectMeta ObjectMeta      `json:"metadata"`
	Spec       NamespaceSpec   `json:"spec,omitempty"`
	Status     NamespaceStatus `json:"status,omitempty"`
}

// DefaultNamespaceName is the namespace bootstrapped implicitly on first
// use, per spec §3.
const DefaultNamespaceName = "default"

// --- Node ---

// NodeResources tracks a Node's reported capacity.
type NodeResources struct {
	CPUCores    int   `json:"cpuCores,omitempty"`
	MemoryBytes int64 `json:"memoryBytes,omitempty"`
	DiskBytes   int64 `json:"diskBytes,omitempty"`
}

// NodeSpec is the desired state of a Node.
type NodeSpec struct {
	Address   string        `json:"address,omitempty"`
	Resources NodeResources `json:"resources,omitempty"`
}

// NodeReadyConditionType is the well-known condition type the controller's
// heartbeat sweep maintains.
const NodeReadyConditionType = "Ready"

// NodeStatus is the observed state of a Node, including the heartbeat
// timestamp node agents update via PATCH (see spec §4.4 open questions).
type NodeStatus struct {
	Conditions        []Condition `json:"conditions,omitempty"`
	LastHeartbeatTime time.Time   `json:"lastHeartbeatTime,omitempty"`
}

// Node is a cluster-scoped resource representing a worker that runs Pods.
type Node struct {
	TypeMeta   `json:",inline"`
	ObjectMeta ObjectMeta `json:"metadata"`
	Spec       NodeSpec   `json:"spec"`
	Status     NodeStatus `json:"status,omitempty"`
}

// --- Secret ---

// SecretSpec carries encrypted-at-rest data. Data is ciphertext produced
// by internal/secretbox; the API layer is the only place plaintext ever
// exists outside the client.
type SecretSpec struct {
	Type string `json:"type,omitempty"`
	Data []byte `json:"data"` // ciphertext (base64 in JSON via []byte)
}

// Secret is a namespaced resource holding encrypted sensitive data.
type Secret struct {
	TypeMeta   `json:",inline"`
	ObjectMeta ObjectMeta `json:"metadata"`
	Spec       SecretSpec `json:"spec"`
}

// --- Watch protocol ---

// WatchEventType is the event kind carried on a watch stream, per spec §6.
type WatchEventType string

const (
	WatchAdded    WatchEventType = "ADDED"
	WatchModified WatchEventType = "MODIFIED"
	WatchDeleted  WatchEventType = "DELETED"
	WatchBookmark WatchEventType = "BOOKMARK"
	WatchGone     WatchEventType = "ERROR"
)

// WatchEvent is one line of a watch response stream.
type WatchEvent struct {
	Type   WatchEventType `json:"type"`
	Object interface{}    `json:"object"`
}

// Status is the failure envelope returned for non-2xx responses, per spec §7.
type Status struct {
	TypeMeta `json:",inline"`
	Status   string `json:"status"` // always "Failure" when present
	Code     int    `json:"code"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}
