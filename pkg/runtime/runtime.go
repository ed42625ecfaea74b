package runtime

import (
	"context"
	"time"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

// ZonePhase is the runtime-observed state of a Pod's zone, the collaborator
// contract the controller's state machine maps onto types.PodPhase.
type ZonePhase string

const (
	ZoneUnknown ZonePhase = "Unknown"
	ZonePending ZonePhase = "Pending"
	ZoneRunning ZonePhase = "Running"
	ZoneExited  ZonePhase = "Exited"
	ZoneFailed  ZonePhase = "Failed"
)

// ZoneState is the observed state of one Pod's zone.
type ZoneState struct {
	Phase   ZonePhase
	Message string
}

// Runtime is the collaborator contract the controller programs against for
// turning a Pod's declared containers into running OS-level processes. Per
// spec, the zone runtime's own mechanics (namespace isolation, OCI spec
// construction, cgroup wiring) live outside the core; only this interface
// and a concrete instance to exercise in tests are in scope here.
type Runtime interface {
	// CreateZone prepares (but does not start) every container in pod.Spec
	// for execution: pulling images and constructing the OCI runtime spec.
	CreateZone(ctx context.Context, pod *types.Pod) error

	// StartZone launches the previously-created zone's containers.
	StartZone(ctx context.Context, pod *types.Pod) error

	// StopZone requests a graceful shutdown of the zone's containers,
	// escalating to a forceful kill if timeout elapses first.
	StopZone(ctx context.Context, pod *types.Pod, timeout time.Duration) error

	// DeleteZone tears down the zone and releases any resources held for
	// it (snapshots, task handles). Idempotent: deleting an already-absent
	// zone is not an error.
	DeleteZone(ctx context.Context, pod *types.Pod) error

	// ZoneState reports the current observed state of a Pod's zone.
	ZoneState(ctx context.Context, pod *types.Pod) (ZoneState, error)

	// Close releases the runtime's own connection resources.
	Close() error
}

// zoneID derives the runtime-level identifier for a Pod's zone from its
// identity, stable across reconcile passes.
func zoneID(pod *types.Pod) string {
	if pod.ObjectMeta.UID != "" {
		return pod.ObjectMeta.UID
	}
	return pod.ObjectMeta.Namespace + "-" + pod.ObjectMeta.Name
}

// containerID derives the per-container runtime identifier within a zone.
func containerID(zone string, container types.Container) string {
	return zone + "-" + container.Name
}
