/*
Package runtime defines the zone-runtime collaborator contract the
controller programs against, plus a containerd-backed implementation and an
in-memory fake for tests.

A "zone" is the set of OS-level processes backing one Pod's declared
containers. The controller never talks to containerd (or any other
container engine) directly — it only calls Runtime, which keeps the zone
runtime's mechanics (namespace isolation, OCI spec construction, cgroup
wiring) outside the core reconciliation logic.

# Interface

	Runtime.CreateZone  — pull images, construct OCI specs, create containers
	Runtime.StartZone   — start the zone's containers
	Runtime.StopZone    — graceful SIGTERM, SIGKILL on timeout
	Runtime.DeleteZone  — stop (if needed) and remove containers + snapshots
	Runtime.ZoneState   — aggregate observed phase across the zone's containers

ZoneState.Phase is the vocabulary the controller's Pod state machine maps
onto types.PodPhase: ZonePending while containers are still starting,
ZoneRunning once every container in the zone is up, ZoneExited for a clean
stop, ZoneFailed for a non-zero exit or unrecoverable error. For a zone
whose containers do not exist (before CreateZone or after DeleteZone),
FakeRuntime reports ZoneUnknown while ContainerdRuntime reports
ZonePending; ContainerdRuntime reports ZoneUnknown only for a Pod that
declares no containers.

# Implementations

ContainerdRuntime talks to a containerd daemon over its client API, scoping
every operation to the "reddwarf" namespace so zone containers never
collide with containers created by other containerd consumers on the same
host.

FakeRuntime tracks zone state in memory and is used by pkg/controller's
tests and by reddwarfd's --fake-runtime flag; it can be configured via FailOn to simulate a specific
operation failing, and via SetState to jump directly to an observed phase
without driving the full lifecycle.
*/
package runtime
