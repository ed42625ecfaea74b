package runtime

import (
	"context"
	"fmt"
	"syscall"
	"time"

	"github.com/containerd/containerd"
	"github.com/containerd/containerd/cio"
	"github.com/containerd/containerd/namespaces"
	"github.com/containerd/containerd/oci"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

const (
	// DefaultNamespace is the containerd namespace reddwarf zones run in.
	DefaultNamespace = "reddwarf"

	// DefaultSocketPath is the default containerd socket.
	DefaultSocketPath = "/run/containerd/containerd.sock"
)

// ContainerdRuntime implements Runtime on top of a containerd client.
type ContainerdRuntime struct {
	client    *containerd.Client
	namespace string
}

var _ Runtime = (*ContainerdRuntime)(nil)

// NewContainerdRuntime dials the containerd socket at socketPath (or
// DefaultSocketPath if empty) and scopes all operations to DefaultNamespace.
func NewContainerdRuntime(socketPath string) (*ContainerdRuntime, error) {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}

	client, err := containerd.New(socketPath)
	if err != nil {
		return nil, fmt.Errorf("runtime: connect to containerd: %w", err)
	}

	return &ContainerdRuntime{
		client:    client,
		namespace: DefaultNamespace,
	}, nil
}

// Close closes the containerd client connection.
func (r *ContainerdRuntime) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// CreateZone pulls each container's image and creates (but does not start)
// the corresponding containerd container, generating the OCI spec from the
// Pod's declared environment.
func (r *ContainerdRuntime) CreateZone(ctx context.Context, pod *types.Pod) error {
	ctx = namespaces.WithNamespace(ctx, r.namespace)
	zone := zoneID(pod)

	for _, c := range pod.Spec.Containers {
		image, err := r.client.Pull(ctx, c.Image, containerd.WithPullUnpack)
		if err != nil {
			return fmt.Errorf("runtime: pull image %s: %w", c.Image, err)
		}

		id := containerID(zone, c)
		opts := []oci.SpecOpts{
			oci.WithImageConfig(image),
			oci.WithEnv(c.Env),
		}

		if _, err := r.client.NewContainer(
			ctx,
			id,
			containerd.WithImage(image),
			containerd.WithNewSnapshot(id+"-snapshot", image),
			containerd.WithNewSpec(opts...),
		); err != nil {
			return fmt.Errorf("runtime: create container %s: %w", id, err)
		}
	}

	return nil
}

// StartZone starts every container previously created for the Pod's zone.
func (r *ContainerdRuntime) StartZone(ctx context.Context, pod *types.Pod) error {
	ctx = namespaces.WithNamespace(ctx, r.namespace)
	zone := zoneID(pod)

	for _, c := range pod.Spec.Containers {
		id := containerID(zone, c)

		container, err := r.client.LoadContainer(ctx, id)
		if err != nil {
			return fmt.Errorf("runtime: load container %s: %w", id, err)
		}

		task, err := container.NewTask(ctx, cio.NullIO)
		if err != nil {
			return fmt.Errorf("runtime: create task for %s: %w", id, err)
		}

		if err := task.Start(ctx); err != nil {
			return fmt.Errorf("runtime: start task for %s: %w", id, err)
		}
	}

	return nil
}

// StopZone gracefully stops every container in the Pod's zone, escalating
// to SIGKILL if timeout elapses before exit.
func (r *ContainerdRuntime) StopZone(ctx context.Context, pod *types.Pod, timeout time.Duration) error {
	ctx = namespaces.WithNamespace(ctx, r.namespace)
	zone := zoneID(pod)

	for _, c := range pod.Spec.Containers {
		id := containerID(zone, c)
		if err := r.stopContainer(ctx, id, timeout); err != nil {
			return err
		}
	}

	return nil
}

func (r *ContainerdRuntime) stopContainer(ctx context.Context, id string, timeout time.Duration) error {
	container, err := r.client.LoadContainer(ctx, id)
	if err != nil {
		// Already gone; stopping an absent container is not an error.
		return nil
	}

	task, err := container.Task(ctx, nil)
	if err != nil {
		// No task means the container never started.
		return nil
	}

	stopCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := task.Kill(stopCtx, syscall.SIGTERM); err != nil {
		return fmt.Errorf("runtime: signal container %s: %w", id, err)
	}

	statusC, err := task.Wait(stopCtx)
	if err != nil {
		return fmt.Errorf("runtime: wait for container %s: %w", id, err)
	}

	select {
	case <-statusC:
	case <-stopCtx.Done():
		if err := task.Kill(ctx, syscall.SIGKILL); err != nil {
			return fmt.Errorf("runtime: force kill container %s: %w", id, err)
		}
	}

	if _, err := task.Delete(ctx); err != nil {
		return fmt.Errorf("runtime: delete task for %s: %w", id, err)
	}

	return nil
}

// DeleteZone stops (if running) and removes every container and snapshot
// belonging to the Pod's zone. Idempotent.
func (r *ContainerdRuntime) DeleteZone(ctx context.Context, pod *types.Pod) error {
	ctx = namespaces.WithNamespace(ctx, r.namespace)
	zone := zoneID(pod)

	for _, c := range pod.Spec.Containers {
		id := containerID(zone, c)

		container, err := r.client.LoadContainer(ctx, id)
		if err != nil {
			continue
		}

		if err := r.stopContainer(ctx, id, 10*time.Second); err != nil {
			return err
		}

		if err := container.Delete(ctx, containerd.WithSnapshotCleanup); err != nil {
			return fmt.Errorf("runtime: delete container %s: %w", id, err)
		}
	}

	return nil
}

// ZoneState reports the aggregate state of a Pod's zone: Failed if any
// container failed, Running only once every container is running, Pending
// otherwise.
func (r *ContainerdRuntime) ZoneState(ctx context.Context, pod *types.Pod) (ZoneState, error) {
	ctx = namespaces.WithNamespace(ctx, r.namespace)
	zone := zoneID(pod)

	if len(pod.Spec.Containers) == 0 {
		return ZoneState{Phase: ZoneUnknown, Message: "no containers declared"}, nil
	}

	runningCount := 0
	for _, c := range pod.Spec.Containers {
		id := containerID(zone, c)

		container, err := r.client.LoadContainer(ctx, id)
		if err != nil {
			return ZoneState{Phase: ZonePending, Message: "container " + id + " not yet created"}, nil
		}

		task, err := container.Task(ctx, nil)
		if err != nil {
			return ZoneState{Phase: ZonePending, Message: "container " + id + " has no task"}, nil
		}

		status, err := task.Status(ctx)
		if err != nil {
			return ZoneState{}, fmt.Errorf("runtime: task status for %s: %w", id, err)
		}

		switch status.Status {
		case containerd.Running, containerd.Paused:
			runningCount++
		case containerd.Stopped:
			if status.ExitStatus != 0 {
				return ZoneState{Phase: ZoneFailed, Message: fmt.Sprintf("container %s exited %d", id, status.ExitStatus)}, nil
			}
			return ZoneState{Phase: ZoneExited, Message: "container " + id + " exited 0"}, nil
		default:
			return ZoneState{Phase: ZonePending, Message: "container " + id + " status " + string(status.Status)}, nil
		}
	}

	if runningCount == len(pod.Spec.Containers) {
		return ZoneState{Phase: ZoneRunning}, nil
	}
	return ZoneState{Phase: ZonePending, Message: "waiting for all containers to start"}, nil
}
