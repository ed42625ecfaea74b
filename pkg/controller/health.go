package controller

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cloudnebula/reddwarf/internal/rdlog"
	"github.com/cloudnebula/reddwarf/pkg/health"
	"github.com/cloudnebula/reddwarf/pkg/types"
)

// containerKey identifies one container's health state across sweeps.
type containerKey struct {
	pod       types.ResourceKey
	container string
}

// healthTracker runs each Running Pod's declared container health
// checks on a ticker and fails the Pod once a container's consecutive
// failures reach its configured Retries.
type healthTracker struct {
	mu       sync.Mutex
	statuses map[containerKey]*health.Status
}

func newHealthTracker() *healthTracker {
	return &healthTracker{statuses: make(map[containerKey]*health.Status)}
}

func (c *Controller) runHealthSweep() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.HealthCheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweepHealth()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Controller) sweepHealth() {
	objs, err := c.store.List(types.GVKPod, "")
	if err != nil {
		rdlog.WithComponent("controller").Error().Err(err).Msg("list pods for health sweep")
		return
	}
	for _, obj := range objs {
		pod, err := decodePod(obj)
		if err != nil || pod.Status.Phase != types.PodRunning {
			continue
		}
		c.checkPodHealth(pod)
	}
}

// checkPodHealth runs every declared container check for pod and fails
// the Pod the first time any container crosses its Retries threshold.
// A Pod with no checks declared is left alone.
func (c *Controller) checkPodHealth(pod *types.Pod) {
	key := pod.ObjectMeta.Key()
	logger := rdlog.WithResource(types.GVKPod, key)

	for _, container := range pod.Spec.Containers {
		if container.HealthCheck == nil {
			continue
		}
		checker, err := health.FromSpec(container.HealthCheck)
		if err != nil {
			logger.Warn().Err(err).Str("container", container.Name).Msg("invalid health check spec")
			continue
		}
		cfg := health.ConfigFromSpec(container.HealthCheck)
		status := c.healthStatusFor(containerKey{pod: key, container: container.Name})
		if status.InStartPeriod(cfg) {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		result := checker.Check(ctx)
		cancel()
		status.Update(result, cfg)

		if !status.Healthy {
			logger.Warn().Str("container", container.Name).Int("failures", status.ConsecutiveFailures).
				Msg("container health check failed, marking pod failed")
			if err := c.setPhase(pod, types.PodFailed, "container "+container.Name+" failed health check: "+result.Message); err != nil {
				logger.Error().Err(err).Msg("failed to mark pod failed after health check")
			}
			return
		}
	}
}

func (c *Controller) healthStatusFor(key containerKey) *health.Status {
	c.health.mu.Lock()
	defer c.health.mu.Unlock()
	status, ok := c.health.statuses[key]
	if !ok {
		status = health.NewStatus()
		c.health.statuses[key] = status
	}
	return status
}

func decodePod(obj []byte) (*types.Pod, error) {
	var pod types.Pod
	if err := json.Unmarshal(obj, &pod); err != nil {
		return nil, err
	}
	return &pod, nil
}
