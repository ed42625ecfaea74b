package controller

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cloudnebula/reddwarf/internal/apierror"
	"github.com/cloudnebula/reddwarf/internal/rdlog"
	"github.com/cloudnebula/reddwarf/pkg/events"
	"github.com/cloudnebula/reddwarf/pkg/metrics"
	"github.com/cloudnebula/reddwarf/pkg/runtime"
	"github.com/cloudnebula/reddwarf/pkg/store"
	"github.com/cloudnebula/reddwarf/pkg/types"
)

// Config carries the sweep intervals and retry ceiling the controller
// runs with, the controller-relevant subset of internal/config.ServerConfig.
type Config struct {
	PodSweepInterval    time.Duration
	NodeSweepInterval   time.Duration
	NodeStaleAfter      time.Duration
	ReconcileMaxBackoff time.Duration
	HealthCheckInterval time.Duration
}

// Controller is reddwarf's reconciliation loop.
type Controller struct {
	store   *store.Store
	runtime runtime.Runtime
	cfg     Config
	health  *healthTracker

	stopCh chan struct{}
	wg     sync.WaitGroup

	backoffMu sync.Mutex
	backoff   map[types.ResourceKey]time.Duration
}

// New constructs a Controller bound to a resource store and a zone
// runtime. Start must be called to begin reconciling.
func New(s *store.Store, rt runtime.Runtime, cfg Config) *Controller {
	if cfg.PodSweepInterval <= 0 {
		cfg.PodSweepInterval = 30 * time.Second
	}
	if cfg.NodeSweepInterval <= 0 {
		cfg.NodeSweepInterval = 15 * time.Second
	}
	if cfg.NodeStaleAfter <= 0 {
		cfg.NodeStaleAfter = 40 * time.Second
	}
	if cfg.ReconcileMaxBackoff <= 0 {
		cfg.ReconcileMaxBackoff = 30 * time.Second
	}
	if cfg.HealthCheckInterval <= 0 {
		cfg.HealthCheckInterval = 10 * time.Second
	}
	return &Controller{
		store:   s,
		runtime: rt,
		cfg:     cfg,
		health:  newHealthTracker(),
		stopCh:  make(chan struct{}),
		backoff: make(map[types.ResourceKey]time.Duration),
	}
}

// Start launches the event-consumer and sweep-ticker goroutines.
func (c *Controller) Start() {
	podSub := c.store.Broker().Subscribe(types.GVKPod, "")

	c.wg.Add(4)
	go c.consumePodEvents(podSub)
	go c.runPodSweep()
	go c.runNodeSweep()
	go c.runHealthSweep()
}

// Stop signals every Controller goroutine to exit and waits for them.
func (c *Controller) Stop() {
	close(c.stopCh)
	c.wg.Wait()
}

func (c *Controller) consumePodEvents(sub *events.Subscription) {
	defer c.wg.Done()
	for {
		select {
		case e, ok := <-sub.Events():
			if !ok {
				return
			}
			if e.Type == types.WatchGone {
				continue
			}
			c.reconcilePodKey(e.Key)
		case <-c.stopCh:
			return
		}
	}
}

func (c *Controller) runPodSweep() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.PodSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweepPods()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Controller) runNodeSweep() {
	defer c.wg.Done()
	ticker := time.NewTicker(c.cfg.NodeSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.sweepNodes()
		case <-c.stopCh:
			return
		}
	}
}

func (c *Controller) sweepPods() {
	timer := metrics.NewTimer()
	defer func() {
		timer.ObserveDuration(metrics.ReconciliationDuration)
		metrics.ReconciliationCyclesTotal.Inc()
	}()

	objs, err := c.store.List(types.GVKPod, "")
	if err != nil {
		rdlog.WithComponent("controller").Error().Err(err).Msg("list pods for sweep")
		return
	}
	for _, obj := range objs {
		var pod types.Pod
		if err := json.Unmarshal(obj, &pod); err != nil {
			continue
		}
		c.reconcilePod(&pod)
	}
}

func (c *Controller) sweepNodes() {
	objs, err := c.store.List(types.GVKNode, "")
	if err != nil {
		rdlog.WithComponent("controller").Error().Err(err).Msg("list nodes for sweep")
		return
	}
	readyCount := 0
	now := time.Now()
	for _, obj := range objs {
		var node types.Node
		if err := json.Unmarshal(obj, &node); err != nil {
			continue
		}
		stale := now.Sub(node.Status.LastHeartbeatTime) > c.cfg.NodeStaleAfter
		if !stale {
			readyCount++
			continue
		}
		c.markNodeNotReady(&node)
	}
	metrics.NodesReady.Set(float64(readyCount))
}

func (c *Controller) markNodeNotReady(node *types.Node) {
	for _, cond := range node.Status.Conditions {
		if cond.Type == types.NodeReadyConditionType && cond.Status == "Unknown" {
			return // already marked
		}
	}

	logger := rdlog.WithNode(node.ObjectMeta.Name)
	logger.Warn().Msg("node heartbeat stale, marking not ready")

	node.Status.Conditions = upsertCondition(node.Status.Conditions, types.Condition{
		Type:               types.NodeReadyConditionType,
		Status:             "Unknown",
		Reason:             "NodeStatusUnknown",
		Message:            "no heartbeat received within the configured staleness window",
		LastTransitionTime: time.Now(),
	})

	payload, err := json.Marshal(node)
	if err != nil {
		return
	}
	if _, err := c.store.Replace(types.GVKNode, node.ObjectMeta.Key(), node.ObjectMeta.ResourceVersion, payload); err != nil {
		logger.Error().Err(err).Msg("failed to mark node not ready")
	}
}

func upsertCondition(conditions []types.Condition, next types.Condition) []types.Condition {
	for i, c := range conditions {
		if c.Type == next.Type {
			conditions[i] = next
			return conditions
		}
	}
	return append(conditions, next)
}

func (c *Controller) reconcilePodKey(key types.ResourceKey) {
	obj, _, err := c.store.Get(types.GVKPod, key)
	if err != nil {
		return // already gone; nothing to reconcile
	}
	var pod types.Pod
	if err := json.Unmarshal(obj, &pod); err != nil {
		return
	}
	c.reconcilePod(&pod)
}

// reconcilePod drives one Pod through CreateZone/StartZone/StopZone/
// DeleteZone according to its phase and deletion state, and commits any
// resulting phase transition back through the store.
func (c *Controller) reconcilePod(pod *types.Pod) {
	key := pod.ObjectMeta.Key()
	logger := rdlog.WithResource(types.GVKPod, key)
	ctx := context.Background()

	err := c.reconcilePodOnce(ctx, pod)
	if err == nil {
		c.clearBackoff(key)
		return
	}

	kind := apierror.From(err).Kind
	if kind == apierror.KindInvalid || kind == apierror.KindNotFound {
		logger.Warn().Err(err).Msg("pod reconcile failed permanently, not retrying")
		c.clearBackoff(key)
		return
	}

	metrics.ReconcileRetriesTotal.WithLabelValues(types.GVKPod.String(), reasonOf(kind)).Inc()
	logger.Error().Err(err).Msg("pod reconcile failed, will retry with backoff")
	c.scheduleRetry(key, pod)
}

func reasonOf(kind apierror.Kind) string {
	return apierror.ToStatus(apierror.New(kind, "")).Reason
}

func (c *Controller) reconcilePodOnce(ctx context.Context, pod *types.Pod) error {
	if pod.ObjectMeta.Terminating() {
		return c.reconcileTerminatingPod(ctx, pod)
	}

	switch pod.Status.Phase {
	case "", types.PodPending:
		return c.transitionPodTo(pod, types.PodCreating, func() error {
			return c.zoneOp("create", func() error { return c.runtime.CreateZone(ctx, pod) })
		})

	case types.PodCreating:
		state, err := c.runtime.ZoneState(ctx, pod)
		if err != nil {
			return err
		}
		switch state.Phase {
		case runtime.ZonePending:
			return c.zoneOp("start", func() error { return c.runtime.StartZone(ctx, pod) })
		case runtime.ZoneRunning:
			return c.setPhase(pod, types.PodRunning, "")
		case runtime.ZoneFailed:
			return c.setPhase(pod, types.PodFailed, state.Message)
		}
		return nil

	case types.PodRunning:
		state, err := c.runtime.ZoneState(ctx, pod)
		if err != nil {
			return err
		}
		if state.Phase == runtime.ZoneFailed {
			return c.setPhase(pod, types.PodFailed, state.Message)
		}
		return nil

	case types.PodFailed:
		if pod.Spec.RestartPolicy == "Never" {
			return nil
		}
		return c.setPhase(pod, types.PodPending, "")

	default:
		return nil
	}
}

func (c *Controller) reconcileTerminatingPod(ctx context.Context, pod *types.Pod) error {
	if pod.Status.Phase == types.PodTerminated {
		if len(pod.ObjectMeta.Finalizers) == 0 {
			return c.store.Finalize(types.GVKPod, pod.ObjectMeta.Key(), pod.ObjectMeta.ResourceVersion)
		}
		return nil
	}

	if pod.Status.Phase != types.PodTerminating {
		if err := c.setPhase(pod, types.PodTerminating, ""); err != nil {
			return err
		}
	}

	if err := c.zoneOp("stop", func() error { return c.runtime.StopZone(ctx, pod, 30*time.Second) }); err != nil {
		return err
	}
	if err := c.zoneOp("delete", func() error { return c.runtime.DeleteZone(ctx, pod) }); err != nil {
		return err
	}

	return c.setPhase(pod, types.PodTerminated, "")
}

func (c *Controller) transitionPodTo(pod *types.Pod, phase types.PodPhase, op func() error) error {
	if err := op(); err != nil {
		return err
	}
	return c.setPhase(pod, phase, "")
}

func (c *Controller) setPhase(pod *types.Pod, phase types.PodPhase, message string) error {
	pod.Status.Phase = phase
	pod.Status.Message = message
	payload, err := json.Marshal(pod)
	if err != nil {
		return err
	}
	updated, err := c.store.Replace(types.GVKPod, pod.ObjectMeta.Key(), pod.ObjectMeta.ResourceVersion, payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(updated, pod)
}

func (c *Controller) zoneOp(op string, fn func() error) error {
	timer := metrics.NewTimer()
	err := fn()
	timer.ObserveDurationVec(metrics.ZoneOperationDuration, op)
	if err != nil {
		metrics.ZoneOperationFailuresTotal.WithLabelValues(op).Inc()
	}
	return err
}

func (c *Controller) clearBackoff(key types.ResourceKey) {
	c.backoffMu.Lock()
	delete(c.backoff, key)
	c.backoffMu.Unlock()
}

// scheduleRetry re-reconciles pod after an exponentially increasing delay,
// doubling from 1s and capped at cfg.ReconcileMaxBackoff.
func (c *Controller) scheduleRetry(key types.ResourceKey, pod *types.Pod) {
	c.backoffMu.Lock()
	delay := c.backoff[key]
	if delay == 0 {
		delay = time.Second
	} else {
		delay *= 2
		if delay > c.cfg.ReconcileMaxBackoff {
			delay = c.cfg.ReconcileMaxBackoff
		}
	}
	c.backoff[key] = delay
	c.backoffMu.Unlock()

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		select {
		case <-time.After(delay):
			c.reconcilePodKey(key)
		case <-c.stopCh:
		}
	}()
}
