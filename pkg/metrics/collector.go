package metrics

import (
	"encoding/json"
	"time"

	"github.com/cloudnebula/reddwarf/pkg/store"
	"github.com/cloudnebula/reddwarf/pkg/types"
)

// Collector periodically samples the resource store and updates the
// population gauges (ResourcesTotal, PodsByPhase, NodesReady). The
// version store itself has no notion of "current count", so these
// gauges are swept rather than updated incrementally.
type Collector struct {
	store  *store.Store
	period time.Duration
	stopCh chan struct{}
}

// NewCollector builds a Collector sampling st every period (15s if
// period is zero or negative).
func NewCollector(st *store.Store, period time.Duration) *Collector {
	if period <= 0 {
		period = 15 * time.Second
	}
	return &Collector{store: st, period: period, stopCh: make(chan struct{})}
}

// Start begins periodic collection in a background goroutine.
func (c *Collector) Start() {
	ticker := time.NewTicker(c.period)
	go func() {
		c.collect()
		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop halts collection. Safe to call once.
func (c *Collector) Stop() {
	close(c.stopCh)
}

func (c *Collector) collect() {
	c.collectKindCounts()
	c.collectPodPhases()
	c.collectNodeReadiness()
}

func (c *Collector) collectKindCounts() {
	for _, gvk := range []types.GVK{types.GVKPod, types.GVKService, types.GVKNamespace, types.GVKNode, types.GVKSecret} {
		objs, err := c.store.List(gvk, "")
		if err != nil {
			continue
		}
		ResourcesTotal.WithLabelValues(gvk.Kind).Set(float64(len(objs)))
	}
}

func (c *Collector) collectPodPhases() {
	objs, err := c.store.List(types.GVKPod, "")
	if err != nil {
		return
	}
	counts := make(map[types.PodPhase]int)
	for _, raw := range objs {
		var p types.Pod
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		counts[p.Status.Phase]++
	}
	for _, phase := range []types.PodPhase{
		types.PodPending, types.PodCreating, types.PodRunning,
		types.PodFailed, types.PodTerminating, types.PodTerminated,
	} {
		PodsByPhase.WithLabelValues(string(phase)).Set(float64(counts[phase]))
	}
}

func (c *Collector) collectNodeReadiness() {
	objs, err := c.store.List(types.GVKNode, "")
	if err != nil {
		return
	}
	ready := 0
	for _, raw := range objs {
		var n types.Node
		if err := json.Unmarshal(raw, &n); err != nil {
			continue
		}
		for _, cond := range n.Status.Conditions {
			if cond.Type == types.NodeReadyConditionType && cond.Status == "True" {
				ready++
				break
			}
		}
	}
	NodesReady.Set(float64(ready))
}
