package runtime

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

// FakeRuntime is an in-memory Runtime used by controller tests and by
// reddwarfd --fake-runtime in place of a live containerd daemon. Zone transitions are immediate unless
// FailOn is configured to force a specific operation to error.
type FakeRuntime struct {
	mu     sync.Mutex
	states map[string]ZoneState

	// FailOn, when non-empty, names an operation ("create", "start",
	// "stop", "delete") that should fail for every zone.
	FailOn string
}

var _ Runtime = (*FakeRuntime)(nil)

// NewFakeRuntime returns a FakeRuntime with no zones registered.
func NewFakeRuntime() *FakeRuntime {
	return &FakeRuntime{states: make(map[string]ZoneState)}
}

func (f *FakeRuntime) fail(op string) error {
	if f.FailOn == op {
		return fmt.Errorf("runtime: fake %s failure", op)
	}
	return nil
}

func (f *FakeRuntime) CreateZone(_ context.Context, pod *types.Pod) error {
	if err := f.fail("create"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[zoneID(pod)] = ZoneState{Phase: ZonePending}
	return nil
}

func (f *FakeRuntime) StartZone(_ context.Context, pod *types.Pod) error {
	if err := f.fail("start"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[zoneID(pod)] = ZoneState{Phase: ZoneRunning}
	return nil
}

func (f *FakeRuntime) StopZone(_ context.Context, pod *types.Pod, _ time.Duration) error {
	if err := f.fail("stop"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[zoneID(pod)] = ZoneState{Phase: ZoneExited}
	return nil
}

func (f *FakeRuntime) DeleteZone(_ context.Context, pod *types.Pod) error {
	if err := f.fail("delete"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.states, zoneID(pod))
	return nil
}

func (f *FakeRuntime) ZoneState(_ context.Context, pod *types.Pod) (ZoneState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	state, ok := f.states[zoneID(pod)]
	if !ok {
		return ZoneState{Phase: ZoneUnknown}, nil
	}
	return state, nil
}

func (f *FakeRuntime) Close() error { return nil }

// SetState forces the recorded state of a zone, for tests that need to
// observe a controller reacting to a particular ZonePhase without driving
// the full Create/Start sequence.
func (f *FakeRuntime) SetState(pod *types.Pod, state ZoneState) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.states[zoneID(pod)] = state
}
