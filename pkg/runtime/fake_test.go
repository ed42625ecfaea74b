package runtime

import (
	"context"
	"testing"
	"time"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

func testPod() *types.Pod {
	return &types.Pod{
		ObjectMeta: types.ObjectMeta{Namespace: "default", Name: "web", UID: "uid-1"},
		Spec: types.PodSpec{
			Containers: []types.Container{{Name: "app", Image: "nginx:latest"}},
		},
	}
}

func TestFakeRuntimeLifecycle(t *testing.T) {
	rt := NewFakeRuntime()
	ctx := context.Background()
	pod := testPod()

	if state, _ := rt.ZoneState(ctx, pod); state.Phase != ZoneUnknown {
		t.Fatalf("expected ZoneUnknown before create, got %v", state.Phase)
	}

	if err := rt.CreateZone(ctx, pod); err != nil {
		t.Fatalf("CreateZone: %v", err)
	}
	if state, _ := rt.ZoneState(ctx, pod); state.Phase != ZonePending {
		t.Fatalf("expected ZonePending after create, got %v", state.Phase)
	}

	if err := rt.StartZone(ctx, pod); err != nil {
		t.Fatalf("StartZone: %v", err)
	}
	if state, _ := rt.ZoneState(ctx, pod); state.Phase != ZoneRunning {
		t.Fatalf("expected ZoneRunning after start, got %v", state.Phase)
	}

	if err := rt.StopZone(ctx, pod, time.Second); err != nil {
		t.Fatalf("StopZone: %v", err)
	}
	if state, _ := rt.ZoneState(ctx, pod); state.Phase != ZoneExited {
		t.Fatalf("expected ZoneExited after stop, got %v", state.Phase)
	}

	if err := rt.DeleteZone(ctx, pod); err != nil {
		t.Fatalf("DeleteZone: %v", err)
	}
	if state, _ := rt.ZoneState(ctx, pod); state.Phase != ZoneUnknown {
		t.Fatalf("expected ZoneUnknown after delete, got %v", state.Phase)
	}
}

func TestFakeRuntimeFailOn(t *testing.T) {
	rt := NewFakeRuntime()
	rt.FailOn = "start"
	ctx := context.Background()
	pod := testPod()

	if err := rt.CreateZone(ctx, pod); err != nil {
		t.Fatalf("CreateZone: %v", err)
	}
	if err := rt.StartZone(ctx, pod); err == nil {
		t.Fatal("expected StartZone to fail")
	}
}

func TestFakeRuntimeSetState(t *testing.T) {
	rt := NewFakeRuntime()
	pod := testPod()
	rt.SetState(pod, ZoneState{Phase: ZoneFailed, Message: "boom"})

	state, err := rt.ZoneState(context.Background(), pod)
	if err != nil {
		t.Fatalf("ZoneState: %v", err)
	}
	if state.Phase != ZoneFailed || state.Message != "boom" {
		t.Fatalf("unexpected state: %+v", state)
	}
}
