package store_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudnebula/reddwarf/pkg/events"
	"github.com/cloudnebula/reddwarf/pkg/kv"
	"github.com/cloudnebula/reddwarf/pkg/store"
	"github.com/cloudnebula/reddwarf/pkg/types"
	"github.com/cloudnebula/reddwarf/pkg/version"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	e, err := kv.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return store.New(version.New(e), events.NewBroker())
}

func podPayload(name string) json.RawMessage {
	p := types.Pod{
		TypeMeta:   types.TypeMeta{APIVersion: "v1", Kind: "Pod"},
		ObjectMeta: types.ObjectMeta{Name: name, Namespace: "default"},
		Spec: types.PodSpec{
			Containers: []types.Container{{Name: "c", Image: "nginx:latest"}},
		},
	}
	raw, _ := json.Marshal(p)
	return raw
}

func TestCreateAssignsUIDAndResourceVersion(t *testing.T) {
	s := newTestStore(t)
	key := types.ResourceKey{Namespace: "default", Name: "p1"}

	obj, err := s.Create(types.GVKPod, key, podPayload("p1"))
	require.NoError(t, err)

	var pod types.Pod
	require.NoError(t, json.Unmarshal(obj, &pod))
	require.NotEmpty(t, pod.ObjectMeta.UID)
	require.NotEmpty(t, pod.ObjectMeta.ResourceVersion)
}

func TestGetReturnsCurrentResourceVersion(t *testing.T) {
	s := newTestStore(t)
	key := types.ResourceKey{Namespace: "default", Name: "p1"}

	created, err := s.Create(types.GVKPod, key, podPayload("p1"))
	require.NoError(t, err)
	var createdPod types.Pod
	require.NoError(t, json.Unmarshal(created, &createdPod))

	obj, rv, err := s.Get(types.GVKPod, key)
	require.NoError(t, err)
	require.Equal(t, createdPod.ObjectMeta.ResourceVersion, rv)

	var pod types.Pod
	require.NoError(t, json.Unmarshal(obj, &pod))
	require.Equal(t, rv, pod.ObjectMeta.ResourceVersion)
}

func TestReplacePreservesUIDAndRejectsStaleResourceVersion(t *testing.T) {
	s := newTestStore(t)
	key := types.ResourceKey{Namespace: "default", Name: "p1"}

	created, err := s.Create(types.GVKPod, key, podPayload("p1"))
	require.NoError(t, err)
	var createdPod types.Pod
	require.NoError(t, json.Unmarshal(created, &createdPod))

	createdPod.Spec.Containers[0].Image = "nginx:1.27"
	updatedPayload, _ := json.Marshal(createdPod)

	replaced, err := s.Replace(types.GVKPod, key, createdPod.ObjectMeta.ResourceVersion, updatedPayload)
	require.NoError(t, err)

	var replacedPod types.Pod
	require.NoError(t, json.Unmarshal(replaced, &replacedPod))
	require.Equal(t, createdPod.ObjectMeta.UID, replacedPod.ObjectMeta.UID)
	require.NotEqual(t, createdPod.ObjectMeta.ResourceVersion, replacedPod.ObjectMeta.ResourceVersion)

	_, err = s.Replace(types.GVKPod, key, createdPod.ObjectMeta.ResourceVersion, updatedPayload)
	require.True(t, version.IsConflict(err))
}

func TestPatchAppliesMergePatch(t *testing.T) {
	s := newTestStore(t)
	key := types.ResourceKey{Namespace: "default", Name: "p1"}

	created, err := s.Create(types.GVKPod, key, podPayload("p1"))
	require.NoError(t, err)
	var createdPod types.Pod
	require.NoError(t, json.Unmarshal(created, &createdPod))

	patch := []byte(`{"status":{"phase":"Running"}}`)
	patched, err := s.Patch(types.GVKPod, key, createdPod.ObjectMeta.ResourceVersion, patch)
	require.NoError(t, err)

	var patchedPod types.Pod
	require.NoError(t, json.Unmarshal(patched, &patchedPod))
	require.Equal(t, types.PodPhase("Running"), patchedPod.Status.Phase)
}

func TestFinalizeRemovesResource(t *testing.T) {
	s := newTestStore(t)
	key := types.ResourceKey{Namespace: "default", Name: "p1"}

	created, err := s.Create(types.GVKPod, key, podPayload("p1"))
	require.NoError(t, err)
	var createdPod types.Pod
	require.NoError(t, json.Unmarshal(created, &createdPod))

	require.NoError(t, s.Finalize(types.GVKPod, key, createdPod.ObjectMeta.ResourceVersion))

	_, _, err = s.Get(types.GVKPod, key)
	require.True(t, version.IsNotFound(err))
}

func TestListFiltersByNamespace(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Create(types.GVKPod, types.ResourceKey{Namespace: "default", Name: "p1"}, podPayload("p1"))
	require.NoError(t, err)
	_, err = s.Create(types.GVKPod, types.ResourceKey{Namespace: "other", Name: "p2"}, podPayload("p2"))
	require.NoError(t, err)

	objs, err := s.List(types.GVKPod, "default")
	require.NoError(t, err)
	require.Len(t, objs, 1)

	all, err := s.List(types.GVKPod, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestReplaySinceReturnsEventsInOrder(t *testing.T) {
	s := newTestStore(t)
	key := types.ResourceKey{Namespace: "default", Name: "p1"}

	created, err := s.Create(types.GVKPod, key, podPayload("p1"))
	require.NoError(t, err)
	var createdPod types.Pod
	require.NoError(t, json.Unmarshal(created, &createdPod))

	_, err = s.Patch(types.GVKPod, key, createdPod.ObjectMeta.ResourceVersion, []byte(`{"status":{"phase":"Running"}}`))
	require.NoError(t, err)

	events, err := s.ReplaySince(types.GVKPod, "default", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, types.WatchAdded, events[0].Type)
	require.Equal(t, types.WatchModified, events[1].Type)
}

func TestSubscribersReceivePublishedEvents(t *testing.T) {
	s := newTestStore(t)
	sub := s.Broker().Subscribe(types.GVKPod, "default")
	defer s.Broker().Unsubscribe(sub)

	_, err := s.Create(types.GVKPod, types.ResourceKey{Namespace: "default", Name: "p1"}, podPayload("p1"))
	require.NoError(t, err)

	select {
	case e := <-sub.Events():
		require.Equal(t, types.WatchAdded, e.Type)
	default:
		t.Fatal("expected an event to be delivered")
	}
}
