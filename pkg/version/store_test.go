package version_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cloudnebula/reddwarf/pkg/kv"
	"github.com/cloudnebula/reddwarf/pkg/types"
	"github.com/cloudnebula/reddwarf/pkg/version"
)

func newTestStore(t *testing.T) *version.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	e, err := kv.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return version.New(e)
}

func podKey() types.ResourceKey { return types.ResourceKey{Namespace: "default", Name: "p1"} }

func TestApplyCreateThenUpdate(t *testing.T) {
	s := newTestStore(t)
	payload, _ := json.Marshal(map[string]string{"phase": "Pending"})

	c1, err := s.Apply(types.GVKPod, podKey(), version.OpCreate, "", payload, "")
	require.NoError(t, err)
	require.NotEmpty(t, c1.ParentIDs)
	require.Equal(t, uint64(1), c1.Seq)

	payload2, _ := json.Marshal(map[string]string{"phase": "Running"})
	c2, err := s.Apply(types.GVKPod, podKey(), version.OpUpdate, c1.ID, payload2, "")
	require.NoError(t, err)
	require.Equal(t, []string{c1.ID}, c2.ParentIDs)
	require.Equal(t, uint64(2), c2.Seq)

	head, found, err := s.HeadOf(types.GVKPod, podKey())
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, c2.ID, head)
}

func TestApplyCreateTwiceConflicts(t *testing.T) {
	s := newTestStore(t)
	payload, _ := json.Marshal(map[string]string{})

	_, err := s.Apply(types.GVKPod, podKey(), version.OpCreate, "", payload, "")
	require.NoError(t, err)

	_, err = s.Apply(types.GVKPod, podKey(), version.OpCreate, "", payload, "")
	require.ErrorIs(t, err, version.ErrAlreadyExists)
}

func TestApplyUpdateWithStaleParentConflicts(t *testing.T) {
	s := newTestStore(t)
	payload, _ := json.Marshal(map[string]string{})

	c1, err := s.Apply(types.GVKPod, podKey(), version.OpCreate, "", payload, "")
	require.NoError(t, err)
	c2, err := s.Apply(types.GVKPod, podKey(), version.OpUpdate, c1.ID, payload, "")
	require.NoError(t, err)

	// c1 is no longer head; reusing it as expectedParent must conflict.
	_, err = s.Apply(types.GVKPod, podKey(), version.OpUpdate, c1.ID, payload, "")
	require.True(t, version.IsConflict(err))
	var ce *version.ConflictError
	require.ErrorAs(t, err, &ce)
	require.Equal(t, podKey(), ce.Key)
	require.Equal(t, c1.ID, ce.Expected)
	require.Equal(t, c2.ID, ce.Actual)
	require.Equal(t, []string{c2.ID}, ce.ConflictingCommits)
}

func TestApplyUpdateWithoutExistingResourceNotFound(t *testing.T) {
	s := newTestStore(t)
	payload, _ := json.Marshal(map[string]string{})
	_, err := s.Apply(types.GVKPod, podKey(), version.OpUpdate, "", payload, "")
	require.ErrorIs(t, err, version.ErrNotFound)
}

func TestListCommitsOrdersOldestFirst(t *testing.T) {
	s := newTestStore(t)
	payload, _ := json.Marshal(map[string]string{})

	c1, err := s.Apply(types.GVKPod, podKey(), version.OpCreate, "", payload, "")
	require.NoError(t, err)
	c2, err := s.Apply(types.GVKPod, podKey(), version.OpUpdate, c1.ID, payload, "")
	require.NoError(t, err)
	c3, err := s.Apply(types.GVKPod, podKey(), version.OpDelete, c2.ID, payload, "")
	require.NoError(t, err)

	history, err := s.ListCommits(types.GVKPod, podKey())
	require.NoError(t, err)
	require.Len(t, history, 3)
	require.Equal(t, []string{c1.ID, c2.ID, c3.ID}, []string{history[0].ID, history[1].ID, history[2].ID})
}

func TestCommonAncestorWithinOneChain(t *testing.T) {
	s := newTestStore(t)
	payload, _ := json.Marshal(map[string]string{})

	c1, err := s.Apply(types.GVKPod, podKey(), version.OpCreate, "", payload, "")
	require.NoError(t, err)
	c2, err := s.Apply(types.GVKPod, podKey(), version.OpUpdate, c1.ID, payload, "")
	require.NoError(t, err)
	c3, err := s.Apply(types.GVKPod, podKey(), version.OpUpdate, c2.ID, payload, "")
	require.NoError(t, err)

	anc, err := s.CommonAncestor(c1.ID, c3.ID)
	require.NoError(t, err)
	require.Equal(t, c1.ID, anc)
}

func TestCommonAncestorAcrossUnrelatedResourcesIsGenesis(t *testing.T) {
	s := newTestStore(t)
	payload, _ := json.Marshal(map[string]string{})

	podC, err := s.Apply(types.GVKPod, podKey(), version.OpCreate, "", payload, "")
	require.NoError(t, err)
	svcC, err := s.Apply(types.GVKService, types.ResourceKey{Namespace: "default", Name: "s1"}, version.OpCreate, "", payload, "")
	require.NoError(t, err)

	anc, err := s.CommonAncestor(podC.ID, svcC.ID)
	require.NoError(t, err)
	require.NotEmpty(t, anc)
	require.Equal(t, podC.ParentIDs[0], anc)
	require.Equal(t, svcC.ParentIDs[0], anc)
}

func TestListKeysOmitsFinalizedResources(t *testing.T) {
	s := newTestStore(t)
	payload, _ := json.Marshal(map[string]string{})

	c1, err := s.Apply(types.GVKPod, podKey(), version.OpCreate, "", payload, "")
	require.NoError(t, err)
	otherKey := types.ResourceKey{Namespace: "default", Name: "p2"}
	_, err = s.Apply(types.GVKPod, otherKey, version.OpCreate, "", payload, "")
	require.NoError(t, err)

	keys, err := s.ListKeys(types.GVKPod)
	require.NoError(t, err)
	require.Len(t, keys, 2)

	require.NoError(t, s.Finalize(types.GVKPod, podKey(), c1.ID))

	keys, err = s.ListKeys(types.GVKPod)
	require.NoError(t, err)
	require.Len(t, keys, 1)
	require.Equal(t, otherKey, keys[0])

	_, found, err := s.HeadOf(types.GVKPod, podKey())
	require.NoError(t, err)
	require.False(t, found)
}

func TestFinalizeWithStaleParentConflicts(t *testing.T) {
	s := newTestStore(t)
	payload, _ := json.Marshal(map[string]string{})

	c1, err := s.Apply(types.GVKPod, podKey(), version.OpCreate, "", payload, "")
	require.NoError(t, err)
	_, err = s.Apply(types.GVKPod, podKey(), version.OpUpdate, c1.ID, payload, "")
	require.NoError(t, err)

	err = s.Finalize(types.GVKPod, podKey(), c1.ID)
	require.True(t, version.IsConflict(err))
}

func TestListSinceReplaysInSequenceOrder(t *testing.T) {
	s := newTestStore(t)
	payload, _ := json.Marshal(map[string]string{})

	c1, err := s.Apply(types.GVKPod, podKey(), version.OpCreate, "", payload, "")
	require.NoError(t, err)
	c2, err := s.Apply(types.GVKService, types.ResourceKey{Namespace: "default", Name: "s1"}, version.OpCreate, "", payload, "")
	require.NoError(t, err)

	all, err := s.ListSince(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, c1.ID, all[0].ID)
	require.Equal(t, c2.ID, all[1].ID)

	sinceFirst, err := s.ListSince(all[0].Seq)
	require.NoError(t, err)
	require.Len(t, sinceFirst, 1)
	require.Equal(t, c2.ID, sinceFirst[0].ID)
}

func TestTipAdvancesWithEveryApply(t *testing.T) {
	s := newTestStore(t)
	payload, _ := json.Marshal(map[string]string{})

	_, found, err := s.Tip()
	require.NoError(t, err)
	require.False(t, found)

	c1, err := s.Apply(types.GVKPod, podKey(), version.OpCreate, "", payload, "")
	require.NoError(t, err)
	tip, found, err := s.Tip()
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, c1.ID, tip)

	c2, err := s.Apply(types.GVKService, types.ResourceKey{Namespace: "default", Name: "s1"}, version.OpCreate, "", payload, "")
	require.NoError(t, err)
	tip, _, err = s.Tip()
	require.NoError(t, err)
	require.Equal(t, c2.ID, tip)
}

func TestDetectConflictWithoutWriting(t *testing.T) {
	s := newTestStore(t)
	payload, _ := json.Marshal(map[string]string{})

	c1, err := s.Apply(types.GVKPod, podKey(), version.OpCreate, "", payload, "")
	require.NoError(t, err)

	conflict, err := s.DetectConflict(types.GVKPod, podKey(), c1.ID)
	require.NoError(t, err)
	require.Nil(t, conflict)

	c2, err := s.Apply(types.GVKPod, podKey(), version.OpUpdate, c1.ID, payload, "")
	require.NoError(t, err)

	conflict, err = s.DetectConflict(types.GVKPod, podKey(), c1.ID)
	require.NoError(t, err)
	require.NotNil(t, conflict)
	require.Equal(t, c1.ID, conflict.Expected)
	require.Equal(t, c2.ID, conflict.Actual)
	require.Equal(t, []string{c2.ID}, conflict.ConflictingCommits)
}
