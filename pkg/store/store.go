package store

import (
	"encoding/json"
	"fmt"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/google/uuid"

	"github.com/cloudnebula/reddwarf/pkg/events"
	"github.com/cloudnebula/reddwarf/pkg/types"
	"github.com/cloudnebula/reddwarf/pkg/version"
)

// Store is the generic, kind-agnostic resource store.
type Store struct {
	vstore *version.Store
	broker *events.Broker
}

// New binds a Store to an already-constructed version.Store and
// events.Broker.
func New(vstore *version.Store, broker *events.Broker) *Store {
	return &Store{vstore: vstore, broker: broker}
}

// Broker exposes the underlying event broker for Subscribe calls that need
// direct access to Subscription.Overflowed or SubscriberCount.
func (s *Store) Broker() *events.Broker { return s.broker }

// Get returns the current payload and resourceVersion of a resource.
func (s *Store) Get(gvk types.GVK, key types.ResourceKey) (json.RawMessage, string, error) {
	head, found, err := s.vstore.HeadOf(gvk, key)
	if err != nil {
		return nil, "", err
	}
	if !found {
		return nil, "", fmt.Errorf("%w: %s %s", version.ErrNotFound, gvk, key)
	}
	commit, err := s.vstore.GetCommit(head)
	if err != nil {
		return nil, "", err
	}
	obj, err := withResourceVersion(commit.Payload, head)
	if err != nil {
		return nil, "", err
	}
	return obj, head, nil
}

// List returns the current payload of every resource of gvk. When
// namespace is non-empty, only resources in that namespace are returned;
// for a cluster-scoped kind, namespace is ignored.
func (s *Store) List(gvk types.GVK, namespace string) ([]json.RawMessage, error) {
	keys, err := s.vstore.ListKeys(gvk)
	if err != nil {
		return nil, err
	}
	objs := make([]json.RawMessage, 0, len(keys))
	for _, key := range keys {
		if gvk.Namespaced() && namespace != "" && key.Namespace != namespace {
			continue
		}
		obj, _, err := s.Get(gvk, key)
		if err != nil {
			if version.IsNotFound(err) {
				continue // raced with a concurrent Finalize
			}
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

// Create commits payload as a brand-new resource, assigning a uid and
// creationTimestamp, and publishes a WatchAdded event.
func (s *Store) Create(gvk types.GVK, key types.ResourceKey, payload json.RawMessage) (json.RawMessage, error) {
	meta, err := extractMeta(payload)
	if err != nil {
		return nil, err
	}
	meta.UID = uuid.NewString()
	meta.CreationTimestamp = nowFunc()
	meta.ResourceVersion = ""
	meta.DeletionTimestamp = nil
	meta.Namespace = key.Namespace
	meta.Name = key.Name

	payload, err = setMeta(payload, meta)
	if err != nil {
		return nil, err
	}

	commit, err := s.vstore.Apply(gvk, key, version.OpCreate, "", payload, "")
	if err != nil {
		return nil, err
	}
	return s.commitAndPublish(gvk, key, types.WatchAdded, commit, payload)
}

// Replace commits a full-object overwrite, preserving the existing uid and
// creationTimestamp regardless of what the caller supplied, and publishes
// a WatchModified event. A non-empty expectedRV must match the resource's
// current resourceVersion or the call fails with a version.ConflictError;
// an empty expectedRV skips that check.
func (s *Store) Replace(gvk types.GVK, key types.ResourceKey, expectedRV string, payload json.RawMessage) (json.RawMessage, error) {
	current, _, err := s.Get(gvk, key)
	if err != nil {
		return nil, err
	}
	currentMeta, err := extractMeta(current)
	if err != nil {
		return nil, err
	}

	meta, err := extractMeta(payload)
	if err != nil {
		return nil, err
	}
	meta.UID = currentMeta.UID
	meta.CreationTimestamp = currentMeta.CreationTimestamp
	meta.ResourceVersion = ""
	meta.Namespace = key.Namespace
	meta.Name = key.Name

	payload, err = setMeta(payload, meta)
	if err != nil {
		return nil, err
	}

	commit, err := s.vstore.Apply(gvk, key, version.OpUpdate, expectedRV, payload, "")
	if err != nil {
		return nil, err
	}
	return s.commitAndPublish(gvk, key, types.WatchModified, commit, payload)
}

// Patch applies a JSON merge patch (RFC 7386) to the resource's current
// payload and commits the result, publishing a WatchModified event.
func (s *Store) Patch(gvk types.GVK, key types.ResourceKey, expectedRV string, mergePatch []byte) (json.RawMessage, error) {
	current, _, err := s.Get(gvk, key)
	if err != nil {
		return nil, err
	}

	patched, err := jsonpatch.MergePatch(current, mergePatch)
	if err != nil {
		return nil, fmt.Errorf("store: apply merge patch: %w", err)
	}

	currentMeta, err := extractMeta(current)
	if err != nil {
		return nil, err
	}
	meta, err := extractMeta(patched)
	if err != nil {
		return nil, err
	}
	meta.UID = currentMeta.UID
	meta.CreationTimestamp = currentMeta.CreationTimestamp
	meta.ResourceVersion = ""
	meta.Namespace = key.Namespace
	meta.Name = key.Name

	patched, err = setMeta(patched, meta)
	if err != nil {
		return nil, err
	}

	commit, err := s.vstore.Apply(gvk, key, version.OpUpdate, expectedRV, patched, "")
	if err != nil {
		return nil, err
	}
	return s.commitAndPublish(gvk, key, types.WatchModified, commit, patched)
}

// Finalize hard-removes a resource, the step that follows a soft delete.
// It publishes a WatchDeleted event carrying the last-known payload.
func (s *Store) Finalize(gvk types.GVK, key types.ResourceKey, expectedRV string) error {
	last, _, err := s.Get(gvk, key)
	if err != nil {
		return err
	}
	if err := s.vstore.Finalize(gvk, key, expectedRV); err != nil {
		return err
	}
	s.broker.Publish(&events.Event{
		Type:            types.WatchDeleted,
		GVK:             gvk,
		Key:             key,
		ResourceVersion: expectedRV,
		Object:          last,
	})
	return nil
}

// ReplaySince returns every commit affecting gvk (optionally scoped to
// namespace) with Seq > cursor, rendered as events in commit order — the
// history a reconnecting watcher needs replayed before it starts tailing
// live traffic.
func (s *Store) ReplaySince(gvk types.GVK, namespace string, cursor uint64) ([]*events.Event, error) {
	commits, err := s.vstore.ListSince(cursor)
	if err != nil {
		return nil, err
	}
	var out []*events.Event
	for _, c := range commits {
		if c.GVK != gvk {
			continue
		}
		if gvk.Namespaced() && namespace != "" && c.Key.Namespace != namespace {
			continue
		}
		obj, err := withResourceVersion(c.Payload, c.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &events.Event{
			Type:            watchTypeForOp(c.Op),
			GVK:             c.GVK,
			Key:             c.Key,
			ResourceVersion: c.ID,
			Seq:             c.Seq,
			Timestamp:       c.Timestamp,
			Object:          obj,
		})
	}
	return out, nil
}

// CommitSeq resolves a resourceVersion to the sequence number of the
// commit that produced it, so a watch can translate a client-supplied
// resourceVersion into the cursor ReplaySince expects.
func (s *Store) CommitSeq(resourceVersion string) (uint64, error) {
	commit, err := s.vstore.GetCommit(resourceVersion)
	if err != nil {
		return 0, err
	}
	return commit.Seq, nil
}

func watchTypeForOp(op version.Op) types.WatchEventType {
	switch op {
	case version.OpCreate:
		return types.WatchAdded
	case version.OpDelete:
		return types.WatchDeleted
	default:
		return types.WatchModified
	}
}

func (s *Store) commitAndPublish(gvk types.GVK, key types.ResourceKey, eventType types.WatchEventType, commit *version.Commit, payload json.RawMessage) (json.RawMessage, error) {
	obj, err := withResourceVersion(payload, commit.ID)
	if err != nil {
		return nil, err
	}
	s.broker.Publish(&events.Event{
		Type:            eventType,
		GVK:             gvk,
		Key:             key,
		ResourceVersion: commit.ID,
		Seq:             commit.Seq,
		Timestamp:       commit.Timestamp,
		Object:          obj,
	})
	return obj, nil
}

// nowFunc is a package-level seam so tests can pin creationTimestamp,
// mirroring pkg/version's clock.go.
var nowFunc = time.Now

// extractMeta decodes just the "metadata" field out of a resource payload.
func extractMeta(payload json.RawMessage) (types.ObjectMeta, error) {
	var envelope struct {
		Metadata types.ObjectMeta `json:"metadata"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return types.ObjectMeta{}, fmt.Errorf("store: decode metadata: %w", err)
	}
	return envelope.Metadata, nil
}

// setMeta rewrites just the "metadata" field of a resource payload,
// leaving every other top-level field (apiVersion, kind, spec, status)
// untouched.
func setMeta(payload json.RawMessage, meta types.ObjectMeta) (json.RawMessage, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("store: decode payload: %w", err)
	}
	encoded, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("store: encode metadata: %w", err)
	}
	raw["metadata"] = encoded
	out, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("store: encode payload: %w", err)
	}
	return out, nil
}

// withResourceVersion returns payload with metadata.resourceVersion set to
// rv, the commit id that produced (or most recently confirmed) it.
func withResourceVersion(payload json.RawMessage, rv string) (json.RawMessage, error) {
	meta, err := extractMeta(payload)
	if err != nil {
		return nil, err
	}
	meta.ResourceVersion = rv
	return setMeta(payload, meta)
}
