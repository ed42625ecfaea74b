package version

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudnebula/reddwarf/pkg/kv"
	"github.com/cloudnebula/reddwarf/pkg/types"
)

const (
	segCommit = "commit"
	segHead   = "head"
	segLog    = "log"
	segMeta   = "meta"
	keySeq    = "seq"
	keyTip    = "tip"
)

// Store is the version store: a commit log layered over a kv.Engine.
type Store struct {
	engine *kv.Engine
}

// New wraps an already-open kv.Engine.
func New(engine *kv.Engine) *Store {
	return &Store{engine: engine}
}

// Apply applies one change to a resource's history. expectedParent is the
// caller's believed-current resourceVersion; pass "" when the caller has
// no prior observation (a blind Create). message is an optional
// free-text annotation carried on the commit. On success it returns the
// new head Commit, whose ID is the resource's new resourceVersion.
func (s *Store) Apply(gvk types.GVK, key types.ResourceKey, op Op, expectedParent string, payload json.RawMessage, message string) (*Commit, error) {
	var result *Commit
	err := s.engine.Update(func(tx kv.WriteTxn) error {
		if err := ensureGenesis(tx); err != nil {
			return err
		}

		headKey := kv.EncodeKey(segHead, gvk.String(), key.String())
		curHead := ""
		val, err := tx.Get(headKey)
		switch {
		case err == nil:
			curHead = string(val)
		case kv.IsNotFound(err):
			curHead = ""
		default:
			return err
		}

		if op == OpCreate && curHead != "" {
			return fmt.Errorf("%w: %s %s", ErrAlreadyExists, gvk, key)
		}
		if op != OpCreate && curHead == "" {
			return fmt.Errorf("%w: %s %s", ErrNotFound, gvk, key)
		}
		if expectedParent != "" && expectedParent != curHead {
			conflicting, cerr := commitsBetween(tx, curHead, expectedParent)
			if cerr != nil {
				return cerr
			}
			return &ConflictError{Key: key, Expected: expectedParent, Actual: curHead, ConflictingCommits: conflicting}
		}

		seq, err := nextSeq(tx)
		if err != nil {
			return err
		}

		// parent is the resource's own previous head once it has one, and
		// the shared genesis commit for a resource's first write, so every
		// resource's history is rooted in one common ancestor.
		parent := curHead
		if parent == "" {
			parent = genesisID
		}
		parentIDs := []string{parent}

		id := computeID(parentIDs, message, gvk, key, op, payload, seq)
		commit := &Commit{
			ID:        id,
			ParentIDs: parentIDs,
			Message:   message,
			Seq:       seq,
			GVK:       gvk,
			Key:       key,
			Op:        op,
			Payload:   payload,
		}
		commit.Timestamp = nowFunc()

		raw, err := json.Marshal(commit)
		if err != nil {
			return fmt.Errorf("version: marshal commit: %w", err)
		}
		if err := tx.Put(kv.EncodeKey(segCommit, id), raw); err != nil {
			return err
		}
		if err := tx.Put(headKey, []byte(id)); err != nil {
			return err
		}
		if err := tx.Put(kv.EncodeKey(segLog, encodeSeq(seq)), []byte(id)); err != nil {
			return err
		}
		if err := tx.Put(kv.EncodeKey(segMeta, keyTip), []byte(id)); err != nil {
			return err
		}

		result = commit
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ensureGenesis writes the store's single root commit the first time any
// resource is ever applied. Idempotent: when genesis is already present it
// returns without writing.
func ensureGenesis(tx kv.WriteTxn) error {
	key := kv.EncodeKey(segCommit, genesisID)
	if _, err := tx.Get(key); err == nil {
		return nil
	} else if !kv.IsNotFound(err) {
		return err
	}
	raw, err := json.Marshal(genesisCommit())
	if err != nil {
		return fmt.Errorf("version: marshal genesis commit: %w", err)
	}
	return tx.Put(key, raw)
}

// Finalize hard-removes a resource's head pointer, the step that takes a
// Terminating resource to fully absent. Unlike Apply(OpDelete, ...), which
// merely records one more commit in the chain (a resource can observe its
// own tombstone), Finalize deletes the head key itself so HeadOf and
// ListKeys stop reporting the resource as live. The commit chain itself is
// left untouched for audit purposes — GetCommit still returns any of its
// commits given a previously-observed commit ID, though ListCommits, which
// starts from the head, no longer reaches it. expectedParent is checked against
// the current head the same way Apply checks it, so a finalize racing a
// concurrent mutation is reported as a Conflict rather than silently
// discarding the newer write.
func (s *Store) Finalize(gvk types.GVK, key types.ResourceKey, expectedParent string) error {
	return s.engine.Update(func(tx kv.WriteTxn) error {
		headKey := kv.EncodeKey(segHead, gvk.String(), key.String())
		val, err := tx.Get(headKey)
		if err != nil {
			if kv.IsNotFound(err) {
				return fmt.Errorf("%w: %s %s", ErrNotFound, gvk, key)
			}
			return err
		}
		curHead := string(val)
		if expectedParent != "" && expectedParent != curHead {
			conflicting, cerr := commitsBetween(tx, curHead, expectedParent)
			if cerr != nil {
				return cerr
			}
			return &ConflictError{Key: key, Expected: expectedParent, Actual: curHead, ConflictingCommits: conflicting}
		}
		return tx.Delete(headKey)
	})
}

// GetCommit looks up a single commit by ID.
func (s *Store) GetCommit(id string) (*Commit, error) {
	var commit *Commit
	err := s.engine.View(func(v kv.ReadView) error {
		c, err := getCommit(v, id)
		if err != nil {
			return err
		}
		commit = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return commit, nil
}

// getCommit reads a commit through any ReadView, so both View-backed
// queries and the WriteTxn inside Apply/Finalize can share the same walk
// logic (commitsBetween) without nesting a second bbolt transaction.
func getCommit(v kv.ReadView, id string) (*Commit, error) {
	if id == genesisID {
		return genesisCommit(), nil
	}
	raw, err := v.Get(kv.EncodeKey(segCommit, id))
	if err != nil {
		if kv.IsNotFound(err) {
			return nil, fmt.Errorf("%w: commit %s", ErrNotFound, id)
		}
		return nil, err
	}
	var c Commit
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("version: unmarshal commit: %w", err)
	}
	return &c, nil
}

// commitsBetween walks back from head along parent links, collecting
// every commit up to but not including base (or until genesis if base is
// never reached, meaning the caller's view predates retained history),
// returned oldest first. Used to populate ConflictError.ConflictingCommits.
func commitsBetween(v kv.ReadView, head, base string) ([]string, error) {
	var ids []string
	for id := head; id != "" && id != genesisID; {
		if id == base {
			break
		}
		ids = append(ids, id)
		c, err := getCommit(v, id)
		if err != nil {
			return nil, err
		}
		id = c.parent()
	}
	for i, j := 0, len(ids)-1; i < j; i, j = i+1, j-1 {
		ids[i], ids[j] = ids[j], ids[i]
	}
	return ids, nil
}

// HeadOf returns the current head commit ID for a resource, and false if
// the resource has no history (never created, or never committed).
func (s *Store) HeadOf(gvk types.GVK, key types.ResourceKey) (string, bool, error) {
	var head string
	var found bool
	err := s.engine.View(func(v kv.ReadView) error {
		val, err := v.Get(kv.EncodeKey(segHead, gvk.String(), key.String()))
		if err != nil {
			if kv.IsNotFound(err) {
				return nil
			}
			return err
		}
		head = string(val)
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return head, found, nil
}

// ListKeys returns the ResourceKey of every resource of gvk that currently
// has a head commit, regardless of whether that head is a soft-delete
// (OpUpdate with deletionTimestamp set) or a live create/update.
// Hard-deleted (finalized) resources are never reported, because Finalize
// removes the head pointer entirely.
func (s *Store) ListKeys(gvk types.GVK) ([]types.ResourceKey, error) {
	var keys []types.ResourceKey
	err := s.engine.View(func(v kv.ReadView) error {
		prefix := kv.Prefix(segHead, gvk.String())
		return v.Range(prefix, func(k, _ []byte) error {
			rest := strings.TrimSuffix(string(k[len(prefix):]), "\x00")
			ns, name, hasNS := strings.Cut(rest, "/")
			if !hasNS {
				keys = append(keys, types.ResourceKey{Name: rest})
				return nil
			}
			keys = append(keys, types.ResourceKey{Namespace: ns, Name: name})
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

// ListCommits returns a resource's full history, oldest first: the
// subchain of commits that touched this key, not including the shared
// genesis root.
func (s *Store) ListCommits(gvk types.GVK, key types.ResourceKey) ([]*Commit, error) {
	head, found, err := s.HeadOf(gvk, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	var chain []*Commit
	err = s.engine.View(func(v kv.ReadView) error {
		for id := head; id != "" && id != genesisID; {
			c, err := getCommit(v, id)
			if err != nil {
				return err
			}
			chain = append(chain, c)
			id = c.parent()
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// DetectConflict reports whether a resource's history has moved past base
// in a way a caller holding that view must account for. It returns nil if
// the resource's current head is exactly base (no conflict) or the
// resource has never been written (nothing to conflict with). Otherwise
// it returns a *ConflictError populated the same way Apply populates one,
// without attempting to apply any change — callers that want to probe
// for a conflict before committing use this instead of a speculative
// Apply.
func (s *Store) DetectConflict(gvk types.GVK, key types.ResourceKey, base string) (*ConflictError, error) {
	var result *ConflictError
	err := s.engine.View(func(v kv.ReadView) error {
		val, err := v.Get(kv.EncodeKey(segHead, gvk.String(), key.String()))
		if err != nil {
			if kv.IsNotFound(err) {
				return nil
			}
			return err
		}
		head := string(val)
		if head == base {
			return nil
		}
		conflicting, err := commitsBetween(v, head, base)
		if err != nil {
			return err
		}
		result = &ConflictError{Key: key, Expected: base, Actual: head, ConflictingCommits: conflicting}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListSince returns every commit across every resource with Seq > cursor,
// in ascending sequence order — the primary mechanism a watch uses to
// replay history it may have missed while disconnected.
func (s *Store) ListSince(cursor uint64) ([]*Commit, error) {
	var commits []*Commit
	err := s.engine.View(func(v kv.ReadView) error {
		lo := kv.EncodeKey(segLog, encodeSeq(cursor+1))
		return v.RangeBounded(lo, nil, func(_, value []byte) error {
			c, err := getCommit(v, string(value))
			if err != nil {
				return err
			}
			commits = append(commits, c)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return commits, nil
}

// Tip returns the ID of the most recently written commit across every
// resource, and false if the store has never been written to.
func (s *Store) Tip() (string, bool, error) {
	var tip string
	var found bool
	err := s.engine.View(func(v kv.ReadView) error {
		val, err := v.Get(kv.EncodeKey(segMeta, keyTip))
		if err != nil {
			if kv.IsNotFound(err) {
				return nil
			}
			return err
		}
		tip = string(val)
		found = true
		return nil
	})
	if err != nil {
		return "", false, err
	}
	return tip, found, nil
}

// CommonAncestor returns the most recent commit reachable from both idA
// and idB by following parent links. Every resource's first commit is
// parented to the shared genesis commit (see ensureGenesis), so two
// commits from entirely unrelated resources always share at least
// genesis; CommonAncestor returns it rather than "" in that case.
func (s *Store) CommonAncestor(idA, idB string) (string, error) {
	if idA == idB {
		return idA, nil
	}
	var result string
	err := s.engine.View(func(v kv.ReadView) error {
		ancestorsA := make(map[string]struct{})
		for id := idA; id != ""; {
			ancestorsA[id] = struct{}{}
			if id == genesisID {
				break
			}
			c, err := getCommit(v, id)
			if err != nil {
				return err
			}
			id = c.parent()
		}
		for id := idB; id != ""; {
			if _, ok := ancestorsA[id]; ok {
				result = id
				return nil
			}
			if id == genesisID {
				break
			}
			c, err := getCommit(v, id)
			if err != nil {
				return err
			}
			id = c.parent()
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

// nextSeq increments and returns the store's global monotonic sequence
// counter. Must be called within an Update transaction.
func nextSeq(tx kv.WriteTxn) (uint64, error) {
	key := kv.EncodeKey(segMeta, keySeq)
	var cur uint64
	val, err := tx.Get(key)
	switch {
	case err == nil:
		cur = binary.BigEndian.Uint64(val)
	case kv.IsNotFound(err):
		cur = 0
	default:
		return 0, err
	}
	next := cur + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := tx.Put(key, buf); err != nil {
		return 0, err
	}
	return next, nil
}

// encodeSeq renders seq as a fixed-width, zero-padded decimal string so
// that byte-lexicographic order over the log segment matches numeric
// order.
func encodeSeq(seq uint64) string {
	return fmt.Sprintf("%020d", seq)
}
