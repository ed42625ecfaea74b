package version

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/cloudnebula/reddwarf/pkg/types"
)

// Op is the kind of change a Commit records.
type Op string

const (
	OpCreate  Op = "Create"
	OpUpdate  Op = "Update"
	OpDelete  Op = "Delete"
	opGenesis Op = "Genesis"
)

// Commit is one immutable, content-addressed entry in the store's commit
// DAG. ID doubles as the resource's resourceVersion immediately after
// this commit is applied. ParentIDs is an ordered list so the shape
// extends to multi-writer merges later; today's single-writer engine
// never records more than one.
type Commit struct {
	ID        string            `json:"id"`
	ParentIDs []string          `json:"parentIds,omitempty"`
	Message   string            `json:"message,omitempty"`
	Seq       uint64            `json:"seq"`
	GVK       types.GVK         `json:"gvk"`
	Key       types.ResourceKey `json:"key"`
	Op        Op                `json:"op"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
}

// parent returns the commit's sole parent, or "" for the genesis commit.
// Kept as a helper because today's engine is single-writer: every Commit
// but genesis has exactly one parent.
func (c *Commit) parent() string {
	if len(c.ParentIDs) == 0 {
		return ""
	}
	return c.ParentIDs[0]
}

// genesisID is the fixed, content-addressed identity of the store's
// single root commit. Every resource's first commit is parented to it,
// so any two resources' histories share it as a common ancestor even
// when they have no history of their own in common.
var genesisID = func() string {
	h := sha256.Sum256([]byte("reddwarf-genesis-v1"))
	return hex.EncodeToString(h[:])
}()

// genesisCommit returns the well-known root commit record.
func genesisCommit() *Commit {
	return &Commit{ID: genesisID, Op: opGenesis, Timestamp: time.Time{}}
}

// computeID derives a commit's content-addressed identity from its
// parents, message, and change. Two calls to Apply with identical
// arguments and the same parent/seq would hash identically, but seq is
// strictly increasing per store so collisions across distinct commits
// never occur.
func computeID(parentIDs []string, message string, gvk types.GVK, key types.ResourceKey, op Op, payload json.RawMessage, seq uint64) string {
	h := sha256.New()
	for _, p := range parentIDs {
		fmt.Fprintf(h, "%s\x00", p)
	}
	fmt.Fprintf(h, "\x00%s\x00%s\x00%s\x00%s\x00", message, gvk.String(), key.String(), op)
	h.Write(payload)
	fmt.Fprintf(h, "\x00%s", strconv.FormatUint(seq, 10))
	return hex.EncodeToString(h.Sum(nil))
}
