/*
Package version is Reddwarf's version store: the layer above pkg/kv that
turns flat key/value storage into a content-addressed commit DAG, giving
every write a resourceVersion that is also the commit's own identity.

# Commits

Applying a change to a resource appends a Commit whose ID is the hex
SHA-256 of its parents, message, the resource's GVK/key, the operation,
the payload, and a global sequence number. Every resource's first commit
is parented to one well-known genesis commit, so the store as a whole is
a single DAG rooted at genesis rather than an unrelated forest: any two
commits, even from different resources, share at least genesis as a
common ancestor. Later commits on a resource parent to that resource's
own previous head. A meta "tip" key tracks the most recently written
commit across every resource. Commits are append-only: Apply never
rewrites or removes a prior commit, including on Delete, which is itself
recorded as a commit so history remains a complete audit log.

# Optimistic concurrency

Apply takes the caller's believed-current resourceVersion as
expectedParent. If the resource's actual head commit differs, Apply
returns a *ConflictError carrying every commit between the caller's view
and the current head that touched the same key, instead of applying the
change. DetectConflict runs the same check without attempting a write,
for callers that want to probe before committing.

# Ancestor queries

CommonAncestor walks two commits' parent chains to find their most
recent shared ancestor, used to describe how far a conflicting client's
view has diverged from the current head; genesis-rooting guarantees this
always resolves to something, never "".
*/
package version
