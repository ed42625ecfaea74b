/*
Package types defines Reddwarf's resource data model: the polymorphic
Kubernetes-style object shape (TypeMeta + ObjectMeta + spec + status) and
the four core kinds the control plane persists and versions — Pod,
Service, Namespace, and Node — plus the Secret kind added to demonstrate
that new kinds require no changes to the key/value or version-store
layers.

# Identity

Every resource is identified by a GVK (group, version, kind) and a
ResourceKey (namespace, name — namespace is empty for cluster-scoped
kinds). ObjectMeta.UID is assigned once at creation time and never
changes; ObjectMeta.ResourceVersion always equals the identifier of the
commit that most recently modified the resource in the version store.

# Status objects

A resource with DeletionTimestamp set is still readable — controllers
observe it to drive graceful termination — but blocks a new create of the
same (namespace, name) until the finalize step removes it entirely.

# Pod lifecycle

	Pending -> (scheduled) -> Creating -> Running -> (liveness fail) -> Failed
	                                   \-> (DELETE) -> Terminating -> Terminated -> (finalize) -> absent
*/
package types
