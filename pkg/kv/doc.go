/*
Package kv is Reddwarf's embedded, ACID, single-writer key/value engine.

It wraps go.etcd.io/bbolt, a copy-on-write B-tree, behind a narrower
contract: ordered byte keys, prefix and bounded-range scans, and
multi-operation write transactions.

# Guarantees

A committed write is durable (fsynced by bbolt) before Update returns.
Readers opened via View see either the pre- or post-commit state, never a
torn write, because bbolt hands every View call a consistent MVCC
snapshot. Writers are serialized: bbolt allows at most one read-write
transaction in flight, so a second Update call blocks until the first
returns — exactly the single-writer discipline the version store above it
depends on for linearizable commit ordering.

# Key layout

Callers never construct raw bytes by hand; EncodeKey / Prefix join
segments with a NUL delimiter that resource names (validated DNS-1123)
can never contain, so a prefix scan over N complete segments can never
spuriously match a sibling whose next segment happens to share a byte
prefix (see keys.go).
*/
package kv
