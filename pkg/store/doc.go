/*
Package store is the generic resource store the API and controller layers
program against: it binds pkg/version (commit history and optimistic
concurrency), pkg/events (watch fan-out), and the server-assigned identity
fields (uid, creationTimestamp, resourceVersion) every kind shares, without
knowing any kind's concrete Go type.

Resources are carried as json.RawMessage throughout; Store only ever needs
to read and rewrite the "metadata" object inside that JSON (via
types.ObjectMeta), which is identical across every kind. Kind-specific
concerns — status.phase transitions, soft-delete-triggered runtime calls,
validation — belong to pkg/api's typed handlers and pkg/controller's
reconcile functions, which decode the payload into the concrete Go struct
they need before and after calling Store.

Create/Replace/Patch each do three things in sequence: mutate or validate
the generic metadata envelope, commit the change through pkg/version
(which performs the optimistic-concurrency check), then publish the result
on pkg/events so open watches observe it immediately. Get/List read the
current head of each resource's commit chain; Finalize removes a
resource's head pointer entirely, the point at which it stops being
"current" even though its commit history remains inspectable.
*/
package store
