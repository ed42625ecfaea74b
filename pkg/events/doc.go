/*
Package events is Reddwarf's in-memory pub/sub bus: the layer that turns
version-store commits into the ADDED/MODIFIED/DELETED stream a watch
request serves, a non-blocking broadcast-to-subscribers design scoped by
GVK and namespace instead of by a flat topic string.

# Architecture

	Controller / API write path
	        │  commit applied
	        ▼
	   Broker.Publish(Event)
	        │  fan-out, non-blocking per subscriber
	        ▼
	 ┌──────────────┬──────────────┬──────────────┐
	 │ Subscription │ Subscription │ Subscription │   (one per active
	 │  (Pod, ns=x) │ (Pod, ns="") │ (Node, ns="")│    watch request)
	 └──────────────┴──────────────┴──────────────┘

Each Subscription is a bounded channel. A slow watcher whose buffer fills
is not blocked on: the broker drops the event, flips the subscription
into an overflowed state, and delivers one synthetic WatchGone event
carrying the resourceVersion of the last event it actually delivered —
the API layer turns that into a resync-required response rather than
silently replaying a gap, so a client can resume a fresh watch from that
resourceVersion instead of relisting blind.
*/
package events
