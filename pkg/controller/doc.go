/*
Package controller is Reddwarf's reconciliation loop: a ticker-driven
sweep plus per-resource-kind reconcile functions driving the Pod
provisioning state machine and the Node heartbeat staleness sweep.

Two dispatch paths feed the same reconcile functions:

  - Event-driven: a goroutine ranges over a pkg/events subscription and
    reconciles the single resource named by each event as soon as it
    arrives, so a Create or PATCH is acted on without waiting for the
    next sweep.
  - Periodic sweep: a ticker re-reconciles every resource of a kind on a
    fixed interval, catching drift an event could have missed (a missed
    Publish, a crash-restart).

# Pod state machine

	Pending → Creating → Running → (DELETE) → Terminating → Terminated → (finalize) → absent
	                   ↘ Failed ↗

CreateZone/StartZone/StopZone/DeleteZone/ZoneState on the configured
pkg/runtime.Runtime drive every transition; the controller never touches
containerd or any OS-level primitive directly.

# Retry and backoff

A reconcile function that returns an error is retried with exponential
backoff (1s doubling, capped at Config.ReconcileMaxBackoff), except for
errors classified apierror.KindInvalid or KindNotFound, which skip retry
entirely: retrying a validation failure or an already-gone resource
cannot succeed.

# Container health checks

A third ticker (Config.HealthCheckInterval) polls every Running Pod's
declared container health checks via pkg/health and fails the Pod the
first time a container's consecutive failures reach its Retries. Health
state (pkg/health.Status) is tracked per Pod+container across sweeps so
a single transient failure doesn't flip a container's health.
*/
package controller
