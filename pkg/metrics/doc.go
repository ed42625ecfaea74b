/*
Package metrics defines and exposes Reddwarf's Prometheus metrics.

Metrics are registered at package init and exposed via Handler(), an
http.Handler callers mount at /metrics for Prometheus to scrape.

# Metrics Catalog

Version store:

  - reddwarf_commits_total{gvk,op} (counter): commits applied, by kind and operation
  - reddwarf_commit_duration_seconds (histogram): time per Apply call
  - reddwarf_conflicts_total{gvk} (counter): optimistic-concurrency conflicts

Resource population:

  - reddwarf_resources_total{gvk} (gauge): live resources, by kind
  - reddwarf_pods_by_phase{phase} (gauge): Pods, by phase
  - reddwarf_nodes_ready (gauge): Nodes with condition Ready=True

API:

  - reddwarf_api_requests_total{method,route,status} (counter)
  - reddwarf_api_request_duration_seconds{method,route} (histogram)
  - reddwarf_watch_subscribers_total{gvk} (gauge): open watch streams
  - reddwarf_watch_overflows_total{gvk} (counter): subscriptions dropped for falling behind

Controller:

  - reddwarf_reconciliation_duration_seconds (histogram)
  - reddwarf_reconciliation_cycles_total (counter)
  - reddwarf_reconcile_retries_total{gvk,kind} (counter): retries, by kind and apierror.Kind

Runtime:

  - reddwarf_zone_operation_duration_seconds{operation} (histogram)
  - reddwarf_zone_operation_failures_total{operation} (counter)

Population gauges are swept periodically by Collector rather than updated
inline, since the version store has no notion of "current count" short of
listing.

# Usage

	http.Handle("/metrics", metrics.Handler())

	timer := metrics.NewTimer()
	// ... perform operation ...
	timer.ObserveDuration(metrics.CommitDuration)
*/
package metrics
