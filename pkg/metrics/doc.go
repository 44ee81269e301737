/*
Package metrics provides Prometheus metrics collection and exposition for
burrow, plus liveness/readiness health handlers in the same style.

Metrics cover the commit pipeline (attempt counts by result, latency),
the global version caches (resident entry counts per relation), and
database-level gauges (object count, on-disk usage). A Collector polls
the gauge-style metrics on a tick; the commit-path counters and
histogram are recorded inline by the committer goroutine.

Use Handler to mount the Prometheus scrape endpoint, and
HealthHandler/ReadyHandler/LivenessHandler for the corresponding HTTP
probes.
*/
package metrics
