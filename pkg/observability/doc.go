/*
Package observability provides tools for monitoring state trees.

Metrics turns reducer lifecycle hooks and session dispatches into
Prometheus series: slot transitions by status, failures, ignored actions
and dispatch latency.
*/
package observability
