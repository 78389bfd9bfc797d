// Package metrics defines the console's Prometheus instrumentation:
// backend reachability, health check outcomes and latency, restart
// attempts and throttling, backend resource gauges, and live feed
// counters. All collectors are registered at init and exposed through
// Handler on the local status server.
package metrics
