// Package observability provides structured JSON logging, Prometheus
// metrics (including the keys-revalidated and keys-expired counters),
// health probes, panic recovery, and graceful shutdown of the HTTP
// listeners.
package observability
