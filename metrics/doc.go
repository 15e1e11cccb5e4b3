/*
Package metrics provides counters, gauges and histograms backed by the Tarmac
host runtime, and the Statements bundle the query executor records into.

Metric emission follows Prometheus-style ergonomics: Inc/Dec/Observe are
best-effort and do not return errors. Marshal or host-call failures are
swallowed so that instrumentation never changes the outcome of a statement.
*/
package metrics
