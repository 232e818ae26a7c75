/*
Package metrics exposes Prometheus instrumentation for animap.

Available metrics:
  - animap_cache_lookups_total: cache reads by kind (record, content, sources) and result (hit, miss, stale)
  - animap_provider_calls_total: provider adapter calls by provider, operation, and result
  - animap_circuit_breaker_transitions_total: breaker state changes by provider
  - animap_catalog_wait_seconds: time spent waiting on the catalog rate limiter

The collectors register with the default registry; Handler serves them.
*/
package metrics
