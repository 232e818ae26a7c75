// Package services defines shared utilities consumed by the resolver, the
// aggregator, and the external integrations (catalog, providers, linking).
//
// Key responsibilities:
//   - Context helpers that stamp correlation identifiers, media types, and
//     provider names for logging and tracing.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (provider, catalog, unknown media type) with errors.Is.
//
// Use these helpers when wiring new integration code so error classification
// and observability stay uniform across the pipeline.
package services
