// Package config loads, normalizes, and validates animap configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// ANIMAP_CATALOG_URL. The Config type centralizes every knob the CLI needs:
// catalog and linking endpoints, cache backend and timeout, resolution
// strategies, and the provider table.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
