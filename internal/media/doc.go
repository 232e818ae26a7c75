// Package media defines the shared data model: catalog entities, provider
// observations, connectors, resolved records, and the cached content and
// source entries keyed by canonical identity.
package media
