// Package main hosts the animap CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging, the catalog and
// linking clients, the provider registry and the cache backend into an
// aggregator.Service, then renders its results as tables or JSON. Cache
// writes are flushed before the process exits.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
