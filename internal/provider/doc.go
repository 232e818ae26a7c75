// Package provider defines the adapter contract implemented once per external
// content site and the Registry that maps provider names to adapters.
//
// The registry is built once at startup from configuration. Kinds form a
// closed set; Build maps each configured kind to a concrete adapter and wraps
// it in a circuit-breaking Guard. Registration order is preserved because the
// fan-out reports results in that order.
package provider
