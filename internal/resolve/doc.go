// Package resolve turns noisy provider observations into one resolved record
// per catalog entity.
//
// A query first fans out to every provider of the requested media type. Each
// configured strategy (catalog-first, provider-first, linking) then emits
// (canonical id, connector) pairs, which Group collapses into records. The
// per-strategy record lists are folded left with HardMerge or SoftMerge, the
// first strategy acting as the base.
package resolve
