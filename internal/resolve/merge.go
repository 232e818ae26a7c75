package resolve

import (
	"animap/internal/media"
	"animap/internal/textutil"
)

const (
	// nearDuplicateThreshold marks two locators as the same page for comparison.
	nearDuplicateThreshold = 0.5
	// clusterThreshold groups locators during soft-merge de-duplication.
	clusterThreshold = 0.7
)

// MergeOptions tunes HardMerge and SoftMerge.
type MergeOptions struct {
	// Threshold is the minimum score an incoming connector needs to replace
	// a base connector.
	Threshold float64
	// KeepUnmatched carries ids present on only one side into the output.
	// Off by default: both operators keep only shared ids.
	KeepUnmatched bool
}

// MergeFunc is the shape shared by HardMerge and SoftMerge.
type MergeFunc func(base, incoming []media.ResolvedRecord, opts MergeOptions) []media.ResolvedRecord

// HardMerge reconciles two record lists, replacing base connectors by
// incoming connectors at exactly equal locators when the incoming score wins.
func HardMerge(base, incoming []media.ResolvedRecord, opts MergeOptions) []media.ResolvedRecord {
	return mergeRecords(base, incoming, opts, hardConnectors)
}

// SoftMerge reconciles two record lists like HardMerge but also treats
// near-duplicate locators as equal, keeps dissimilar connectors from both
// sides, and finally clusters similar locators down to one representative.
func SoftMerge(base, incoming []media.ResolvedRecord, opts MergeOptions) []media.ResolvedRecord {
	return mergeRecords(base, incoming, opts, softConnectors)
}

type connectorMerge func(base, incoming []media.Connector, threshold float64) []media.Connector

func mergeRecords(base, incoming []media.ResolvedRecord, opts MergeOptions, merge connectorMerge) []media.ResolvedRecord {
	if len(base) == 0 {
		return incoming
	}
	if len(incoming) == 0 {
		return base
	}

	incomingByID := make(map[int64]int, len(incoming))
	for i, rec := range incoming {
		if _, ok := incomingByID[rec.CanonicalID]; !ok {
			incomingByID[rec.CanonicalID] = i
		}
	}

	out := make([]media.ResolvedRecord, 0, len(base))
	seen := make(map[int64]struct{}, len(base))
	for _, rec := range base {
		if _, dup := seen[rec.CanonicalID]; dup {
			continue
		}
		seen[rec.CanonicalID] = struct{}{}
		i, shared := incomingByID[rec.CanonicalID]
		if !shared {
			if opts.KeepUnmatched {
				out = append(out, rec)
			}
			continue
		}
		out = append(out, media.ResolvedRecord{
			CanonicalID: rec.CanonicalID,
			Snapshot:    rec.Snapshot,
			Connectors:  merge(rec.Connectors, incoming[i].Connectors, opts.Threshold),
		})
	}

	if opts.KeepUnmatched {
		for _, rec := range incoming {
			if _, ok := seen[rec.CanonicalID]; ok {
				continue
			}
			seen[rec.CanonicalID] = struct{}{}
			out = append(out, rec)
		}
	}
	return out
}

// prefer returns the incoming connector when it clears the threshold and
// scores at least as high as the base connector.
func prefer(base, incoming media.Connector, threshold float64) media.Connector {
	if incoming.Similarity.Score >= threshold && incoming.Similarity.Score >= base.Similarity.Score {
		return incoming
	}
	return base
}

// hardConnectors keeps the base connectors in order, replacing each by an
// incoming connector at the same locator when prefer picks it. Incoming
// connectors without a base counterpart are dropped.
func hardConnectors(base, incoming []media.Connector, threshold float64) []media.Connector {
	out := make([]media.Connector, 0, len(base))
	for _, bc := range base {
		chosen := bc
		for _, ic := range incoming {
			if ic.Locator == bc.Locator {
				chosen = prefer(chosen, ic, threshold)
			}
		}
		out = append(out, chosen)
	}
	return out
}

func softConnectors(base, incoming []media.Connector, threshold float64) []media.Connector {
	matched := make([]bool, len(incoming))
	out := make([]media.Connector, 0, len(base)+len(incoming))
	for _, bc := range base {
		chosen := bc
		for j, ic := range incoming {
			if ic.Locator != bc.Locator && textutil.Score(ic.Locator, bc.Locator) <= nearDuplicateThreshold {
				continue
			}
			matched[j] = true
			chosen = prefer(chosen, ic, threshold)
		}
		out = append(out, chosen)
	}
	for j, ic := range incoming {
		if !matched[j] {
			out = append(out, ic)
		}
	}
	return cluster(out)
}

// cluster groups connectors whose locators score above clusterThreshold
// against a cluster's first member, keeps the best-scoring member of each
// cluster, then drops representatives that are near-duplicates of one
// already chosen.
func cluster(connectors []media.Connector) []media.Connector {
	type group struct {
		seed string
		rep  media.Connector
	}
	var groups []group
	for _, c := range connectors {
		placed := false
		for i := range groups {
			if c.Locator == groups[i].seed || textutil.Score(c.Locator, groups[i].seed) > clusterThreshold {
				if c.Similarity.Score > groups[i].rep.Similarity.Score {
					groups[i].rep = c
				}
				placed = true
				break
			}
		}
		if !placed {
			groups = append(groups, group{seed: c.Locator, rep: c})
		}
	}

	out := make([]media.Connector, 0, len(groups))
	for _, g := range groups {
		duplicate := false
		for _, chosen := range out {
			if chosen.Locator == g.rep.Locator || textutil.Score(chosen.Locator, g.rep.Locator) > clusterThreshold {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, g.rep)
		}
	}
	return out
}
