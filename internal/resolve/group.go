package resolve

import "animap/internal/media"

// Group collapses pairs into one record per canonical id in first-seen order.
// Connectors are appended in encounter order without de-duplication.
func Group(pairs []Pair) []media.ResolvedRecord {
	records := make([]media.ResolvedRecord, 0)
	index := make(map[int64]int)
	for _, p := range pairs {
		if i, ok := index[p.Entity.ID]; ok {
			records[i].Connectors = append(records[i].Connectors, p.Connector)
			continue
		}
		index[p.Entity.ID] = len(records)
		records = append(records, media.ResolvedRecord{
			CanonicalID: p.Entity.ID,
			Snapshot:    p.Entity,
			Connectors:  []media.Connector{p.Connector},
		})
	}
	return records
}
