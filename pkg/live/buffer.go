// Package live reconciles two feeds of attendance punches into one
// consistent in-memory view: a historical page fetched at subscription
// time and a push stream of events arriving afterwards. Either feed may
// duplicate or overlap the other; reconciliation is idempotent.
package live

import (
	"sort"

	"github.com/syurodev/ztkapp-sub000/pkg/metrics"
	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

// MaxRecords bounds the reconciled buffer. Oldest entries fall off first.
const MaxRecords = 50

// Merge combines incoming events with the existing buffer and returns a
// new buffer that is deduplicated, sorted newest-first, and capped at
// MaxRecords. Incoming events win ties on the dedup key, so a pushed
// event can refresh display fields on a record the historical page
// already delivered. Pure function; neither slice is mutated.
func Merge(incoming, existing []types.AttendanceEvent) []types.AttendanceEvent {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.MergeDuration)

	seen := make(map[string]struct{}, len(incoming)+len(existing))
	merged := make([]types.AttendanceEvent, 0, len(incoming)+len(existing))

	for _, set := range [][]types.AttendanceEvent{incoming, existing} {
		for _, e := range set {
			k := e.Key()
			if _, dup := seen[k]; dup {
				continue
			}
			seen[k] = struct{}{}
			merged = append(merged, e)
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Time().After(merged[j].Time())
	})

	if len(merged) > MaxRecords {
		merged = merged[:MaxRecords]
	}
	return merged
}
