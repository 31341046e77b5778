package checks

import (
	"sort"
	"time"

	"records-manager/core/reconcile"
)

// DuplicateGroup is a set of stored records sharing one match key value. The
// resolver treats such a value as ambiguous and never merges into it.
type DuplicateGroup struct {
	Key   string   `json:"key"`
	Value string   `json:"value"`
	IDs   []string `json:"ids"`
}

// DuplicateReport lists the duplicate groups of one kind.
type DuplicateReport struct {
	Kind    reconcile.EntityKind `json:"kind"`
	Records int                  `json:"records"`
	Groups  []DuplicateGroup     `json:"groups"`
	Built   time.Time            `json:"built"`
}

// FindDuplicates indexes existing the way the planner does and reports every key
// value held by more than one candidate record.
func FindDuplicates[T reconcile.Record](adapter reconcile.Adapter[T], existing []T) *DuplicateReport {
	ix := reconcile.BuildIndex(adapter, existing)
	report := &DuplicateReport{
		Kind:    adapter.Kind(),
		Records: ix.Len(),
		Groups:  []DuplicateGroup{},
		Built:   time.Now(),
	}

	for key, values := range ix.Duplicates() {
		for value, recs := range values {
			ids := make([]string, len(recs))
			for i, r := range recs {
				ids[i] = r.System().ID
			}
			sort.Strings(ids)
			report.Groups = append(report.Groups, DuplicateGroup{
				Key:   key,
				Value: reconcile.DisplayKey(value),
				IDs:   ids,
			})
		}
	}

	// Key priority first, then value.
	priority := make(map[string]int)
	for i, k := range adapter.MatchKeys() {
		priority[k.Name] = i
	}
	sort.Slice(report.Groups, func(i, j int) bool {
		a, b := report.Groups[i], report.Groups[j]
		if a.Key != b.Key {
			return priority[a.Key] < priority[b.Key]
		}
		return a.Value < b.Value
	})
	return report
}
