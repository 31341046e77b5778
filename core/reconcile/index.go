package reconcile

// Index holds the existing records of one kind keyed by every match key.
// It is built once per planning run and read-only afterwards.
type Index[T Record] struct {
	keys   []MatchKey[T]
	byKey  []map[string][]T
	policy SoftDeletePolicy
	size   int
}

// BuildIndex indexes existing under each of the adapter's match keys.
// Records with a blank key value are left out of that key's map.
func BuildIndex[T Record](adapter Adapter[T], existing []T) *Index[T] {
	keys := adapter.MatchKeys()
	ix := &Index[T]{
		keys:   keys,
		byKey:  make([]map[string][]T, len(keys)),
		policy: adapter.SoftDelete(),
	}
	for i := range keys {
		ix.byKey[i] = make(map[string][]T)
	}

	for _, rec := range existing {
		if rec.System().IsDeleted && ix.policy == TreatAsNew {
			continue
		}
		ix.size++
		for i, k := range keys {
			v := k.Extract(rec)
			if v == "" {
				continue
			}
			ix.byKey[i][v] = append(ix.byKey[i][v], rec)
		}
	}
	return ix
}

// Len returns the number of candidate records.
func (ix *Index[T]) Len() int {
	return ix.size
}

// Duplicates returns, per key name, the key values shared by more than one record.
func (ix *Index[T]) Duplicates() map[string]map[string][]T {
	out := make(map[string]map[string][]T)
	for i, k := range ix.keys {
		for v, recs := range ix.byKey[i] {
			if len(recs) < 2 {
				continue
			}
			if out[k.Name] == nil {
				out[k.Name] = make(map[string][]T)
			}
			out[k.Name][v] = recs
		}
	}
	return out
}
