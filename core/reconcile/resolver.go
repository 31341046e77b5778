package reconcile

// Resolution is the outcome of resolving one incoming record.
type Resolution[T Record] struct {
	// Match is the existing record when Found is true.
	Match T
	Found bool
	// Key and Value identify the match key that decided the outcome.
	Key   string
	Value string
	// Candidates holds the competing records of an ambiguous match.
	Candidates []T
}

// Ambiguous reports whether the decisive key matched more than one record.
func (r Resolution[T]) Ambiguous() bool {
	return len(r.Candidates) > 1
}

// Resolve probes the index keys in priority order. The first key with exactly one
// candidate wins. A key with several candidates ends the probe without a match.
func Resolve[T Record](incoming T, ix *Index[T]) Resolution[T] {
	for i, k := range ix.keys {
		v := k.Extract(incoming)
		if v == "" {
			continue
		}
		cands := ix.byKey[i][v]
		switch len(cands) {
		case 0:
			continue
		case 1:
			return Resolution[T]{Match: cands[0], Found: true, Key: k.Name, Value: v}
		default:
			return Resolution[T]{Key: k.Name, Value: v, Candidates: cands}
		}
	}
	return Resolution[T]{}
}
