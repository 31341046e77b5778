package reconcile

import "fmt"

// DecisionType is the outcome class of one incoming record.
type DecisionType string

const (
	DecisionInsert DecisionType = "insert"
	DecisionUpdate DecisionType = "update"
	DecisionSkip   DecisionType = "skip"
)

// Decision is the planner's verdict for a single incoming record.
type Decision[T Record] struct {
	Type DecisionType

	// Record is the prepared insert or the merged update.
	Record T

	// Existing is the matched record for updates and skips.
	Existing T

	// ExistingID is the matched record's id for updates and skips.
	ExistingID string

	// MatchedBy names the match key that decided an update or skip.
	MatchedBy string

	// Ambiguity is set when the record was routed to insert because of an ambiguous key.
	Ambiguity *AmbiguousMatchError
}

// Decide resolves one incoming record against the index and applies the kind's
// match action. index is the record's position in its batch, used in error reports.
func Decide[T Record](adapter Adapter[T], ix *Index[T], incoming T, index int) Decision[T] {
	res := Resolve(incoming, ix)
	if !res.Found {
		d := Decision[T]{Type: DecisionInsert, Record: adapter.Prepare(incoming)}
		if res.Ambiguous() {
			ids := make([]string, 0, len(res.Candidates))
			for _, c := range res.Candidates {
				ids = append(ids, c.System().ID)
			}
			d.Ambiguity = &AmbiguousMatchError{
				Kind:       adapter.Kind(),
				Index:      index,
				Key:        res.Key,
				Value:      res.Value,
				Candidates: ids,
			}
		}
		return d
	}

	existingID := res.Match.System().ID
	if adapter.OnMatch() == OnMatchSkip {
		return Decision[T]{Type: DecisionSkip, Existing: res.Match, ExistingID: existingID, MatchedBy: res.Key}
	}
	return Decision[T]{
		Type:       DecisionUpdate,
		Record:     adapter.Merge(incoming, res.Match),
		Existing:   res.Match,
		ExistingID: existingID,
		MatchedBy:  res.Key,
	}
}

// Update patches one existing record.
type Update[T Record] struct {
	ExistingID string `json:"existing_id"`
	Merged     T      `json:"merged"`
	// Changed lists the entity fields whose value differs from the stored record.
	Changed []string `json:"changed"`
	// Restore clears the stored record's soft-delete flag.
	Restore   bool   `json:"restore"`
	MatchedBy string `json:"matched_by"`
}

// Skip records an incoming record that produced no write.
type Skip struct {
	Index      int    `json:"index"`
	ExistingID string `json:"existing_id,omitempty"`
	Reason     string `json:"reason"`
}

// Plan is the partition of one batch of one kind against one store snapshot.
// Inserts and Updates keep batch order.
type Plan[T Record] struct {
	Kind      EntityKind             `json:"kind"`
	Total     int                    `json:"total"`
	Inserts   []T                    `json:"inserts"`
	Updates   []Update[T]            `json:"updates"`
	Skips     []Skip                 `json:"skips"`
	Rejected  []*ValidationError     `json:"rejected"`
	Ambiguous []*AmbiguousMatchError `json:"ambiguous"`

	// freshKeys holds Inserts positions that must be stored under a generated id.
	freshKeys map[int]struct{}
}

// InsertKey returns the storage key for Inserts[i]: the adapter's natural key,
// or "" for a generated id when the natural key is ambiguous or already names
// a stored record the insert did not match. An insert never lands on a record
// it was not matched to.
func (p *Plan[T]) InsertKey(adapter Adapter[T], i int) string {
	if _, fresh := p.freshKeys[i]; fresh {
		return ""
	}
	return adapter.NaturalKey(p.Inserts[i])
}

// PlanSummary holds the counts reported to the session log and persisted in run summaries.
type PlanSummary struct {
	Total    int `json:"total"`
	New      int `json:"new_count"`
	Updated  int `json:"update_count"`
	Skipped  int `json:"skip_count"`
	Rejected int `json:"rejected_count"`
}

// Summary counts the plan's decisions.
func (p *Plan[T]) Summary() PlanSummary {
	return PlanSummary{
		Total:    p.Total,
		New:      len(p.Inserts),
		Updated:  len(p.Updates),
		Skipped:  len(p.Skips),
		Rejected: p.rejectedRecords(),
	}
}

// Conserved reports whether every batch record landed in exactly one bucket.
func (p *Plan[T]) Conserved() bool {
	s := p.Summary()
	return s.New+s.Updated+s.Skipped+s.Rejected == p.Total
}

// Empty reports whether committing the plan would write nothing.
func (p *Plan[T]) Empty() bool {
	return len(p.Inserts) == 0 && len(p.Updates) == 0
}

// Errors renders rejected and ambiguous records as report lines.
func (p *Plan[T]) Errors() []string {
	out := make([]string, 0, len(p.Rejected)+len(p.Ambiguous))
	for _, r := range p.Rejected {
		out = append(out, r.Error())
	}
	for _, a := range p.Ambiguous {
		out = append(out, fmt.Sprintf("%s (inserted as new)", a.Error()))
	}
	return out
}

// A record can fail several fields; it is rejected once.
func (p *Plan[T]) rejectedRecords() int {
	seen := make(map[int]struct{}, len(p.Rejected))
	for _, r := range p.Rejected {
		seen[r.Index] = struct{}{}
	}
	return len(seen)
}

// BuildPlan partitions batch against existing.
//
// Records failing validation are rejected. Records sharing a key value with an insert
// or update already planned in the same batch are skipped, so a batch containing the
// same entity twice writes it once.
func BuildPlan[T Record](adapter Adapter[T], batch []T, existing []T) *Plan[T] {
	ix := BuildIndex(adapter, existing)
	plan := &Plan[T]{Kind: adapter.Kind(), Total: len(batch), freshKeys: map[int]struct{}{}}
	keys := adapter.MatchKeys()

	storedIDs := make(map[string]struct{}, len(existing))
	for _, ex := range existing {
		if id := ex.System().ID; id != "" {
			storedIDs[id] = struct{}{}
		}
	}

	pending := make([]map[string]int, len(keys))
	for i := range pending {
		pending[i] = make(map[string]int)
	}
	claim := func(rec T, idx int) {
		for i, k := range keys {
			if v := k.Extract(rec); v != "" {
				if _, taken := pending[i][v]; !taken {
					pending[i][v] = idx
				}
			}
		}
	}

	for idx, incoming := range batch {
		if errs := Validate(adapter.Kind(), idx, incoming); len(errs) > 0 {
			plan.Rejected = append(plan.Rejected, errs...)
			continue
		}

		d := Decide(adapter, ix, incoming, idx)
		switch d.Type {
		case DecisionSkip:
			plan.Skips = append(plan.Skips, Skip{
				Index:      idx,
				ExistingID: d.ExistingID,
				Reason:     "matched existing record by " + d.MatchedBy,
			})

		case DecisionUpdate:
			if first, key, dup := pendingMatch(keys, pending, d.Record); dup {
				plan.Skips = append(plan.Skips, Skip{
					Index:      idx,
					ExistingID: d.ExistingID,
					Reason:     fmt.Sprintf("duplicate of batch record #%d by %s", first, key),
				})
				continue
			}
			claim(d.Record, idx)
			plan.Updates = append(plan.Updates, newUpdate(d))

		case DecisionInsert:
			if first, key, dup := pendingMatch(keys, pending, incoming); dup {
				plan.Skips = append(plan.Skips, Skip{
					Index:  idx,
					Reason: fmt.Sprintf("duplicate of batch record #%d by %s", first, key),
				})
				continue
			}
			claim(incoming, idx)
			_, taken := storedIDs[adapter.NaturalKey(d.Record)]
			if d.Ambiguity != nil || taken {
				plan.freshKeys[len(plan.Inserts)] = struct{}{}
			}
			if d.Ambiguity != nil {
				plan.Ambiguous = append(plan.Ambiguous, d.Ambiguity)
			}
			plan.Inserts = append(plan.Inserts, d.Record)
		}
	}
	return plan
}

func pendingMatch[T Record](keys []MatchKey[T], pending []map[string]int, incoming T) (int, string, bool) {
	for i, k := range keys {
		v := k.Extract(incoming)
		if v == "" {
			continue
		}
		if first, ok := pending[i][v]; ok {
			return first, k.Name, true
		}
	}
	return 0, "", false
}

func newUpdate[T Record](d Decision[T]) Update[T] {
	u := Update[T]{ExistingID: d.ExistingID, Merged: d.Record, MatchedBy: d.MatchedBy}
	before, errB := Fields(d.Existing)
	after, errA := Fields(d.Record)
	if errB == nil && errA == nil {
		u.Changed = ChangedFields(before, after)
	}
	u.Restore = d.Existing.System().IsDeleted && !d.Record.System().IsDeleted
	return u
}
