// Package reconcile decides, for a batch of incoming records of one entity kind,
// which records are new, which update an existing record and which are skipped.
//
// It is pure: nothing in this package touches the store, the network or the clock.
// Persisting a plan is the job of core/commit.
//
// # Architecture
//
// 1. Adapter: per-kind rules. Match keys in priority order, the merge policy
// (source-wins, local-wins and system fields), insert defaults, the soft-delete
// policy and whether the kind's natural key doubles as the storage key.
//
// 2. Index and Resolve: the existing records are indexed once per run under every
// match key. Resolve probes the keys in order; the first key with a single candidate
// wins. Blank key values never match, and a key with several candidates is ambiguous
// and routes the record to insert.
//
// 3. BuildPlan: validates every record (validator struct tags), resolves it and
// partitions the batch into inserts, updates and skips in batch order. Rejected records
// are kept with their errors so that
//
//	new + updated + skipped + rejected == total
//
// holds for every plan.
//
// # Usage Example
//
//	plan := reconcile.BuildPlan[*research.Record](research.Adapter{}, incoming, existing)
//	if !plan.Conserved() {
//	    return fmt.Errorf("plan lost records")
//	}
//	summary := plan.Summary()
//
// # Creating Adapters
//
// Entity structs embed SystemFields and are handled through pointers. Merge and
// Prepare must return new values; see feature/research and feature/academic.
package reconcile
