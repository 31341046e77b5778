package reconcile

// MatchAction is what a kind does with an incoming record that matches an existing one.
type MatchAction int

const (
	// OnMatchUpdate merges the pair and patches the existing record.
	OnMatchUpdate MatchAction = iota
	// OnMatchSkip leaves the existing record untouched.
	OnMatchSkip
)

// SoftDeletePolicy decides whether soft-deleted records take part in matching.
type SoftDeletePolicy int

const (
	// TreatAsNew hides soft-deleted records from the resolver; a re-import inserts a new record.
	TreatAsNew SoftDeletePolicy = iota
	// Resurrect keeps soft-deleted records as candidates; a match clears is_deleted.
	Resurrect
)

func (p SoftDeletePolicy) String() string {
	if p == Resurrect {
		return "resurrect"
	}
	return "treat_as_new"
}

// Adapter supplies the per-kind identity and merge rules.
//
// T is a pointer to an entity struct embedding SystemFields. Implementations
// must be pure: the planner may call them in any order and any number of times.
type Adapter[T Record] interface {
	// Kind returns the entity kind handled by this adapter.
	Kind() EntityKind

	// MatchKeys returns the identity strategies in priority order.
	MatchKeys() []MatchKey[T]

	// OnMatch reports whether a match produces an update or a skip.
	OnMatch() MatchAction

	// SoftDelete returns the kind's soft-delete policy.
	SoftDelete() SoftDeletePolicy

	// Merge combines an incoming record with the existing record it matched.
	// It must return a new value and leave both arguments unmodified.
	// The result carries the existing record's system fields.
	Merge(incoming, existing T) T

	// Prepare fills insert defaults on a record that matched nothing.
	// Like Merge, it returns a new value.
	Prepare(incoming T) T

	// NaturalKey returns the storage key for kinds whose natural key doubles as the
	// document id, or "" when the store must generate one.
	NaturalKey(rec T) string
}
