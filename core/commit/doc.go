// Package commit is the batch commit executor: it turns a reconcile.Plan into
// store writes.
//
// Writes are grouped into chunks of at most 500 and each chunk is submitted as one
// atomic SetMany call. Inserts get a store-generated id unless the kind's natural key
// doubles as the storage key (students, advisors with an advisor_id), in which case
// the natural key is used and the write is an upsert. Updates are field patches
// against the id captured at planning time; a patch whose target has vanished is
// reported as a PartialCommitFailure and does not fail its chunk.
//
// The audit entry for an import is written after all chunks, as a separate step.
package commit
