// Package session runs one fetch, reconcile and commit pass as a Session.
//
// A Session moves forward only:
//
//	Idle -> Fetching -> Reconciling -> Committing -> Completed | Failed
//
// Every transition and progress step appends an Event to the session's live log. The
// percentage never decreases, and the log is append-only so a client can replay it
// from the first line (MemorySink in process, RedisSink across nodes).
//
// Run persists exactly one Summary (table sync_runs) when a session completes. A
// failed session writes no Summary; its last log line is the error and, when
// Diagnostics is configured, the whole log is archived under diagnostics/sync/.
//
// PlanBatch and CommitPlan are the reconcile and commit steps on their own, for
// callers such as a multi-kind restore that drive the phases themselves.
package session
