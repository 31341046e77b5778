// Package audit keeps the append-only audit trail (audit_logs).
//
// Recording is a separate step that runs after a data mutation has committed.
// Recorder never returns an error: a failed append is logged and the mutation stands.
package audit
