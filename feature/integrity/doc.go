// Package integrity checks the health of the stored data and the infrastructure
// around it.
//
// # Checks Provided
//
//   - Structure: the backups/ and diagnostics/ folders exist in the storage bucket.
//   - Schema: the documents, audit_logs and sync_runs tables carry every column of
//     their models.
//   - Duplicates: per kind, the stored records sharing a match key value. The
//     resolver never merges into such records, so every group shows up as
//     "inserted as new" on the next import until it is cleaned up. Reports are
//     cached for a TTL and concurrent builds of one kind are collapsed.
//
// # HTTP Endpoints
//
//   - GET /integrity : Runs all checks.
//   - GET /integrity/structure : Runs structure check (supports ?fix=true).
//   - GET /integrity/schema : Runs schema check.
//   - GET /integrity/duplicates : Duplicate report of every kind (supports ?refresh=true).
//   - GET /integrity/duplicates/:kind : Duplicate report of one kind.
package integrity
