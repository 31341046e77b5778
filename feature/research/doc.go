// Package research manages the faculty's research records and keeps them in sync
// with Scopus.
//
// # Identity and merge
//
// A Scopus entry matches a stored record by EID, then by a non-empty DOI.
// Bibliographic fields come from Scopus on every sync; curation fields (reward,
// note, status, authors_list) stay as the staff left them. See Adapter.
//
// # Sync paths
//
//   - Search: one page of results at an offset, each tagged new or duplicate.
//   - Import: the single-record path, one result inserted or updated.
//   - Sync / StartSync: the bulk path, every result fetched 25 at a time and
//     reconciled in one session.
//
// Both paths go through session.Run and write one sync_runs summary when they
// complete.
//
// # HTTP Endpoints
//
//   - GET/POST /research, GET/PATCH/DELETE /research/:id
//   - GET /research/scopus/search, POST /research/scopus/import, POST /research/scopus/sync
//   - GET /sync/history, GET/DELETE /sync/sessions/:id, GET /sync/sessions/:id/events
package research
