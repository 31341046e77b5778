// Package fetch is the paginated fetch controller used for external API pulls.
//
// A Controller wraps a single page primitive (PageFunc) and walks it with a fixed
// page size and a monotonic offset:
//
//	Idle -> Fetching(offset) -> Fetching(offset+pageSize) | Exhausted | Aborted
//
// FetchAll is the bulk mode used by "import everything". FetchNext is the incremental
// mode behind "load 25 more"; Resume seeds it with results the caller already holds.
// Both go through the same primitive so that pages are normalized identically.
package fetch
