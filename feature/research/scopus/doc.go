// Package scopus is a client for the Elsevier Scopus Search API.
//
// Search builds the query string (author id, free query, affiliation scope and
// publication year), Client.Search fetches one page and normalizes its entries into
// Publications, and Client.Pages exposes the same call as a fetch.PageFunc so that
// bulk and incremental fetches share one normalization path.
package scopus
