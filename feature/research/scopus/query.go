package scopus

import (
	"errors"
	"fmt"
	"strings"
)

// ErrEmptyQuery is returned when a search has no author, query, affiliation or year.
var ErrEmptyQuery = errors.New("missing search parameters")

// VetAffiliation is the shorthand scope for the Faculty of Veterinary Medicine.
const VetAffiliation = "vet"

// AllYears disables the publication year filter.
const AllYears = "all"

// Search describes one Scopus search.
type Search struct {
	// AuthorID restricts results to one Scopus author.
	AuthorID string `json:"author_id,omitempty"`
	// Query is free Scopus query syntax. Ignored when AuthorID is set.
	Query string `json:"query,omitempty"`
	// Affiliation is "vet", a Scopus affiliation id, or empty.
	Affiliation string `json:"affiliation,omitempty"`
	// Year is a publication year or "all".
	Year string `json:"year,omitempty"`
}

// Build renders the search as a Scopus query string.
func (s Search) Build() (string, error) {
	q := ""
	switch {
	case strings.TrimSpace(s.AuthorID) != "":
		q = fmt.Sprintf("AU-ID(%s)", strings.TrimSpace(s.AuthorID))
	case strings.TrimSpace(s.Query) != "":
		q = strings.TrimSpace(s.Query)
	}

	if aff := strings.TrimSpace(s.Affiliation); aff != "" {
		affQuery := fmt.Sprintf("AF-ID(%s)", aff)
		if aff == VetAffiliation {
			affQuery = `AF-ID(60021944) AND AFFILORG("Veterinary Medicine")`
		}
		if q != "" {
			q = fmt.Sprintf("%s AND (%s)", affQuery, q)
		} else {
			q = affQuery
		}
	}

	if y := strings.TrimSpace(s.Year); y != "" && y != AllYears {
		if q != "" {
			q = fmt.Sprintf("(%s) AND PUBYEAR IS %s", q, y)
		} else {
			q = "PUBYEAR IS " + y
		}
	}

	if q == "" {
		return "", ErrEmptyQuery
	}
	return q, nil
}
