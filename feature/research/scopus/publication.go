package scopus

import (
	"encoding/json"
	"fmt"
	"strings"

	"records-manager/core/utils"
)

// Publication is one normalized search entry.
type Publication struct {
	EID             string          `json:"eid"`
	DOI             string          `json:"doi"`
	Title           string          `json:"title"`
	Journal         string          `json:"journal"`
	CoverDate       string          `json:"cover_date"`
	URL             string          `json:"url"`
	Abstract        string          `json:"abstract"`
	Keywords        string          `json:"keywords"`
	CitationCount   int             `json:"citation_count"`
	OpenAccess      bool            `json:"open_access"`
	Affiliations    string          `json:"affiliations"`
	Authors         string          `json:"authors"`
	AggregationType string          `json:"aggregation_type"`
	Subtype         string          `json:"subtype"`
	Volume          string          `json:"volume"`
	Issue           string          `json:"issue"`
	PageRange       string          `json:"page_range"`
	Raw             json.RawMessage `json:"raw,omitempty"`
}

// Year returns the first four characters of the cover date, or "-".
func (p Publication) Year() string {
	if len(p.CoverDate) >= 4 {
		return p.CoverDate[:4]
	}
	return "-"
}

type searchResponse struct {
	Results struct {
		Total   string            `json:"opensearch:totalResults"`
		Entries []json.RawMessage `json:"entry"`
	} `json:"search-results"`
}

type entry struct {
	Error           string `json:"error"`
	EID             string `json:"eid"`
	Title           string `json:"dc:title"`
	Creator         string `json:"dc:creator"`
	Description     string `json:"dc:description"`
	Journal         string `json:"prism:publicationName"`
	CoverDate       string `json:"prism:coverDate"`
	DOI             string `json:"prism:doi"`
	AggregationType string `json:"prism:aggregationType"`
	Subtype         string `json:"subtypeDescription"`
	Volume          string `json:"prism:volume"`
	Issue           string `json:"prism:issueIdentifier"`
	PageRange       string `json:"prism:pageRange"`
	Keywords        string `json:"authkeywords"`
	CitedBy         any    `json:"citedby-count"`
	OpenAccess      any    `json:"openaccessFlag"`
	Links           []struct {
		Ref  string `json:"@ref"`
		Href string `json:"@href"`
	} `json:"link"`
	Authors []struct {
		AuthName  string `json:"authname"`
		GivenName string `json:"given-name"`
		Surname   string `json:"surname"`
		AuthID    string `json:"authid"`
	} `json:"author"`
	Affiliations []struct {
		AffilName string `json:"affilname"`
		Name      string `json:"name"`
	} `json:"affiliation"`
}

// normalize turns one raw entry into a Publication. ok is false for the
// placeholder entry the API returns for an empty result set.
func normalize(raw json.RawMessage) (Publication, bool, error) {
	var e entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Publication{}, false, fmt.Errorf("failed to decode search entry: %w", err)
	}
	if e.Error != "" {
		return Publication{}, false, nil
	}

	p := Publication{
		EID:             e.EID,
		DOI:             e.DOI,
		Title:           e.Title,
		Journal:         e.Journal,
		CoverDate:       e.CoverDate,
		Abstract:        e.Description,
		Keywords:        e.Keywords,
		CitationCount:   utils.ToInt(e.CitedBy),
		OpenAccess:      utils.ToBool(e.OpenAccess),
		AggregationType: e.AggregationType,
		Subtype:         e.Subtype,
		Volume:          e.Volume,
		Issue:           e.Issue,
		PageRange:       e.PageRange,
		Raw:             raw,
	}

	for _, l := range e.Links {
		if l.Ref == "scopus" {
			p.URL = l.Href
			break
		}
	}

	p.Authors = e.Creator
	if len(e.Authors) > 0 {
		names := make([]string, 0, len(e.Authors))
		for _, a := range e.Authors {
			name := a.AuthName
			if name == "" {
				name = "Unknown"
				if a.GivenName != "" && a.Surname != "" {
					name = a.GivenName + " " + a.Surname
				}
			}
			if a.AuthID != "" {
				name += " (ID: " + a.AuthID + ")"
			}
			names = append(names, name)
		}
		p.Authors = strings.Join(names, ", ")
	}
	if p.Authors == "" {
		p.Authors = "Unknown"
	}

	affs := make([]string, 0, len(e.Affiliations))
	for _, af := range e.Affiliations {
		name := af.AffilName
		if name == "" {
			name = af.Name
		}
		if name != "" {
			affs = append(affs, name)
		}
	}
	p.Affiliations = strings.Join(affs, "; ")

	return p, true, nil
}
