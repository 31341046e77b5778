package scopus

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"records-manager/core/fetch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSearchBuild(t *testing.T) {
	tests := []struct {
		name   string
		search Search
		want   string
	}{
		{"Author id", Search{AuthorID: "5719"}, "AU-ID(5719)"},
		{"Author id wins over query", Search{AuthorID: "5719", Query: "dogs"}, "AU-ID(5719)"},
		{"Vet scope", Search{Affiliation: "vet"}, `AF-ID(60021944) AND AFFILORG("Veterinary Medicine")`},
		{"Other affiliation with query", Search{Query: "TITLE(cat)", Affiliation: "60000001"}, "AF-ID(60000001) AND (TITLE(cat))"},
		{"Year", Search{Affiliation: "vet", Year: "2024"}, `(AF-ID(60021944) AND AFFILORG("Veterinary Medicine")) AND PUBYEAR IS 2024`},
		{"All years", Search{Query: "x", Year: "all"}, "x"},
		{"Year only", Search{Year: "2023"}, "PUBYEAR IS 2023"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.search.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Search{Year: "all"}.Build()
	assert.ErrorIs(t, err, ErrEmptyQuery)
}

const entryJSON = `{
	"eid": "2-s2.0-%d",
	"dc:title": "Paper %d",
	"dc:creator": "Fallback A.",
	"dc:description": "Abstract",
	"prism:publicationName": "Vet Journal",
	"prism:coverDate": "2024-03-01",
	"prism:doi": "10.1/%d",
	"prism:aggregationType": "Journal",
	"citedby-count": "7",
	"openaccessFlag": %s,
	"link": [{"@ref": "self", "@href": "https://api/self"}, {"@ref": "scopus", "@href": "https://scopus/%d"}],
	"author": [{"authname": "Smith J.", "authid": "111"}, {"given-name": "Ann", "surname": "Lee"}, {}],
	"affiliation": [{"affilname": "Kasetsart University"}, {"name": "Other Org"}, {}]
}`

func newTestServer(t *testing.T, total int) (*httptest.Server, *[]string) {
	t.Helper()
	var starts []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("X-ELS-APIKey"))
		assert.Equal(t, "inst", r.Header.Get("X-ELS-Insttoken"))
		assert.Equal(t, "-coverDate", r.URL.Query().Get("sort"))
		assert.Equal(t, "STANDARD", r.URL.Query().Get("view"))

		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		count, _ := strconv.Atoi(r.URL.Query().Get("count"))
		starts = append(starts, r.URL.Query().Get("start"))

		entries := ""
		for i := start; i < min(start+count, total); i++ {
			if entries != "" {
				entries += ","
			}
			flag := "true"
			if i%2 == 1 {
				flag = `"false"`
			}
			entries += fmt.Sprintf(entryJSON, i, i, i, flag, i)
		}
		if entries == "" {
			entries = `{"@_fa": "true", "error": "Result set was empty"}`
		}
		fmt.Fprintf(w, `{"search-results": {"opensearch:totalResults": "%d", "entry": [%s]}}`, total, entries)
	}))
	t.Cleanup(srv.Close)
	return srv, &starts
}

func testClient(baseURL string) *Client {
	return NewClient(Config{BaseURL: baseURL, ApiKey: "secret", InstToken: "inst", PageSize: 25}, zap.NewNop())
}

func TestClient_Search(t *testing.T) {
	srv, _ := newTestServer(t, 2)
	c := testClient(srv.URL)

	res, err := c.Search(context.Background(), Search{Affiliation: "vet", Year: "2024"}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	require.Len(t, res.Entries, 2)

	p := res.Entries[0]
	assert.Equal(t, "2-s2.0-0", p.EID)
	assert.Equal(t, "10.1/0", p.DOI)
	assert.Equal(t, "https://scopus/0", p.URL)
	assert.Equal(t, 7, p.CitationCount)
	assert.True(t, p.OpenAccess)
	assert.False(t, res.Entries[1].OpenAccess)
	assert.Equal(t, "Smith J. (ID: 111), Ann Lee, Unknown", p.Authors)
	assert.Equal(t, "Kasetsart University; Other Org", p.Affiliations)
	assert.Equal(t, "2024", p.Year())
	assert.NotEmpty(t, p.Raw)
}

func TestClient_EmptyResultPlaceholder(t *testing.T) {
	srv, _ := newTestServer(t, 0)
	res, err := testClient(srv.URL).Search(context.Background(), Search{Query: "nothing"}, 0, 25)
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.Empty(t, res.Entries)
}

func TestClient_Errors(t *testing.T) {
	_, err := NewClient(Config{}, zap.NewNop()).Search(context.Background(), Search{Query: "x"}, 0, 25)
	assert.ErrorIs(t, err, ErrNotConfigured)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err = testClient(srv.URL).Search(context.Background(), Search{Query: "x"}, 0, 25)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "quota exceeded", apiErr.Body)
}

func TestClient_PagesWithController(t *testing.T) {
	srv, starts := newTestServer(t, 60)
	c := testClient(srv.URL)

	ctrl := fetch.New(c.Pages(Search{Affiliation: "vet"}), fetch.Options{PageSize: c.PageSize(), Ceiling: c.Ceiling()})
	got, err := ctrl.FetchAll(context.Background(), 60)
	require.NoError(t, err)
	assert.Len(t, got, 60)
	assert.Equal(t, []string{"0", "25", "50"}, *starts)
}
