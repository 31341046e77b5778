package checks

import (
	"testing"

	"records-manager/core/reconcile"
	"records-manager/feature/academic"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindDuplicates(t *testing.T) {
	advisors := []*academic.Advisor{
		{SystemFields: reconcile.SystemFields{ID: "a2"}, AdvisorID: "A01", FullName: "Dr. Somsak Rakdee"},
		{SystemFields: reconcile.SystemFields{ID: "a1"}, AdvisorID: "A01", FullName: "Somsak R."},
		{SystemFields: reconcile.SystemFields{ID: "b1"}, FullName: "Dr. Malee Srisuk"},
		{SystemFields: reconcile.SystemFields{ID: "b2", IsDeleted: true}, FullName: "dr. malee  srisuk"},
		{SystemFields: reconcile.SystemFields{ID: "c1"}, AdvisorID: "A03", FullName: "Dr. Unique"},
	}

	report := FindDuplicates[*academic.Advisor](academic.AdvisorAdapter{}, advisors)
	assert.Equal(t, reconcile.KindAdvisor, report.Kind)
	assert.Equal(t, 5, report.Records, "advisors resurrect, so deleted ones are candidates")
	require.Len(t, report.Groups, 2)
	assert.Equal(t, DuplicateGroup{Key: "advisor_id", Value: "A01", IDs: []string{"a1", "a2"}}, report.Groups[0])
	assert.Equal(t, DuplicateGroup{Key: "full_name", Value: "dr. malee srisuk", IDs: []string{"b1", "b2"}}, report.Groups[1])
}

func TestFindDuplicates_CompositeKey(t *testing.T) {
	pubs := []*academic.Publication{
		{SystemFields: reconcile.SystemFields{ID: "p1"}, StudentID: "6401", Title: "Rabies Surveillance"},
		{SystemFields: reconcile.SystemFields{ID: "p2"}, StudentID: "6401", Title: "rabies surveillance"},
		{SystemFields: reconcile.SystemFields{ID: "p3", IsDeleted: true}, StudentID: "6401", Title: "Rabies Surveillance"},
	}

	report := FindDuplicates[*academic.Publication](academic.PublicationAdapter{}, pubs)
	assert.Equal(t, 2, report.Records)
	require.Len(t, report.Groups, 1)
	assert.Equal(t, "6401 / rabies surveillance", report.Groups[0].Value)
	assert.Equal(t, []string{"p1", "p2"}, report.Groups[0].IDs)

	empty := FindDuplicates[*academic.Publication](academic.PublicationAdapter{}, nil)
	assert.NotNil(t, empty.Groups)
	assert.Empty(t, empty.Groups)
}
