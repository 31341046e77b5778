package academic

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackup_RoundTrip(t *testing.T) {
	data := &Dataset{
		Students:     []*Student{{StudentID: "6401", FullNameTH: "สมชาย"}},
		Publications: []*Publication{{StudentID: "6401", Title: "Paper", Authors: []string{"A", "B"}}},
	}
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.FixedZone("ICT", 7*3600))

	b := NewBackup(data, "alice", now)
	assert.Equal(t, BackupVersion, b.Version)
	assert.Equal(t, time.UTC, b.Timestamp.Location())
	assert.Equal(t, Metadata{ExportedBy: "alice", StudentsCount: 1, PublicationsCount: 1}, b.Metadata)

	raw, err := json.Marshal(b)
	require.NoError(t, err)
	parsed, err := ParseBackup(raw)
	require.NoError(t, err)
	assert.Equal(t, 2, parsed.Total())
	assert.Equal(t, "สมชาย", parsed.Students[0].FullNameTH)
	assert.Equal(t, []string{"A", "B"}, parsed.Publications[0].Authors)
}

func TestParseBackup_Invalid(t *testing.T) {
	for name, raw := range map[string]string{
		"Not JSON":        `students,publications`,
		"Missing version": `{"data": {"students": []}}`,
		"Missing data":    `{"version": "1.0"}`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseBackup([]byte(raw))
			assert.ErrorIs(t, err, ErrInvalidBackup)
		})
	}
}

func TestDataset_Empty(t *testing.T) {
	assert.True(t, (&Dataset{}).Empty())
	assert.False(t, (&Dataset{Advisors: []*Advisor{{FullName: "x"}}}).Empty())
}
