package docstore

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/nguyentranbao-ct/meritflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryMarshal(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{
			name: "equality with sort",
			query: NewQuery().
				Where("employee_id", Eq("E1")).
				OrderBy("timestamp", Desc).
				WithLimit(50),
			want: `{"selector":{"employee_id":{"$eq":"E1"}},"sort":[{"timestamp":"desc"}],"limit":50}`,
		},
		{
			name:  "array membership",
			query: NewQuery().Where("skill_tags_normalized", Contains("go")).WithLimit(20),
			want:  `{"selector":{"skill_tags_normalized":{"$elemMatch":{"$eq":"go"}}},"limit":20}`,
		},
		{
			name:  "empty selector",
			query: NewQuery(),
			want:  `{"selector":{}}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.query)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(got))
		})
	}
}

func TestQueryBuildersDoNotAlias(t *testing.T) {
	base := NewQuery().Where("team_id", Eq("T1"))
	a := base.Where("approval_status", Eq("pending"))
	assert.Len(t, base.Selector, 1)
	assert.Len(t, a.Selector, 2)
}

func TestWriteErrorConflict(t *testing.T) {
	err := error(&WriteError{Status: 409, Body: `{"error":"conflict"}`})
	assert.True(t, errors.Is(err, models.ErrConflict))
	assert.False(t, errors.Is(&WriteError{Status: 400}, models.ErrConflict))
	assert.Equal(t, `docstore write failed: status 409: {"error":"conflict"}`, err.Error())
}

func TestApplyUpsertOptions(t *testing.T) {
	assert.Equal(t, "", ApplyUpsertOptions())
	assert.Equal(t, "2-abc", ApplyUpsertOptions(WithRevision("1-x"), WithRevision("2-abc")))
}
