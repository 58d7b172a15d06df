package ingest

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadTable(t *testing.T) {
	table, err := ReadTable(strings.NewReader("\ufeff course_id ,title,skills\nC1,Intro\n\n,,\nC2,Go,\"go,rust\"\n"))
	require.NoError(t, err)

	assert.Equal(t, []string{"course_id", "title", "skills"}, table.Header)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, []string{"C1", "Intro", ""}, table.Rows[0])
	assert.Equal(t, "go,rust", table.Cell(table.Rows[1], "skills"))
	assert.Equal(t, "", table.Cell(table.Rows[1], "missing"))
	assert.Equal(t, []string{"C1", "C2"}, table.Column("course_id"))
}

func TestReadTableRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty",
			input: "",
			want:  "empty file",
		},
		{
			name:  "wide row",
			input: "course_id,title,skills\nC0,Ok,go\nC1,Intro, to Go,go\n",
			want:  "line 3: expected 3 fields, saw 4",
		},
		{
			name:  "duplicate header",
			input: "course_id,title, title\nC1,a,b\n",
			want:  `duplicate column "title" at positions 2 and 3`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadTable(strings.NewReader(tt.input))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
