package ingest

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestConverter(t *testing.T) *Converter {
	t.Helper()
	c, err := NewConverter(mustRules(t))
	require.NoError(t, err)
	return c
}

func TestArtifactName(t *testing.T) {
	assert.Equal(t, "Kudos_log.json", ArtifactName("Kudos_log.csv"))
	assert.Equal(t, "plain.json", ArtifactName("plain"))
}

func TestConverterRun(t *testing.T) {
	in, out := t.TempDir(), filepath.Join(t.TempDir(), "seed")
	writeFile(t, in, "Course_Catalog_Mock.csv", "course_id,title\nC1,Go <basics> & more\n")
	writeFile(t, in, "Pulse_aggregates.csv", "team_id,week_start\nT1,2024-01-01\n")
	writeFile(t, in, "Unrelated.csv", "a,b\n1,2\n")
	writeFile(t, in, "notes.txt", "ignored")

	report, err := newTestConverter(t).Run(context.Background(), in, out)
	require.NoError(t, err)
	assert.False(t, report.OK())

	require.Len(t, report.Written, 1)
	assert.Equal(t, "Course_Catalog_Mock.csv", report.Written[0].File)
	assert.Equal(t, 1, report.Written[0].Records)
	assert.Equal(t, []string{"Unrelated.csv"}, report.Skipped)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "Pulse_aggregates.csv", report.Failed[0].File)
	assert.Contains(t, report.Failed[0].Reason, "pulse_id")

	data, err := os.ReadFile(filepath.Join(out, "Course_Catalog_Mock.json"))
	require.NoError(t, err)
	assert.Equal(t, "[\n  {\n    \"course_id\": \"C1\",\n    \"title\": \"Go <basics> & more\",\n    \"_id\": \"C1\"\n  }\n]\n", string(data))

	_, err = os.Stat(filepath.Join(out, "Pulse_aggregates.json"))
	assert.True(t, os.IsNotExist(err))

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestConverterRunIsIdempotent(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFile(t, in, "Kudos_log.csv", "kudos_id,values_tags,created_at\nK1,\"a, b\",2024-05-01\n")

	c := newTestConverter(t)
	_, err := c.Run(context.Background(), in, out)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(out, "Kudos_log.json"))
	require.NoError(t, err)

	_, err = c.Run(context.Background(), in, out)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(out, "Kudos_log.json"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, strings.Contains(string(first), `"created_at": "2024-05-01T12:00:00Z"`))
}

func TestConverterRunNothingToConvert(t *testing.T) {
	c := newTestConverter(t)

	_, err := c.Run(context.Background(), filepath.Join(t.TempDir(), "missing"), t.TempDir())
	assert.ErrorIs(t, err, ErrNoSourceFiles)

	empty := t.TempDir()
	_, err = c.Run(context.Background(), empty, t.TempDir())
	assert.ErrorIs(t, err, ErrNoSourceFiles)

	unmatched := t.TempDir()
	writeFile(t, unmatched, "Other.csv", "x\n1\n")
	report, err := c.Run(context.Background(), unmatched, t.TempDir())
	assert.ErrorIs(t, err, ErrNoSourceFiles)
	assert.Equal(t, []string{"Other.csv"}, report.Skipped)
}

func TestConverterRunKeepsRowIssues(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFile(t, in, "Growth_Recos_log.csv", "reco_id,created_at\n,2024-01-01\nR2,2024-01-02\n")

	report, err := newTestConverter(t).Run(context.Background(), in, out)
	require.NoError(t, err)
	assert.True(t, report.OK())
	require.Len(t, report.Issues, 1)
	assert.Equal(t, "Growth_Recos_log.csv", report.Issues[0].File)
	assert.Equal(t, 1, report.Written[0].Records)
}

func TestConverterRunFailsShiftedRows(t *testing.T) {
	in, out := t.TempDir(), t.TempDir()
	writeFile(t, in, "Course_Catalog_Mock.csv", "course_id,title,skills\nC1,Intro, to Go,go\n")
	writeFile(t, in, "Kudos_log.csv", "kudos_id,message\nK1,thanks\n")

	report, err := newTestConverter(t).Run(context.Background(), in, out)
	require.NoError(t, err)

	require.Len(t, report.Failed, 1)
	assert.Equal(t, "Course_Catalog_Mock.csv", report.Failed[0].File)
	assert.Contains(t, report.Failed[0].Reason, "expected 3 fields, saw 4")
	require.Len(t, report.Written, 1)
	assert.Equal(t, "Kudos_log.csv", report.Written[0].File)

	_, err = os.Stat(filepath.Join(out, "Course_Catalog_Mock.json"))
	assert.True(t, os.IsNotExist(err))
}
