package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/nguyentranbao-ct/meritflow/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRules(t *testing.T) {
	rules := mustRules(t)
	assert.Equal(t, []string{
		"Course_Catalog_Mock.csv",
		"Growth_Recos_log.csv",
		"Kudos_log.csv",
		"Pulse_aggregates.csv",
		"Work_log_Mock.csv",
	}, rules.Names())

	work := rules["Work_log_Mock.csv"]
	assert.Equal(t, models.EntityWorkEvent, work.Entity)
	assert.Equal(t, TransformWorkLog, work.Transform)
	assert.Equal(t, []string{"Employee Name"}, work.DropColumns)
	assert.Equal(t, []string{"recommended_actions"}, rules["Pulse_aggregates.csv"].PipeListColumns)
}

func TestLoadRules(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("files:\n  people.csv:\n    entity: course\n    id_column: id\n"), 0o644))

	rules, err := LoadRules(path)
	require.NoError(t, err)
	assert.Equal(t, "id", rules["people.csv"].IDColumn)

	rules, err = LoadRules("")
	require.NoError(t, err)
	assert.Len(t, rules, 5)
}

func TestParseRulesRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"empty":             "files: {}\n",
		"unknown entity":    "files:\n  a.csv:\n    entity: payroll\n    id_column: id\n",
		"missing id column": "files:\n  a.csv:\n    entity: course\n",
		"unknown transform": "files:\n  a.csv:\n    entity: course\n    transform: pivot\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseRules([]byte(doc))
			assert.Error(t, err)
		})
	}
}
