package ingest

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"github.com/nguyentranbao-ct/meritflow/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

const TransformWorkLog = "work_log_to_work_events"

// Rule describes how one source file becomes store documents.
type Rule struct {
	Entity          models.Entity `yaml:"entity"`
	IDColumn        string        `yaml:"id_column"`
	ListColumns     []string      `yaml:"list_columns"`
	PipeListColumns []string      `yaml:"pipe_list_columns"`
	DateColumns     []string      `yaml:"date_columns"`
	DropColumns     []string      `yaml:"drop_columns"`
	Transform       string        `yaml:"transform"`
}

// RuleSet maps a source file name to its rule.
type RuleSet map[string]Rule

type rulesFile struct {
	Files RuleSet `yaml:"files"`
}

func DefaultRules() (RuleSet, error) {
	return parseRules(defaultRulesYAML)
}

// LoadRules reads a rule table from path, or returns the built-in table when
// path is empty.
func LoadRules(path string) (RuleSet, error) {
	if path == "" {
		return DefaultRules()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return parseRules(data)
}

func parseRules(data []byte) (RuleSet, error) {
	var rf rulesFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(rf.Files) == 0 {
		return nil, fmt.Errorf("parse rules: no files configured")
	}
	for name, r := range rf.Files {
		if err := r.validate(); err != nil {
			return nil, fmt.Errorf("rule %s: %w", name, err)
		}
	}
	return rf.Files, nil
}

func (r Rule) validate() error {
	if !r.Entity.Valid() {
		return fmt.Errorf("unknown entity %q", r.Entity)
	}
	switch r.Transform {
	case "":
		if r.IDColumn == "" {
			return fmt.Errorf("id_column is required")
		}
	case TransformWorkLog:
	default:
		return fmt.Errorf("unknown transform %q", r.Transform)
	}
	return nil
}

// Names returns the configured file names in lexical order.
func (rs RuleSet) Names() []string {
	names := make([]string, 0, len(rs))
	for name := range rs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
