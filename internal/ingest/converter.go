package ingest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nguyentranbao-ct/meritflow/pkg/logger/log"
	"github.com/nguyentranbao-ct/meritflow/pkg/util"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap/zapcore"
)

// Converter turns the CSV exports of a directory into JSON seed artifacts,
// one per recognized file. Files are processed one at a time.
type Converter struct {
	rules   RuleSet
	records *prometheus.CounterVec
}

func NewConverter(rules RuleSet) (*Converter, error) {
	records, err := util.GetCounterVec("ingest_records_total", "file", "outcome")
	if err != nil {
		return nil, fmt.Errorf("get counter vec: %w", err)
	}
	return &Converter{rules: rules, records: records}, nil
}

// ArtifactName maps a source file name to its output name.
func ArtifactName(source string) string {
	return strings.TrimSuffix(source, filepath.Ext(source)) + ".json"
}

// Run converts every recognized CSV in inputDir into outputDir. It fails only
// when there is nothing to convert; per file failures and row warnings are
// recorded in the report.
func (c *Converter) Run(ctx context.Context, inputDir, outputDir string) (*Report, error) {
	info, err := os.Stat(inputDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: input directory %s does not exist", ErrNoSourceFiles, inputDir)
	}

	paths, err := filepath.Glob(filepath.Join(inputDir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", inputDir, err)
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no CSV files found in %s", ErrNoSourceFiles, inputDir)
	}

	report := &Report{}
	var matched []string
	for _, path := range paths {
		name := filepath.Base(path)
		if _, ok := c.rules[name]; !ok {
			log.Warnw(ctx, "skip file without conversion rule", "file", name)
			report.Skipped = append(report.Skipped, name)
			continue
		}
		matched = append(matched, path)
	}
	if len(matched) == 0 {
		return report, fmt.Errorf("%w: none of %d CSV files in %s has a conversion rule", ErrNoSourceFiles, len(paths), inputDir)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return report, fmt.Errorf("create output directory: %w", err)
	}

	for _, path := range matched {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		name := filepath.Base(path)
		result, issues, err := c.convertFile(path, outputDir)
		report.Issues = append(report.Issues, issues...)
		for _, issue := range issues {
			level := zapcore.InfoLevel
			if issue.Excluded {
				level = zapcore.WarnLevel
				c.records.WithLabelValues(name, "excluded").Inc()
			}
			log.Logw(ctx, level, "row issue", "file", name, "row", issue.Row, "column", issue.Column, "kind", issue.Kind, "message", issue.Message)
		}
		if err != nil {
			log.Errorw(ctx, "convert file failed", "file", name, "error", err)
			report.fail(name, err)
			continue
		}
		c.records.WithLabelValues(name, "written").Add(float64(result.Records))
		log.Infow(ctx, "wrote artifact", "file", name, "output", result.Output, "docs", result.Records)
		report.Written = append(report.Written, *result)
	}
	return report, nil
}

func (c *Converter) convertFile(path, outputDir string) (*FileResult, []RowIssue, error) {
	name := filepath.Base(path)
	rule := c.rules[name]

	table, err := ReadTableFile(path)
	if err != nil {
		return nil, nil, err
	}
	records, issues, err := Normalize(name, table, rule)
	if err != nil {
		return nil, issues, err
	}

	out := filepath.Join(outputDir, ArtifactName(name))
	if err := writeJSON(out, records); err != nil {
		return nil, issues, err
	}
	return &FileResult{File: name, Output: out, Entity: rule.Entity, Records: len(records)}, issues, nil
}

// writeJSON writes records as an indented UTF-8 array, replacing path only
// once the whole artifact is on disk.
func writeJSON(path string, records []Record) error {
	data, err := marshalRecords(records)
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp artifact: %w", err)
	}
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp artifact: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename artifact: %w", err)
	}
	return nil
}

// marshalRecords keeps key order and leaves <, > and & unescaped, which the
// ordered map's own MarshalJSON does not.
func marshalRecords(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('[')
	for i, rec := range records {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('{')
		for pair, first := rec.Oldest(), true; pair != nil; pair = pair.Next() {
			if !first {
				buf.WriteByte(',')
			}
			first = false
			if err := enc.Encode(pair.Key); err != nil {
				return nil, err
			}
			buf.WriteByte(':')
			if err := enc.Encode(pair.Value); err != nil {
				return nil, fmt.Errorf("field %s: %w", pair.Key, err)
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}
