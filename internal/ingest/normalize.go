package ingest

import (
	"fmt"
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Record is one output document. Keys keep source column order.
type Record = *orderedmap.OrderedMap[string, any]

func newRecord() Record {
	return orderedmap.New[string, any]()
}

// rowIssues collects warnings for one file.
type rowIssues struct {
	file   string
	issues []RowIssue
}

func (ri *rowIssues) add(row int, column string, kind IssueKind, excluded bool, format string, args ...any) {
	ri.issues = append(ri.issues, RowIssue{
		File:     ri.file,
		Row:      row,
		Column:   column,
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Excluded: excluded,
	})
}

// Normalize turns the rows of one source file into documents following rule.
// Row level problems are returned as issues; an error means the whole file
// cannot be converted.
func Normalize(file string, t *Table, rule Rule) ([]Record, []RowIssue, error) {
	if rule.Transform == TransformWorkLog {
		return TransformWorkLogRows(file, t, rule)
	}

	if !t.Has(rule.IDColumn) {
		return nil, nil, fmt.Errorf("id column %q not found, columns: [%s]", rule.IDColumn, strings.Join(t.Header, ", "))
	}

	drop := toSet(rule.DropColumns)
	lists := toSet(rule.ListColumns)
	pipes := toSet(rule.PipeListColumns)
	dates := toSet(rule.DateColumns)

	var columns []string
	kinds := map[string]columnKind{}
	seen := map[string]bool{}
	for _, col := range t.Header {
		if drop[col] || seen[col] {
			continue
		}
		seen[col] = true
		columns = append(columns, col)
		if col != rule.IDColumn && !lists[col] && !pipes[col] && !dates[col] {
			kinds[col] = inferColumn(t.Column(col))
		}
	}

	issues := &rowIssues{file: file}
	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		rowNum := i + 1
		rawID := t.Cell(row, rule.IDColumn)
		if IsMissing(rawID) {
			issues.add(rowNum, rule.IDColumn, IssueMissingID, true, "empty %s", rule.IDColumn)
			continue
		}
		id := strings.TrimSpace(rawID)

		rec := newRecord()
		for _, col := range columns {
			raw := t.Cell(row, col)
			switch {
			case col == rule.IDColumn:
				rec.Set(col, id)
			case lists[col]:
				list, fellBack := toList(raw)
				if fellBack {
					issues.add(rowNum, col, IssueMalformedList, false, "invalid JSON list %q, split on commas", raw)
				}
				rec.Set(col, list)
			case pipes[col]:
				rec.Set(col, ToPipeList(raw))
			case dates[col]:
				v, ok := ToISO(raw)
				if !ok {
					issues.add(rowNum, col, IssueMalformedDate, false, "unrecognized date %q passed through", raw)
				}
				rec.Set(col, v)
			default:
				rec.Set(col, convertCell(raw, kinds[col]))
			}
		}
		rec.Set("_id", id)
		records = append(records, rec)
	}
	return records, issues.issues, nil
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
