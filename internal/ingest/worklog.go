package ingest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/nguyentranbao-ct/meritflow/internal/models"
)

// Source columns of the work log export.
const (
	colLogID        = "LogID"
	colDate         = "Date"
	colEmployeeID   = "Employee ID"
	colManagerID    = "Manager ID"
	colTeamID       = "Team ID"
	colTaskName     = "Task Name"
	colWorkItemType = "Work Item Type"
	colComments     = "Comments"
	colArtifactLink = "Artifact Link"
)

var (
	workLogRequired = []string{colLogID, colEmployeeID, colManagerID, colTeamID, colTaskName}
	workLogText     = []string{"Status", "Percent Complete", "Complexity"}
	workLogNumeric  = []string{"Estimated Hours", "Actual Hours", "Bugs Reported"}
)

const descriptionSeparator = " | "

// TransformWorkLogRows reshapes work log rows into work event documents. The
// tag columns are the rule's list columns and the timestamp comes from its
// first date column.
func TransformWorkLogRows(file string, t *Table, rule Rule) ([]Record, []RowIssue, error) {
	dateCol := colDate
	if len(rule.DateColumns) > 0 {
		dateCol = rule.DateColumns[0]
	}
	required := append([]string{dateCol}, workLogRequired...)
	var missing []string
	for _, col := range required {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, fmt.Errorf("work log columns not found: [%s], columns: [%s]",
			strings.Join(missing, ", "), strings.Join(t.Header, ", "))
	}

	issues := &rowIssues{file: file}
	records := make([]Record, 0, len(t.Rows))
	for i, row := range t.Rows {
		rowNum := i + 1
		logID, err := ToLogID(t.Cell(row, colLogID))
		if err != nil {
			issues.add(rowNum, colLogID, IssueInvalidLogID, true, "LogID %s", err)
			continue
		}
		eventID := models.WorkEventIDPrefix + strconv.FormatInt(logID, 10)

		timestamp, ok := ToISO(t.Cell(row, dateCol))
		if !ok {
			issues.add(rowNum, dateCol, IssueMalformedDate, false, "unrecognized date %q passed through", t.Cell(row, dateCol))
		}

		rec := newRecord()
		rec.Set("event_id", eventID)
		rec.Set("_id", eventID)
		rec.Set("timestamp", timestamp)
		rec.Set("employee_id", ToText(t.Cell(row, colEmployeeID)))
		rec.Set("manager_id", ToText(t.Cell(row, colManagerID)))
		rec.Set("team_id", ToText(t.Cell(row, colTeamID)))
		rec.Set("title", ToText(t.Cell(row, colTaskName)))
		rec.Set("description", describe(t, row))
		rec.Set("tags", unionTags(t, row, rule.ListColumns))

		for _, col := range workLogText {
			if t.Has(col) {
				rec.Set(snakeCase(col), ToText(t.Cell(row, col)))
			}
		}
		for _, col := range workLogNumeric {
			if !t.Has(col) {
				continue
			}
			v, err := ToNumber(t.Cell(row, col))
			if err != nil {
				issues.add(rowNum, col, IssueNotNumeric, false, "%s", err)
			}
			rec.Set(snakeCase(col), v)
		}
		records = append(records, rec)
	}
	return records, issues.issues, nil
}

// describe joins the labelled work item type, comments and artifact link, or
// returns nil when none is present.
func describe(t *Table, row []string) any {
	var parts []string
	if v := t.Cell(row, colWorkItemType); !IsMissing(v) {
		parts = append(parts, "Type: "+strings.TrimSpace(v))
	}
	if v := t.Cell(row, colComments); !IsMissing(v) {
		parts = append(parts, "Notes: "+strings.TrimSpace(v))
	}
	if v := t.Cell(row, colArtifactLink); !IsMissing(v) {
		parts = append(parts, "Link: "+strings.TrimSpace(v))
	}
	if len(parts) == 0 {
		return nil
	}
	return strings.Join(parts, descriptionSeparator)
}

// UnionTags merges tag lists into one sorted list without duplicates.
func UnionTags(lists ...[]string) []string {
	set := map[string]struct{}{}
	for _, list := range lists {
		for _, tag := range list {
			set[tag] = struct{}{}
		}
	}
	tags := make([]string, 0, len(set))
	for tag := range set {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}

func unionTags(t *Table, row []string, columns []string) []string {
	lists := make([][]string, 0, len(columns))
	for _, col := range columns {
		lists = append(lists, ToList(t.Cell(row, col)))
	}
	return UnionTags(lists...)
}

func snakeCase(column string) string {
	return strings.ReplaceAll(strings.ToLower(column), " ", "_")
}
