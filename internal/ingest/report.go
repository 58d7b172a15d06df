package ingest

import (
	"errors"
	"fmt"

	"github.com/nguyentranbao-ct/meritflow/internal/models"
)

var ErrNoSourceFiles = errors.New("no source files")

type IssueKind string

const (
	IssueMissingID     IssueKind = "missing_id"
	IssueInvalidLogID  IssueKind = "invalid_log_id"
	IssueMalformedDate IssueKind = "malformed_date"
	IssueMalformedList IssueKind = "malformed_list"
	IssueNotNumeric    IssueKind = "not_numeric"
)

// RowIssue is a data quality warning for one source row. Row is the 1-based
// data row, not counting the header. Excluded rows are left out of the output.
type RowIssue struct {
	File     string    `json:"file"`
	Row      int       `json:"row"`
	Column   string    `json:"column,omitempty"`
	Kind     IssueKind `json:"kind"`
	Message  string    `json:"message"`
	Excluded bool      `json:"excluded"`
}

func (i RowIssue) String() string {
	return fmt.Sprintf("%s row %d: %s: %s", i.File, i.Row, i.Kind, i.Message)
}

type FileResult struct {
	File    string        `json:"file"`
	Output  string        `json:"output"`
	Entity  models.Entity `json:"entity"`
	Records int           `json:"records"`
}

type FileFailure struct {
	File string `json:"file"`
	Err  error  `json:"-"`
	// Reason mirrors Err for serialized reports.
	Reason string `json:"reason"`
}

// Report accumulates the outcome of a conversion run.
type Report struct {
	Written []FileResult  `json:"written"`
	Skipped []string      `json:"skipped"`
	Failed  []FileFailure `json:"failed"`
	Issues  []RowIssue    `json:"issues"`
}

func (r *Report) OK() bool {
	return len(r.Failed) == 0
}

func (r *Report) fail(file string, err error) {
	r.Failed = append(r.Failed, FileFailure{File: file, Err: err, Reason: err.Error()})
}
