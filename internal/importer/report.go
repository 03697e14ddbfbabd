package importer

import "fmt"

// RowIssue flags a cell that could not be interpreted. The row was
// still imported with a zero amount; the issue surfaces in the report
// so the operator can fix the export and re-import.
type RowIssue struct {
	Row    int    `json:"row"` // 1-based spreadsheet row, header included
	Column string `json:"column"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

// Report summarizes one import run for operator feedback.
type Report struct {
	Inserted   int        `json:"inserted"`
	Updated    int        `json:"updated"`
	Skipped    int        `json:"skipped"`
	Duplicates int        `json:"duplicates"`
	Issues     []RowIssue `json:"issues,omitempty"`
}

func (r *Report) String() string {
	return fmt.Sprintf("inserted=%d updated=%d skipped=%d duplicates=%d issues=%d",
		r.Inserted, r.Updated, r.Skipped, r.Duplicates, len(r.Issues))
}
