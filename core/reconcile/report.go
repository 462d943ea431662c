package reconcile

import (
	"fmt"
	"strings"
	"time"

	"netsync/core/utils"
)

// Outcome is the final state of one item in a Report.
type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeDeleted Outcome = "deleted"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
	OutcomePending Outcome = "pending"
)

// Detail is one line of a Report.
type Detail struct {
	Identity    string  `json:"identity"`
	Outcome     Outcome `json:"outcome"`
	Description string  `json:"description"`
	RemoteID    int64   `json:"remote_id,omitempty"`
}

// Report is the outcome of applying one ChangeSet. In a dry run it is the
// preview of what a live run would do.
type Report struct {
	Kind      string `json:"kind"`
	DryRun    bool   `json:"dry_run"`
	Created   int    `json:"created"`
	Updated   int    `json:"updated"`
	Deleted   int    `json:"deleted"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
	Remaining int    `json:"remaining"`

	// Error is set when the run could not start at all.
	Error string `json:"error,omitempty"`

	Details  []Detail  `json:"details"`
	Started  time.Time `json:"started"`
	Finished time.Time `json:"finished"`
}

// NewReport starts an empty report.
func NewReport(kind string, dryRun bool) *Report {
	return &Report{Kind: kind, DryRun: dryRun, Started: time.Now()}
}

// FatalReport is the report of a run whose target scope could not be
// resolved: failed=1, no item processed.
func FatalReport(kind string, dryRun bool, err error) *Report {
	r := NewReport(kind, dryRun)
	r.Failed = 1
	r.Error = err.Error()
	r.Finished = r.Started
	return r
}

func (r *Report) record(outcome Outcome, identity, description string, id int64) {
	switch outcome {
	case OutcomeCreated:
		r.Created++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeDeleted:
		r.Deleted++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Failed++
	case OutcomePending:
		r.Remaining++
	}
	r.Details = append(r.Details, Detail{Identity: identity, Outcome: outcome, Description: description, RemoteID: id})
}

// Changed reports whether the run created, updated or deleted anything.
func (r *Report) Changed() bool {
	return r.Created+r.Updated+r.Deleted > 0
}

// OK reports whether nothing failed.
func (r *Report) OK() bool {
	return r.Failed == 0 && r.Error == ""
}

// Duration is the wall time of the run.
func (r *Report) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// String is the one-line summary used in logs.
func (r *Report) String() string {
	mode := ""
	if r.DryRun {
		mode = " (dry run)"
	}
	s := fmt.Sprintf("%s%s: created=%d updated=%d deleted=%d skipped=%d failed=%d",
		r.Kind, mode, r.Created, r.Updated, r.Deleted, r.Skipped, r.Failed)
	if r.Remaining > 0 {
		s += fmt.Sprintf(" remaining=%d", r.Remaining)
	}
	if r.Error != "" {
		s += ": " + r.Error
	}
	return s
}

// Merge adds the counts and details of other into r. Used to build the
// summary of a multi-kind run.
func (r *Report) Merge(other *Report) {
	r.Created += other.Created
	r.Updated += other.Updated
	r.Deleted += other.Deleted
	r.Skipped += other.Skipped
	r.Failed += other.Failed
	r.Remaining += other.Remaining
	r.Details = append(r.Details, other.Details...)
	if other.Error != "" && r.Error == "" {
		r.Error = other.Error
	}
	if other.Finished.After(r.Finished) {
		r.Finished = other.Finished
	}
}

// DescribeChanges renders field changes as "field: old -> new".
func DescribeChanges(changes []FieldChange) string {
	parts := make([]string, len(changes))
	for i, c := range changes {
		parts[i] = fmt.Sprintf("%s: %s -> %s", c.Field, quote(c.Old), quote(c.New))
	}
	return strings.Join(parts, ", ")
}

func quote(v any) string {
	if v == nil {
		return "<none>"
	}
	if s, ok := v.(string); ok {
		return fmt.Sprintf("%q", s)
	}
	return utils.ToString(v)
}
