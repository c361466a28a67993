package reconciler

import (
	"fmt"
	"strings"
	"time"

	"github.com/agentstation/utc"
	"github.com/google/uuid"

	"github.com/ellisd4/tagsync/pkg/differ"
)

// Status is the outcome of one attempted operation.
type Status string

const (
	// StatusApplied means the target catalog persisted the change.
	StatusApplied Status = "applied"
	// StatusSimulated means the change was only recorded (dry run).
	StatusSimulated Status = "simulated"
	// StatusFailed means the target catalog rejected the change.
	StatusFailed Status = "failed"
)

// AppliedOperation is an operation together with what happened to it.
type AppliedOperation struct {
	differ.Operation
	ItemName    string `json:"item_name" yaml:"item_name"`
	SeriesID    string `json:"series_id" yaml:"series_id"`
	SeriesTitle string `json:"series_title" yaml:"series_title"`
	Status      Status `json:"status" yaml:"status"`
	Error       string `json:"error,omitempty" yaml:"error,omitempty"`
}

// Problem is a mutation that failed. Problems never abort a run.
type Problem struct {
	ItemID   string            `json:"item_id" yaml:"item_id"`
	ItemName string            `json:"item_name" yaml:"item_name"`
	Kind     differ.ChangeType `json:"kind" yaml:"kind"`
	Label    string            `json:"label" yaml:"label"`
	Message  string            `json:"message" yaml:"message"`
	Err      error             `json:"-" yaml:"-"`
}

// Summary holds the aggregate counters of a run. The counters are for
// reporting only; nothing in a run depends on them.
type Summary struct {
	SourceRecords       int `json:"source_records" yaml:"source_records"`
	TagDefinitions      int `json:"tag_definitions" yaml:"tag_definitions"`
	TargetItems         int `json:"target_items" yaml:"target_items"`
	Matched             int `json:"matched" yaml:"matched"`
	Unmatched           int `json:"unmatched" yaml:"unmatched"`
	SkippedNoIdentifier int `json:"skipped_no_identifier" yaml:"skipped_no_identifier"`
	Duplicates          int `json:"duplicates" yaml:"duplicates"`
	TagsAdded           int `json:"tags_added" yaml:"tags_added"`
	TagsRemoved         int `json:"tags_removed" yaml:"tags_removed"`
	Failed              int `json:"failed" yaml:"failed"`
}

// String returns a one-line summary.
func (s Summary) String() string {
	return fmt.Sprintf("%d/%d series matched, %d tags added, %d removed, %d failed",
		s.Matched, s.SourceRecords, s.TagsAdded, s.TagsRemoved, s.Failed)
}

// Result represents the outcome of a reconciliation run.
type Result struct {
	RunID      uuid.UUID `json:"run_id" yaml:"run_id"`
	DryRun     bool      `json:"dry_run" yaml:"dry_run"`
	Config     Config    `json:"config" yaml:"config"`
	StartedAt  utc.Time  `json:"started_at" yaml:"started_at"`
	FinishedAt utc.Time  `json:"finished_at" yaml:"finished_at"`
	Summary    Summary   `json:"summary" yaml:"summary"`

	// Operations lists every attempted operation in plan order.
	Operations []AppliedOperation `json:"operations" yaml:"operations"`

	Problems []Problem `json:"problems" yaml:"problems"`
	Warnings []string  `json:"warnings" yaml:"warnings"`

	// Canceled is set when the caller stopped the run before all work was attempted.
	Canceled bool `json:"canceled" yaml:"canceled"`
}

func newResult(runID uuid.UUID, cfg Config, dryRun bool) *Result {
	return &Result{
		RunID:      runID,
		DryRun:     dryRun,
		Config:     cfg,
		StartedAt:  utc.Now(),
		Operations: []AppliedOperation{},
		Problems:   []Problem{},
		Warnings:   []string{},
	}
}

// Success returns true if the run finished. Individual mutation failures
// do not make a run unsuccessful; see HasProblems.
func (r *Result) Success() bool {
	return !r.Canceled
}

// HasProblems returns true if any mutation failed.
func (r *Result) HasProblems() bool {
	return len(r.Problems) > 0
}

// HasChanges returns true if any operation was applied or simulated.
func (r *Result) HasChanges() bool {
	return r.Summary.TagsAdded+r.Summary.TagsRemoved > 0
}

// Duration returns how long the run took.
func (r *Result) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// OperationsWithStatus returns the operations that ended with status.
func (r *Result) OperationsWithStatus(status Status) []AppliedOperation {
	var out []AppliedOperation
	for _, op := range r.Operations {
		if op.Status == status {
			out = append(out, op)
		}
	}
	return out
}

// String returns a human-readable summary of the result.
func (r *Result) String() string {
	var b strings.Builder
	switch {
	case r.Canceled:
		b.WriteString("Sync canceled. ")
	case r.DryRun:
		b.WriteString("Dry run completed. ")
	default:
		b.WriteString("Sync completed. ")
	}
	b.WriteString(r.Summary.String())
	if r.DryRun && r.HasChanges() {
		b.WriteString(" (simulated)")
	}
	if r.HasProblems() {
		fmt.Fprintf(&b, "; %d problems", len(r.Problems))
	}
	return b.String()
}
