package models

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// FileResult is the outcome of importing one source file.
type FileResult struct {
	Symbol       string `json:"symbol"`
	Path         string `json:"path"`
	SuccessCount int    `json:"success_count"`
	ErrorCount   int    `json:"error_count"`
	Skipped      bool   `json:"skipped"` // the file was never read, e.g. catalog miss
	Err          error  `json:"-"`       // file-level failure; row errors only show in ErrorCount
}

// Processed reports whether the file-level operation completed. Row errors do not count against it.
func (r FileResult) Processed() bool {
	return !r.Skipped && r.Err == nil
}

// RunSummary aggregates the file results of one import run.
type RunSummary struct {
	RunID   string       `json:"run_id"`
	Results []FileResult `json:"results"`
}

// Total is the number of targeted files.
func (s RunSummary) Total() int { return len(s.Results) }

// Processed is the number of files that completed their read.
func (s RunSummary) Processed() int {
	n := 0
	for _, r := range s.Results {
		if r.Processed() {
			n++
		}
	}
	return n
}

// Rows returns the success and error row counts across all files.
func (s RunSummary) Rows() (success, errors int) {
	for _, r := range s.Results {
		success += r.SuccessCount
		errors += r.ErrorCount
	}
	return success, errors
}

// OK is true when at least one file was targeted and all of them were processed.
func (s RunSummary) OK() bool {
	return s.Total() > 0 && s.Processed() == s.Total()
}

// Err joins the file-level failures of the run, or returns nil.
func (s RunSummary) Err() error {
	var result *multierror.Error
	for _, r := range s.Results {
		if r.Err != nil {
			result = multierror.Append(result, fmt.Errorf("%s (%s): %w", r.Symbol, r.Path, r.Err))
		}
	}
	return result.ErrorOrNil()
}
