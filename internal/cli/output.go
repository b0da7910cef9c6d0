package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/pfrederiksen/that-schedule/internal/logger"
	"github.com/pfrederiksen/that-schedule/internal/pipeline"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// RunSummary is the report printed after a build
type RunSummary struct {
	*pipeline.Result
	ActivityCount int                    `json:"activity_count"`
	SkippedCount  int                    `json:"skipped_count"`
	Metrics       map[string]interface{} `json:"metrics"`
}

// NewRunSummary wraps a pipeline result with counts and the current run metrics
func NewRunSummary(result *pipeline.Result) *RunSummary {
	return &RunSummary{
		Result:        result,
		ActivityCount: len(result.Activities),
		SkippedCount:  len(result.Skipped),
		Metrics:       logger.GetMetricsSnapshot(),
	}
}

// CheckNewResult is the report printed by --check-new
type CheckNewResult struct {
	CheckedAt     time.Time `json:"checked_at"`
	NewActivities []string  `json:"new_activities"`
	Count         int       `json:"count"`
}

// WriteOutput writes the run summary in the specified format
func WriteOutput(w io.Writer, summary *RunSummary, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, summary)
	case FormatText:
		return writeText(w, summary, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteCheckNew writes the --check-new report in the specified format
func WriteCheckNew(w io.Writer, result *CheckNewResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		if result.Count == 0 {
			fmt.Fprintln(w, "No new activities found.")
			return nil
		}
		for _, link := range result.NewActivities {
			fmt.Fprintf(w, "NEW: %s\n", link)
		}
		fmt.Fprintf(w, "\nTotal: %d new\n", result.Count)
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// writeText outputs the run summary as human-readable text
func writeText(w io.Writer, s *RunSummary, verbose bool) error {
	cache := "cache valid"
	if !s.CacheValid {
		cache = "cache refreshed"
	}
	fmt.Fprintf(w, "Discovered %d activities (%d added, %d removed, %s)\n",
		len(s.Discovered), len(s.Added), len(s.Removed), cache)

	if verbose {
		for _, link := range s.Added {
			fmt.Fprintf(w, "  NEW: %s\n", link)
		}
		for _, link := range s.Removed {
			fmt.Fprintf(w, "  REMOVED: %s\n", link)
		}
	}

	fmt.Fprintf(w, "Wrote %d activities to %s\n", s.ActivityCount, s.ScheduleFile)
	if verbose {
		for _, a := range s.Activities {
			fmt.Fprintf(w, "  %s  %-8s  %s\n", a.Start().Format("Mon Jan 2 15:04"), a.Location, a.Title)
		}
	}

	fmt.Fprintf(w, "Page: %s\n", s.PagePath)
	if s.CalendarPath != "" {
		fmt.Fprintf(w, "Calendar: %s\n", s.CalendarPath)
	}

	if s.SkippedCount > 0 {
		fmt.Fprintf(w, "\nSkipped %d activities:\n", s.SkippedCount)
		for _, sk := range s.Skipped {
			fmt.Fprintf(w, "  SKIP: %s: %s\n", sk.Link, sk.Reason)
		}
	}

	if verbose && len(s.Changes) > 0 {
		fmt.Fprintf(w, "\nChanges:\n")
		for _, c := range s.Changes {
			if c.ChangeType == "new" {
				fmt.Fprintf(w, "  %s: new %q\n", c.Link, c.NewValue)
				continue
			}
			fmt.Fprintf(w, "  %s: %s %q -> %q\n", c.Link, c.ChangeType, c.OldValue, c.NewValue)
		}
	}

	return nil
}
