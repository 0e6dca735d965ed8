package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/entrhq/stepwise/pkg/logtree"
	"github.com/entrhq/stepwise/pkg/state"
)

const (
	statusSuccess = "success"
	statusFailed  = "failed"
)

// Summary is the record of a finished run written to disk.
type Summary struct {
	RunID     string          `json:"run_id"`
	Script    string          `json:"script"`
	Status    string          `json:"status"`
	Error     string          `json:"error,omitempty"`
	StartTime time.Time       `json:"start_time"`
	EndTime   time.Time       `json:"end_time"`
	Duration  time.Duration   `json:"duration"`
	Failures  []FailureRecord `json:"failures,omitempty"`
	Counts    LogCounts       `json:"counts"`
	Log       []string        `json:"log"`
}

// FailureRecord is a serialisable run failure.
type FailureRecord struct {
	Kind    string          `json:"kind"`
	Message string          `json:"message"`
	Cause   string          `json:"cause,omitempty"`
	Crumbs  []string        `json:"crumbs,omitempty"`
	Nested  []FailureRecord `json:"nested,omitempty"`
}

// LogCounts tallies log nodes by kind.
type LogCounts struct {
	Contexts int `json:"contexts"`
	Infos    int `json:"infos"`
	Warnings int `json:"warnings"`
	Errors   int `json:"errors"`
}

// NewSummary builds the summary of a run that started at start and ended in
// s. An empty runID is replaced with a fresh one.
func NewSummary(runID, script string, start time.Time, s state.State) *Summary {
	if runID == "" {
		runID = uuid.New().String()
	}
	end := time.Now()
	log := s.Log()
	sum := &Summary{
		RunID:     runID,
		Script:    script,
		Status:    statusSuccess,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
		Counts: LogCounts{
			Contexts: log.Count(logtree.KindContext),
			Infos:    log.Count(logtree.KindInfo),
			Warnings: log.Count(logtree.KindWarn),
			Errors:   log.Count(logtree.KindError),
		},
		Log: log.Lines(),
	}
	if err := s.Err(); err != nil {
		sum.Status = statusFailed
		sum.Error = err.Error()
	}
	for _, f := range s.Errors() {
		sum.Failures = append(sum.Failures, record(f))
	}
	return sum
}

func record(f *state.Failure) FailureRecord {
	r := FailureRecord{Kind: f.Kind.String(), Message: f.Message, Crumbs: f.Crumbs}
	if f.Cause != nil {
		r.Cause = f.Cause.Error()
	}
	for _, n := range f.Nested {
		r.Nested = append(r.Nested, record(n))
	}
	return r
}

// ArtifactWriter handles writing run artifacts
type ArtifactWriter struct {
	outputDir string
}

// NewArtifactWriter creates a new artifact writer
func NewArtifactWriter(outputDir string) *ArtifactWriter {
	return &ArtifactWriter{outputDir: outputDir}
}

// Dir returns the directory a run's artifacts are written to.
func (w *ArtifactWriter) Dir(summary *Summary) string {
	return filepath.Join(w.outputDir, summary.RunID)
}

// WriteAll writes run.json and log.md for summary
func (w *ArtifactWriter) WriteAll(summary *Summary) error {
	dir := w.Dir(summary)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := w.writeJSON(dir, summary); err != nil {
		return fmt.Errorf("failed to write run JSON: %w", err)
	}
	if err := w.writeMarkdown(dir, summary); err != nil {
		return fmt.Errorf("failed to write log markdown: %w", err)
	}
	return nil
}

func (w *ArtifactWriter) writeJSON(dir string, summary *Summary) error {
	data, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run summary: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, "run.json"), data, 0600)
}

func (w *ArtifactWriter) writeMarkdown(dir string, summary *Summary) error {
	var md strings.Builder

	md.WriteString("# Stepwise Run\n\n")
	fmt.Fprintf(&md, "**Script:** %s\n\n", summary.Script)
	fmt.Fprintf(&md, "**Status:** %s\n\n", summary.Status)
	fmt.Fprintf(&md, "**Started:** %s\n\n", summary.StartTime.Format(time.RFC3339))
	fmt.Fprintf(&md, "**Duration:** %s\n\n", summary.Duration)

	md.WriteString("## Result\n\n")
	if summary.Error != "" {
		fmt.Fprintf(&md, "❌ **Error:** %s\n\n", summary.Error)
	} else {
		md.WriteString("✅ **Success**\n\n")
	}

	if len(summary.Failures) > 0 {
		md.WriteString("## Failures\n\n")
		for _, f := range summary.Failures {
			writeFailure(&md, f, 0)
		}
		md.WriteString("\n")
	}

	md.WriteString("## Log\n\n```\n")
	for _, line := range summary.Log {
		md.WriteString(line)
		md.WriteString("\n")
	}
	md.WriteString("```\n")

	return os.WriteFile(filepath.Join(dir, "log.md"), []byte(md.String()), 0600)
}

func writeFailure(md *strings.Builder, f FailureRecord, depth int) {
	fmt.Fprintf(md, "%s- **%s** %s", strings.Repeat("  ", depth), f.Kind, f.Message)
	if f.Cause != "" {
		fmt.Fprintf(md, ": %s", f.Cause)
	}
	if len(f.Crumbs) > 0 {
		fmt.Fprintf(md, " (%s)", strings.Join(f.Crumbs, state.BreadcrumbSeparator))
	}
	md.WriteString("\n")
	for _, n := range f.Nested {
		writeFailure(md, n, depth+1)
	}
}
