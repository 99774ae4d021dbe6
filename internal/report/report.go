// Package report renders human-readable interview results for the CLI.
package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/surveysim/interview-core/internal/interview"
	"github.com/surveysim/interview-core/internal/metrics"
	"github.com/surveysim/interview-core/pkg/models"
)

// WriteOutcomes renders one row per question in survey order.
func WriteOutcomes(w io.Writer, outcomes []models.Outcome) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"#", "Question", "Outcome", "Value", "Detail", "Attempts"})
	for i, o := range outcomes {
		detail := ""
		switch o.Kind {
		case models.OutcomeSkipped:
			detail = o.SkipReason
		case models.OutcomeFailed:
			detail = o.Failure
		}
		tw.AppendRow(table.Row{i + 1, o.Question, string(o.Kind), o.Value, detail, o.Attempts})
	}
	tw.Render()
}

// WriteFailures renders the exception ledger history.
func WriteFailures(w io.Writer, entries []interview.LedgerEntry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "no failures recorded")
		return
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Question", "Kind", "At", "Fixed"})
	for _, e := range entries {
		tw.AppendRow(table.Row{e.Question, string(e.Kind), e.At.Format("15:04:05.000"), e.Fixed})
	}
	tw.Render()
}

// WriteSummary renders the aggregate run statistics.
func WriteSummary(w io.Writer, s metrics.Summary) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRow(table.Row{"answered", s.Answered})
	tw.AppendRow(table.Row{"skipped", s.Skipped})
	tw.AppendRow(table.Row{"failed", s.Failed})
	tw.AppendRow(table.Row{"unreached", s.Unreached})
	tw.AppendRow(table.Row{"attempts", s.Attempts})
	tw.AppendRow(table.Row{"retries", s.Retries})
	tw.AppendRow(table.Row{"questions with failures", s.FailedQuestions})
	tw.AppendRow(table.Row{"questions with unfixed failures", s.UnfixedQuestions})
	tw.AppendRow(table.Row{"latency p50 (ms)", fmt.Sprintf("%.1f", s.LatencyMsP50)})
	tw.AppendRow(table.Row{"latency p95 (ms)", fmt.Sprintf("%.1f", s.LatencyMsP95)})
	tw.AppendRow(table.Row{"duration (ms)", s.DurationMs})
	tw.Render()
}
