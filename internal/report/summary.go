// Package report renders the end-of-run summary.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// Failure names one dataset whose ingestion failed this run.
type Failure struct {
	Identifier string
	Reason     string
}

// Summary aggregates the outcome of one pipeline run.
type Summary struct {
	Failures  []Failure
	Duration  time.Duration
	Selected  int
	Succeeded int
	Failed    int
}

// AnyFailed reports whether any ingestion task failed. The process exit
// status reflects this even though successes are still committed.
func (s *Summary) AnyFailed() bool {
	return s.Failed > 0
}

// Render returns a human-readable summary table. Column widths use display
// width so identifiers with wide runes still line up.
func (s *Summary) Render() string {
	rows := [][2]string{
		{"selected", fmt.Sprintf("%d", s.Selected)},
		{"succeeded", fmt.Sprintf("%d", s.Succeeded)},
		{"failed", fmt.Sprintf("%d", s.Failed)},
		{"duration", s.Duration.Round(time.Millisecond).String()},
	}

	labelWidth, valueWidth := 0, 0

	for _, row := range rows {
		if w := runewidth.StringWidth(row[0]); w > labelWidth {
			labelWidth = w
		}

		if w := runewidth.StringWidth(row[1]); w > valueWidth {
			valueWidth = w
		}
	}

	var sb strings.Builder

	rule := "+" + strings.Repeat("-", labelWidth+2) + "+" + strings.Repeat("-", valueWidth+2) + "+"

	sb.WriteString("Run Summary\n")
	sb.WriteString(rule + "\n")

	for _, row := range rows {
		sb.WriteString("| ")
		sb.WriteString(pad(row[0], labelWidth))
		sb.WriteString(" | ")
		sb.WriteString(pad(row[1], valueWidth))
		sb.WriteString(" |\n")
	}

	sb.WriteString(rule + "\n")

	if len(s.Failures) > 0 {
		sb.WriteString("Failed datasets:\n")

		for _, failure := range s.Failures {
			sb.WriteString(fmt.Sprintf("  - %s: %s\n", failure.Identifier, failure.Reason))
		}
	}

	return sb.String()
}

func pad(content string, width int) string {
	padding := width - runewidth.StringWidth(content)
	if padding <= 0 {
		return content
	}

	return content + strings.Repeat(" ", padding)
}
