// Package render formats run summaries as markdown and renders markdown for the terminal.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
)

// SummaryRow is one flow outcome in a run summary.
type SummaryRow struct {
	Flow       string
	Passed     bool
	Duration   time.Duration
	Error      string
	Screenshot string // failure screenshot path, if any
}

// Summary describes a finished run.
type Summary struct {
	Client  string
	BaseURL string
	Started time.Time
	Rows    []SummaryRow
}

// Markdown builds the summary document: a header, a flow table and a failures section.
func (s Summary) Markdown() string {
	var b strings.Builder

	passed := 0
	for _, r := range s.Rows {
		if r.Passed {
			passed++
		}
	}

	fmt.Fprintf(&b, "# Run summary: %s\n\n", s.Client)
	if s.BaseURL != "" {
		fmt.Fprintf(&b, "- **url**: %s\n", s.BaseURL)
	}
	if !s.Started.IsZero() {
		fmt.Fprintf(&b, "- **started**: %s (%s)\n", s.Started.Format("2006-01-02 15:04:05"), humanize.Time(s.Started))
	}
	fmt.Fprintf(&b, "- **result**: %d of %d flows passed\n\n", passed, len(s.Rows))

	if len(s.Rows) == 0 {
		b.WriteString("_no flows ran_\n")
		return b.String()
	}

	b.WriteString("| flow | result | duration |\n")
	b.WriteString("|------|--------|----------|\n")
	for _, r := range s.Rows {
		status := "PASS"
		if !r.Passed {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", r.Flow, status, r.Duration.Round(time.Second))
	}

	var failures []SummaryRow
	for _, r := range s.Rows {
		if !r.Passed {
			failures = append(failures, r)
		}
	}
	if len(failures) == 0 {
		return b.String()
	}

	b.WriteString("\n## Failures\n\n")
	for _, r := range failures {
		fmt.Fprintf(&b, "- **%s**: %s\n", r.Flow, escapePipes(r.Error))
		if r.Screenshot != "" {
			fmt.Fprintf(&b, "  - screenshot: `%s`\n", r.Screenshot)
		}
	}
	return b.String()
}

func escapePipes(s string) string {
	return strings.ReplaceAll(strings.TrimSpace(s), "|", `\|`)
}

// RenderMarkdown renders markdown content for terminal display.
// If noColor is true, returns the content unchanged.
// Otherwise, uses glamour to render with auto-detected style and word wrap.
func RenderMarkdown(content string, noColor bool) (string, error) {
	if noColor {
		return content, nil
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("create renderer: %w", err)
	}

	result, err := renderer.Render(content)
	if err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}

	return result, nil
}
