package notify

import (
	"fmt"
	"slices"
	"strings"
)

func verdict(r Result) string {
	if r.Succeeded() {
		return "PASSED"
	}
	return "FAILED"
}

// subject is the one-line headline, used as the email subject.
func subject(r Result) string {
	client := r.Client
	if client == "" {
		client = "no client"
	}
	return fmt.Sprintf("ticketsuite %s: %s", verdict(r), client)
}

// formatMessage renders r as plain text, one line per flow.
func formatMessage(r Result, host string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (on %s)\n", subject(r), host)
	if r.BaseURL != "" {
		fmt.Fprintf(&b, "%s\n", r.BaseURL)
	}

	b.WriteString("\n")
	fmt.Fprintf(&b, "%d of %d flows passed", r.Passed, r.Passed+r.Failed)
	if r.Duration != "" {
		fmt.Fprintf(&b, " in %s", r.Duration)
	}
	b.WriteString("\n")
	for _, f := range r.Flows {
		mark := "ok  "
		if slices.Contains(r.FailedFlows, f) {
			mark = "FAIL"
		}
		fmt.Fprintf(&b, "  %s %s\n", mark, f)
	}

	if r.Error != "" {
		fmt.Fprintf(&b, "\nerror: %s\n", r.Error)
	}
	if !r.Succeeded() && r.LogsDir != "" {
		fmt.Fprintf(&b, "logs: %s\n", r.LogsDir)
	}
	return b.String()
}
