// Package input asks the operator to pick a client or flows when the command line leaves them open.
package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strconv"
	"strings"
)

// ErrCanceled is returned when the operator aborts a selection.
var ErrCanceled = errors.New("selection canceled")

// Chooser picks from a list of options.
type Chooser interface {
	// Choose returns exactly one of options.
	Choose(ctx context.Context, prompt string, options []string) (string, error)
	// ChooseMany returns a non-empty subset of options in their original order.
	ChooseMany(ctx context.Context, prompt string, options []string) ([]string, error)
}

// TerminalChooser implements Chooser using fzf (if available) or numbered selection fallback.
type TerminalChooser struct {
	stdin  io.Reader // for testing, nil uses os.Stdin
	stdout io.Writer // for testing, nil uses os.Stdout
	noFzf  bool
}

// NewTerminalChooser creates a new TerminalChooser with default stdin/stdout.
func NewTerminalChooser() *TerminalChooser {
	return &TerminalChooser{}
}

// Choose presents options using fzf if available, otherwise falls back to numbered selection.
// A single option is returned without asking.
func (c *TerminalChooser) Choose(ctx context.Context, prompt string, options []string) (string, error) {
	if len(options) == 0 {
		return "", errors.New("no options provided")
	}
	if len(options) == 1 {
		return options[0], nil
	}

	if c.useFzf() {
		picked, err := c.selectWithFzf(ctx, prompt, options, false)
		if err != nil {
			return "", err
		}
		return picked[0], nil
	}
	return c.selectWithNumbers(prompt, options)
}

// ChooseMany lets the operator pick several options; fzf runs in multi-select mode, the numbered
// fallback accepts a comma-separated list or "all".
func (c *TerminalChooser) ChooseMany(ctx context.Context, prompt string, options []string) ([]string, error) {
	if len(options) == 0 {
		return nil, errors.New("no options provided")
	}

	var picked []string
	var err error
	if c.useFzf() {
		picked, err = c.selectWithFzf(ctx, prompt, options, true)
	} else {
		picked, err = c.selectManyWithNumbers(prompt, options)
	}
	if err != nil {
		return nil, err
	}

	// keep option order regardless of the order they were picked in
	res := make([]string, 0, len(picked))
	for _, opt := range options {
		if slices.Contains(picked, opt) {
			res = append(res, opt)
		}
	}
	return res, nil
}

func (c *TerminalChooser) useFzf() bool {
	if c.noFzf {
		return false
	}
	_, err := exec.LookPath("fzf")
	return err == nil
}

// selectWithFzf uses fzf for interactive selection.
func (c *TerminalChooser) selectWithFzf(ctx context.Context, prompt string, options []string, multi bool) ([]string, error) {
	args := []string{"--prompt", prompt + ": ", "--height", "10", "--layout=reverse"}
	if multi {
		args = append(args, "--multi")
	}
	cmd := exec.CommandContext(ctx, "fzf", args...) //nolint:gosec // fzf is a trusted external tool
	cmd.Stdin = strings.NewReader(strings.Join(options, "\n"))
	cmd.Stderr = os.Stderr

	output, err := cmd.Output()
	if err != nil {
		// fzf returns exit code 130 when user presses Escape
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 130 {
			return nil, ErrCanceled
		}
		return nil, fmt.Errorf("fzf selection failed: %w", err)
	}

	var picked []string
	for line := range strings.SplitSeq(string(output), "\n") {
		if s := strings.TrimSpace(line); s != "" {
			picked = append(picked, s)
		}
	}
	if len(picked) == 0 {
		return nil, errors.New("no selection made")
	}
	return picked, nil
}

// prompt prints numbered options and reads one line.
func (c *TerminalChooser) prompt(title, hint string, options []string) (string, error) {
	stdout := c.stdout
	if stdout == nil {
		stdout = os.Stdout
	}
	stdin := c.stdin
	if stdin == nil {
		stdin = os.Stdin
	}

	_, _ = fmt.Fprintln(stdout)
	_, _ = fmt.Fprintln(stdout, title)
	for i, opt := range options {
		_, _ = fmt.Fprintf(stdout, "  %d) %s\n", i+1, opt)
	}
	_, _ = fmt.Fprint(stdout, hint)

	line, err := bufio.NewReader(stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

// selectWithNumbers presents numbered options for selection via stdin.
func (c *TerminalChooser) selectWithNumbers(title string, options []string) (string, error) {
	line, err := c.prompt(title, fmt.Sprintf("Enter number (1-%d): ", len(options)), options)
	if err != nil {
		return "", err
	}
	idx, err := parseChoice(line, len(options))
	if err != nil {
		return "", err
	}
	return options[idx], nil
}

// selectManyWithNumbers reads a comma-separated list of numbers, or "all".
func (c *TerminalChooser) selectManyWithNumbers(title string, options []string) ([]string, error) {
	line, err := c.prompt(title, fmt.Sprintf("Enter numbers separated by commas (1-%d) or 'all': ", len(options)), options)
	if err != nil {
		return nil, err
	}
	if strings.EqualFold(line, "all") {
		return slices.Clone(options), nil
	}

	var picked []string
	for part := range strings.SplitSeq(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx, err := parseChoice(part, len(options))
		if err != nil {
			return nil, err
		}
		picked = append(picked, options[idx])
	}
	if len(picked) == 0 {
		return nil, errors.New("no selection made")
	}
	return picked, nil
}

// parseChoice converts a 1-based option number into an index.
func parseChoice(s string, n int) (int, error) {
	num, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", s)
	}
	if num < 1 || num > n {
		return 0, fmt.Errorf("selection out of range: %d (must be 1-%d)", num, n)
	}
	return num - 1, nil
}
