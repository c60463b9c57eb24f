// Package progress provides timestamped run logging split into step, result and debug files,
// with a filtered, colored console view.
package progress

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"gopkg.in/natefinch/lumberjack.v2"
)

// log file names inside the logs directory.
const (
	StepsFile  = "steps.log"
	ResultFile = "result.log"
	DebugFile  = "debug.log"
)

// rotation limits for every log file.
const (
	maxSizeMB  = 2
	maxBackups = 3
)

// console colors using fatih/color.
var (
	stepColor      = color.New(color.FgCyan)
	successColor   = color.New(color.FgGreen)
	warnColor      = color.New(color.FgYellow)
	errorColor     = color.New(color.FgRed)
	timestampColor = color.New(color.FgWhite)
	plainColor     = color.New(color.Reset)
)

// Logger writes timestamped lines to rotated log files and a filtered console.
// Print goes to the steps and debug files, Debug to the debug file only, Result to the result file.
// The console shows step boundaries, outcomes, warnings and errors; with Verbose set it also
// echoes Print lines.
type Logger struct {
	dir       string
	steps     io.WriteCloser
	result    io.WriteCloser
	debug     io.WriteCloser
	stdout    io.Writer
	verbose   bool
	startTime time.Time

	mu sync.Mutex
}

// Config holds logger configuration.
type Config struct {
	Dir     string   // logs directory, created if missing
	Client  string   // client name for the header
	Flows   []string // flows of this run for the header
	Verbose bool     // echo step trace to the console
	NoColor bool     // disable color output (sets color.NoColor globally)
}

// NewLogger creates the logs directory and opens the rotated log files.
func NewLogger(cfg Config) (*Logger, error) {
	if cfg.NoColor {
		color.NoColor = true
	}
	if cfg.Dir == "" {
		cfg.Dir = "logs"
	}
	if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
		return nil, fmt.Errorf("create logs dir: %w", err)
	}

	l := &Logger{
		dir:       cfg.Dir,
		steps:     rotated(filepath.Join(cfg.Dir, StepsFile)),
		result:    rotated(filepath.Join(cfg.Dir, ResultFile)),
		debug:     rotated(filepath.Join(cfg.Dir, DebugFile)),
		stdout:    os.Stdout,
		verbose:   cfg.Verbose,
		startTime: time.Now(),
	}

	client := cfg.Client
	if client == "" {
		client = "(default)"
	}
	header := fmt.Sprintf("# Ticketsuite Run Log\nClient: %s\nFlows: %s\nStarted: %s\n%s\n",
		client, strings.Join(cfg.Flows, ", "), l.startTime.Format("2006-01-02 15:04:05"), strings.Repeat("-", 60))
	l.write(l.steps, "%s", header)
	l.write(l.debug, "%s", header)

	return l, nil
}

func rotated(path string) *lumberjack.Logger {
	return &lumberjack.Logger{Filename: path, MaxSize: maxSizeMB, MaxBackups: maxBackups}
}

// Dir returns the logs directory.
func (l *Logger) Dir() string { return l.dir }

// Path returns a path inside the logs directory.
func (l *Logger) Path(elem ...string) string {
	return filepath.Join(append([]string{l.dir}, elem...)...)
}

// timestampFormat is the format for timestamps: YY-MM-DD HH:MM:SS
const timestampFormat = "06-01-02 15:04:05"

// Print writes a step trace line.
func (l *Logger) Print(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	ts := time.Now().Format(timestampFormat)
	l.write(l.steps, "[%s] %s\n", ts, msg)
	l.write(l.debug, "[%s] %s\n", ts, msg)
	if l.verbose {
		l.console(ts, plainColor, msg)
	}
}

// Debug writes a line to the debug file only.
func (l *Logger) Debug(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	l.write(l.debug, "[%s] DEBUG: %s\n", time.Now().Format(timestampFormat), msg)
}

// Warn writes a warning in yellow.
func (l *Logger) Warn(format string, args ...any) {
	msg := "WARN: " + fmt.Sprintf(format, args...)
	ts := time.Now().Format(timestampFormat)
	l.write(l.steps, "[%s] %s\n", ts, msg)
	l.write(l.debug, "[%s] %s\n", ts, msg)
	l.console(ts, warnColor, msg)
}

// Error writes an error message in red.
func (l *Logger) Error(format string, args ...any) {
	msg := "ERROR: " + fmt.Sprintf(format, args...)
	ts := time.Now().Format(timestampFormat)
	l.write(l.steps, "[%s] %s\n", ts, msg)
	l.write(l.debug, "[%s] %s\n", ts, msg)
	l.console(ts, errorColor, msg)
}

// Step runs fn between START and END markers and logs its outcome as SUCCESS or FAIL.
func (l *Logger) Step(name string, fn func() error) error {
	l.marker(stepColor, "START: %s", name)
	started := time.Now()
	err := fn()
	if err != nil {
		l.marker(errorColor, "FAIL: %s: %v", name, err)
	} else {
		l.marker(successColor, "SUCCESS: %s", name)
	}
	l.marker(stepColor, "END: %s (%s)", name, time.Since(started).Round(time.Millisecond))
	return err
}

// Result records the outcome of a flow in the result file and on the console.
func (l *Logger) Result(name string, err error) {
	ts := time.Now().Format(timestampFormat)
	if err != nil {
		msg := fmt.Sprintf("FAIL: %s: %v", name, err)
		l.write(l.result, "[%s] %s\n", ts, msg)
		l.write(l.debug, "[%s] %s\n", ts, msg)
		l.console(ts, errorColor, msg)
		return
	}
	msg := "SUCCESS: " + name
	l.write(l.result, "[%s] %s\n", ts, msg)
	l.write(l.debug, "[%s] %s\n", ts, msg)
	l.console(ts, successColor, msg)
}

// Record appends a timestamped line to an artifact log at rel inside the logs directory.
func (l *Logger) Record(rel, line string) error {
	path := l.Path(rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create record dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600) //nolint:gosec // path inside logs dir
	if err != nil {
		return fmt.Errorf("open record file: %w", err)
	}
	if _, err := fmt.Fprintf(f, "[%s] %s\n", time.Now().Format(timestampFormat), line); err != nil {
		_ = f.Close()
		return fmt.Errorf("write record: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close record file: %w", err)
	}
	l.Debug("recorded to %s: %s", rel, line)
	return nil
}

// Elapsed returns formatted elapsed time since start.
func (l *Logger) Elapsed() string {
	return humanize.RelTime(l.startTime, time.Now(), "", "")
}

// Close writes the footer and closes all log files.
func (l *Logger) Close() error {
	footer := fmt.Sprintf("%s\nCompleted: %s (%s)\n", strings.Repeat("-", 60),
		time.Now().Format("2006-01-02 15:04:05"), l.Elapsed())
	l.write(l.steps, "%s", footer)
	l.write(l.debug, "%s", footer)

	var errs []string
	for name, w := range map[string]io.WriteCloser{StepsFile: l.steps, ResultFile: l.result, DebugFile: l.debug} {
		if err := w.Close(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close log files: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (l *Logger) marker(c *color.Color, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	ts := time.Now().Format(timestampFormat)
	l.write(l.steps, "[%s] %s\n", ts, msg)
	l.write(l.debug, "[%s] %s\n", ts, msg)
	l.console(ts, c, msg)
}

func (l *Logger) console(ts string, c *color.Color, msg string) {
	l.writeStdout("%s %s\n", timestampColor.Sprintf("[%s]", ts), c.Sprint(msg))
}

func (l *Logger) write(w io.Writer, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(w, format, args...)
}

func (l *Logger) writeStdout(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.stdout, format, args...)
}
