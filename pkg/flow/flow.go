// Package flow runs the end-to-end ticketing flows against a client, one isolated browser session per
// flow, and collects their outcomes into a report.
package flow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/cityledger/ticketsuite/pkg/browser"
	"github.com/cityledger/ticketsuite/pkg/config"
	"github.com/cityledger/ticketsuite/pkg/notify"
	"github.com/cityledger/ticketsuite/pkg/pages"
	"github.com/cityledger/ticketsuite/pkg/render"
)

// flow names
const (
	Payment    = "payment"
	Adjustment = "adjustment"
	FinanceLog = "finance-log"
)

// Names returns every flow in its default run order.
func Names() []string {
	return []string{Payment, Adjustment, FinanceLog}
}

// errors returned by Run and Report.
var (
	ErrNoFlows     = errors.New("no flows selected")
	ErrUnknownFlow = errors.New("unknown flow")
	ErrFlowsFailed = errors.New("flows failed")
)

// Logger is the progress logger flows trace through.
type Logger interface {
	pages.Logger
	Warn(format string, args ...any)
	Result(name string, err error)
}

// SessionOpener opens isolated browser sessions.
type SessionOpener interface {
	NewSession() (browser.Session, error)
}

// Options tune element resolution for all flows of a run.
type Options struct {
	Timing       browser.Timing
	PollInterval time.Duration
	Waits        pages.Waits
}

// job is one flow run: the page environment of its session and the client under test.
type job struct {
	env    pages.Env
	log    Logger
	client config.Client
}

type flowFunc func(ctx context.Context, j job) error

// Runner runs flows against one client, each in a fresh browser session.
type Runner struct {
	opener SessionOpener
	log    Logger
	opts   Options
	flows  map[string]flowFunc
}

// NewRunner makes a runner opening sessions with opener.
func NewRunner(opener SessionOpener, log Logger, opts Options) *Runner {
	return &Runner{
		opener: opener,
		log:    log,
		opts:   opts,
		flows: map[string]flowFunc{
			Payment:    paymentFlow,
			Adjustment: adjustmentFlow,
			FinanceLog: financeLogFlow,
		},
	}
}

// Outcome is the result of one flow.
type Outcome struct {
	Flow       string
	Err        error
	Duration   time.Duration
	Screenshot string // failure screenshot, empty when passed or not captured
}

// Passed reports whether the flow succeeded.
func (o Outcome) Passed() bool { return o.Err == nil }

// Run runs the named flows in order. Unknown names are rejected before anything runs. A failing flow
// doesn't stop the next one; a canceled ctx does, and its error is returned with the partial report.
func (r *Runner) Run(ctx context.Context, client config.Client, names []string) (Report, error) {
	if len(names) == 0 {
		return Report{}, ErrNoFlows
	}
	for _, name := range names {
		if _, ok := r.flows[name]; !ok {
			return Report{}, fmt.Errorf("%w: %q (known: %s)", ErrUnknownFlow, name, strings.Join(Names(), ", "))
		}
	}

	rep := Report{Client: client, Started: time.Now()}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			rep.Finished = time.Now()
			return rep, err
		}
		rep.Outcomes = append(rep.Outcomes, r.runOne(ctx, client, name))
	}
	rep.Finished = time.Now()
	return rep, ctx.Err()
}

// runOne runs a flow in its own session. The session is closed whatever the outcome, and a failure
// leaves a screenshot at screenshots/<flow>_failure.png in the logs directory.
func (r *Runner) runOne(ctx context.Context, client config.Client, name string) Outcome {
	out := Outcome{Flow: name}
	started := time.Now()

	sess, err := r.opener.NewSession()
	if err != nil {
		out.Err = fmt.Errorf("open browser session: %w", err)
		r.log.Result(name, out.Err)
		out.Duration = time.Since(started)
		return out
	}
	defer func() {
		if err := sess.Close(); err != nil {
			r.log.Debug("close session of %s: %v", name, err)
		}
	}()

	page := sess.Page()
	res := browser.NewResolver(r.log, r.opts.PollInterval)
	j := job{
		env:    pages.Env{Actions: browser.NewActions(page, res, r.log, r.opts.Timing), Log: r.log, Waits: r.opts.Waits},
		log:    r.log,
		client: client,
	}

	out.Err = r.log.Step("flow "+name, func() error { return r.flows[name](ctx, j) })
	if out.Err != nil {
		shot := r.log.Path(filepath.Join("screenshots", name+"_failure.png"))
		if err := page.Screenshot(shot); err != nil {
			r.log.Warn("failure screenshot of %s: %v", name, err)
		} else {
			out.Screenshot = shot
			r.log.Print("failure screenshot saved: %s", shot)
		}
	}
	r.log.Result(name, out.Err)
	out.Duration = time.Since(started)
	return out
}

// Report is the outcome of a run.
type Report struct {
	Client   config.Client
	Started  time.Time
	Finished time.Time
	Outcomes []Outcome
}

// Passed counts the flows that succeeded.
func (r Report) Passed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Passed() {
			n++
		}
	}
	return n
}

// FailedFlows names the flows that failed, in run order.
func (r Report) FailedFlows() []string {
	var res []string
	for _, o := range r.Outcomes {
		if !o.Passed() {
			res = append(res, o.Flow)
		}
	}
	return res
}

// Err returns an error matching ErrFlowsFailed when any flow failed.
func (r Report) Err() error {
	failed := r.FailedFlows()
	if len(failed) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d of %d (%s)", ErrFlowsFailed, len(failed), len(r.Outcomes), strings.Join(failed, ", "))
}

// Summary converts the report for markdown rendering.
func (r Report) Summary() render.Summary {
	s := render.Summary{Client: r.Client.Name, BaseURL: r.Client.BaseURL, Started: r.Started}
	for _, o := range r.Outcomes {
		row := render.SummaryRow{Flow: o.Flow, Passed: o.Passed(), Duration: o.Duration, Screenshot: o.Screenshot}
		if o.Err != nil {
			row.Error = o.Err.Error()
		}
		s.Rows = append(s.Rows, row)
	}
	return s
}

// NotifyResult converts the report for notifications; runErr is a failure outside any flow.
func (r Report) NotifyResult(logsDir string, runErr error) notify.Result {
	res := notify.Result{
		Status:      notify.StatusSuccess,
		Client:      r.Client.Name,
		BaseURL:     r.Client.BaseURL,
		Passed:      r.Passed(),
		Failed:      len(r.Outcomes) - r.Passed(),
		FailedFlows: r.FailedFlows(),
		LogsDir:     logsDir,
	}
	for _, o := range r.Outcomes {
		res.Flows = append(res.Flows, o.Flow)
	}
	if !r.Started.IsZero() && !r.Finished.IsZero() {
		res.Duration = r.Finished.Sub(r.Started).Round(time.Second).String()
	}
	if res.Failed > 0 || runErr != nil {
		res.Status = notify.StatusFailure
	}
	if runErr != nil {
		res.Error = runErr.Error()
	}
	return res
}
