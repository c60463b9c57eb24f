// Package notify delivers suite run results to telegram, email, slack, webhooks or a custom script.
package notify

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"
)

// result statuses
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

const defaultTimeout = 10 * time.Second

// Params holds the notify_* settings.
type Params struct {
	Channels      []string
	OnError       bool
	OnComplete    bool
	TimeoutMs     int
	TelegramToken string
	TelegramChat  string
	SlackToken    string
	SlackChannel  string
	SMTPHost      string
	SMTPPort      int
	SMTPUsername  string
	SMTPPassword  string
	SMTPStartTLS  bool
	EmailFrom     string
	EmailTo       []string
	WebhookURLs   []string
	CustomScript  string
}

// Result is what a run reports. The custom script receives it as JSON.
type Result struct {
	Status      string   `json:"status"`
	Client      string   `json:"client"`
	BaseURL     string   `json:"base_url"`
	Flows       []string `json:"flows"`
	Passed      int      `json:"passed"`
	Failed      int      `json:"failed"`
	FailedFlows []string `json:"failed_flows,omitempty"`
	Duration    string   `json:"duration"`
	LogsDir     string   `json:"logs_dir"`
	Error       string   `json:"error,omitempty"`
}

// Succeeded reports whether the run had no failures.
func (r Result) Succeeded() bool { return r.Status == StatusSuccess }

// target is one delivery destination.
type target interface {
	deliver(ctx context.Context, r Result, msg string) error
	String() string
}

type logger interface {
	Warn(format string, args ...any)
}

// Service fans a result out to the configured targets.
type Service struct {
	targets    []target
	onError    bool
	onComplete bool
	timeout    time.Duration
	host       string
	log        logger
}

// New builds a Service for the configured channels. No channels gives a nil Service, which Send
// accepts.
func New(p Params, log logger) (*Service, error) {
	if len(p.Channels) == 0 {
		return nil, nil //nolint:nilnil // nil service is a valid no-op
	}

	svc := &Service{onError: p.OnError, onComplete: p.OnComplete, timeout: defaultTimeout, host: "unknown", log: log}
	if p.TimeoutMs > 0 {
		svc.timeout = time.Duration(p.TimeoutMs) * time.Millisecond
	}
	if h, err := os.Hostname(); err == nil {
		svc.host = h
	}

	for _, name := range p.Channels {
		key := strings.ToLower(strings.TrimSpace(name))
		build, ok := builders[key]
		if !ok {
			return nil, fmt.Errorf("unknown notification channel: %q", name)
		}
		targets, err := build(p, log)
		if err != nil {
			return nil, fmt.Errorf("%s channel: %w", key, err)
		}
		svc.targets = append(svc.targets, targets...)
	}

	if len(svc.targets) == 0 {
		log.Warn("no notification channel could be set up, results will not be sent")
	}
	return svc, nil
}

// Send delivers r to every target when its status is enabled by on_error/on_complete.
// Delivery failures are logged only.
func (s *Service) Send(ctx context.Context, r Result) {
	if s == nil || !s.wants(r) {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	msg := formatMessage(r, s.host)
	for _, t := range s.targets {
		if err := t.deliver(ctx, r, msg); err != nil {
			s.log.Warn("notification via %s failed: %v", t, err)
		}
	}
}

func (s *Service) wants(r Result) bool {
	if r.Succeeded() {
		return s.onComplete
	}
	return s.onError
}
