package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/url"
	"strings"

	ntfy "github.com/go-pkgz/notify"
)

// ErrMissingSetting is returned when a channel lacks a required notify_* setting.
var ErrMissingSetting = errors.New("missing notification setting")

type builder func(p Params, log logger) ([]target, error)

var builders = map[string]builder{
	"telegram": telegramTargets,
	"email":    emailTargets,
	"slack":    slackTargets,
	"webhook":  webhookTargets,
	"custom":   customTargets,
}

// ntfyTarget sends through a go-pkgz/notify notifier. dest may depend on the result, e.g. the
// email subject.
type ntfyTarget struct {
	notifier ntfy.Notifier
	dest     func(Result) string
	escape   bool // html parse mode
}

func (t ntfyTarget) deliver(ctx context.Context, r Result, msg string) error {
	if t.escape {
		msg = html.EscapeString(msg)
	}
	return t.notifier.Send(ctx, t.dest(r), msg)
}

func (t ntfyTarget) String() string { return fmt.Sprint(t.notifier) }

func fixedDest(dest string) func(Result) string {
	return func(Result) string { return dest }
}

type setting struct {
	key string
	set bool
}

func requireSettings(settings ...setting) error {
	var missing []string
	for _, s := range settings {
		if !s.set {
			missing = append(missing, s.key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingSetting, strings.Join(missing, ", "))
	}
	return nil
}

// newTelegram verifies the bot token against the telegram api; replaced in tests.
var newTelegram = func(token string) (ntfy.Notifier, error) {
	return ntfy.NewTelegram(ntfy.TelegramParams{Token: token})
}

// telegramTargets skips the channel with a warning when the bot can't be verified, so an
// unreachable api does not block the run.
func telegramTargets(p Params, log logger) ([]target, error) {
	if err := requireSettings(
		setting{"notify_telegram_token", p.TelegramToken != ""},
		setting{"notify_telegram_chat", p.TelegramChat != ""},
	); err != nil {
		return nil, err
	}
	tg, err := newTelegram(p.TelegramToken)
	if err != nil {
		log.Warn("telegram notifications disabled: %s", strings.ReplaceAll(err.Error(), p.TelegramToken, "***"))
		return nil, nil
	}
	return []target{ntfyTarget{notifier: tg, dest: fixedDest("telegram:" + p.TelegramChat + "?parseMode=HTML"), escape: true}}, nil
}

func emailTargets(p Params, _ logger) ([]target, error) {
	if err := requireSettings(
		setting{"notify_smtp_host", p.SMTPHost != ""},
		setting{"notify_email_from", p.EmailFrom != ""},
		setting{"notify_email_to", len(p.EmailTo) > 0},
	); err != nil {
		return nil, err
	}
	em := ntfy.NewEmail(ntfy.SMTPParams{
		Host:     p.SMTPHost,
		Port:     p.SMTPPort,
		Username: p.SMTPUsername,
		Password: p.SMTPPassword,
		StartTLS: p.SMTPStartTLS,
	})
	to := strings.Join(p.EmailTo, ",")
	dest := func(r Result) string {
		return "mailto:" + to + "?from=" + url.QueryEscape(p.EmailFrom) + "&subject=" + url.QueryEscape(subject(r))
	}
	return []target{ntfyTarget{notifier: em, dest: dest}}, nil
}

func slackTargets(p Params, _ logger) ([]target, error) {
	if err := requireSettings(
		setting{"notify_slack_token", p.SlackToken != ""},
		setting{"notify_slack_channel", p.SlackChannel != ""},
	); err != nil {
		return nil, err
	}
	return []target{ntfyTarget{notifier: ntfy.NewSlack(p.SlackToken), dest: fixedDest("slack:" + p.SlackChannel)}}, nil
}

// webhookTargets shares one notifier between all urls.
func webhookTargets(p Params, _ logger) ([]target, error) {
	if err := requireSettings(setting{"notify_webhook_urls", len(p.WebhookURLs) > 0}); err != nil {
		return nil, err
	}
	wh := ntfy.NewWebhook(ntfy.WebhookParams{})
	res := make([]target, 0, len(p.WebhookURLs))
	for _, u := range p.WebhookURLs {
		res = append(res, ntfyTarget{notifier: wh, dest: fixedDest(u)})
	}
	return res, nil
}

func customTargets(p Params, _ logger) ([]target, error) {
	if err := requireSettings(setting{"notify_custom_script", p.CustomScript != ""}); err != nil {
		return nil, err
	}
	return []target{scriptTarget{path: p.CustomScript}}, nil
}
