package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/ini.v1"
)

// Values holds the settings of one config layer. A *Set field marks its value as given
// explicitly, so a later layer can override with false or zero.
type Values struct {
	Headless                bool
	HeadlessSet             bool // tracks if headless was explicitly set
	SlowMoMs                int
	SlowMoMsSet             bool
	ViewportWidth           int // zero means maximized window when headed
	ViewportHeight          int
	PageLoadTimeoutMs       int
	PageLoadTimeoutMsSet    bool
	DefaultWaitMs           int
	DefaultWaitMsSet        bool
	PollIntervalMs          int
	PollIntervalMsSet       bool
	NativeClickTimeoutMs    int
	NativeClickTimeoutMsSet bool
	PointerPauseMs          int
	PointerPauseMsSet       bool
	FrameProbeTimeoutMs     int
	FrameProbeTimeoutMsSet  bool
	PerFrameTimeoutMs       int
	PerFrameTimeoutMsSet    bool
	ReadySettleMs           int
	ReadySettleMsSet        bool

	LogsDir       string
	ClientsFile   string
	DefaultClient string
	Flows         []string // flows run when none are given on the command line

	NotifyChannels      []string
	NotifyChannelsSet   bool
	NotifyOnError       bool
	NotifyOnErrorSet    bool
	NotifyOnComplete    bool
	NotifyOnCompleteSet bool
	NotifyTimeoutMs     int
	NotifyTimeoutMsSet  bool
	NotifyTelegramToken string
	NotifyTelegramChat  string
	NotifySlackToken    string
	NotifySlackChannel  string
	NotifySMTPHost      string
	NotifySMTPPort      int
	NotifySMTPUsername  string
	NotifySMTPPassword  string
	NotifySMTPStartTLS  bool
	NotifyEmailFrom     string
	NotifyEmailTo       []string
	NotifyWebhookURLs   []string
	NotifyCustomScript  string
}

// loadValues layers the embedded defaults under the files at paths, later paths winning.
// Missing files and files holding only comments are skipped.
func loadValues(defaults fs.FS, paths ...string) (Values, error) {
	data, err := fs.ReadFile(defaults, "defaults/config")
	if err != nil {
		return Values{}, fmt.Errorf("read embedded defaults: %w", err)
	}
	res, err := parseValues(data)
	if err != nil {
		return Values{}, fmt.Errorf("embedded defaults: %w", err)
	}

	for _, path := range paths {
		layer, err := readValues(path)
		if err != nil {
			return Values{}, err
		}
		res.mergeFrom(&layer)
	}
	return res, nil
}

func readValues(path string) (Values, error) {
	if path == "" {
		return Values{}, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // config location
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return Values{}, nil
	case err != nil:
		return Values{}, fmt.Errorf("read config %s: %w", path, err)
	case commentsOnly(data):
		return Values{}, nil
	}
	v, err := parseValues(data)
	if err != nil {
		return Values{}, fmt.Errorf("config %s: %w", path, err)
	}
	return v, nil
}

// durationKeys maps millisecond settings to their fields in Values.
func (v *Values) durationKeys() map[string]struct {
	val *int
	set *bool
} {
	return map[string]struct {
		val *int
		set *bool
	}{
		"slow_mo_ms":              {&v.SlowMoMs, &v.SlowMoMsSet},
		"page_load_timeout_ms":    {&v.PageLoadTimeoutMs, &v.PageLoadTimeoutMsSet},
		"default_wait_ms":         {&v.DefaultWaitMs, &v.DefaultWaitMsSet},
		"poll_interval_ms":        {&v.PollIntervalMs, &v.PollIntervalMsSet},
		"native_click_timeout_ms": {&v.NativeClickTimeoutMs, &v.NativeClickTimeoutMsSet},
		"pointer_pause_ms":        {&v.PointerPauseMs, &v.PointerPauseMsSet},
		"frame_probe_timeout_ms":  {&v.FrameProbeTimeoutMs, &v.FrameProbeTimeoutMsSet},
		"per_frame_timeout_ms":    {&v.PerFrameTimeoutMs, &v.PerFrameTimeoutMsSet},
		"ready_settle_ms":         {&v.ReadySettleMs, &v.ReadySettleMsSet},
		"notify_timeout_ms":       {&v.NotifyTimeoutMs, &v.NotifyTimeoutMsSet},
	}
}

// parseValues reads the key = value settings. A # inside a value is kept, passwords may carry one.
func parseValues(data []byte) (Values, error) {
	cfg, err := ini.LoadSources(ini.LoadOptions{IgnoreInlineComment: true}, data)
	if err != nil {
		return Values{}, fmt.Errorf("parse ini: %w", err)
	}

	var values Values
	section := cfg.Section("") // default section (no section header)

	// browser settings
	if key, err := section.GetKey("headless"); err == nil {
		val, boolErr := key.Bool()
		if boolErr != nil {
			return Values{}, fmt.Errorf("invalid headless: %w", boolErr)
		}
		values.Headless = val
		values.HeadlessSet = true
	}
	if key, err := section.GetKey("viewport"); err == nil {
		w, h, vpErr := parseViewport(key.String())
		if vpErr != nil {
			return Values{}, fmt.Errorf("invalid viewport: %w", vpErr)
		}
		values.ViewportWidth, values.ViewportHeight = w, h
	}

	// timing settings
	for name, field := range values.durationKeys() {
		key, err := section.GetKey(name)
		if err != nil {
			continue
		}
		val, intErr := key.Int()
		if intErr != nil {
			return Values{}, fmt.Errorf("invalid %s: %w", name, intErr)
		}
		if val < 0 {
			return Values{}, fmt.Errorf("invalid %s: must be non-negative, got %d", name, val)
		}
		*field.val = val
		*field.set = true
	}

	// paths and run selection
	if key, err := section.GetKey("logs_dir"); err == nil {
		values.LogsDir = key.String()
	}
	if key, err := section.GetKey("clients_file"); err == nil {
		values.ClientsFile = key.String()
	}
	if key, err := section.GetKey("default_client"); err == nil {
		values.DefaultClient = key.String()
	}
	if key, err := section.GetKey("flows"); err == nil {
		values.Flows = splitList(key.String())
	}

	if err := values.parseNotify(section); err != nil {
		return Values{}, err
	}

	return values, nil
}

// parseNotify reads the notify_* keys.
func (v *Values) parseNotify(section *ini.Section) error {
	if key, err := section.GetKey("notify_channels"); err == nil {
		v.NotifyChannels = splitList(key.String())
		v.NotifyChannelsSet = true
	}
	if key, err := section.GetKey("notify_on_error"); err == nil {
		val, boolErr := key.Bool()
		if boolErr != nil {
			return fmt.Errorf("invalid notify_on_error: %w", boolErr)
		}
		v.NotifyOnError = val
		v.NotifyOnErrorSet = true
	}
	if key, err := section.GetKey("notify_on_complete"); err == nil {
		val, boolErr := key.Bool()
		if boolErr != nil {
			return fmt.Errorf("invalid notify_on_complete: %w", boolErr)
		}
		v.NotifyOnComplete = val
		v.NotifyOnCompleteSet = true
	}
	if key, err := section.GetKey("notify_smtp_port"); err == nil {
		val, intErr := key.Int()
		if intErr != nil {
			return fmt.Errorf("invalid notify_smtp_port: %w", intErr)
		}
		v.NotifySMTPPort = val
	}
	if key, err := section.GetKey("notify_smtp_starttls"); err == nil {
		val, boolErr := key.Bool()
		if boolErr != nil {
			return fmt.Errorf("invalid notify_smtp_starttls: %w", boolErr)
		}
		v.NotifySMTPStartTLS = val
	}

	strs := map[string]*string{
		"notify_telegram_token": &v.NotifyTelegramToken,
		"notify_telegram_chat":  &v.NotifyTelegramChat,
		"notify_slack_token":    &v.NotifySlackToken,
		"notify_slack_channel":  &v.NotifySlackChannel,
		"notify_smtp_host":      &v.NotifySMTPHost,
		"notify_smtp_username":  &v.NotifySMTPUsername,
		"notify_smtp_password":  &v.NotifySMTPPassword,
		"notify_email_from":     &v.NotifyEmailFrom,
		"notify_custom_script":  &v.NotifyCustomScript,
	}
	for name, dst := range strs {
		if key, err := section.GetKey(name); err == nil {
			*dst = strings.TrimSpace(key.String())
		}
	}
	if key, err := section.GetKey("notify_email_to"); err == nil {
		v.NotifyEmailTo = splitList(key.String())
	}
	if key, err := section.GetKey("notify_webhook_urls"); err == nil {
		v.NotifyWebhookURLs = splitList(key.String())
	}
	return nil
}

// parseViewport parses "WIDTHxHEIGHT"; an empty string means no fixed viewport.
func parseViewport(s string) (width, height int, err error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return 0, 0, nil
	}
	ws, hs, ok := strings.Cut(s, "x")
	if !ok {
		return 0, 0, fmt.Errorf("expected WIDTHxHEIGHT, got %q", s)
	}
	if width, err = strconv.Atoi(strings.TrimSpace(ws)); err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("bad width in %q", s)
	}
	if height, err = strconv.Atoi(strings.TrimSpace(hs)); err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("bad height in %q", s)
	}
	return width, height, nil
}

// splitList splits a comma-separated value, dropping blanks.
func splitList(s string) []string {
	var res []string
	for p := range strings.SplitSeq(s, ",") {
		if t := strings.TrimSpace(p); t != "" {
			res = append(res, t)
		}
	}
	return res
}

// mergeFrom copies the settings src carries over dst.
func (dst *Values) mergeFrom(src *Values) {
	if src.HeadlessSet {
		dst.Headless = src.Headless
		dst.HeadlessSet = true
	}
	if src.ViewportWidth > 0 {
		dst.ViewportWidth, dst.ViewportHeight = src.ViewportWidth, src.ViewportHeight
	}

	srcKeys, dstKeys := src.durationKeys(), dst.durationKeys()
	for name, s := range srcKeys {
		if *s.set {
			*dstKeys[name].val = *s.val
			*dstKeys[name].set = true
		}
	}

	if src.LogsDir != "" {
		dst.LogsDir = src.LogsDir
	}
	if src.ClientsFile != "" {
		dst.ClientsFile = src.ClientsFile
	}
	if src.DefaultClient != "" {
		dst.DefaultClient = src.DefaultClient
	}
	if len(src.Flows) > 0 {
		dst.Flows = src.Flows
	}

	if src.NotifyChannelsSet {
		dst.NotifyChannels = src.NotifyChannels
		dst.NotifyChannelsSet = true
	}
	if src.NotifyOnErrorSet {
		dst.NotifyOnError = src.NotifyOnError
		dst.NotifyOnErrorSet = true
	}
	if src.NotifyOnCompleteSet {
		dst.NotifyOnComplete = src.NotifyOnComplete
		dst.NotifyOnCompleteSet = true
	}
	mergeStr(&dst.NotifyTelegramToken, src.NotifyTelegramToken)
	mergeStr(&dst.NotifyTelegramChat, src.NotifyTelegramChat)
	mergeStr(&dst.NotifySlackToken, src.NotifySlackToken)
	mergeStr(&dst.NotifySlackChannel, src.NotifySlackChannel)
	mergeStr(&dst.NotifySMTPHost, src.NotifySMTPHost)
	mergeStr(&dst.NotifySMTPUsername, src.NotifySMTPUsername)
	mergeStr(&dst.NotifySMTPPassword, src.NotifySMTPPassword)
	mergeStr(&dst.NotifyEmailFrom, src.NotifyEmailFrom)
	mergeStr(&dst.NotifyCustomScript, src.NotifyCustomScript)
	if src.NotifySMTPPort > 0 {
		dst.NotifySMTPPort = src.NotifySMTPPort
	}
	if src.NotifySMTPStartTLS {
		dst.NotifySMTPStartTLS = true
	}
	if len(src.NotifyEmailTo) > 0 {
		dst.NotifyEmailTo = src.NotifyEmailTo
	}
	if len(src.NotifyWebhookURLs) > 0 {
		dst.NotifyWebhookURLs = src.NotifyWebhookURLs
	}
}

func mergeStr(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// commentsOnly reports whether data has nothing but blank and # lines.
func commentsOnly(data []byte) bool {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			return false
		}
	}
	return true
}
