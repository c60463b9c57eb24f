// Package main provides ticketsuite - end-to-end browser regression flows for the ticketing application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/jessevdk/go-flags"

	"github.com/cityledger/ticketsuite/pkg/browser"
	"github.com/cityledger/ticketsuite/pkg/config"
	"github.com/cityledger/ticketsuite/pkg/flow"
	"github.com/cityledger/ticketsuite/pkg/input"
	"github.com/cityledger/ticketsuite/pkg/notify"
	"github.com/cityledger/ticketsuite/pkg/progress"
	"github.com/cityledger/ticketsuite/pkg/render"
)

// opts holds all command-line options.
type opts struct {
	Client      string        `short:"c" long:"client" description:"client to run against (default: first in clients file)"`
	Flows       []string      `short:"f" long:"flow" description:"flow to run, repeatable or comma separated (payment, adjustment, finance-log)"`
	Clients     string        `long:"clients" description:"client data file (yaml or legacy json)"`
	Logs        string        `short:"l" long:"logs" description:"logs directory"`
	Config      string        `long:"config" description:"local config file overriding the global one"`
	Headless    bool          `long:"headless" description:"run the browser without a window"`
	Timeout     time.Duration `short:"t" long:"timeout" description:"default element wait, e.g. 30s"`
	Interactive bool          `short:"i" long:"interactive" description:"pick client and flows from a list"`
	ListClients bool          `long:"list-clients" description:"print client names and exit"`
	Debug       bool          `short:"d" long:"debug" description:"echo the step trace to the console"`
	NoColor     bool          `long:"no-color" description:"disable color output"`
	Version     bool          `short:"v" long:"version" description:"print version and exit"`
}

var revision = "unknown"

var infoColor = color.New(color.FgCyan)

func main() {
	fmt.Printf("ticketsuite %s\n", revision)

	var o opts
	parser := flags.NewParser(&o, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if o.Version {
		os.Exit(0)
	}

	restore := quietInterrupt(os.Stdin)
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := run(ctx, o, input.NewTerminalChooser())
	cancel()
	restore()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, o opts, chooser input.Chooser) error {
	cfg, err := config.Load("", o.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyOverrides(cfg, o)
	if o.NoColor {
		color.NoColor = true
	}

	clients, err := config.LoadClients(clientsPath(o.Clients, cfg))
	if err != nil {
		return err
	}
	if o.ListClients {
		for _, name := range config.ClientNames(clients) {
			fmt.Println(name)
		}
		return nil
	}

	client, err := selectClient(ctx, clients, o, cfg.DefaultClient, chooser)
	if err != nil {
		return err
	}
	names, err := selectFlows(ctx, o, cfg.Flows, chooser)
	if err != nil {
		return err
	}

	log, err := progress.NewLogger(progress.Config{
		Dir: cfg.LogsDir, Client: client.Name, Flows: names, Verbose: o.Debug, NoColor: o.NoColor,
	})
	if err != nil {
		return fmt.Errorf("create progress logger: %w", err)
	}
	defer log.Close()

	notifier, err := notify.New(cfg.NotifyParams(), log)
	if err != nil {
		return fmt.Errorf("setup notifications: %w", err)
	}

	infoColor.Printf("client: %s (%s)\n", client.Name, client.BaseURL)
	infoColor.Printf("flows: %s\n", strings.Join(names, ", "))
	infoColor.Printf("logs: %s\n\n", log.Dir())

	rep, runErr := runFlows(ctx, cfg, client, names, log)

	if len(rep.Outcomes) > 0 {
		printSummary(rep, o.NoColor)
	}
	// notify even when interrupted
	notifier.Send(context.WithoutCancel(ctx), rep.NotifyResult(log.Dir(), runErr))

	infoColor.Printf("completed in %s\n", log.Elapsed())
	if runErr != nil {
		return runErr
	}
	return rep.Err()
}

// runFlows starts the browser and runs the flows; a launch failure is returned with an empty report.
func runFlows(ctx context.Context, cfg *config.Config, client config.Client, names []string, log *progress.Logger) (flow.Report, error) {
	launcher := browser.NewLauncher(cfg.LaunchOptions(), log)
	if err := launcher.Start(); err != nil {
		log.Error("browser start failed: %v", err)
		return flow.Report{Client: client}, fmt.Errorf("start browser: %w", err)
	}
	defer launcher.Stop()

	runner := flow.NewRunner(launcher, log, flow.Options{
		Timing:       cfg.Timing(),
		PollInterval: cfg.PollInterval(),
		Waits:        cfg.Waits(),
	})
	rep, err := runner.Run(ctx, client, names)
	if err != nil {
		return rep, fmt.Errorf("run flows: %w", err)
	}
	return rep, nil
}

// applyOverrides lets command-line options win over settings.
func applyOverrides(cfg *config.Config, o opts) {
	if o.Headless {
		cfg.Headless = true
	}
	if o.Logs != "" {
		cfg.LogsDir = o.Logs
	}
	if o.Timeout > 0 {
		cfg.DefaultWaitMs = int(o.Timeout / time.Millisecond)
		cfg.DefaultWaitMsSet = true
	}
}

// clientsPath returns the client data file. A relative path missing from the working directory is
// looked up in the config directory.
func clientsPath(flagPath string, cfg *config.Config) string {
	path := flagPath
	if path == "" {
		path = cfg.ClientsFile
	}
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	inConfig := filepath.Join(cfg.ConfigDir(), path)
	if _, err := os.Stat(inConfig); err == nil {
		return inConfig
	}
	return path
}

// selectClient picks the client from --client, then the configured default, then interactively or
// the first client in the file.
func selectClient(ctx context.Context, clients []config.Client, o opts, defaultClient string, chooser input.Chooser) (config.Client, error) {
	name := o.Client
	if name == "" {
		name = defaultClient
	}
	if name == "" && o.Interactive {
		picked, err := chooser.Choose(ctx, "client", config.ClientNames(clients))
		if err != nil {
			return config.Client{}, fmt.Errorf("select client: %w", err)
		}
		name = picked
	}
	return config.SelectClient(clients, name)
}

// selectFlows returns the flows of --flow, then interactively chosen ones, then the configured list,
// then all flows.
func selectFlows(ctx context.Context, o opts, configured []string, chooser input.Chooser) ([]string, error) {
	if names := splitList(o.Flows); len(names) > 0 {
		return names, nil
	}
	if o.Interactive {
		picked, err := chooser.ChooseMany(ctx, "flows", flow.Names())
		if err != nil {
			return nil, fmt.Errorf("select flows: %w", err)
		}
		return picked, nil
	}
	if names := splitList(configured); len(names) > 0 {
		return names, nil
	}
	return flow.Names(), nil
}

// splitList flattens comma separated values and drops blanks.
func splitList(values []string) []string {
	var res []string
	for _, v := range values {
		for part := range strings.SplitSeq(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				res = append(res, part)
			}
		}
	}
	return res
}

func printSummary(rep flow.Report, noColor bool) {
	md := rep.Summary().Markdown()
	out, err := render.RenderMarkdown(md, noColor)
	if err != nil {
		out = md
	}
	fmt.Println(out)
}
