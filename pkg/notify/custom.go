package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"
)

// scriptTarget runs a user script with the result as JSON on stdin. TICKETSUITE_STATUS and
// TICKETSUITE_CLIENT are set for scripts that only need the verdict.
type scriptTarget struct {
	path string
}

func (t scriptTarget) deliver(ctx context.Context, r Result, _ string) error {
	payload, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	var combined bytes.Buffer
	cmd := exec.CommandContext(ctx, t.path) //nolint:gosec // script path is a local setting
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout, cmd.Stderr = &combined, &combined
	cmd.Env = append(os.Environ(), "TICKETSUITE_STATUS="+r.Status, "TICKETSUITE_CLIENT="+r.Client)
	cmd.WaitDelay = time.Second // children of a killed script may hold the output pipe

	err = cmd.Run()
	if err == nil {
		return nil
	}
	if out := strings.TrimSpace(combined.String()); out != "" {
		return fmt.Errorf("run %s: %w: %s", t.path, err, out)
	}
	return fmt.Errorf("run %s: %w", t.path, err)
}

func (t scriptTarget) String() string { return "script " + t.path }
