//go:build !windows

package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// consoleMode is the termios of an interactive stdin as it was before the run.
type consoleMode struct {
	fd    int
	saved unix.Termios
}

// captureConsole returns nil when f is not a terminal.
func captureConsole(f *os.File) (*consoleMode, error) {
	fd := int(f.Fd()) //nolint:gosec // descriptors fit in int
	if !term.IsTerminal(fd) {
		return nil, nil //nolint:nilnil // nothing to capture
	}
	state, err := unix.IoctlGetTermios(fd, getTermios)
	if err != nil {
		return nil, fmt.Errorf("read termios: %w", err)
	}
	return &consoleMode{fd: fd, saved: *state}, nil
}

func (m *consoleMode) apply(t unix.Termios) error {
	if err := unix.IoctlSetTermios(m.fd, setTermios, &t); err != nil {
		return fmt.Errorf("write termios: %w", err)
	}
	return nil
}

func (m *consoleMode) restore() error { return m.apply(m.saved) }

// withoutControlEcho keeps echo on but stops control keys from being echoed as ^C.
func withoutControlEcho(t unix.Termios) unix.Termios {
	t.Lflag &^= unix.ECHOCTL
	return t
}

// quietInterrupt stops ctrl+c from printing "^C" into the run summary while the browser shuts
// down. The returned func puts the console back; it is a no-op when f is not a terminal.
func quietInterrupt(f *os.File) func() {
	m, err := captureConsole(f)
	if err != nil || m == nil {
		return func() {}
	}
	if err := m.apply(withoutControlEcho(m.saved)); err != nil {
		return func() {}
	}
	return func() { _ = m.restore() }
}
