package patch

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"time"
)

// DefaultRestoreTimeout bounds the package restore subprocess.
const DefaultRestoreTimeout = 600 * time.Second

// ProcessRunner starts external tools with a hard wall-clock timeout.
type ProcessRunner struct {
	// Launcher, when set, is run with the command as its first argument
	// (e.g. "mono" for nuget.exe outside Windows).
	Launcher string
	Stdout   io.Writer
	Stderr   io.Writer
}

// Run blocks until command exits or timeout elapses. A command still
// running at the deadline is left to terminate on its own; the call
// returns ErrSubprocess either way.
func (r *ProcessRunner) Run(ctx context.Context, command string, args []string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultRestoreTimeout
	}

	name, argv := command, args
	if r.Launcher != "" {
		name = r.Launcher
		argv = append([]string{command}, args...)
	}

	// exec.Command, not CommandContext: a timed-out child is not killed.
	cmd := exec.Command(name, argv...)
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %s: %w: %w", command, ErrSubprocess, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("%s failed: %w: %w", command, ErrSubprocess, err)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("%s did not finish within %s: %w", command, timeout, ErrSubprocess)
	case <-ctx.Done():
		return fmt.Errorf("%s interrupted: %w: %w", command, ErrSubprocess, ctx.Err())
	}
}
