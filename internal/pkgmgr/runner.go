package pkgmgr

import (
	"context"
	"os/exec"
	"time"

	"github.com/browserboot/browserboot/internal/logging"
)

// CmdResult captures the outcome of a single package-manager command.
type CmdResult struct {
	Command         string `json:"command"`
	Output          string `json:"output,omitempty"`
	ExitCode        int    `json:"exit_code"`
	DurationSeconds int    `json:"duration_seconds"`
	Err             string `json:"error,omitempty"`
}

// Runner executes external commands. Backends never call exec directly so
// tests can substitute a fake that records invocations.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (*CmdResult, error)
}

// ExecRunner runs commands on the host, optionally prefixed with sudo.
type ExecRunner struct {
	Sudo bool
}

// Run executes the command and captures combined output.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (*CmdResult, error) {
	start := time.Now()

	if r.Sudo {
		args = append([]string{name}, args...)
		name = "sudo"
	}

	cmd := exec.CommandContext(ctx, name, args...)
	logging.Debugf("exec: %s", cmd.String())
	output, err := cmd.CombinedOutput()

	result := &CmdResult{
		Command:         cmd.String(),
		Output:          string(output),
		ExitCode:        exitCode(err),
		DurationSeconds: int(time.Since(start).Seconds()),
	}
	if err != nil {
		result.Err = err.Error()
	}
	logging.Debugf("exec done: %s (exit %d, %ds)", cmd.String(), result.ExitCode, result.DurationSeconds)
	return result, err
}

// exitCode extracts the exit code from an exec error.
func exitCode(err error) int {
	if err == nil {
		return 0
	}

	if exitError, ok := err.(*exec.ExitError); ok {
		return exitError.ExitCode()
	}

	return 1 // Default error code
}
