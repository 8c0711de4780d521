// Package tool invokes external build tools (bundler, linter, test runner)
// as subprocesses with process-group isolation and clean shutdown.
package tool

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"syscall"

	"github.com/rs/zerolog"
)

// Result holds the captured output of one tool invocation.
type Result struct {
	Stdout []byte
	Stderr []byte
}

// Runner executes external tools from a fixed working directory.
type Runner struct {
	dir   string
	procs *ProcessManager
	log   zerolog.Logger
}

// NewRunner creates a Runner. procs may be nil when subprocess tracking is
// not needed (tests).
func NewRunner(dir string, procs *ProcessManager, log zerolog.Logger) *Runner {
	return &Runner{dir: dir, procs: procs, log: log}
}

// Run invokes name with args and returns its captured output. A non-zero
// exit returns an error that includes the tool's stderr.
func (r *Runner) Run(ctx context.Context, name string, args ...string) (*Result, error) {
	cmd := newCommand(ctx, name, args...)
	cmd.Dir = r.dir

	r.log.Debug().Str("tool", name).Strs("args", args).Msg("invoking tool")

	stdout, stderr, err := execute(cmd, r.procs)
	res := &Result{Stdout: stdout, Stderr: stderr}
	if err != nil {
		return res, err
	}
	return res, nil
}

// newCommand creates an exec.Cmd in its own process group so the whole
// subprocess tree can be terminated together.
func newCommand(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
	return cmd
}

// execute starts cmd and drains stdout and stderr concurrently before
// waiting. Draining both pipes before cmd.Wait prevents a deadlock when the
// tool's output exceeds the pipe buffer.
func execute(cmd *exec.Cmd, procs *ProcessManager) (stdout, stderr []byte, err error) {
	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("starting %s: %w", cmd.Path, err)
	}

	if procs != nil {
		procs.Track(cmd)
		defer procs.Untrack(cmd)
	}

	var wg sync.WaitGroup
	var stdoutBuf, stderrBuf bytes.Buffer

	wg.Add(2)
	go func() {
		defer wg.Done()
		io.Copy(&stdoutBuf, stdoutPipe)
	}()
	go func() {
		defer wg.Done()
		io.Copy(&stderrBuf, stderrPipe)
	}()
	wg.Wait()

	waitErr := cmd.Wait()

	stdout = stdoutBuf.Bytes()
	stderr = stderrBuf.Bytes()

	if waitErr != nil {
		if len(stderr) > 0 {
			return stdout, stderr, fmt.Errorf("%s failed: %w (stderr: %s)", cmd.Path, waitErr, bytes.TrimSpace(stderr))
		}
		return stdout, stderr, fmt.Errorf("%s failed: %w", cmd.Path, waitErr)
	}
	return stdout, stderr, nil
}

// killProcessGroup kills the entire process group of cmd, terminating any
// children the tool spawned.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return fmt.Errorf("process not started")
	}
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		return fmt.Errorf("killing process group: %w", err)
	}
	return nil
}

// ProcessManager tracks running tool subprocesses so shutdown can terminate
// them all, preventing orphaned bundler or test-runner processes.
type ProcessManager struct {
	mu    sync.Mutex
	procs map[int]*exec.Cmd
}

// NewProcessManager creates a ProcessManager.
func NewProcessManager() *ProcessManager {
	return &ProcessManager{
		procs: make(map[int]*exec.Cmd),
	}
}

// Track registers a started subprocess.
func (pm *ProcessManager) Track(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	pm.procs[cmd.Process.Pid] = cmd
}

// Untrack removes a finished subprocess.
func (pm *ProcessManager) Untrack(cmd *exec.Cmd) {
	if cmd.Process == nil {
		return
	}
	pm.mu.Lock()
	defer pm.mu.Unlock()
	delete(pm.procs, cmd.Process.Pid)
}

// KillAll terminates every tracked subprocess. Called on shutdown.
func (pm *ProcessManager) KillAll() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	var errs []error
	for pid, cmd := range pm.procs {
		if err := killProcessGroup(cmd); err != nil {
			errs = append(errs, fmt.Errorf("killing process %d: %w", pid, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("errors killing processes: %v", errs)
	}
	return nil
}

// Count returns the number of tracked processes.
func (pm *ProcessManager) Count() int {
	pm.mu.Lock()
	defer pm.mu.Unlock()
	return len(pm.procs)
}
