package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/google/shlex"
	"github.com/mitchellh/go-ps"

	"github.com/joshyorko/swarmdash/common"
)

var ErrEmptyCommand = errors.New("orchestrator command is empty")

// Subprocess runs the orchestrator and feeds its stdout into a queue.
type Subprocess struct {
	argv    []string
	workdir string

	mu      sync.Mutex
	cmd     *exec.Cmd
	stopped bool
}

// NewSubprocess splits commandLine with shell quoting rules.
func NewSubprocess(commandLine, workdir string) (*Subprocess, error) {
	argv, err := shlex.Split(commandLine)
	if err != nil {
		return nil, fmt.Errorf("parse command %q: %w", commandLine, err)
	}
	if len(argv) == 0 {
		return nil, ErrEmptyCommand
	}
	return &Subprocess{argv: argv, workdir: workdir}, nil
}

// Argv returns the parsed command line.
func (it *Subprocess) Argv() []string {
	return append([]string(nil), it.argv...)
}

// Run starts the process and pumps its output until it exits or ctx ends.
// Start and read failures become a synthetic error event; the queue is
// always closed on return.
func (it *Subprocess) Run(ctx context.Context, queue *Queue) error {
	defer queue.Close()

	err := it.run(ctx, queue)
	if err != nil && !it.wasStopped() {
		common.Error("orchestrator", err)
		queue.Push(ErrorEvent(err, time.Now()))
		return err
	}
	return nil
}

func (it *Subprocess) run(ctx context.Context, queue *Queue) error {
	cmd := exec.CommandContext(ctx, it.argv[0], it.argv[1:]...)
	cmd.Dir = it.workdir
	cmd.Env = os.Environ()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr := &stderrLog{}
	cmd.Stderr = stderr
	cmd.WaitDelay = time.Second
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", it.argv[0], err)
	}
	it.mu.Lock()
	it.cmd = cmd
	it.mu.Unlock()
	common.Debug("orchestrator started as pid %d", cmd.Process.Pid)

	readErr := Pump(stdout, queue)
	if readErr != nil {
		// Nobody reads stdout any more; a writing child would block forever.
		if err := cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			common.Uncritical("kill orchestrator", err)
		}
	}
	waitErr := cmd.Wait()
	stderr.Flush()
	if ctx.Err() != nil {
		return nil
	}
	if readErr != nil {
		return readErr
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		common.Log("orchestrator exited with code %d", exitErr.ExitCode())
		return nil
	}
	return waitErr
}

// stderrLog forwards the orchestrator's stderr to the debug log, one line
// at a time. A line split across writes is held back until it completes.
type stderrLog struct {
	pending []byte
}

func (it *stderrLog) Write(blob []byte) (int, error) {
	it.pending = append(it.pending, blob...)
	for {
		at := bytes.IndexByte(it.pending, '\n')
		if at < 0 {
			break
		}
		it.emit(it.pending[:at])
		it.pending = it.pending[at+1:]
	}
	if len(it.pending) > MaxLineSize {
		common.Debug("orchestrator: stderr line over %d bytes skipped", MaxLineSize)
		it.pending = nil
	}
	if len(it.pending) == 0 {
		it.pending = nil
	}
	return len(blob), nil
}

// Flush logs a final line that had no newline.
func (it *stderrLog) Flush() {
	it.emit(it.pending)
	it.pending = nil
}

func (it *stderrLog) emit(line []byte) {
	if text := strings.TrimSpace(string(line)); text != "" {
		common.Debug("orchestrator: %s", text)
	}
}

func (it *Subprocess) wasStopped() bool {
	it.mu.Lock()
	defer it.mu.Unlock()
	return it.stopped
}

// Stop kills the process if it is still alive.
func (it *Subprocess) Stop() error {
	it.mu.Lock()
	defer it.mu.Unlock()
	it.stopped = true
	if it.cmd == nil || it.cmd.Process == nil {
		return nil
	}
	pid := it.cmd.Process.Pid
	process, err := ps.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("look up pid %d: %w", pid, err)
	}
	if process == nil {
		common.Trace("orchestrator pid %d already gone", pid)
		return nil
	}
	common.Debug("killing orchestrator %s (pid %d)", process.Executable(), pid)
	if err := it.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("kill pid %d: %w", pid, err)
	}
	return nil
}
