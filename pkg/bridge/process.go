package bridge

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/syurodev/ztkapp-sub000/pkg/log"
	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

// restartCleanupDelay is the wait between stop and start during a restart,
// giving the old process time to release its port.
const restartCleanupDelay = 1 * time.Second

// stopGracePeriod is how long to wait for SIGTERM before SIGKILL
const stopGracePeriod = 10 * time.Second

// ExecBridge manages the backend as a child process, capturing its output
// into a bounded in-memory ring.
type ExecBridge struct {
	binary string
	args   []string
	env    map[string]string

	mu   sync.Mutex
	cmd  *exec.Cmd
	done chan struct{} // closed when the tracked process exits

	logs *logRing
}

// NewExecBridge creates a bridge that will spawn the given binary
func NewExecBridge(binary string, args []string, env map[string]string) *ExecBridge {
	return &ExecBridge{
		binary: binary,
		args:   args,
		env:    env,
		logs:   newLogRing(),
	}
}

// IsBackendRunning reports whether a spawned backend process is still alive
func (b *ExecBridge) IsBackendRunning(ctx context.Context) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.cmd != nil, nil
}

// StartBackend spawns the backend process and begins capturing its output
func (b *ExecBridge) StartBackend(ctx context.Context) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cmd != nil {
		return "Backend is already running", nil
	}

	cmd := exec.Command(b.binary, b.args...)
	cmd.Env = os.Environ()
	for key, value := range b.env {
		cmd.Env = append(cmd.Env, key+"="+value)
	}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return "", fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	b.logs.Append(systemEntry(types.LogLevelInfo, "Starting backend process..."))

	if err := cmd.Start(); err != nil {
		b.logs.Append(systemEntry(types.LogLevelError, fmt.Sprintf("Failed to spawn backend: %v", err)))
		return "", fmt.Errorf("failed to spawn backend: %w", err)
	}

	b.cmd = cmd
	b.done = make(chan struct{})
	done := b.done

	go b.captureOutput(types.LogSourceStdout, stdout)
	go b.captureOutput(types.LogSourceStderr, stderr)
	go b.reap(cmd, done)

	logger := log.WithComponent("bridge")
	logger.Info().
		Int("pid", cmd.Process.Pid).
		Str("binary", b.binary).
		Msg("backend process started")

	return "Backend started successfully", nil
}

// StopBackend terminates the tracked backend process, SIGTERM first
func (b *ExecBridge) StopBackend(ctx context.Context) (string, error) {
	b.mu.Lock()
	cmd := b.cmd
	done := b.done
	b.mu.Unlock()

	if cmd == nil {
		return "", fmt.Errorf("no backend process is running")
	}

	if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return "", fmt.Errorf("failed to send SIGTERM: %w", err)
	}

	select {
	case <-done:
	case <-time.After(stopGracePeriod):
		if err := cmd.Process.Kill(); err != nil {
			return "", fmt.Errorf("failed to kill backend process: %w", err)
		}
		<-done
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return "Backend process stopped successfully", nil
}

// RestartBackend stops the tracked process, waits for cleanup, then starts
// a new one. A missing process is not an error here, matching the stop
// being best-effort during restart.
func (b *ExecBridge) RestartBackend(ctx context.Context) (string, error) {
	if _, err := b.StopBackend(ctx); err != nil {
		logger := log.WithComponent("bridge")
		logger.Debug().Err(err).Msg("stop during restart")
	}

	select {
	case <-time.After(restartCleanupDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	return b.StartBackend(ctx)
}

// BackendLogs returns the captured process output, oldest first
func (b *ExecBridge) BackendLogs() []types.LogEntry {
	return b.logs.All()
}

// BackendErrorLogs returns only error-level entries, oldest first
func (b *ExecBridge) BackendErrorLogs() []types.LogEntry {
	return b.logs.Errors()
}

// ClearBackendLogs discards all captured output
func (b *ExecBridge) ClearBackendLogs() {
	b.logs.Clear()
}

// captureOutput reads one output stream line by line into the log ring
func (b *ExecBridge) captureOutput(source types.LogSource, r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()

		level := types.LogLevelInfo
		if source == types.LogSourceStderr {
			level = classifyStderr(line)
		}

		b.logs.Append(types.LogEntry{
			Timestamp: time.Now().UTC(),
			Level:     level,
			Message:   line,
			Source:    source,
		})
	}
}

// reap waits for the process to exit and clears the tracked handle
func (b *ExecBridge) reap(cmd *exec.Cmd, done chan struct{}) {
	err := cmd.Wait()

	message := "Backend terminated"
	if err != nil {
		message = fmt.Sprintf("Backend terminated: %v", err)
	}
	b.logs.Append(systemEntry(types.LogLevelError, message))

	b.mu.Lock()
	if b.cmd == cmd {
		b.cmd = nil
		b.done = nil
	}
	b.mu.Unlock()

	close(done)
}
