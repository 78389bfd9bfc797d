package bridge

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

// waitFor polls cond until it returns true or the deadline passes
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) bool {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(10 * time.Millisecond)
	}
	return cond()
}

func TestExecBridge_CapturesAndClassifiesOutput(t *testing.T) {
	b := NewExecBridge("sh", []string{"-c", `echo hello; echo "ERROR bad thing" 1>&2; sleep 30`}, nil)

	ctx := context.Background()
	msg, err := b.StartBackend(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg, "started")

	defer func() { _, _ = b.StopBackend(ctx) }()

	ok := waitFor(t, 2*time.Second, func() bool {
		var sawStdout, sawStderr bool
		for _, entry := range b.BackendLogs() {
			if entry.Source == types.LogSourceStdout && entry.Message == "hello" {
				sawStdout = true
			}
			if entry.Source == types.LogSourceStderr && strings.Contains(entry.Message, "ERROR bad thing") {
				sawStderr = true
			}
		}
		return sawStdout && sawStderr
	})
	require.True(t, ok, "expected both output lines to be captured, got %+v", b.BackendLogs())

	errs := b.BackendErrorLogs()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[len(errs)-1].Message, "ERROR bad thing")
}

func TestExecBridge_StartWhileRunning(t *testing.T) {
	b := NewExecBridge("sh", []string{"-c", "sleep 30"}, nil)

	ctx := context.Background()
	_, err := b.StartBackend(ctx)
	require.NoError(t, err)
	defer func() { _, _ = b.StopBackend(ctx) }()

	msg, err := b.StartBackend(ctx)
	require.NoError(t, err)
	assert.Contains(t, msg, "already running")
}

func TestExecBridge_StopClearsTrackedProcess(t *testing.T) {
	b := NewExecBridge("sh", []string{"-c", "sleep 30"}, nil)

	ctx := context.Background()
	_, err := b.StartBackend(ctx)
	require.NoError(t, err)

	running, err := b.IsBackendRunning(ctx)
	require.NoError(t, err)
	assert.True(t, running)

	_, err = b.StopBackend(ctx)
	require.NoError(t, err)

	ok := waitFor(t, 2*time.Second, func() bool {
		running, _ := b.IsBackendRunning(ctx)
		return !running
	})
	assert.True(t, ok, "process should be untracked after stop")
}

func TestExecBridge_StopWithoutProcess(t *testing.T) {
	b := NewExecBridge("sh", nil, nil)

	_, err := b.StopBackend(context.Background())
	assert.Error(t, err)
}

func TestExecBridge_SpawnFailureIsLogged(t *testing.T) {
	b := NewExecBridge("/nonexistent/zkteco-backend", nil, nil)

	_, err := b.StartBackend(context.Background())
	require.Error(t, err)

	errs := b.BackendErrorLogs()
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0].Message, "Failed to spawn backend")
}

func TestExecBridge_PassesEnvironment(t *testing.T) {
	b := NewExecBridge("sh", []string{"-c", `echo "level=$LOG_LEVEL"`}, map[string]string{"LOG_LEVEL": "DEBUG"})

	ctx := context.Background()
	_, err := b.StartBackend(ctx)
	require.NoError(t, err)

	ok := waitFor(t, 2*time.Second, func() bool {
		for _, entry := range b.BackendLogs() {
			if entry.Message == "level=DEBUG" {
				return true
			}
		}
		return false
	})
	assert.True(t, ok, "expected env var to reach the child, got %+v", b.BackendLogs())
}
