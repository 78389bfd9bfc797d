package bridge

import (
	"context"

	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

// Bridge is the host-side process control surface for the managed backend.
// It answers process-level questions ("is it alive") that are distinct
// from HTTP health ("is it answering"), because a freshly spawned backend
// can be alive but not yet accepting connections.
type Bridge interface {
	// IsBackendRunning reports whether a backend process is tracked or
	// otherwise detectable on this host.
	IsBackendRunning(ctx context.Context) (bool, error)

	// StartBackend launches the backend process. Returns a human-readable
	// outcome message.
	StartBackend(ctx context.Context) (string, error)

	// StopBackend terminates the tracked backend process.
	StopBackend(ctx context.Context) (string, error)

	// RestartBackend stops the tracked process, waits briefly for
	// cleanup, then starts a new one.
	RestartBackend(ctx context.Context) (string, error)

	// BackendLogs returns the captured process output, oldest first.
	BackendLogs() []types.LogEntry

	// BackendErrorLogs returns only error-level entries, oldest first.
	BackendErrorLogs() []types.LogEntry

	// ClearBackendLogs discards all captured output.
	ClearBackendLogs()
}
