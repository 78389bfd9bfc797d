package supervisor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/syurodev/ztkapp-sub000/pkg/bridge"
	"github.com/syurodev/ztkapp-sub000/pkg/client"
	"github.com/syurodev/ztkapp-sub000/pkg/events"
	"github.com/syurodev/ztkapp-sub000/pkg/health"
	"github.com/syurodev/ztkapp-sub000/pkg/log"
	"github.com/syurodev/ztkapp-sub000/pkg/metrics"
	"github.com/syurodev/ztkapp-sub000/pkg/storage"
	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

// Config controls supervision timing and the restart budget
type Config struct {
	// Port is the backend HTTP port, probed on every candidate host
	Port int

	// Hosts are loopback-equivalent addresses probed in order. The
	// backend may bind to different loopback aliases depending on
	// platform network stack behavior.
	Hosts []string

	// CheckTimeout bounds a single status probe
	CheckTimeout time.Duration

	// Retries is the number of retry rounds for a health check. Each
	// round tries every candidate host once before backing off.
	Retries int

	// RetryDelay is the initial backoff between retry rounds (grows 1.5x)
	RetryDelay time.Duration

	// StartSettle is the wait after a bridge start before re-checking
	StartSettle time.Duration

	// RestartSettle is the wait after a bridge restart before re-checking
	RestartSettle time.Duration

	// HealthInterval is the periodic health check cadence
	HealthInterval time.Duration

	// MetricsInterval is the metrics refresh cadence while running
	MetricsInterval time.Duration

	// StartupGrace delays the first periodic check after session start
	StartupGrace time.Duration

	// MaxStartupAttempts bounds automatic restarts within the cooldown window
	MaxStartupAttempts int

	// StartupCooldown is the window after which the attempt budget resets
	StartupCooldown time.Duration
}

// DefaultConfig returns a Config with the standard supervision timing
func DefaultConfig() Config {
	return Config{
		Port:               57575,
		Hosts:              []string{"127.0.0.1", "localhost", "0.0.0.0"},
		CheckTimeout:       5 * time.Second,
		Retries:            3,
		RetryDelay:         time.Second,
		StartSettle:        5 * time.Second,
		RestartSettle:      3 * time.Second,
		HealthInterval:     30 * time.Second,
		MetricsInterval:    5 * time.Second,
		StartupGrace:       2 * time.Second,
		MaxStartupAttempts: 3,
		StartupCooldown:    30 * time.Second,
	}
}

// State is a point-in-time snapshot of the supervisor, read by the UI
type State struct {
	IsRunning       bool                 `json:"is_running"`
	IsStarting      bool                 `json:"is_starting"`
	LastError       string               `json:"last_error,omitempty"`
	ActiveHost      string               `json:"active_host,omitempty"`
	Metrics         types.ServiceMetrics `json:"metrics"`
	StartupAttempts int                  `json:"startup_attempts"`
	LastRestart     *time.Time           `json:"last_restart,omitempty"`

	// Consecutive health check outcomes, for UI badges that distinguish
	// a blip from a real outage.
	ConsecutiveFailures  int `json:"consecutive_failures"`
	ConsecutiveSuccesses int `json:"consecutive_successes"`
}

// ConnectionSupervisor maintains a low-latency view of backend
// reachability and self-heals transient outages without causing restart
// storms. One instance lives for the application session; all state is
// mutex-guarded because consumers call in from arbitrary goroutines.
type ConnectionSupervisor struct {
	cfg    Config
	bridge bridge.Bridge
	broker *events.Broker
	store  *storage.Store
	client *client.Client

	// now and sleep are injectable for tests
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu         sync.Mutex
	activeHost string
	isRunning  bool
	isStarting bool
	lastError  string
	svcMetrics types.ServiceMetrics
	status     *health.Status

	attempts       int
	attemptWindow  time.Time // start of the current attempt window
	budgetResetAt  time.Time // scheduled reset after a success
	lastRestart    time.Time
	startedUptime  time.Time // when uptime tracking last reset
	stopCh         chan struct{}
	stopOnce       sync.Once
	loopsStartedMu sync.Mutex
	loopsStarted   bool
}

// New creates a supervisor over the given process bridge. Broker and
// store are optional.
func New(cfg Config, b bridge.Bridge, broker *events.Broker, store *storage.Store) *ConnectionSupervisor {
	s := &ConnectionSupervisor{
		cfg:        cfg,
		bridge:     b,
		broker:     broker,
		store:      store,
		now:        time.Now,
		sleep:      sleepCtx,
		svcMetrics: types.StoppedMetrics("stopped"),
		status:     health.NewStatus(),
		stopCh:     make(chan struct{}),
	}

	if store != nil {
		if host, err := store.PreferredHost(); err == nil && host != "" {
			s.activeHost = host
		}
	}

	return s
}

// SetClient attaches the backend REST client used for metrics refresh.
// Set after construction because the client's transport needs the
// supervisor as its Restarter.
func (s *ConnectionSupervisor) SetClient(c *client.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.client = c
}

// BaseURL implements client.BaseProvider using the discovered host
func (s *ConnectionSupervisor) BaseURL() string {
	s.mu.Lock()
	host := s.activeHost
	s.mu.Unlock()

	if host == "" {
		host = s.cfg.Hosts[0]
	}
	return fmt.Sprintf("http://%s:%d", host, s.cfg.Port)
}

// Snapshot returns the current supervisor state
func (s *ConnectionSupervisor) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{
		IsRunning:            s.isRunning,
		IsStarting:           s.isStarting,
		LastError:            s.lastError,
		ActiveHost:           s.activeHost,
		Metrics:              s.svcMetrics,
		StartupAttempts:      s.attempts,
		ConsecutiveFailures:  s.status.ConsecutiveFailures,
		ConsecutiveSuccesses: s.status.ConsecutiveSuccesses,
	}
	if !s.lastRestart.IsZero() {
		restart := s.lastRestart
		state.LastRestart = &restart
	}
	return state
}

// IsRunning reports the last-known backend reachability
func (s *ConnectionSupervisor) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

// Reset clears session state: discovered host, attempt budget, errors.
func (s *ConnectionSupervisor) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeHost = ""
	s.isRunning = false
	s.isStarting = false
	s.lastError = ""
	s.svcMetrics = types.StoppedMetrics("stopped")
	s.status = health.NewStatus()
	s.attempts = 0
	s.attemptWindow = time.Time{}
	s.budgetResetAt = time.Time{}
}

// StartBackend brings the backend up. A process can be alive but not yet
// accepting connections, so bridge liveness and HTTP health are checked
// separately. Returns success; failures land in the supervisor state, not
// an error.
func (s *ConnectionSupervisor) StartBackend(ctx context.Context) bool {
	s.mu.Lock()
	if s.isStarting {
		s.mu.Unlock()
		return false
	}
	s.isStarting = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isStarting = false
		s.mu.Unlock()
	}()

	logger := log.WithComponent("supervisor")

	alive, err := s.bridge.IsBackendRunning(ctx)
	if err == nil && alive {
		// Already alive: re-verify over HTTP and short-circuit.
		if s.CheckHealth(ctx) {
			logger.Info().Msg("backend already running and healthy")
			return true
		}
	}

	if _, err := s.bridge.StartBackend(ctx); err != nil {
		s.setError(fmt.Sprintf("Failed to start backend: %v", err))
		return false
	}

	if err := s.sleep(ctx, s.cfg.StartSettle); err != nil {
		s.setError("start cancelled")
		return false
	}

	if s.CheckHealth(ctx) {
		s.NoteSuccess()
		s.emit(events.EventBackendStarted, "Backend started")
		return true
	}

	// Health never came up: surface the most recent captured error, or
	// distinguish an exited process from one that is alive but deaf.
	errLogs := s.bridge.BackendErrorLogs()
	if len(errLogs) > 0 {
		s.setError(errLogs[len(errLogs)-1].Message)
	} else if alive, aerr := s.bridge.IsBackendRunning(ctx); aerr == nil && !alive {
		s.setError("backend process exited during startup")
	} else {
		s.setError("backend process is running but not responding to health checks")
	}
	return false
}

// StopBackend stops the backend. State flips to stopped immediately; the
// UI favors showing "stopped" over risking a stuck "running" indicator,
// so a failed bridge call is reported but the state is not rolled back.
func (s *ConnectionSupervisor) StopBackend(ctx context.Context) bool {
	s.mu.Lock()
	s.isRunning = false
	s.svcMetrics = types.StoppedMetrics("stopped")
	s.mu.Unlock()
	metrics.BackendUp.Set(0)

	if _, err := s.bridge.StopBackend(ctx); err != nil {
		s.setError(fmt.Sprintf("Failed to stop backend: %v", err))
		return false
	}

	s.clearError()
	s.emit(events.EventBackendStopped, "Backend stopped")
	return true
}

// RestartBackend restarts the backend and re-verifies health after a
// settle delay.
func (s *ConnectionSupervisor) RestartBackend(ctx context.Context) bool {
	if _, err := s.bridge.RestartBackend(ctx); err != nil {
		s.setError(fmt.Sprintf("Failed to restart backend: %v", err))
		return false
	}

	if err := s.sleep(ctx, s.cfg.RestartSettle); err != nil {
		s.setError("restart cancelled")
		return false
	}

	if s.CheckHealth(ctx) {
		now := s.now()
		s.mu.Lock()
		s.lastRestart = now
		s.startedUptime = now
		s.budgetResetAt = now.Add(s.cfg.StartupCooldown)
		s.mu.Unlock()

		if s.store != nil {
			if err := s.store.RecordRestart(now); err != nil {
				logger := log.WithComponent("supervisor")
				logger.Debug().Err(err).Msg("failed to persist restart")
			}
		}
		s.emit(events.EventBackendRestarted, "Backend restarted")
		return true
	}

	s.setError("restart failed")
	return false
}

func (s *ConnectionSupervisor) setError(msg string) {
	s.mu.Lock()
	s.lastError = msg
	s.mu.Unlock()

	logger := log.WithComponent("supervisor")
	logger.Error().Msg(msg)
}

func (s *ConnectionSupervisor) clearError() {
	s.mu.Lock()
	s.lastError = ""
	s.mu.Unlock()
}

func (s *ConnectionSupervisor) emit(eventType events.EventType, message string) {
	if s.broker != nil {
		s.broker.Emit(eventType, message)
	}
}

// sleepCtx waits for d or until ctx is done
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
