package supervisor

import (
	"context"
	"net/http"
	"time"

	"github.com/syurodev/ztkapp-sub000/pkg/log"
	"github.com/syurodev/ztkapp-sub000/pkg/metrics"
)

// HandleNetworkFailure implements client.Restarter. Called by the
// transport when a non-health request hits a network-class failure: if
// the session attempt budget allows, the backend is restarted and the
// caller retries the original request exactly once. Concurrent failing
// requests each draw on the same budget.
func (s *ConnectionSupervisor) HandleNetworkFailure(req *http.Request) bool {
	if !s.grantRestart() {
		metrics.RestartsThrottledTotal.Inc()
		logger := log.WithComponent("supervisor")
		logger.Warn().
			Str("url", req.URL.String()).
			Msg("restart budget exhausted, passing failure through")
		return false
	}

	metrics.RestartAttemptsTotal.WithLabelValues("auto").Inc()

	// The originating request's context may already be near its
	// deadline; the restart gets its own bounded one.
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RestartSettle+s.cfg.CheckTimeout*4)
	defer cancel()

	s.RestartBackend(ctx)

	// Retry regardless of the restart outcome: if the backend is still
	// down the retry fails and the next failure draws the budget again.
	return true
}

// NoteSuccess implements client.Restarter. Any successful response
// schedules an attempt-budget reset one cooldown later.
func (s *ConnectionSupervisor) NoteSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.attempts > 0 && s.budgetResetAt.IsZero() {
		s.budgetResetAt = s.now().Add(s.cfg.StartupCooldown)
	}
}

// grantRestart checks and consumes one automatic restart attempt
func (s *ConnectionSupervisor) grantRestart() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	// Scheduled reset after a success or successful restart.
	if !s.budgetResetAt.IsZero() && now.After(s.budgetResetAt) {
		s.attempts = 0
		s.budgetResetAt = time.Time{}
	}

	// A cooldown window elapsing since the first attempt also frees the budget.
	if s.attempts > 0 && now.Sub(s.attemptWindow) >= s.cfg.StartupCooldown {
		s.attempts = 0
	}

	if s.attempts >= s.cfg.MaxStartupAttempts {
		return false
	}

	if s.attempts == 0 {
		s.attemptWindow = now
	}
	s.attempts++
	return true
}
