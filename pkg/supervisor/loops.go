package supervisor

import (
	"context"
	"time"

	"github.com/syurodev/ztkapp-sub000/pkg/log"
	"github.com/syurodev/ztkapp-sub000/pkg/metrics"
)

// Start launches the periodic loops: a recurring health check for the
// lifetime of the session, started after a short grace delay to avoid
// false negatives right after app launch, and a metrics refresh that only
// runs while the backend is last-known-running.
func (s *ConnectionSupervisor) Start() {
	s.loopsStartedMu.Lock()
	defer s.loopsStartedMu.Unlock()
	if s.loopsStarted {
		return
	}
	s.loopsStarted = true

	go s.healthLoop()
	go s.metricsLoop()
}

// Stop terminates the periodic loops
func (s *ConnectionSupervisor) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
}

func (s *ConnectionSupervisor) healthLoop() {
	select {
	case <-time.After(s.cfg.StartupGrace):
	case <-s.stopCh:
		return
	}

	// First check immediately after the grace delay.
	s.runPeriodicCheck()

	ticker := time.NewTicker(s.cfg.HealthInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runPeriodicCheck()
		case <-s.stopCh:
			return
		}
	}
}

func (s *ConnectionSupervisor) runPeriodicCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.HealthInterval)
	defer cancel()
	s.CheckHealth(ctx)
}

func (s *ConnectionSupervisor) metricsLoop() {
	ticker := time.NewTicker(s.cfg.MetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.refreshMetrics()
		case <-s.stopCh:
			return
		}
	}
}

// refreshMetrics pulls a fresh resource snapshot. Skipped entirely while
// not running; failures are best-effort and never surface as errors.
func (s *ConnectionSupervisor) refreshMetrics() {
	s.mu.Lock()
	running := s.isRunning
	c := s.client
	s.mu.Unlock()

	if !running || c == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.MetricsInterval)
	defer cancel()

	snapshot, err := c.ServiceMetrics(ctx)
	if err != nil {
		logger := log.WithComponent("supervisor")
		logger.Debug().Err(err).Msg("metrics refresh failed")
		return
	}

	s.mu.Lock()
	s.svcMetrics = *snapshot
	s.svcMetrics.Status = "running"
	s.mu.Unlock()

	metrics.BackendMemoryMB.Set(snapshot.MemoryUsage)
	metrics.BackendCPUPercent.Set(snapshot.CPUPercent)
}
