package supervisor

import (
	"context"
	"fmt"
	"time"

	"github.com/syurodev/ztkapp-sub000/pkg/events"
	"github.com/syurodev/ztkapp-sub000/pkg/health"
	"github.com/syurodev/ztkapp-sub000/pkg/log"
	"github.com/syurodev/ztkapp-sub000/pkg/metrics"
	"github.com/syurodev/ztkapp-sub000/pkg/types"
)

// CheckHealth probes the backend status endpoint across candidate hosts
// with the configured retry rounds. Every candidate host is tried once
// per round before backing off. The first responsive host becomes the
// active host for subsequent calls. Never returns an error; failures are
// captured into supervisor state.
func (s *ConnectionSupervisor) CheckHealth(ctx context.Context) bool {
	return s.CheckHealthRetries(ctx, s.cfg.Retries, s.cfg.RetryDelay)
}

// CheckHealthRetries is CheckHealth with caller-specified retry rounds
// and initial backoff (grows 1.5x per round).
func (s *ConnectionSupervisor) CheckHealthRetries(ctx context.Context, retries int, delay time.Duration) bool {
	if retries < 1 {
		retries = 1
	}

	backoff := delay
	lastMessage := "no candidate hosts responded"

	for round := 0; round < retries; round++ {
		for _, host := range s.hostOrder() {
			result := s.probeHost(ctx, host)
			metrics.HealthCheckDuration.Observe(result.Duration.Seconds())

			if result.Healthy {
				s.adoptHost(host, result)
				return true
			}
			lastMessage = result.Message
		}

		if round < retries-1 {
			if err := s.sleep(ctx, backoff); err != nil {
				s.markDown("health check cancelled")
				return false
			}
			backoff = backoff * 3 / 2
		}
	}

	s.markDown(lastMessage)
	return false
}

// probeHost runs one status probe against a single host. A TCP pre-probe
// rejects hosts with no listener before paying for the HTTP round trip,
// which keeps rotation over dead loopback aliases fast.
func (s *ConnectionSupervisor) probeHost(ctx context.Context, host string) health.Result {
	probeCtx, cancel := context.WithTimeout(ctx, s.cfg.CheckTimeout)
	defer cancel()

	addr := fmt.Sprintf("%s:%d", host, s.cfg.Port)
	if result := health.NewTCPChecker(addr).WithTimeout(s.cfg.CheckTimeout).Check(probeCtx); !result.Healthy {
		return result
	}

	url := fmt.Sprintf("http://%s:%d/service/status", host, s.cfg.Port)
	return health.NewHTTPChecker(url).WithTimeout(s.cfg.CheckTimeout).Check(probeCtx)
}

// hostOrder returns candidate hosts with the sticky active host first
func (s *ConnectionSupervisor) hostOrder() []string {
	s.mu.Lock()
	active := s.activeHost
	s.mu.Unlock()

	if active == "" {
		return s.cfg.Hosts
	}

	order := make([]string, 0, len(s.cfg.Hosts))
	order = append(order, active)
	for _, host := range s.cfg.Hosts {
		if host != active {
			order = append(order, host)
		}
	}
	return order
}

// adoptHost records a successful probe: sticky host, running state,
// cleared error.
func (s *ConnectionSupervisor) adoptHost(host string, result health.Result) {
	s.mu.Lock()
	hostChanged := s.activeHost != host
	wasDown := !s.isRunning

	s.activeHost = host
	s.isRunning = true
	s.lastError = ""
	s.svcMetrics.Status = "running"
	s.status.Update(result, health.Config{Retries: s.cfg.Retries})
	s.mu.Unlock()

	metrics.BackendUp.Set(1)
	metrics.HealthChecksTotal.WithLabelValues("success").Inc()

	if hostChanged {
		metrics.ActiveHost.Reset()
		metrics.ActiveHost.WithLabelValues(host).Set(1)
		logger := log.WithHost(host)
		logger.Info().Msg("backend responsive, host adopted")
		if s.store != nil {
			if err := s.store.SavePreferredHost(host); err != nil {
				logger.Debug().Err(err).Msg("failed to persist host")
			}
		}
	}
	if wasDown {
		s.emit(events.EventBackendRecovered, "Backend reachable")
	}
}

// markDown records an exhausted health check
func (s *ConnectionSupervisor) markDown(message string) {
	s.mu.Lock()
	wasUp := s.isRunning

	s.isRunning = false
	s.lastError = message
	s.svcMetrics = types.StoppedMetrics("error")
	s.status.Update(health.Result{Healthy: false, Message: message}, health.Config{Retries: s.cfg.Retries})
	s.mu.Unlock()

	metrics.BackendUp.Set(0)
	metrics.HealthChecksTotal.WithLabelValues("failure").Inc()

	if wasUp {
		logger := log.WithComponent("supervisor")
		logger.Warn().Str("reason", message).Msg("backend unreachable")
		s.emit(events.EventBackendUnreachable, message)
	}
}
