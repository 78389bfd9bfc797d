package supervisor

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeClock drives the supervisor's injectable now func
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newBudgetSupervisor(clock *fakeClock) *ConnectionSupervisor {
	cfg := DefaultConfig()
	cfg.MaxStartupAttempts = 3
	cfg.StartupCooldown = 30 * time.Second

	s := New(cfg, &fakeBridge{}, nil, nil)
	s.now = clock.now
	s.sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return s
}

func TestGrantRestart_CeilingWithinCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := newBudgetSupervisor(clock)

	for i := 0; i < 3; i++ {
		assert.True(t, s.grantRestart(), "attempt %d should be granted", i+1)
		clock.advance(time.Second)
	}

	// Fourth failure inside the cooldown window is refused.
	assert.False(t, s.grantRestart())
}

func TestGrantRestart_ResetsAfterCooldown(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := newBudgetSupervisor(clock)

	for i := 0; i < 3; i++ {
		assert.True(t, s.grantRestart())
	}
	assert.False(t, s.grantRestart())

	clock.advance(31 * time.Second)
	assert.True(t, s.grantRestart())
}

func TestNoteSuccess_SchedulesBudgetReset(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := newBudgetSupervisor(clock)

	assert.True(t, s.grantRestart())
	assert.True(t, s.grantRestart())

	// A healthy response arrives; one cooldown later the budget is fresh.
	s.NoteSuccess()

	clock.advance(10 * time.Second)
	assert.True(t, s.grantRestart())  // third attempt, still within budget
	assert.False(t, s.grantRestart()) // ceiling

	clock.advance(25 * time.Second) // past the reset scheduled by NoteSuccess
	assert.True(t, s.grantRestart())
}

func TestNoteSuccess_NoopWithoutAttempts(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	s := newBudgetSupervisor(clock)

	s.NoteSuccess()

	s.mu.Lock()
	defer s.mu.Unlock()
	assert.True(t, s.budgetResetAt.IsZero())
}

func TestHandleNetworkFailure_ThrottlesAtCeiling(t *testing.T) {
	clock := &fakeClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}

	cfg := DefaultConfig()
	cfg.Hosts = []string{"127.0.0.1"}
	cfg.Port = unusedPort(t)
	cfg.Retries = 1
	cfg.CheckTimeout = 100 * time.Millisecond
	cfg.MaxStartupAttempts = 3
	cfg.StartupCooldown = 30 * time.Second

	s := New(cfg, &fakeBridge{}, nil, nil)
	s.now = clock.now
	s.sleep = func(ctx context.Context, d time.Duration) error { return nil }

	req, _ := http.NewRequest(http.MethodGet, "http://127.0.0.1/attendance/logs", nil)

	// Restarts fail (nothing is listening) so the budget never resets.
	for i := 0; i < 3; i++ {
		assert.True(t, s.HandleNetworkFailure(req), "failure %d should trigger a restart", i+1)
	}
	assert.False(t, s.HandleNetworkFailure(req), "budget should be exhausted")
}
