package health

import (
	"context"
	"net"
	"testing"
	"time"
)

func TestTCPChecker_OpenPort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	defer l.Close()

	checker := NewTCPChecker(l.Addr().String())

	result := checker.Check(context.Background())

	if !result.Healthy {
		t.Errorf("Expected healthy for open port, got: %s", result.Message)
	}
}

func TestTCPChecker_ClosedPort(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Failed to listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()

	checker := NewTCPChecker(addr).WithTimeout(time.Second)

	result := checker.Check(context.Background())

	if result.Healthy {
		t.Error("Expected unhealthy for closed port")
	}
}

func TestStatus_Transitions(t *testing.T) {
	status := NewStatus()
	config := DefaultConfig()

	if !status.Healthy {
		t.Error("New status should assume healthy")
	}

	// Failures below the retry threshold keep the healthy flag.
	for i := 0; i < config.Retries-1; i++ {
		status.Update(Result{Healthy: false, CheckedAt: time.Now()}, config)
	}
	if !status.Healthy {
		t.Error("Should stay healthy below the retry threshold")
	}

	status.Update(Result{Healthy: false, CheckedAt: time.Now()}, config)
	if status.Healthy {
		t.Error("Should be unhealthy at the retry threshold")
	}

	// One success recovers immediately.
	status.Update(Result{Healthy: true, CheckedAt: time.Now()}, config)
	if !status.Healthy {
		t.Error("Should recover after one success")
	}
	if status.ConsecutiveFailures != 0 {
		t.Errorf("Expected failures reset, got %d", status.ConsecutiveFailures)
	}
}
