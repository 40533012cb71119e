package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRegistry_AllHealthy(t *testing.T) {
	reg := NewRegistry("voxlate", "test")
	reg.Register(AlwaysHealthy("cache"))
	reg.Register(AlwaysHealthy("contexts"))

	report := reg.Check(context.Background())

	if report.Status != StatusHealthy {
		t.Errorf("Expected healthy status, got %s", report.Status)
	}
	if len(report.Checks) != 2 {
		t.Errorf("Expected 2 checks, got %d", len(report.Checks))
	}
}

func TestRegistry_DegradedProvider(t *testing.T) {
	reg := NewRegistry("voxlate", "test")
	reg.Register(AlwaysHealthy("cache"))
	reg.Register(ProviderCheck("deepl", func(ctx context.Context) error {
		return errors.New("connection refused")
	}))

	report := reg.Check(context.Background())

	if report.Status != StatusDegraded {
		t.Errorf("Expected degraded status, got %s", report.Status)
	}
}

func TestRegistry_UnhealthyWins(t *testing.T) {
	reg := NewRegistry("voxlate", "test")
	reg.Register(ProviderCheck("deepl", func(ctx context.Context) error {
		return errors.New("down")
	}))
	reg.RegisterFunc("store", func(ctx context.Context) CheckResult {
		return CheckResult{Status: StatusUnhealthy, Message: "broken"}
	})

	report := reg.Check(context.Background())

	if report.Status != StatusUnhealthy {
		t.Errorf("Expected unhealthy status, got %s", report.Status)
	}
}

func TestRegistry_Unregister(t *testing.T) {
	reg := NewRegistry("voxlate", "test")
	reg.Register(AlwaysHealthy("temp"))
	reg.Unregister("temp")

	report := reg.Check(context.Background())
	if len(report.Checks) != 0 {
		t.Errorf("Expected 0 checks after unregister, got %d", len(report.Checks))
	}
}

func TestProviderCheck_Healthy(t *testing.T) {
	checker := ProviderCheck("google", func(ctx context.Context) error { return nil })

	result := checker.Check(context.Background())
	if result.Status != StatusHealthy {
		t.Errorf("Expected healthy, got %s", result.Status)
	}
}

func TestCheckWithTimeout(t *testing.T) {
	reg := NewRegistry("voxlate", "test")
	reg.RegisterFunc("slow", func(ctx context.Context) CheckResult {
		select {
		case <-ctx.Done():
			return CheckResult{Status: StatusUnhealthy, Message: "timed out"}
		case <-time.After(50 * time.Millisecond):
			return CheckResult{Status: StatusHealthy}
		}
	})

	report := reg.CheckWithTimeout(time.Second)
	if report.Status != StatusHealthy {
		t.Errorf("Expected healthy within timeout, got %s", report.Status)
	}
}
