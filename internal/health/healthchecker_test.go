package health

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) HealthPing(ctx context.Context) error { return f(ctx) }

func TestPingCheckerTransitions(t *testing.T) {
	fail := true
	c := NewPingChecker("dep", pingFunc(func(ctx context.Context) error {
		if fail {
			return errors.New("down")
		}
		return nil
	}), zerolog.Nop(), time.Second)

	if c.IsHealthy() {
		t.Fatal("checker must start unhealthy")
	}

	ctx, cancel := context.WithCancel(context.Background())
	go c.Start(ctx, 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	if c.IsHealthy() {
		t.Fatal("expected unhealthy while pings fail")
	}

	fail = false
	time.Sleep(50 * time.Millisecond)
	if !c.IsHealthy() {
		t.Fatal("expected healthy after pings recover")
	}
	cancel()
}

type staticChecker struct {
	name    string
	healthy bool
}

func (s staticChecker) Name() string                                    { return s.name }
func (s staticChecker) IsHealthy() bool                                 { return s.healthy }
func (s staticChecker) Start(ctx context.Context, _ time.Duration)      {}

func TestServiceHealthAggregation(t *testing.T) {
	svc := NewServiceHealthChecker(zerolog.Nop(),
		staticChecker{name: "a", healthy: true},
		staticChecker{name: "b", healthy: false},
	)
	ctx, cancel := context.WithCancel(context.Background())
	go svc.Start(ctx, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	if svc.IsHealthy() {
		t.Fatal("one unhealthy dependency must mark the service down")
	}
	cancel()
}
