package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// TestDefaultPolicy verifies the baseline default values.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != BackoffExponential {
		t.Fatalf("expected exponential default mode got %s", p.Mode)
	}
	if p.Initial != 200*time.Millisecond || p.Max != 2*time.Second || p.MaxRetries != 2 {
		t.Fatalf("unexpected default policy %+v", p)
	}
	if err := p.Validate(); err != nil {
		t.Fatalf("default policy invalid: %v", err)
	}
}

// TestNewPolicyOverrides checks override precedence and clamping when initial > max.
func TestNewPolicyOverrides(t *testing.T) {
	p := NewPolicy(BackoffFixed, 5*time.Second, 2*time.Second, 5)
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != BackoffFixed || p.MaxRetries != 5 {
		t.Fatalf("unexpected policy %+v", p)
	}

	p = NewPolicy("bogus", 0, 0, -1)
	if p != DefaultPolicy() {
		t.Fatalf("expected defaults for unusable input, got %+v", p)
	}
}

func TestDelayModes(t *testing.T) {
	ms := time.Millisecond
	cases := []struct {
		policy  Policy
		attempt int
		want    time.Duration
	}{
		{NewPolicy(BackoffFixed, 100*ms, 500*ms, 3), 3, 100 * ms},
		{NewPolicy(BackoffLinear, 100*ms, 250*ms, 5), 1, 100 * ms},
		{NewPolicy(BackoffLinear, 100*ms, 250*ms, 5), 2, 200 * ms},
		{NewPolicy(BackoffLinear, 100*ms, 250*ms, 5), 3, 250 * ms},
		{NewPolicy(BackoffExponential, 50*ms, 160*ms, 5), 1, 50 * ms},
		{NewPolicy(BackoffExponential, 50*ms, 160*ms, 5), 2, 100 * ms},
		{NewPolicy(BackoffExponential, 50*ms, 160*ms, 5), 3, 160 * ms},
		{NewPolicy(BackoffExponential, 50*ms, 160*ms, 5), 64, 160 * ms},
		{DefaultPolicy(), 0, 0},
		{DefaultPolicy(), -3, 0},
	}
	for _, c := range cases {
		if got := c.policy.Delay(c.attempt); got != c.want {
			t.Fatalf("%s attempt %d expected %v got %v", c.policy.Mode, c.attempt, c.want, got)
		}
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 3)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got %v after %d calls", err, calls)
	}
}

func TestDoReturnsLastError(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Millisecond, time.Millisecond, 1)
	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("down")
	})
	if err == nil || err.Error() != "down" || calls != 2 {
		t.Fatalf("expected 2 calls ending in the last error, got %v after %d", err, calls)
	}
}

func TestDoStopsOnCancel(t *testing.T) {
	p := NewPolicy(BackoffFixed, time.Hour, time.Hour, 5)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return errors.New("down")
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected a single call after cancel, got %v after %d", err, calls)
	}
}
