package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
)

var errBoom = errors.New("boom")

func fail() error { return errBoom }
func ok() error   { return nil }

type transition struct{ from, to State }

func newTestBreaker(clock clockwork.Clock, got *[]transition) *CircuitBreaker {
	return New(Config{
		FailureThreshold: 2,
		SuccessThreshold: 2,
		Timeout:          10 * time.Second,
		Component:        "weather_api",
		Clock:            clock,
		OnStateChange: func(component string, from, to State) {
			*got = append(*got, transition{from, to})
		},
	})
}

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	var transitions []transition
	cb := newTestBreaker(clockwork.NewFakeClock(), &transitions)
	ctx := context.Background()

	if err := cb.Call(ctx, fail); !errors.Is(err, errBoom) {
		t.Fatalf("Call() error = %v, want errBoom", err)
	}
	if cb.State() != StateClosed {
		t.Fatalf("state = %v after one failure, want closed", cb.State())
	}
	_ = cb.Call(ctx, fail)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v after threshold, want open", cb.State())
	}

	called := false
	err := cb.Call(ctx, func() error { called = true; return nil })
	if !errors.Is(err, ErrOpen) {
		t.Errorf("Call() error = %v, want ErrOpen", err)
	}
	if called {
		t.Error("fn called while circuit open")
	}
	if len(transitions) != 1 || transitions[0] != (transition{StateClosed, StateOpen}) {
		t.Errorf("transitions = %v, want [closed->open]", transitions)
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	var transitions []transition
	clock := clockwork.NewFakeClock()
	cb := newTestBreaker(clock, &transitions)
	ctx := context.Background()

	_ = cb.Call(ctx, fail)
	_ = cb.Call(ctx, fail)
	clock.Advance(11 * time.Second)

	if err := cb.Call(ctx, ok); err != nil {
		t.Fatalf("probe Call() error = %v", err)
	}
	if cb.State() != StateHalfOpen {
		t.Fatalf("state = %v after one probe success, want half_open", cb.State())
	}
	_ = cb.Call(ctx, ok)
	if cb.State() != StateClosed {
		t.Fatalf("state = %v after success threshold, want closed", cb.State())
	}

	want := []transition{{StateClosed, StateOpen}, {StateOpen, StateHalfOpen}, {StateHalfOpen, StateClosed}}
	if len(transitions) != len(want) {
		t.Fatalf("transitions = %v, want %v", transitions, want)
	}
	for i := range want {
		if transitions[i] != want[i] {
			t.Errorf("transition[%d] = %v, want %v", i, transitions[i], want[i])
		}
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	var transitions []transition
	clock := clockwork.NewFakeClock()
	cb := newTestBreaker(clock, &transitions)
	ctx := context.Background()

	_ = cb.Call(ctx, fail)
	_ = cb.Call(ctx, fail)
	clock.Advance(11 * time.Second)

	_ = cb.Call(ctx, fail)
	if cb.State() != StateOpen {
		t.Fatalf("state = %v after failed probe, want open", cb.State())
	}
	if err := cb.Call(ctx, ok); !errors.Is(err, ErrOpen) {
		t.Errorf("Call() error = %v, want ErrOpen until timeout elapses again", err)
	}
}

func TestCircuitBreaker_DoneContextSkipsCall(t *testing.T) {
	var transitions []transition
	cb := newTestBreaker(clockwork.NewFakeClock(), &transitions)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		if err := cb.Call(ctx, fail); !errors.Is(err, context.Canceled) {
			t.Fatalf("Call() error = %v, want context.Canceled", err)
		}
	}
	if cb.State() != StateClosed {
		t.Errorf("state = %v, want closed", cb.State())
	}
}

func TestState_String(t *testing.T) {
	tests := map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half_open",
		State(42):     "unknown",
	}
	for s, want := range tests {
		if got := s.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(s), got, want)
		}
	}
}
