package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func fastPolicy(attempts int) Policy {
	return Policy{Attempts: attempts, Base: time.Millisecond, Max: 2 * time.Millisecond}
}

func TestBackoffCapsAtMax(t *testing.T) {
	b := NewBackoff(time.Second, 5*time.Second)
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := b.Next(); got != w {
			t.Fatalf("step %d: got %v, want %v", i, got, w)
		}
	}
	b.Reset()
	if got := b.Next(); got != time.Second {
		t.Fatalf("after reset: got %v", got)
	}
}

func TestDoRetriesUntilSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), func(int) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestDoGivesUp(t *testing.T) {
	calls := 0
	sentinel := errors.New("down")
	err := Do(context.Background(), fastPolicy(2), func(int) error {
		calls++
		return sentinel
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want wrapped sentinel", err)
	}
	if calls != 2 {
		t.Fatalf("calls = %d, want 2", calls)
	}
}

func TestDoStopsOnPermanent(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(5), func(int) error {
		calls++
		return CheckStatus("https://x", 404)
	})
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != 404 {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}
}

func TestCheckStatus(t *testing.T) {
	if err := CheckStatus("u", 200); err != nil {
		t.Fatalf("200: %v", err)
	}
	for _, code := range []int{429, 500, 503} {
		err := CheckStatus("u", code)
		var perm permanent
		if err == nil || errors.As(err, &perm) {
			t.Fatalf("%d should be retryable, got %v", code, err)
		}
	}
}

func TestDoHonoursContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, Policy{Attempts: 3, Base: time.Hour, Max: time.Hour}, func(int) error {
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestByStatus(t *testing.T) {
	base := errors.New("boom")
	tests := []struct {
		code      int
		permanent bool
	}{
		{0, false},
		{429, false},
		{502, false},
		{400, true},
		{401, true},
		{404, true},
	}
	for _, tt := range tests {
		err := ByStatus(tt.code, base)
		var perm permanent
		if got := errors.As(err, &perm); got != tt.permanent {
			t.Errorf("ByStatus(%d) permanent = %v, want %v", tt.code, got, tt.permanent)
		}
		if !errors.Is(err, base) {
			t.Errorf("ByStatus(%d) lost the wrapped error", tt.code)
		}
	}
}
