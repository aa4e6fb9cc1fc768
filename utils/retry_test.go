package utils

import (
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	r := &Retry{MaxAttempts: 3, BaseDelay: time.Millisecond, Log: zerolog.Nop()}

	calls := 0
	err := r.Do("op", func() error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestRetryRecoversAfterFailures(t *testing.T) {
	r := &Retry{MaxAttempts: 3, BaseDelay: time.Millisecond, Log: zerolog.Nop()}

	calls := 0
	err := r.Do("op", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls: got %d, want 3", calls)
	}
}

func TestRetryExhaustsAttempts(t *testing.T) {
	r := &Retry{MaxAttempts: 2, BaseDelay: time.Millisecond, Log: zerolog.Nop()}

	permanent := errors.New("permanent")
	calls := 0
	err := r.Do("op", func() error {
		calls++
		return permanent
	})
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if !errors.Is(err, permanent) {
		t.Errorf("error should wrap the last failure: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls: got %d, want 2", calls)
	}
}
