package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

func TestStoreErr_KeepsKnownKinds(t *testing.T) {
	for _, kind := range knownKinds {
		err := storeErr("op", fmt.Errorf("driver: %w", kind))
		if !errors.Is(err, kind) {
			t.Fatalf("kind %v lost: %v", kind, err)
		}
		if kind != domain.ErrStoreUnavailable && errors.Is(err, domain.ErrStoreUnavailable) {
			t.Fatalf("kind %v was also tagged unavailable", kind)
		}
	}
}

func TestStoreErr_UnknownBecomesUnavailable(t *testing.T) {
	cause := errors.New("socket closed")
	err := storeErr("find workout", cause)
	if !errors.Is(err, domain.ErrStoreUnavailable) || !errors.Is(err, cause) {
		t.Fatalf("expected unavailable wrapping cause, got %v", err)
	}

	err = storeErr("find workout", context.DeadlineExceeded)
	if !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Fatalf("deadline: expected unavailable, got %v", err)
	}
}

func TestBoundedTimeout(t *testing.T) {
	if got := boundedTimeout(0); got != defaultStoreTimeout {
		t.Fatalf("zero: got %v", got)
	}
	if got := boundedTimeout(-time.Second); got != defaultStoreTimeout {
		t.Fatalf("negative: got %v", got)
	}
	if got := boundedTimeout(2 * time.Second); got != 2*time.Second {
		t.Fatalf("explicit: got %v", got)
	}
}
