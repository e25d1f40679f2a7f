package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fitlog/workout-tracker/internal/core/domain"
)

const defaultStoreTimeout = 5 * time.Second

// knownKinds are the error kinds a store may legitimately return.
var knownKinds = []error{
	domain.ErrWorkoutNotFound,
	domain.ErrUserNotFound,
	domain.ErrDuplicateKey,
	domain.ErrStoreUnavailable,
	domain.ErrUnauthorized,
	domain.ErrValidation,
}

// storeErr tags a store failure with its kind. Anything the store did not
// classify, including an expired deadline, is reported as unavailable.
func storeErr(op string, err error) error {
	for _, kind := range knownKinds {
		if errors.Is(err, kind) {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrStoreUnavailable, err)
}

// withStoreTimeout bounds a single store call.
func withStoreTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, boundedTimeout(d))
}

func boundedTimeout(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultStoreTimeout
	}
	return d
}
