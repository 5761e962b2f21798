package rabbit

import (
	"context"
	"errors"
	"time"

	"github.com/Temutjin2k/taximeter/internal/domain/types"
)

// isRecoverableError returns true if the delivery must be requeued
func isRecoverableError(err error) bool {
	return oneOf(err, types.ErrCoordinatorOff, context.Canceled, context.DeadlineExceeded)
}

func oneOf(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

func retry(n int, sleep time.Duration, fn func() error) error {
	var err error
	for i := range n {
		if err = fn(); err == nil {
			return nil
		}
		if i < n-1 {
			time.Sleep(sleep)
		}
	}
	return err
}
