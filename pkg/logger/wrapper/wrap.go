package wrap

import (
	"context"
	"errors"
)

// Error wraps err with the current LogCtx from the context.
// When err already carries a LogCtx the newest context wins.
func Error(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	c := LogCtx{}
	var e *errorWithLogCtx
	if errors.As(err, &e) {
		c = e.logCtx
	}
	if x, ok := ctx.Value(LogCtxKey).(LogCtx); ok {
		c = x
	}

	return &errorWithLogCtx{
		err:    err,
		logCtx: c,
	}
}
