package progress

import (
	"context"

	"github.com/example/badstu-booker/internal/internaltypes"
)

// Token is the cancellation handle of one attempt. Triggering is idempotent and safe
// from any goroutine; the first cause wins.
type Token struct {
	ctx    context.Context
	cancel context.CancelCauseFunc
}

// NewToken returns a token that also triggers when parent is done.
func NewToken(parent context.Context) *Token {
	ctx, cancel := context.WithCancelCause(parent)
	return &Token{ctx: ctx, cancel: cancel}
}

// Trigger cancels the attempt. A nil cause is recorded as ErrAborted.
func (t *Token) Trigger(cause error) {
	if cause == nil {
		cause = internaltypes.ErrAborted
	}
	t.cancel(cause)
}

func (t *Token) Triggered() bool {
	return t.ctx.Err() != nil
}

func (t *Token) Done() <-chan struct{} {
	return t.ctx.Done()
}

// Cause returns why the token triggered, or nil while it has not.
func (t *Token) Cause() error {
	return context.Cause(t.ctx)
}

// Context is cancelled when the token triggers. Drivers poll it between steps.
func (t *Token) Context() context.Context {
	return t.ctx
}
