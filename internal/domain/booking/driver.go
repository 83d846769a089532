package booking

import "context"

// SecretChecker validates the shared secret gating every order attempt.
type SecretChecker interface {
	Check(secret string) bool
}

// Emitter is where a driver reports progress for one attempt.
type Emitter interface {
	// Log emits a human readable line.
	Log(format string, args ...any)
	// Status emits a status transition.
	Status(s OrderStatus)
	// Abort cancels the attempt. Later emits are dropped.
	Abort(cause error)
}

// Driver is a booking strategy. Open acquires whatever one attempt needs (a browser for
// the real site, nothing for the mock); the caller owns the returned Session.
type Driver interface {
	Name() string
	Open(ctx context.Context, req OrderRequest) (Session, error)
}

// Session performs one attempt. Drive must check ctx between remote interactions and stop
// once it is done. Close releases the session resources.
type Session interface {
	Drive(ctx context.Context, req OrderRequest, emit Emitter) error
	Close() error
}
