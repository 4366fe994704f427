package persistence

import (
	"errors"
	"fmt"
)

// ReconciliationError reports a create call the backing store rejected for a
// reason other than "already exists identically", identifying the failing
// spec. The reconciler aborts remaining creates on the first such failure and
// never retries.
type ReconciliationError struct {
	Collection string
	Index      string
	Err        error
}

func (e *ReconciliationError) Error() string {
	return fmt.Sprintf("failed to reconcile index %q on collection %q: %v", e.Index, e.Collection, e.Err)
}

func (e *ReconciliationError) Unwrap() error { return e.Err }

// DuplicateKeyError is produced by interactors when the backing store rejects
// a write because a value combination collides with a unique index. Callers
// branch on it via IsDuplicateKey instead of treating it as a generic
// persistence failure.
type DuplicateKeyError struct {
	Collection string
	Err        error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key in collection %q: %v", e.Collection, e.Err)
}

func (e *DuplicateKeyError) Unwrap() error { return e.Err }

// IsDuplicateKey reports whether err was caused by a unique index violation.
func IsDuplicateKey(err error) bool {
	var dup *DuplicateKeyError
	return errors.As(err, &dup)
}
