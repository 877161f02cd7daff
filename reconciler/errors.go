package reconciler

import (
	"errors"

	"github.com/jamesrr39/goutil/errorsx"
	"github.com/jamesrr39/ownmap-stylesync/refcount"
)

var (
	// ErrIDCollision: a declared ID equals a base ID or another declared ID
	ErrIDCollision = errors.New("id collision")
	// ErrNotFound: an anchor or lookup names a base layer or source that doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidOperation: a base resource was passed to an operation for declared resources
	ErrInvalidOperation = errors.New("invalid operation")
	ErrInvalidIndex     = errors.New("invalid index")
	// ErrStyleCorrupted is returned by a StyleManager after a native mutation failed part way through.
	ErrStyleCorrupted = errors.New("live style is in an unknown state after a failed native operation")

	// ErrPreconditionViolation is never returned, only panicked with. It means the caller's diff or the
	// manager's own bookkeeping is broken and reconciling can't safely continue.
	ErrPreconditionViolation = refcount.ErrPreconditionViolation
)

func panicPreconditionViolation(reason string, kvPairs ...interface{}) {
	panic(errorsx.Wrap(ErrPreconditionViolation, append([]interface{}{"reason", reason}, kvPairs...)...))
}

// IsValidationError reports whether err is one of the synchronous rejections of a mutation call.
// A mutation rejected this way has not changed any state.
func IsValidationError(err error) bool {
	switch errorsx.Cause(err) {
	case ErrIDCollision, ErrNotFound, ErrInvalidOperation, ErrInvalidIndex:
		return true
	default:
		return false
	}
}
