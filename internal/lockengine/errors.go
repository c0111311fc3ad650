package lockengine

import "errors"

// Sentinel error kinds. Engine errors wrap one of these with contextual
// detail via fmt.Errorf("...: %w", ...); callers should compare with
// errors.Is, not string matching.
var (
	// ErrRepeatedAcquire indicates the same (name, client) pair is
	// already queued on the lock.
	ErrRepeatedAcquire = errors.New("lockengine: repeated acquire")

	// ErrNotFound indicates the requested lock or client is absent.
	ErrNotFound = errors.New("lockengine: not found")

	// ErrTimeout indicates Acquire could not be granted within the
	// caller's timeout.
	ErrTimeout = errors.New("lockengine: acquire timed out")

	// ErrInvalidArgument indicates a programmer error, such as an
	// unrecognized LockType.
	ErrInvalidArgument = errors.New("lockengine: invalid argument")
)
