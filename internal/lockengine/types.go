// Package lockengine implements the in-memory lock arbitration engine:
// per-lock request queues, holder sets, priority-ordered admission, and
// the blocking acquire/release/modify-priority protocol.
package lockengine

import "time"

// LockType is a totally ordered lock mode. Rank determines compatibility:
// a request cannot be granted while any held or preceding-queued request
// has a strictly lower rank. Exclusive is the minimum rank; adding a
// finer-grained mode in the future is a matter of assigning it a rank
// between or above the existing ones.
type LockType int

const (
	// Exclusive is incompatible with any other concurrent holder.
	Exclusive LockType = iota
	// Shared is compatible with other Shared holders only.
	Shared
)

// Rank returns the numerical rank used for grantability comparisons.
// Lower rank wins: Exclusive < Shared.
func (t LockType) Rank() int {
	return int(t)
}

// String returns the wire/display name of the lock type.
func (t LockType) String() string {
	switch t {
	case Exclusive:
		return "exclusive"
	case Shared:
		return "shared"
	default:
		return "unknown"
	}
}

// Valid reports whether t is a recognized lock type.
func (t LockType) Valid() bool {
	return t == Exclusive || t == Shared
}

// LockRequest is a pending or active queue entry for one (lock name, client)
// pair. Requests are ordered ascending by (Priority, RequestTimestamp,
// LockType, Client) — lower priority value sorts first.
type LockRequest struct {
	Priority         int
	RequestTimestamp time.Time
	LockType         LockType
	Client           string
}

// LockHold is an active grant.
type LockHold struct {
	LockType         LockType
	Client           string
	AcquireTimestamp time.Time
}

// compareRequests implements the composite sort key (Priority,
// RequestTimestamp, LockType, Client) ascending. It returns a negative
// value if a sorts before b, zero if equal, positive otherwise.
func compareRequests(a, b LockRequest) int {
	if a.Priority != b.Priority {
		return a.Priority - b.Priority
	}
	if !a.RequestTimestamp.Equal(b.RequestTimestamp) {
		if a.RequestTimestamp.Before(b.RequestTimestamp) {
			return -1
		}
		return 1
	}
	if a.LockType != b.LockType {
		return a.LockType.Rank() - b.LockType.Rank()
	}
	if a.Client != b.Client {
		if a.Client < b.Client {
			return -1
		}
		return 1
	}
	return 0
}

// compareHolds orders holders by (LockType, Client, AcquireTimestamp),
// matching the ordering the reference implementation inserts holders
// under. Holder order is not load-bearing for any invariant, but a
// deterministic order keeps GetState snapshots stable for tests and
// clients diffing successive polls.
func compareHolds(a, b LockHold) int {
	if a.LockType != b.LockType {
		return a.LockType.Rank() - b.LockType.Rank()
	}
	if a.Client != b.Client {
		if a.Client < b.Client {
			return -1
		}
		return 1
	}
	if !a.AcquireTimestamp.Equal(b.AcquireTimestamp) {
		if a.AcquireTimestamp.Before(b.AcquireTimestamp) {
			return -1
		}
		return 1
	}
	return 0
}
