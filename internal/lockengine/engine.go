package lockengine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/aalhour/lockyard/internal/logging"
)

// EngineOptions configures an Engine.
type EngineOptions struct {
	// WakeupInterval is the poll period used by Acquire's wait loop.
	// Zero selects DefaultWakeupInterval.
	WakeupInterval time.Duration

	// Logger receives Debugf-level trace lines on enqueue, grant,
	// timeout, and priority change, namespaced "[lockengine] ". Defaults
	// to logging.Discard.
	Logger logging.Logger
}

// DefaultWakeupInterval is used when EngineOptions.WakeupInterval is zero.
const DefaultWakeupInterval = time.Second

// DefaultEngineOptions returns the default engine configuration.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		WakeupInterval: DefaultWakeupInterval,
		Logger:         logging.Discard,
	}
}

// Engine is the lock arbitration engine. All of its state is protected
// by a single process-wide mutex; the zero value is not usable, use
// NewEngine. An Engine is safe for concurrent use by multiple goroutines.
type Engine struct {
	mu sync.Mutex

	// requests[name] is sorted ascending by (Priority, RequestTimestamp,
	// LockType, Client).
	requests map[string][]LockRequest
	holders  map[string][]LockHold

	wakeupInterval time.Duration
	logger         logging.Logger
}

// NewEngine creates a new, empty Engine.
func NewEngine(opts EngineOptions) *Engine {
	if opts.WakeupInterval <= 0 {
		opts.WakeupInterval = DefaultWakeupInterval
	}
	if logging.IsNil(opts.Logger) {
		opts.Logger = logging.Discard
	}
	return &Engine{
		requests:       make(map[string][]LockRequest),
		holders:        make(map[string][]LockHold),
		wakeupInterval: opts.WakeupInterval,
		logger:         opts.Logger,
	}
}

// DefaultPriority is the priority AcquireWithDefaults requests with.
// Acquire itself never substitutes it: every priority passed to
// Acquire, including 0 (the highest precedence), is used as given.
const DefaultPriority = 2

// DefaultTimeout is the Acquire timeout used by AcquireWithDefaults.
const DefaultTimeout = time.Second

// AcquireWithDefaults calls Acquire with the defaults from spec.md §4.1:
// lockType=Exclusive, priority=2, timeout=1s.
func (e *Engine) AcquireWithDefaults(name, client string) (LockRequest, error) {
	return e.Acquire(name, client, Exclusive, DefaultPriority, DefaultTimeout)
}

// Acquire attempts to acquire lockType on name for client, at the given
// priority (lower value = higher priority), blocking until granted or
// until timeout elapses.
//
// Acquire proceeds in three phases:
//
//  1. Enqueue (atomic): fails with ErrRepeatedAcquire if (name, client)
//     is already queued; otherwise inserts a new LockRequest in sorted
//     order.
//  2. Wait: polls grantability at the engine's wakeup interval, without
//     holding the engine mutex between polls.
//  3. Grant or timeout: on grantability, appends a LockHold and returns;
//     on timeout, dequeues the request and returns ErrTimeout.
//
// There is no cancellation of an in-flight Acquire other than the
// timeout: once inside the wait phase, the caller returns only on
// grant or timeout.
func (e *Engine) Acquire(name, client string, lockType LockType, priority int, timeout time.Duration) (LockRequest, error) {
	if name == "" || client == "" {
		return LockRequest{}, fmt.Errorf("lockengine: acquire requires non-empty name and client: %w", ErrInvalidArgument)
	}
	if !lockType.Valid() {
		return LockRequest{}, fmt.Errorf("lockengine: unknown lock type %d: %w", lockType, ErrInvalidArgument)
	}

	if err := e.enqueue(name, client, lockType, priority); err != nil {
		return LockRequest{}, err
	}

	start := time.Now()
	for {
		if req, ok := e.tryGrant(name, client, lockType); ok {
			e.logger.Debugf("[lockengine] granted %s on %q to %q (priority=%d)", lockType, name, client, req.Priority)
			return req, nil
		}

		time.Sleep(e.wakeupInterval)

		if time.Since(start) >= timeout {
			e.dequeue(name, client)
			e.logger.Debugf("[lockengine] timeout for %q on %q after %s", client, name, timeout)
			return LockRequest{}, fmt.Errorf("lockengine: %s request on lock %q by client %q exceeded timeout of %s: %w", lockType, name, client, timeout, ErrTimeout)
		}
	}
}

// enqueue performs the atomic enqueue phase of Acquire.
func (e *Engine) enqueue(name, client string, lockType LockType, priority int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for _, req := range e.requests[name] {
		if req.Client == client {
			return fmt.Errorf("lockengine: acquire request on %q by %q already exists: %w", name, client, ErrRepeatedAcquire)
		}
	}

	req := LockRequest{
		Priority:         priority,
		RequestTimestamp: time.Now(),
		LockType:         lockType,
		Client:           client,
	}
	e.requests[name] = sortedInsertRequest(e.requests[name], req)
	e.logger.Debugf("[lockengine] enqueued %s request on %q by %q (priority=%d)", lockType, name, client, priority)
	return nil
}

// tryGrant checks grantability for client's queued request on name under
// the mutex, and if grantable, records the hold and returns the client's
// (possibly concurrently priority-modified) request.
func (e *Engine) tryGrant(name, client string, lockType LockType) (LockRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	reqs := e.requests[name]
	idx := findClientIndex(reqs, client)
	if idx < 0 {
		// Removed concurrently (should not happen absent a bug elsewhere);
		// nothing to grant.
		return LockRequest{}, false
	}

	switch lockType {
	case Exclusive:
		if len(e.holders[name]) == 0 && idx == 0 {
			break
		}
		return LockRequest{}, false
	case Shared:
		for _, h := range e.holders[name] {
			if h.LockType.Rank() < Shared.Rank() {
				return LockRequest{}, false
			}
		}
		for _, preceding := range reqs[:idx] {
			if preceding.LockType.Rank() < Shared.Rank() {
				return LockRequest{}, false
			}
		}
	default:
		return LockRequest{}, false
	}

	hold := LockHold{LockType: lockType, Client: client, AcquireTimestamp: time.Now()}
	e.holders[name] = sortedInsertHold(e.holders[name], hold)
	return reqs[idx], true
}

// dequeue removes client's entry from requests[name]. Used on Acquire
// timeout.
func (e *Engine) dequeue(name, client string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.requests[name], _ = removeClientRequest(e.requests[name], client)
}

// Release removes client's holder and queue entry for name.
//
// Errors are checked in order: ErrNotFound if the lock has no requests
// at all, if it has no holders, if client is not among the holders, or
// (defensively, should be unreachable) if client is not among the
// requests. Release is not idempotent: releasing twice yields
// ErrNotFound.
func (e *Engine) Release(name, client string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	requests, hasRequests := e.requests[name]
	if !hasRequests || len(requests) == 0 {
		return fmt.Errorf("lockengine: no lock of name %q found: %w", name, ErrNotFound)
	}

	holders := e.holders[name]
	if len(holders) == 0 {
		return fmt.Errorf("lockengine: lock %q does not exist or is not being held: %w", name, ErrNotFound)
	}

	newHolders, removed := removeClientHold(holders, client)
	if !removed {
		return fmt.Errorf("lockengine: client %q cannot release lock %q as it is not holding it: %w", client, name, ErrNotFound)
	}
	e.holders[name] = newHolders

	newRequests, removed := removeClientRequest(requests, client)
	if !removed {
		return fmt.Errorf("lockengine: no client %q against lock %q found: %w", client, name, ErrNotFound)
	}
	e.requests[name] = newRequests

	e.logger.Debugf("[lockengine] released %q by %q", name, client)
	return nil
}

// ModifyPriority atomically changes client's priority on name, refreshing
// its RequestTimestamp (a deliberate tie-break reset) and re-sorting its
// position in the queue. It returns the previous priority. Holders, if
// any, are unaffected — holding continues independent of queue position.
func (e *Engine) ModifyPriority(name, client string, newPriority int) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	requests, ok := e.requests[name]
	if !ok || len(requests) == 0 {
		return 0, fmt.Errorf("lockengine: no lock of name %q found: %w", name, ErrNotFound)
	}

	idx := findClientIndex(requests, client)
	if idx < 0 {
		return 0, fmt.Errorf("lockengine: no client of name %q found: %w", client, ErrNotFound)
	}

	old := requests[idx]
	remaining := make([]LockRequest, 0, len(requests)-1)
	remaining = append(remaining, requests[:idx]...)
	remaining = append(remaining, requests[idx+1:]...)

	updated := LockRequest{
		Priority:         newPriority,
		RequestTimestamp: time.Now(),
		LockType:         old.LockType,
		Client:           old.Client,
	}
	e.requests[name] = sortedInsertRequest(remaining, updated)

	e.logger.Debugf("[lockengine] priority change on %q for %q: %d -> %d", name, client, old.Priority, newPriority)
	return old.Priority, nil
}

// GetState returns a coherent, deep-copied, read-only snapshot of both
// the request queues and holder sets.
func (e *Engine) GetState() (requests map[string][]LockRequest, holders map[string][]LockHold) {
	e.mu.Lock()
	defer e.mu.Unlock()

	requests = make(map[string][]LockRequest, len(e.requests))
	for name, reqs := range e.requests {
		cp := make([]LockRequest, len(reqs))
		copy(cp, reqs)
		requests[name] = cp
	}

	holders = make(map[string][]LockHold, len(e.holders))
	for name, holds := range e.holders {
		cp := make([]LockHold, len(holds))
		copy(cp, holds)
		holders[name] = cp
	}

	return requests, holders
}

// GetLockRequests returns a defensive copy of requests[name], or
// (nil, false) if name is unknown.
func (e *Engine) GetLockRequests(name string) ([]LockRequest, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	reqs, ok := e.requests[name]
	if !ok {
		return nil, false
	}
	cp := make([]LockRequest, len(reqs))
	copy(cp, reqs)
	return cp, true
}

// GetLockHolders returns a defensive copy of holders[name], or
// (nil, false) if name is unknown among requests.
func (e *Engine) GetLockHolders(name string) ([]LockHold, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.requests[name]; !ok {
		return nil, false
	}
	holds := e.holders[name]
	cp := make([]LockHold, len(holds))
	copy(cp, holds)
	return cp, true
}

// sortedInsertRequest inserts req into a slice sorted by compareRequests,
// maintaining sort order.
func sortedInsertRequest(reqs []LockRequest, req LockRequest) []LockRequest {
	idx := sort.Search(len(reqs), func(i int) bool {
		return compareRequests(reqs[i], req) > 0
	})
	reqs = append(reqs, LockRequest{})
	copy(reqs[idx+1:], reqs[idx:])
	reqs[idx] = req
	return reqs
}

// sortedInsertHold inserts hold into a slice sorted by compareHolds.
func sortedInsertHold(holds []LockHold, hold LockHold) []LockHold {
	idx := sort.Search(len(holds), func(i int) bool {
		return compareHolds(holds[i], hold) > 0
	})
	holds = append(holds, LockHold{})
	copy(holds[idx+1:], holds[idx:])
	holds[idx] = hold
	return holds
}

// findClientIndex returns the index of client's entry in reqs, or -1.
func findClientIndex(reqs []LockRequest, client string) int {
	for i, req := range reqs {
		if req.Client == client {
			return i
		}
	}
	return -1
}

// removeClientRequest removes client's first (and, under the engine's
// uniqueness invariant, only) occurrence from reqs.
func removeClientRequest(reqs []LockRequest, client string) ([]LockRequest, bool) {
	idx := findClientIndex(reqs, client)
	if idx < 0 {
		return reqs, false
	}
	out := make([]LockRequest, 0, len(reqs)-1)
	out = append(out, reqs[:idx]...)
	out = append(out, reqs[idx+1:]...)
	return out, true
}

// removeClientHold removes client's first (and only) occurrence from holds.
func removeClientHold(holds []LockHold, client string) ([]LockHold, bool) {
	idx := -1
	for i, h := range holds {
		if h.Client == client {
			idx = i
			break
		}
	}
	if idx < 0 {
		return holds, false
	}
	out := make([]LockHold, 0, len(holds)-1)
	out = append(out, holds[:idx]...)
	out = append(out, holds[idx+1:]...)
	return out, true
}
