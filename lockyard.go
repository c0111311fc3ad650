// Package lockyard re-exports the lock arbitration engine's public
// types and options. The engine implementation itself lives in
// internal/lockengine; only configuration and the types a caller
// embedding the engine directly needs are public here.
package lockyard

import "github.com/aalhour/lockyard/internal/lockengine"

// Lock type constants.
const (
	Exclusive = lockengine.Exclusive
	Shared    = lockengine.Shared
)

// LockType is the lock mode used by Engine.
type LockType = lockengine.LockType

// LockRequest is a pending or active queue entry.
type LockRequest = lockengine.LockRequest

// LockHold is an active grant.
type LockHold = lockengine.LockHold

// Engine is the lock arbitration engine.
type Engine = lockengine.Engine

// EngineOptions configures an Engine.
type EngineOptions = lockengine.EngineOptions

// NewEngine creates a new, empty Engine.
var NewEngine = lockengine.NewEngine

// DefaultEngineOptions returns the default engine configuration.
var DefaultEngineOptions = lockengine.DefaultEngineOptions

// Engine errors — re-exported from internal/lockengine for callers
// using errors.Is against the public API.
var (
	ErrRepeatedAcquire = lockengine.ErrRepeatedAcquire
	ErrNotFound        = lockengine.ErrNotFound
	ErrTimeout         = lockengine.ErrTimeout
	ErrInvalidArgument = lockengine.ErrInvalidArgument
)
