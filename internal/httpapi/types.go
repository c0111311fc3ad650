package httpapi

import (
	"time"

	"github.com/aalhour/lockyard/internal/lockengine"
)

// requestJSON is the wire representation of a lockengine.LockRequest.
type requestJSON struct {
	Priority         int    `json:"priority"`
	LockType         string `json:"lock_type"`
	RequestTimestamp string `json:"request_timestamp"`
	Client           string `json:"client"`
}

// holdJSON is the wire representation of a lockengine.LockHold.
type holdJSON struct {
	LockType         string `json:"lock_type"`
	Client           string `json:"client"`
	AcquireTimestamp string `json:"acquire_timestamp"`
}

func toRequestJSON(r lockengine.LockRequest) requestJSON {
	return requestJSON{
		Priority:         r.Priority,
		LockType:         r.LockType.String(),
		RequestTimestamp: r.RequestTimestamp.Format(time.RFC3339Nano),
		Client:           r.Client,
	}
}

func toHoldJSON(h lockengine.LockHold) holdJSON {
	return holdJSON{
		LockType:         h.LockType.String(),
		Client:           h.Client,
		AcquireTimestamp: h.AcquireTimestamp.Format(time.RFC3339Nano),
	}
}

func toRequestJSONSlice(reqs []lockengine.LockRequest) []requestJSON {
	out := make([]requestJSON, len(reqs))
	for i, r := range reqs {
		out[i] = toRequestJSON(r)
	}
	return out
}

func toHoldJSONSlice(holds []lockengine.LockHold) []holdJSON {
	out := make([]holdJSON, len(holds))
	for i, h := range holds {
		out[i] = toHoldJSON(h)
	}
	return out
}

// acquireRequest is the PUT /locks/{name}/{client} body.
//
// lock_type and type are accepted interchangeably. Priority and
// Timeout are pointers so a missing field is distinguishable from an
// explicit zero: a missing "priority" is rejected with 400 rather than
// treated as priority 0 (the highest-priority value), and "timeout" is
// only defaulted when the field is absent, never when it is explicitly 0.
type acquireRequest struct {
	Priority *int   `json:"priority"`
	Timeout  *int   `json:"timeout"`
	LockType string `json:"lock_type"`
	Type     string `json:"type"`
}

func (a acquireRequest) lockTypeToken() string {
	if a.LockType != "" {
		return a.LockType
	}
	return a.Type
}

// priorityChangeRequest is the PATCH /locks/{name}/{client} body.
// Priority is a pointer so a missing field can be rejected with 400
// instead of silently defaulting to priority 0.
type priorityChangeRequest struct {
	Priority *int `json:"priority"`
}

// priorityChangeResponse is the PATCH success body.
type priorityChangeResponse struct {
	OldPriority int    `json:"old_priority"`
	Message     string `json:"message"`
}

// messageResponse carries a human-readable status message, used for
// PUT's NOOP response and DELETE's success response.
type messageResponse struct {
	Message string `json:"message"`
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Message string `json:"message"`
}

// parseLockType maps a wire lock-type token to a lockengine.LockType.
// An empty or unrecognized token is rejected rather than defaulted to
// exclusive — a missing lock type is a client error, not a choice.
func parseLockType(token string) (lockengine.LockType, bool) {
	switch token {
	case "exclusive":
		return lockengine.Exclusive, true
	case "shared":
		return lockengine.Shared, true
	default:
		return 0, false
	}
}
