package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aalhour/lockyard/internal/lockengine"
)

// defaultTimeoutSeconds is PUT's default acquire timeout per spec.md §6
// ("timeout:int=10").
const defaultTimeoutSeconds = 10

// handleLocksCollection serves GET /locks: every lock name's full
// request queue.
func (s *Server) handleLocksCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	requests, _ := s.engine.GetState()
	out := make(map[string][]requestJSON, len(requests))
	for name, reqs := range requests {
		out[name] = toRequestJSONSlice(reqs)
	}
	writeSnapshot(w, r, out)
}

// handleHoldersCollection serves GET /holders: every lock name's full
// holder set.
func (s *Server) handleHoldersCollection(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	_, holders := s.engine.GetState()
	out := make(map[string][]holdJSON, len(holders))
	for name, holds := range holders {
		out[name] = toHoldJSONSlice(holds)
	}
	writeSnapshot(w, r, out)
}

// handleLocksItem serves GET/PUT/DELETE/PATCH /locks/{name} and
// /locks/{name}/{client}.
func (s *Server) handleLocksItem(w http.ResponseWriter, r *http.Request) {
	segments, err := pathSegments(r.URL.EscapedPath(), "/locks/")
	if err != nil {
		writeError(w, http.StatusBadRequest, "malformed path")
		return
	}

	switch len(segments) {
	case 1:
		if r.Method != http.MethodGet {
			writeError(w, http.StatusNotFound, "not found")
			return
		}
		s.handleLocksGetOne(w, r, segments[0])

	case 2:
		name, client := segments[0], segments[1]
		switch r.Method {
		case http.MethodPut:
			s.handleLocksAcquire(w, r, name, client)
		case http.MethodDelete:
			s.handleLocksRelease(w, name, client)
		case http.MethodPatch:
			s.handleLocksModifyPriority(w, r, name, client)
		default:
			writeError(w, http.StatusNotFound, "not found")
		}

	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

// handleHoldersItem serves GET /holders/{name}.
func (s *Server) handleHoldersItem(w http.ResponseWriter, r *http.Request) {
	segments, err := pathSegments(r.URL.EscapedPath(), "/holders/")
	if err != nil || len(segments) != 1 {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	_, holders := s.engine.GetState()
	holds, ok := holders[segments[0]]
	if !ok {
		writeError(w, http.StatusNotFound, "lock not found")
		return
	}
	writeSnapshot(w, r, toHoldJSONSlice(holds))
}

func (s *Server) handleLocksGetOne(w http.ResponseWriter, r *http.Request, name string) {
	reqs, ok := s.engine.GetLockRequests(name)
	if !ok {
		writeError(w, http.StatusNotFound, "lock not found")
		return
	}
	writeSnapshot(w, r, toRequestJSONSlice(reqs))
}

// handleLocksAcquire serves PUT /locks/{name}/{client}.
//
// RepeatedAcquire is treated as idempotent success (200, NOOP) rather
// than the usual 409 — a PUT retried by a client unsure whether its
// prior attempt landed should never be punished for retrying.
func (s *Server) handleLocksAcquire(w http.ResponseWriter, r *http.Request, name, client string) {
	var body acquireRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	if body.Priority == nil {
		writeError(w, http.StatusBadRequest, "priority is required")
		return
	}

	lockType, ok := parseLockType(body.lockTypeToken())
	if !ok {
		writeError(w, http.StatusBadRequest, "unknown lock_type")
		return
	}

	timeoutSeconds := defaultTimeoutSeconds
	if body.Timeout != nil {
		timeoutSeconds = *body.Timeout
	}

	_, err := s.engine.Acquire(name, client, lockType, *body.Priority, time.Duration(timeoutSeconds)*time.Second)
	if err != nil {
		if errors.Is(err, lockengine.ErrRepeatedAcquire) {
			writeJSON(w, http.StatusOK, messageResponse{Message: "NOOP: acquire already in progress for this client"})
			return
		}
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, messageResponse{Message: "lock acquired"})
}

// handleLocksRelease serves DELETE /locks/{name}/{client}.
func (s *Server) handleLocksRelease(w http.ResponseWriter, name, client string) {
	if err := s.engine.Release(name, client); err != nil {
		s.writeEngineError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "lock released"})
}

// handleLocksModifyPriority serves PATCH /locks/{name}/{client}.
func (s *Server) handleLocksModifyPriority(w http.ResponseWriter, r *http.Request, name, client string) {
	var body priorityChangeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if body.Priority == nil {
		writeError(w, http.StatusBadRequest, "priority is required")
		return
	}

	old, err := s.engine.ModifyPriority(name, client, *body.Priority)
	if err != nil {
		s.writeEngineError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, priorityChangeResponse{
		OldPriority: old,
		Message:     "priority updated",
	})
}

// pathSegments splits the path remainder after prefix into
// percent-decoded, non-empty segments.
func pathSegments(path, prefix string) ([]string, error) {
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" {
		return nil, nil
	}
	parts := strings.Split(rest, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		decoded, err := url.PathUnescape(p)
		if err != nil {
			return nil, err
		}
		out = append(out, decoded)
	}
	return out, nil
}
