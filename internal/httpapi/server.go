// Package httpapi adapts the lock engine to the REST surface described
// by the external interface: GET/PUT/DELETE/PATCH on /locks and
// /holders, JSON bodies, HTTP Basic auth, and engine-error-to-status
// translation.
package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/aalhour/lockyard/internal/checksum"
	"github.com/aalhour/lockyard/internal/compression"
	"github.com/aalhour/lockyard/internal/lockengine"
	"github.com/aalhour/lockyard/internal/logging"
)

// Options configures a Server.
type Options struct {
	// Authentication, if non-empty, is the required "username:password"
	// HTTP Basic credential. Empty disables authentication.
	Authentication string

	// Logger receives one Infof access-log line per request, namespaced
	// "[httpapi] ". A nil Logger is replaced by logging.OrDefault's
	// WARN-level stderr logger, which drops the Infof access log but
	// keeps error lines.
	Logger logging.Logger
}

// Server is the HTTP adapter in front of a lockengine.Engine.
type Server struct {
	engine *lockengine.Engine
	auth   string
	logger logging.Logger
}

// NewServer creates a Server backed by engine.
func NewServer(engine *lockengine.Engine, opts Options) *Server {
	return &Server{
		engine: engine,
		auth:   opts.Authentication,
		logger: logging.OrDefault(opts.Logger),
	}
}

// Handler returns the fully wired http.Handler: routing wrapped with
// the auth and access-log middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/locks", s.handleLocksCollection)
	mux.HandleFunc("/locks/", s.handleLocksItem)
	mux.HandleFunc("/holders", s.handleHoldersCollection)
	mux.HandleFunc("/holders/", s.handleHoldersItem)

	return s.loggingMiddleware(s.authMiddleware(mux))
}

// ListenAndServe starts the HTTP adapter on addr (e.g. ":8000").
func (s *Server) ListenAndServe(addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	return srv.ListenAndServe()
}

// ListenAndServeTLS starts the HTTP adapter on addr serving TLS using
// certFile/keyFile, against the listening socket — TLS is always
// genuinely applied, never silently skipped.
func (s *Server) ListenAndServeTLS(addr, certFile, keyFile string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	return srv.ListenAndServeTLS(certFile, keyFile)
}

// authMiddleware enforces HTTP Basic authentication when Authentication
// is configured. It returns immediately on failure, before calling
// next — an unauthenticated request never reaches the handler.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.auth == "" {
			next.ServeHTTP(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		credential := user + ":" + pass
		if !ok || subtle.ConstantTimeCompare([]byte(credential), []byte(s.auth)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic, charset="UTF-8"`)
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware emits one access-log line per request.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.logger.Infof("[httpapi] %s %s %d %s", r.Method, r.URL.Path, sw.status, time.Since(start))
	})
}

// statusWriter captures the status code written through it, since
// http.ResponseWriter does not expose it after the fact.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// writeJSON writes a plain JSON response with no content negotiation;
// used for single-resource bodies that are small enough not to
// benefit from it (PUT/DELETE/PATCH responses, 404s on a single name).
func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"message":"internal error encoding response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeSnapshot writes a GET collection/item response with
// Accept-Encoding content negotiation and an XXH3 ETag supporting
// If-None-Match / 304.
func writeSnapshot(w http.ResponseWriter, r *http.Request, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal error encoding response")
		return
	}

	tag := checksum.ETag(data)
	w.Header().Set("ETag", tag)
	if checksum.Matches(r.Header.Get("If-None-Match"), tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}

	encoding := compression.Negotiate(r.Header.Get("Accept-Encoding"))
	if encoding != compression.Identity {
		compressed, err := compression.Compress(encoding, data)
		if err == nil {
			w.Header().Set("Content-Encoding", encoding.Token())
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write(compressed)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Message: message})
}

// errorStatus maps an engine error to its default HTTP status. PUT
// overrides the RepeatedAcquire case with idempotent-success handling
// rather than calling this for that case; see handleLocksAcquire.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, lockengine.ErrRepeatedAcquire):
		return http.StatusConflict
	case errors.Is(err, lockengine.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, lockengine.ErrTimeout):
		return http.StatusRequestTimeout
	case errors.Is(err, lockengine.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeEngineError(w http.ResponseWriter, err error) {
	status := errorStatus(err)
	if status == http.StatusInternalServerError {
		s.logger.Errorf("[httpapi] unexpected engine error: %+v", err)
	}
	writeError(w, status, err.Error())
}
