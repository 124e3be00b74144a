package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"datadesk/internal/app"
	"datadesk/internal/ratelimit"
	"datadesk/internal/util"
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App                      *app.App
	MaxUploadBytes           int64
	RedisAddr                string
	RedisPassword            string
	SignupRateLimitPerMinute int
	LoginRateLimitPerMinute  int
	ReplyRateLimitPerMinute  int
}

// Server exposes the HTTP API.
type Server struct {
	app            *app.App
	mux            *http.ServeMux
	maxUploadBytes int64
	signupLimiter  *ratelimit.FixedWindowLimiter
	loginLimiter   *ratelimit.FixedWindowLimiter
	replyLimiter   *ratelimit.FixedWindowLimiter
}

// New constructs the server with routes configured. Rate limiting is active
// only when a Redis address is provided.
func New(cfg Config) (*Server, error) {
	maxUploadBytes := cfg.MaxUploadBytes
	if maxUploadBytes <= 0 {
		maxUploadBytes = 50 * 1024 * 1024
	}
	s := &Server{
		app:            cfg.App,
		mux:            http.NewServeMux(),
		maxUploadBytes: maxUploadBytes,
	}
	if strings.TrimSpace(cfg.RedisAddr) != "" {
		newLimiter := func(name string, limit, fallback int) (*ratelimit.FixedWindowLimiter, error) {
			if limit <= 0 {
				limit = fallback
			}
			prefix := "datadesk:ratelimit:" + name
			limiter, err := ratelimit.NewRedisFixedWindowLimiter(cfg.RedisAddr, cfg.RedisPassword, prefix, limit, time.Minute)
			if err != nil {
				return nil, fmt.Errorf("init %s limiter: %w", name, err)
			}
			return limiter, nil
		}
		var err error
		if s.signupLimiter, err = newLimiter("signup", cfg.SignupRateLimitPerMinute, 5); err != nil {
			return nil, err
		}
		if s.loginLimiter, err = newLimiter("login", cfg.LoginRateLimitPerMinute, 10); err != nil {
			return nil, err
		}
		if s.replyLimiter, err = newLimiter("reply", cfg.ReplyRateLimitPerMinute, 20); err != nil {
			return nil, err
		}
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog("api", util.WithSecurityHeaders(util.WithCORS(s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/signup", s.handleUserSignup)
	s.mux.HandleFunc("/api/auth/login", s.handleUserLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.HandleFunc("/api/org/signup", s.handleOrgSignup)
	s.mux.HandleFunc("/api/org/login", s.handleOrgLogin)
	s.mux.Handle("/api/me", s.withPrincipal(s.handleMe))

	// tenancy
	s.mux.Handle("/api/users", s.withPrincipal(s.handleUsers))
	s.mux.Handle("/api/users/", s.withPrincipal(s.handleUserByID))
	s.mux.Handle("/api/organizations", s.withPrincipal(s.handleOrganizations))
	s.mux.Handle("/api/org", s.withPrincipal(s.handleOrg))
	s.mux.Handle("/api/org/members", s.withPrincipal(s.handleOrgMembers))
	s.mux.Handle("/api/teams", s.withPrincipal(s.handleTeams))
	s.mux.Handle("/api/teams/", s.withPrincipal(s.handleTeamByID))
	s.mux.Handle("/api/projects", s.withPrincipal(s.handleProjects))
	s.mux.Handle("/api/projects/", s.withPrincipal(s.handleProjectByID))

	// chat
	s.mux.Handle("/api/chat", s.withPrincipal(s.handleChatMessage))
	s.mux.Handle("/api/chat/ai", s.withPrincipal(s.handleChatReply))
	s.mux.Handle("/api/chat/create", s.withPrincipal(s.handleChatCreate))
	s.mux.Handle("/api/chat/rename", s.withPrincipal(s.handleChatRename))
	s.mux.Handle("/api/chat/", s.withPrincipal(s.handleChatHistory))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type principalHandler func(http.ResponseWriter, *http.Request, app.Principal)

func (s *Server) withPrincipal(next principalHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		principal, ok, err := s.app.ResolvePrincipal(token)
		if err != nil || !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, principal)
	})
}

func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter *ratelimit.FixedWindowLimiter, msg string) bool {
	if limiter == nil {
		return true
	}
	key := r.URL.Path + "|" + util.ClientIP(r, nil)
	if limiter.Allow(key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

// writeAppError maps application sentinels onto HTTP statuses.
func writeAppError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, app.ErrUnsupportedFileType):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, app.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, app.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, app.ErrNoPendingMessage):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, app.ErrUpstream):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{
		Error:     msg,
		Code:      errorCode(status, msg),
		RequestID: strings.TrimSpace(w.Header().Get("X-Request-Id")),
	})
}

func errorCode(status int, msg string) string {
	message := strings.ToLower(strings.TrimSpace(msg))
	switch {
	case strings.Contains(message, "unsupported file type"):
		return "UNSUPPORTED_FILE_TYPE"
	case strings.Contains(message, "no pending message"):
		return "NO_PENDING_MESSAGE"
	case message == "unauthorized":
		return "AUTH_INVALID_TOKEN"
	}
	switch status {
	case http.StatusBadRequest:
		return "VALIDATION_FAILED"
	case http.StatusUnauthorized:
		return "AUTH_INVALID_TOKEN"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "SYSTEM_METHOD_NOT_ALLOWED"
	case http.StatusConflict:
		return "CONFLICT"
	case http.StatusTooManyRequests:
		return "RATE_LIMITED"
	case http.StatusBadGateway:
		return "UPSTREAM_FAILURE"
	default:
		if status >= http.StatusInternalServerError {
			return "SYSTEM_INTERNAL_ERROR"
		}
		return "REQUEST_ERROR"
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func decodeJSON(r *http.Request, dst any) error {
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(dst)
}
