package server

import (
	"net/http"
	"strings"

	"datadesk/internal/app"
	"datadesk/pkg/domain"
)

type userSignupRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type orgSignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleUserSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.signupLimiter, "too many signup attempts") {
		return
	}
	var req userSignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.SignUpUser(req.Email, req.Name, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"user": user, "token": token})
}

func (s *Server) handleUserLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	user, token, err := s.app.LoginUser(req.Email, req.Password)
	if err != nil {
		// Do not leak whether the account exists.
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"user": user, "token": token})
}

func (s *Server) handleOrgSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.signupLimiter, "too many signup attempts") {
		return
	}
	var req orgSignupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	org, token, err := s.app.SignUpOrganization(req.Name, req.Email, req.Password)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"organization": org, "token": token})
}

func (s *Server) handleOrgLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	if !s.allowRate(w, r, s.loginLimiter, "too many login attempts") {
		return
	}
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	org, token, err := s.app.LoginOrganization(req.Email, req.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"organization": org, "token": token})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := s.app.Logout(token); err != nil {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "logged out"})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request, p app.Principal) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	if p.IsOrg() {
		org, err := s.app.CurrentOrganization(p)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"kind": "org", "organization": org})
		return
	}
	user, err := s.app.CurrentUser(p)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"kind": "user", "user": user})
}

func (s *Server) handleUsers(w http.ResponseWriter, r *http.Request, p app.Principal) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	users, err := s.app.ListUsers(p)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": users, "count": len(users)})
}

// /api/users/{id}
func (s *Server) handleUserByID(w http.ResponseWriter, r *http.Request, p app.Principal) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/users/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	user, err := s.app.GetUser(p, id)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (s *Server) handleOrganizations(w http.ResponseWriter, r *http.Request, p app.Principal) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	orgs, err := s.app.ListOrganizations(p)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": orgs, "count": len(orgs)})
}

type updateOrgRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (s *Server) handleOrg(w http.ResponseWriter, r *http.Request, p app.Principal) {
	switch r.Method {
	case http.MethodGet:
		org, err := s.app.CurrentOrganization(p)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, org)
	case http.MethodPut:
		var req updateOrgRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		org, err := s.app.UpdateOrganization(p, req.Name, req.Email)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, org)
	case http.MethodDelete:
		if err := s.app.DeleteOrganization(p); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleOrgMembers(w http.ResponseWriter, r *http.Request, p app.Principal) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	members, err := s.app.ListOrganizationMembers(p)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": members, "count": len(members)})
}

type createTeamRequest struct {
	Name string `json:"name"`
}

type teamMemberRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

func (s *Server) handleTeams(w http.ResponseWriter, r *http.Request, p app.Principal) {
	switch r.Method {
	case http.MethodPost:
		var req createTeamRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		team, err := s.app.CreateTeam(p, req.Name)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, team)
	case http.MethodGet:
		teams, err := s.app.ListTeams(p)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": teams, "count": len(teams)})
	default:
		methodNotAllowed(w)
	}
}

// /api/teams/{id}, /api/teams/{id}/members, /api/teams/{id}/members/{userID}
func (s *Server) handleTeamByID(w http.ResponseWriter, r *http.Request, p app.Principal) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/teams/")
	parts := strings.Split(rest, "/")
	id := parts[0]
	if id == "" {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	switch {
	case len(parts) == 1:
		s.handleTeam(w, r, p, id)
	case len(parts) == 2 && parts[1] == "members":
		s.handleTeamMembers(w, r, p, id)
	case len(parts) == 3 && parts[1] == "members" && parts[2] != "":
		s.handleTeamMember(w, r, p, id, parts[2])
	default:
		writeError(w, http.StatusNotFound, "not found")
	}
}

func (s *Server) handleTeam(w http.ResponseWriter, r *http.Request, p app.Principal, id string) {
	switch r.Method {
	case http.MethodGet:
		team, err := s.app.GetTeam(p, id)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, team)
	case http.MethodPut:
		var req createTeamRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		team, err := s.app.UpdateTeam(p, id, req.Name)
		if err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, team)
	case http.MethodDelete:
		if err := s.app.DeleteTeam(p, id); err != nil {
			writeAppError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) handleTeamMembers(w http.ResponseWriter, r *http.Request, p app.Principal, teamID string) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req teamMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	role := domain.TeamRole(strings.TrimSpace(req.Role))
	if role == "" {
		role = domain.RoleMember
	}
	if err := s.app.AddTeamMember(p, teamID, req.UserID, role); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "added"})
}

func (s *Server) handleTeamMember(w http.ResponseWriter, r *http.Request, p app.Principal, teamID, userID string) {
	if r.Method != http.MethodDelete {
		methodNotAllowed(w)
		return
	}
	if err := s.app.RemoveTeamMember(p, teamID, userID); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}
