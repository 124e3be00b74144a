package app

import (
	"fmt"
	"strings"
	"time"

	"datadesk/internal/util"
	"datadesk/pkg/auth"
	"datadesk/pkg/domain"
)

// Principal identifies the authenticated caller of a request.
type Principal struct {
	Kind string // "user" or "org"
	ID   string
}

// IsOrg reports whether the principal is an organization account.
func (p Principal) IsOrg() bool { return p.Kind == "org" }

// Subject encodes the principal for session storage.
func (p Principal) Subject() string { return p.Kind + ":" + p.ID }

// ParseSubject decodes a session subject back into a principal.
func ParseSubject(subject string) (Principal, bool) {
	kind, id, ok := strings.Cut(subject, ":")
	if !ok || id == "" {
		return Principal{}, false
	}
	switch kind {
	case "user", "org":
		return Principal{Kind: kind, ID: id}, true
	}
	return Principal{}, false
}

// SignUpUser registers a new user and issues a session token.
func (a *App) SignUpUser(email, name, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if email == "" || password == "" {
		return domain.User{}, "", fmt.Errorf("%w: email and password required", ErrValidation)
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.User{}, "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	exists, err := a.store.HasUserEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.User{}, "", fmt.Errorf("%w: email already registered", ErrValidation)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	user := domain.User{
		ID:           util.NewID(),
		Email:        email,
		Name:         name,
		PasswordHash: hash,
		Status:       domain.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveUser(user); err != nil {
		return domain.User{}, "", fmt.Errorf("save user: %w", err)
	}
	token, err := a.sessions.NewSession(Principal{Kind: "user", ID: user.ID}.Subject())
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// LoginUser authenticates a user by email and password.
func (a *App) LoginUser(email, password string) (domain.User, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	user, ok, err := a.store.GetUserByEmail(email)
	if err != nil {
		return domain.User{}, "", fmt.Errorf("load user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, "", fmt.Errorf("%w: invalid credentials", ErrForbidden)
	}
	if user.Status != domain.StatusActive {
		return domain.User{}, "", fmt.Errorf("%w: account disabled", ErrForbidden)
	}
	token, err := a.sessions.NewSession(Principal{Kind: "user", ID: user.ID}.Subject())
	if err != nil {
		return domain.User{}, "", fmt.Errorf("issue session: %w", err)
	}
	return user, token, nil
}

// SignUpOrganization registers a new organization account and issues a session token.
func (a *App) SignUpOrganization(name, email, password string) (domain.Organization, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	name = strings.TrimSpace(name)
	if name == "" || email == "" || password == "" {
		return domain.Organization{}, "", fmt.Errorf("%w: name, email and password required", ErrValidation)
	}
	if err := auth.ValidatePassword(password); err != nil {
		return domain.Organization{}, "", fmt.Errorf("%w: %v", ErrValidation, err)
	}
	exists, err := a.store.HasOrganizationEmail(email)
	if err != nil {
		return domain.Organization{}, "", fmt.Errorf("check email: %w", err)
	}
	if exists {
		return domain.Organization{}, "", fmt.Errorf("%w: email already registered", ErrValidation)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Organization{}, "", fmt.Errorf("hash password: %w", err)
	}
	now := time.Now().UTC()
	org := domain.Organization{
		ID:           util.NewID(),
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := a.store.SaveOrganization(org); err != nil {
		return domain.Organization{}, "", fmt.Errorf("save organization: %w", err)
	}
	token, err := a.sessions.NewSession(Principal{Kind: "org", ID: org.ID}.Subject())
	if err != nil {
		return domain.Organization{}, "", fmt.Errorf("issue session: %w", err)
	}
	return org, token, nil
}

// LoginOrganization authenticates an organization account.
func (a *App) LoginOrganization(email, password string) (domain.Organization, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	org, ok, err := a.store.GetOrganizationByEmail(email)
	if err != nil {
		return domain.Organization{}, "", fmt.Errorf("load organization: %w", err)
	}
	if !ok || !auth.CheckPassword(password, org.PasswordHash) {
		return domain.Organization{}, "", fmt.Errorf("%w: invalid credentials", ErrForbidden)
	}
	token, err := a.sessions.NewSession(Principal{Kind: "org", ID: org.ID}.Subject())
	if err != nil {
		return domain.Organization{}, "", fmt.Errorf("issue session: %w", err)
	}
	return org, token, nil
}

// Logout revokes the current session token.
func (a *App) Logout(token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	return a.sessions.DeleteSession(token)
}

// ResolvePrincipal validates a bearer token and returns its principal.
func (a *App) ResolvePrincipal(token string) (Principal, bool, error) {
	subject, ok, err := a.sessions.SubjectFromToken(token)
	if err != nil || !ok {
		return Principal{}, false, err
	}
	principal, ok := ParseSubject(subject)
	return principal, ok, nil
}
