package app

import (
	"fmt"
	"strings"
	"time"

	"datadesk/pkg/domain"
)

// CurrentUser returns the calling user's account.
func (a *App) CurrentUser(p Principal) (domain.User, error) {
	if p.IsOrg() {
		return domain.User{}, fmt.Errorf("%w: user account required", ErrForbidden)
	}
	user, ok, err := a.store.GetUserByID(p.ID)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %s", ErrNotFound, p.ID)
	}
	return user, nil
}

// CurrentOrganization returns the calling organization's account.
func (a *App) CurrentOrganization(p Principal) (domain.Organization, error) {
	if !p.IsOrg() {
		return domain.Organization{}, fmt.Errorf("%w: organization account required", ErrForbidden)
	}
	org, ok, err := a.store.GetOrganization(p.ID)
	if err != nil {
		return domain.Organization{}, fmt.Errorf("load organization: %w", err)
	}
	if !ok {
		return domain.Organization{}, fmt.Errorf("%w: organization %s", ErrNotFound, p.ID)
	}
	return org, nil
}

// UpdateOrganization changes the calling organization's profile. An email
// change must not collide with another organization.
func (a *App) UpdateOrganization(p Principal, name, email string) (domain.Organization, error) {
	org, err := a.CurrentOrganization(p)
	if err != nil {
		return domain.Organization{}, err
	}
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" || email == "" {
		return domain.Organization{}, fmt.Errorf("%w: name and email required", ErrValidation)
	}
	if email != org.Email {
		taken, err := a.store.HasOrganizationEmail(email)
		if err != nil {
			return domain.Organization{}, fmt.Errorf("check organization email: %w", err)
		}
		if taken {
			return domain.Organization{}, fmt.Errorf("%w: email already registered", ErrValidation)
		}
	}
	org.Name = name
	org.Email = email
	org.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveOrganization(org); err != nil {
		return domain.Organization{}, fmt.Errorf("save organization: %w", err)
	}
	return org, nil
}

// ListOrganizations returns the organization directory, used when a user
// looks up which tenant to join.
func (a *App) ListOrganizations(p Principal) ([]domain.Organization, error) {
	orgs, err := a.store.ListOrganizations()
	if err != nil {
		return nil, fmt.Errorf("list organizations: %w", err)
	}
	return orgs, nil
}

// ListOrganizationMembers returns every user holding a seat on any of the
// calling organization's teams, deduplicated in first-seen order.
func (a *App) ListOrganizationMembers(p Principal) ([]domain.User, error) {
	if !p.IsOrg() {
		return nil, fmt.Errorf("%w: organization account required", ErrForbidden)
	}
	teams, err := a.store.ListTeamsByOrg(p.ID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	seen := map[string]bool{}
	var members []domain.User
	for _, team := range teams {
		for _, member := range team.Members {
			if seen[member.UserID] {
				continue
			}
			seen[member.UserID] = true
			user, ok, err := a.store.GetUserByID(member.UserID)
			if err != nil {
				return nil, fmt.Errorf("load member %s: %w", member.UserID, err)
			}
			if ok {
				members = append(members, user)
			}
		}
	}
	return members, nil
}

// GetUser looks up a single user for organization accounts.
func (a *App) GetUser(p Principal, id string) (domain.User, error) {
	if !p.IsOrg() {
		return domain.User{}, fmt.Errorf("%w: organization account required", ErrForbidden)
	}
	user, ok, err := a.store.GetUserByID(id)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !ok {
		return domain.User{}, fmt.Errorf("%w: user %s", ErrNotFound, id)
	}
	return user, nil
}

// ListUsers lists registered users for organization accounts, for use when
// assembling teams.
func (a *App) ListUsers(p Principal) ([]domain.User, error) {
	if !p.IsOrg() {
		return nil, fmt.Errorf("%w: organization account required", ErrForbidden)
	}
	users, err := a.store.ListUsers()
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteOrganization removes the calling organization account.
func (a *App) DeleteOrganization(p Principal) error {
	if !p.IsOrg() {
		return fmt.Errorf("%w: organization account required", ErrForbidden)
	}
	if err := a.store.DeleteOrganization(p.ID); err != nil {
		return fmt.Errorf("delete organization: %w", err)
	}
	return nil
}
