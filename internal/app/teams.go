package app

import (
	"fmt"
	"strings"
	"time"

	"datadesk/internal/util"
	"datadesk/pkg/domain"
)

// CreateTeam creates a team inside the calling organization.
func (a *App) CreateTeam(p Principal, name string) (domain.Team, error) {
	if !p.IsOrg() {
		return domain.Team{}, fmt.Errorf("%w: organization account required", ErrForbidden)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Team{}, fmt.Errorf("%w: team name required", ErrValidation)
	}
	team := domain.Team{
		ID:        util.NewID(),
		OrgID:     p.ID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.SaveTeam(team); err != nil {
		return domain.Team{}, fmt.Errorf("save team: %w", err)
	}
	return team, nil
}

// GetTeam returns a team visible to the caller.
func (a *App) GetTeam(p Principal, id string) (domain.Team, error) {
	team, ok, err := a.store.GetTeam(id)
	if err != nil {
		return domain.Team{}, fmt.Errorf("load team: %w", err)
	}
	if !ok {
		return domain.Team{}, fmt.Errorf("%w: team %s", ErrNotFound, id)
	}
	if !a.canAccessTeam(p, team) {
		return domain.Team{}, fmt.Errorf("%w: not a member of team %s", ErrForbidden, id)
	}
	return team, nil
}

// ListTeams lists the calling organization's teams.
func (a *App) ListTeams(p Principal) ([]domain.Team, error) {
	if !p.IsOrg() {
		return nil, fmt.Errorf("%w: organization account required", ErrForbidden)
	}
	teams, err := a.store.ListTeamsByOrg(p.ID)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	return teams, nil
}

// UpdateTeam renames a team. Only the owning organization may rename;
// membership is untouched.
func (a *App) UpdateTeam(p Principal, id, name string) (domain.Team, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Team{}, fmt.Errorf("%w: team name required", ErrValidation)
	}
	team, ok, err := a.store.GetTeam(id)
	if err != nil {
		return domain.Team{}, fmt.Errorf("load team: %w", err)
	}
	if !ok {
		return domain.Team{}, fmt.Errorf("%w: team %s", ErrNotFound, id)
	}
	if !p.IsOrg() || team.OrgID != p.ID {
		return domain.Team{}, fmt.Errorf("%w: team %s", ErrForbidden, id)
	}
	team.Name = name
	if err := a.store.SaveTeam(team); err != nil {
		return domain.Team{}, fmt.Errorf("save team: %w", err)
	}
	return team, nil
}

// DeleteTeam removes a team owned by the calling organization.
func (a *App) DeleteTeam(p Principal, id string) error {
	team, ok, err := a.store.GetTeam(id)
	if err != nil {
		return fmt.Errorf("load team: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: team %s", ErrNotFound, id)
	}
	if !p.IsOrg() || team.OrgID != p.ID {
		return fmt.Errorf("%w: team %s", ErrForbidden, id)
	}
	if err := a.store.DeleteTeam(id); err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	return nil
}

// AddTeamMember adds or re-roles a user on a team. Only the owning
// organization may manage membership.
func (a *App) AddTeamMember(p Principal, teamID, userID string, role domain.TeamRole) error {
	team, ok, err := a.store.GetTeam(teamID)
	if err != nil {
		return fmt.Errorf("load team: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}
	if !p.IsOrg() || team.OrgID != p.ID {
		return fmt.Errorf("%w: team %s", ErrForbidden, teamID)
	}
	switch role {
	case domain.RoleMember, domain.RoleTeamAdmin:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}
	if _, found, err := a.store.GetUserByID(userID); err != nil {
		return fmt.Errorf("load user: %w", err)
	} else if !found {
		return fmt.Errorf("%w: user %s", ErrNotFound, userID)
	}
	if err := a.store.AddTeamMember(teamID, domain.TeamMember{UserID: userID, Role: role}); err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	return nil
}

// RemoveTeamMember removes a user from a team.
func (a *App) RemoveTeamMember(p Principal, teamID, userID string) error {
	team, ok, err := a.store.GetTeam(teamID)
	if err != nil {
		return fmt.Errorf("load team: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}
	if !p.IsOrg() || team.OrgID != p.ID {
		return fmt.Errorf("%w: team %s", ErrForbidden, teamID)
	}
	if err := a.store.RemoveTeamMember(teamID, userID); err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	return nil
}

// canAccessTeam reports whether the principal may read the team: the owning
// organization or any team member.
func (a *App) canAccessTeam(p Principal, team domain.Team) bool {
	if p.IsOrg() {
		return team.OrgID == p.ID
	}
	_, ok, err := a.store.GetTeamRole(team.ID, p.ID)
	return err == nil && ok
}

// isTeamAdmin reports whether the principal may administer the team: the
// owning organization or a member holding the team_admin role.
func (a *App) isTeamAdmin(p Principal, team domain.Team) bool {
	if p.IsOrg() {
		return team.OrgID == p.ID
	}
	role, ok, err := a.store.GetTeamRole(team.ID, p.ID)
	return err == nil && ok && role == domain.RoleTeamAdmin
}
