package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"datadesk/internal/util"
	"datadesk/pkg/domain"
)

// CreateProject creates a project under a team. Only team admins and the
// owning organization may create projects.
func (a *App) CreateProject(p Principal, teamID, name, description string) (domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Project{}, fmt.Errorf("%w: project name required", ErrValidation)
	}
	team, ok, err := a.store.GetTeam(teamID)
	if err != nil {
		return domain.Project{}, fmt.Errorf("load team: %w", err)
	}
	if !ok {
		return domain.Project{}, fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}
	if !a.isTeamAdmin(p, team) {
		return domain.Project{}, fmt.Errorf("%w: team admin required", ErrForbidden)
	}
	now := time.Now().UTC()
	project := domain.Project{
		ID:          util.NewID(),
		TeamID:      teamID,
		Name:        name,
		Description: strings.TrimSpace(description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := a.store.SaveProject(project); err != nil {
		return domain.Project{}, fmt.Errorf("save project: %w", err)
	}
	return project, nil
}

// GetProject returns a project visible to the caller.
func (a *App) GetProject(p Principal, id string) (domain.Project, error) {
	project, ok, err := a.store.GetProject(id)
	if err != nil {
		return domain.Project{}, fmt.Errorf("load project: %w", err)
	}
	if !ok {
		return domain.Project{}, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	if err := a.authorizeProject(p, project); err != nil {
		return domain.Project{}, err
	}
	return project, nil
}

// ListProjects lists a team's projects for its members.
func (a *App) ListProjects(p Principal, teamID string) ([]domain.Project, error) {
	team, ok, err := a.store.GetTeam(teamID)
	if err != nil {
		return nil, fmt.Errorf("load team: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: team %s", ErrNotFound, teamID)
	}
	if !a.canAccessTeam(p, team) {
		return nil, fmt.Errorf("%w: not a member of team %s", ErrForbidden, teamID)
	}
	projects, err := a.store.ListProjectsByTeam(teamID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// UpdateProject changes a project's name and description. Like creation,
// this requires team admin rights.
func (a *App) UpdateProject(p Principal, id, name, description string) (domain.Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Project{}, fmt.Errorf("%w: project name required", ErrValidation)
	}
	project, ok, err := a.store.GetProject(id)
	if err != nil {
		return domain.Project{}, fmt.Errorf("load project: %w", err)
	}
	if !ok {
		return domain.Project{}, fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	team, ok, err := a.store.GetTeam(project.TeamID)
	if err != nil {
		return domain.Project{}, fmt.Errorf("load team: %w", err)
	}
	if !ok || !a.isTeamAdmin(p, team) {
		return domain.Project{}, fmt.Errorf("%w: team admin required", ErrForbidden)
	}
	project.Name = name
	project.Description = strings.TrimSpace(description)
	project.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveProject(project); err != nil {
		return domain.Project{}, fmt.Errorf("save project: %w", err)
	}
	return project, nil
}

// DeleteProject removes a project together with its chats, messages, and
// dataset records. Stored dataset objects are deleted best-effort.
func (a *App) DeleteProject(p Principal, id string) error {
	project, ok, err := a.store.GetProject(id)
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: project %s", ErrNotFound, id)
	}
	team, ok, err := a.store.GetTeam(project.TeamID)
	if err != nil {
		return fmt.Errorf("load team: %w", err)
	}
	if !ok || !a.isTeamAdmin(p, team) {
		return fmt.Errorf("%w: team admin required", ErrForbidden)
	}
	datasets, err := a.store.ListDatasets(id)
	if err != nil {
		return fmt.Errorf("list datasets: %w", err)
	}
	if err := a.store.DeleteProject(id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	for _, ds := range datasets {
		_ = a.objects.Delete(context.Background(), ds.StorageKey)
	}
	return nil
}

// authorizeProject checks that the principal belongs to the project's team.
// Unknown teams map to not found so callers cannot probe for project IDs.
func (a *App) authorizeProject(p Principal, project domain.Project) error {
	team, ok, err := a.store.GetTeam(project.TeamID)
	if err != nil {
		return fmt.Errorf("load team: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: project %s", ErrNotFound, project.ID)
	}
	if !a.canAccessTeam(p, team) {
		return fmt.Errorf("%w: not a member of team %s", ErrForbidden, team.ID)
	}
	return nil
}
