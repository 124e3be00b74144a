package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"datadesk/pkg/domain"
	"datadesk/pkg/store"
)

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (f *fakeObjectStore) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://objects.test/" + key, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.objects)
}

type fakeGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	calls   int
	prompts []string
}

func (g *fakeGenerator) GenerateText(_ context.Context, _ string, userPrompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	g.prompts = append(g.prompts, userPrompt)
	if g.err != nil {
		return "", g.err
	}
	return g.reply, nil
}

type testEnv struct {
	app     *App
	objects *fakeObjectStore
	gen     *fakeGenerator
	org     Principal
	admin   Principal
	member  Principal
	team    domain.Team
	project domain.Project
}

// newTestEnv builds an app over in-memory stores with one organization, a
// team holding an admin and a plain member, and one project.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	objects := newFakeObjectStore()
	gen := &fakeGenerator{reply: "the answer"}
	a, err := New(Config{
		Store:         store.NewMemoryStore(),
		Objects:       objects,
		Generator:     gen,
		SessionSecret: "test-secret",
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}

	org, _, err := a.SignUpOrganization("Acme", "acme@example.com", "password1")
	if err != nil {
		t.Fatalf("SignUpOrganization() error: %v", err)
	}
	orgP := Principal{Kind: "org", ID: org.ID}

	admin, _, err := a.SignUpUser("admin@example.com", "Ada", "password1")
	if err != nil {
		t.Fatalf("SignUpUser() error: %v", err)
	}
	member, _, err := a.SignUpUser("member@example.com", "Mel", "password1")
	if err != nil {
		t.Fatalf("SignUpUser() error: %v", err)
	}

	team, err := a.CreateTeam(orgP, "Analytics")
	if err != nil {
		t.Fatalf("CreateTeam() error: %v", err)
	}
	if err := a.AddTeamMember(orgP, team.ID, admin.ID, domain.RoleTeamAdmin); err != nil {
		t.Fatalf("AddTeamMember(admin) error: %v", err)
	}
	if err := a.AddTeamMember(orgP, team.ID, member.ID, domain.RoleMember); err != nil {
		t.Fatalf("AddTeamMember(member) error: %v", err)
	}

	adminP := Principal{Kind: "user", ID: admin.ID}
	project, err := a.CreateProject(adminP, team.ID, "Quarterly", "")
	if err != nil {
		t.Fatalf("CreateProject() error: %v", err)
	}

	return &testEnv{
		app:     a,
		objects: objects,
		gen:     gen,
		org:     orgP,
		admin:   adminP,
		member:  Principal{Kind: "user", ID: member.ID},
		team:    team,
		project: project,
	}
}

func TestProjectCreationRequiresTeamAdmin(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.app.CreateProject(env.member, env.team.ID, "Side Project", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("CreateProject() by plain member = %v, want ErrForbidden", err)
	}
	if _, err := env.app.CreateProject(env.org, env.team.ID, "Org Project", ""); err != nil {
		t.Fatalf("CreateProject() by owning org error: %v", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	user, token, err := env.app.LoginUser("admin@example.com", "password1")
	if err != nil {
		t.Fatalf("LoginUser() error: %v", err)
	}
	p, ok, err := env.app.ResolvePrincipal(token)
	if err != nil || !ok {
		t.Fatalf("ResolvePrincipal() = %v, %v", ok, err)
	}
	if p.Kind != "user" || p.ID != user.ID {
		t.Fatalf("principal = %+v, want user %s", p, user.ID)
	}
	if err := env.app.Logout(token); err != nil {
		t.Fatalf("Logout() error: %v", err)
	}
	if _, ok, _ := env.app.ResolvePrincipal(token); ok {
		t.Fatal("token still valid after logout")
	}
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.app.LoginUser("admin@example.com", "wrong-password"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("LoginUser() with wrong password = %v, want ErrForbidden", err)
	}
}

func TestSignUpDuplicateEmail(t *testing.T) {
	env := newTestEnv(t)
	if _, _, err := env.app.SignUpUser("admin@example.com", "Dup", "password1"); !errors.Is(err, ErrValidation) {
		t.Fatalf("SignUpUser() with duplicate email = %v, want ErrValidation", err)
	}
}

func TestOrganizationProfileUpdate(t *testing.T) {
	env := newTestEnv(t)
	org, err := env.app.UpdateOrganization(env.org, "Acme Analytics", "ops@example.com")
	if err != nil {
		t.Fatalf("UpdateOrganization() error: %v", err)
	}
	if org.Name != "Acme Analytics" || org.Email != "ops@example.com" {
		t.Fatalf("updated org = %+v", org)
	}
	if _, _, err := env.app.LoginOrganization("ops@example.com", "password1"); err != nil {
		t.Fatalf("LoginOrganization() after email change error: %v", err)
	}

	if _, _, err := env.app.SignUpOrganization("Rival", "rival@example.com", "password1"); err != nil {
		t.Fatalf("SignUpOrganization() error: %v", err)
	}
	if _, err := env.app.UpdateOrganization(env.org, "Acme", "rival@example.com"); !errors.Is(err, ErrValidation) {
		t.Fatalf("UpdateOrganization() onto taken email = %v, want ErrValidation", err)
	}
	if _, err := env.app.UpdateOrganization(env.org, "", "ops@example.com"); !errors.Is(err, ErrValidation) {
		t.Fatalf("UpdateOrganization() with blank name = %v, want ErrValidation", err)
	}
	if _, err := env.app.UpdateOrganization(env.admin, "Acme", "ops@example.com"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("UpdateOrganization() by user = %v, want ErrForbidden", err)
	}
}

func TestOrganizationMembersDeduplicated(t *testing.T) {
	env := newTestEnv(t)
	second, err := env.app.CreateTeam(env.org, "Research")
	if err != nil {
		t.Fatalf("CreateTeam() error: %v", err)
	}
	// The admin now sits on two teams but must appear once.
	if err := env.app.AddTeamMember(env.org, second.ID, env.admin.ID, domain.RoleMember); err != nil {
		t.Fatalf("AddTeamMember() error: %v", err)
	}
	members, err := env.app.ListOrganizationMembers(env.org)
	if err != nil {
		t.Fatalf("ListOrganizationMembers() error: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("organization members = %d, want 2", len(members))
	}
	if _, err := env.app.ListOrganizationMembers(env.admin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("ListOrganizationMembers() by user = %v, want ErrForbidden", err)
	}
}

func TestGetUserRequiresOrganization(t *testing.T) {
	env := newTestEnv(t)
	user, err := env.app.GetUser(env.org, env.admin.ID)
	if err != nil {
		t.Fatalf("GetUser() error: %v", err)
	}
	if user.ID != env.admin.ID {
		t.Fatalf("user = %+v, want %s", user, env.admin.ID)
	}
	if _, err := env.app.GetUser(env.org, "no-such-user"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("GetUser() for missing id = %v, want ErrNotFound", err)
	}
	if _, err := env.app.GetUser(env.member, env.admin.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("GetUser() by user = %v, want ErrForbidden", err)
	}
}

func TestTeamRename(t *testing.T) {
	env := newTestEnv(t)
	team, err := env.app.UpdateTeam(env.org, env.team.ID, "Data Platform")
	if err != nil {
		t.Fatalf("UpdateTeam() error: %v", err)
	}
	if team.Name != "Data Platform" {
		t.Fatalf("team name = %q", team.Name)
	}
	// Membership survives the rename.
	if _, err := env.app.ListProjects(env.member, env.team.ID); err != nil {
		t.Fatalf("ListProjects() after rename error: %v", err)
	}
	if _, err := env.app.UpdateTeam(env.admin, env.team.ID, "Rogue"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("UpdateTeam() by user = %v, want ErrForbidden", err)
	}
	if _, err := env.app.UpdateTeam(env.org, env.team.ID, "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("UpdateTeam() with blank name = %v, want ErrValidation", err)
	}
}

func TestProjectUpdate(t *testing.T) {
	env := newTestEnv(t)
	project, err := env.app.UpdateProject(env.admin, env.project.ID, "Quarterly v2", "refreshed numbers")
	if err != nil {
		t.Fatalf("UpdateProject() error: %v", err)
	}
	if project.Name != "Quarterly v2" || project.Description != "refreshed numbers" {
		t.Fatalf("updated project = %+v", project)
	}
	if _, err := env.app.UpdateProject(env.member, env.project.ID, "Hijack", ""); !errors.Is(err, ErrForbidden) {
		t.Fatalf("UpdateProject() by plain member = %v, want ErrForbidden", err)
	}
	if _, err := env.app.UpdateProject(env.admin, "no-such-project", "X", ""); !errors.Is(err, ErrNotFound) {
		t.Fatalf("UpdateProject() for missing project = %v, want ErrNotFound", err)
	}
}

func TestTeamMembershipManagement(t *testing.T) {
	env := newTestEnv(t)
	if err := env.app.AddTeamMember(env.admin, env.team.ID, env.member.ID, domain.RoleTeamAdmin); !errors.Is(err, ErrForbidden) {
		t.Fatalf("AddTeamMember() by user = %v, want ErrForbidden", err)
	}
	if err := env.app.RemoveTeamMember(env.org, env.team.ID, env.member.ID); err != nil {
		t.Fatalf("RemoveTeamMember() error: %v", err)
	}
	if _, err := env.app.ListProjects(env.member, env.team.ID); !errors.Is(err, ErrForbidden) {
		t.Fatalf("ListProjects() after removal = %v, want ErrForbidden", err)
	}
}
