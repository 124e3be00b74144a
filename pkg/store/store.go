package store

import "datadesk/pkg/domain"

// Store defines persistence operations for tenants, projects, datasets,
// and chats. Dataset and message sequences are insertion-ordered on read;
// neither supports update or delete.
type Store interface {
	// organizations
	SaveOrganization(org domain.Organization) error
	HasOrganizationEmail(email string) (bool, error)
	GetOrganization(id string) (domain.Organization, bool, error)
	GetOrganizationByEmail(email string) (domain.Organization, bool, error)
	ListOrganizations() ([]domain.Organization, error)
	DeleteOrganization(id string) error

	// users
	SaveUser(user domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUsers() ([]domain.User, error)

	// teams
	SaveTeam(team domain.Team) error
	GetTeam(id string) (domain.Team, bool, error)
	ListTeamsByOrg(orgID string) ([]domain.Team, error)
	DeleteTeam(id string) error
	AddTeamMember(teamID string, member domain.TeamMember) error
	RemoveTeamMember(teamID, userID string) error
	GetTeamRole(teamID, userID string) (domain.TeamRole, bool, error)

	// projects
	SaveProject(project domain.Project) error
	GetProject(id string) (domain.Project, bool, error)
	ListProjectsByTeam(teamID string) ([]domain.Project, error)
	DeleteProject(id string) error

	// datasets (append-only registry)
	AppendDataset(ds domain.Dataset) error
	ListDatasets(projectID string) ([]domain.Dataset, error)
	GetDataset(id string) (domain.Dataset, bool, error)

	// chats
	CreateChat(chat domain.Chat) error
	GetChat(id string) (domain.Chat, bool, error)
	ListChatsByProject(projectID string) ([]domain.Chat, error)
	SetChatTitle(id, title string) error
	AppendMessage(chatID string, msg domain.Message) error
	ListMessages(chatID string) ([]domain.Message, error)
	LatestPendingMessage(chatID string) (domain.Message, bool, error)
	MarkMessageAnswered(messageID string) error
}

// SessionStore issues and resolves bearer session tokens. The subject is an
// opaque principal reference such as "user:<id>" or "org:<id>".
type SessionStore interface {
	NewSession(subject string) (string, error)
	SubjectFromToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
