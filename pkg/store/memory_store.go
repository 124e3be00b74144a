package store

import (
	"sync"

	"datadesk/pkg/domain"
)

// MemoryStore keeps everything in-process. It backs tests and local runs
// without Postgres; ordering mirrors the persistent store (insertion order).
type MemoryStore struct {
	mu           sync.RWMutex
	orgs         map[string]domain.Organization
	orgOrder     []string
	orgEmail     map[string]string
	users        map[string]domain.User
	userOrder    []string
	userEmail    map[string]string
	teams        map[string]domain.Team
	teamOrder    []string
	projects     map[string]domain.Project
	projectOrder []string
	datasets     map[string][]domain.Dataset // projectID -> ordered records
	datasetByID  map[string]domain.Dataset
	chats        map[string]domain.Chat
	chatOrder    []string
	messages     map[string][]domain.Message // chatID -> ordered messages
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		orgs:        make(map[string]domain.Organization),
		orgEmail:    make(map[string]string),
		users:       make(map[string]domain.User),
		userEmail:   make(map[string]string),
		teams:       make(map[string]domain.Team),
		projects:    make(map[string]domain.Project),
		datasets:    make(map[string][]domain.Dataset),
		datasetByID: make(map[string]domain.Dataset),
		chats:       make(map[string]domain.Chat),
		messages:    make(map[string][]domain.Message),
	}
}

func (m *MemoryStore) SaveOrganization(org domain.Organization) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.orgs[org.ID]; !exists {
		m.orgOrder = append(m.orgOrder, org.ID)
	}
	m.orgs[org.ID] = org
	m.orgEmail[org.Email] = org.ID
	return nil
}

func (m *MemoryStore) HasOrganizationEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.orgEmail[email]
	return ok, nil
}

func (m *MemoryStore) GetOrganization(id string) (domain.Organization, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	org, ok := m.orgs[id]
	return org, ok, nil
}

func (m *MemoryStore) GetOrganizationByEmail(email string) (domain.Organization, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.orgEmail[email]; ok {
		org, exists := m.orgs[id]
		return org, exists, nil
	}
	return domain.Organization{}, false, nil
}

func (m *MemoryStore) ListOrganizations() ([]domain.Organization, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Organization, 0, len(m.orgOrder))
	for _, id := range m.orgOrder {
		if org, ok := m.orgs[id]; ok {
			res = append(res, org)
		}
	}
	return res, nil
}

func (m *MemoryStore) DeleteOrganization(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if org, ok := m.orgs[id]; ok {
		delete(m.orgEmail, org.Email)
	}
	delete(m.orgs, id)
	m.orgOrder = removeID(m.orgOrder, id)
	return nil
}

func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[u.ID]; !exists {
		m.userOrder = append(m.userOrder, u.ID)
	}
	m.users[u.ID] = u
	m.userEmail[u.Email] = u.ID
	return nil
}

func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.userEmail[email]
	return ok, nil
}

func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.userEmail[email]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

func (m *MemoryStore) ListUsers() ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		if u, ok := m.users[id]; ok {
			res = append(res, u)
		}
	}
	return res, nil
}

func (m *MemoryStore) SaveTeam(t domain.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, exists := m.teams[t.ID]; exists {
		// Preserve membership managed through AddTeamMember/RemoveTeamMember.
		t.Members = existing.Members
	} else {
		m.teamOrder = append(m.teamOrder, t.ID)
	}
	m.teams[t.ID] = t
	return nil
}

func (m *MemoryStore) GetTeam(id string) (domain.Team, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[id]
	return t, ok, nil
}

func (m *MemoryStore) ListTeamsByOrg(orgID string) ([]domain.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Team, 0, len(m.teamOrder))
	for _, id := range m.teamOrder {
		if t, ok := m.teams[id]; ok && t.OrgID == orgID {
			res = append(res, t)
		}
	}
	return res, nil
}

func (m *MemoryStore) DeleteTeam(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.teams, id)
	m.teamOrder = removeID(m.teamOrder, id)
	return nil
}

func (m *MemoryStore) AddTeamMember(teamID string, member domain.TeamMember) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return nil
	}
	for i, existing := range t.Members {
		if existing.UserID == member.UserID {
			t.Members[i].Role = member.Role
			m.teams[teamID] = t
			return nil
		}
	}
	t.Members = append(t.Members, member)
	m.teams[teamID] = t
	return nil
}

func (m *MemoryStore) RemoveTeamMember(teamID, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.teams[teamID]
	if !ok {
		return nil
	}
	filtered := t.Members[:0]
	for _, member := range t.Members {
		if member.UserID != userID {
			filtered = append(filtered, member)
		}
	}
	t.Members = filtered
	m.teams[teamID] = t
	return nil
}

func (m *MemoryStore) GetTeamRole(teamID, userID string) (domain.TeamRole, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.teams[teamID]
	if !ok {
		return "", false, nil
	}
	for _, member := range t.Members {
		if member.UserID == userID {
			return member.Role, true, nil
		}
	}
	return "", false, nil
}

func (m *MemoryStore) SaveProject(p domain.Project) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.projects[p.ID]; !exists {
		m.projectOrder = append(m.projectOrder, p.ID)
	}
	m.projects[p.ID] = p
	return nil
}

func (m *MemoryStore) GetProject(id string) (domain.Project, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.projects[id]
	return p, ok, nil
}

func (m *MemoryStore) ListProjectsByTeam(teamID string) ([]domain.Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Project, 0, len(m.projectOrder))
	for _, id := range m.projectOrder {
		if p, ok := m.projects[id]; ok && p.TeamID == teamID {
			res = append(res, p)
		}
	}
	return res, nil
}

func (m *MemoryStore) DeleteProject(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.projects, id)
	m.projectOrder = removeID(m.projectOrder, id)
	for _, ds := range m.datasets[id] {
		delete(m.datasetByID, ds.ID)
	}
	delete(m.datasets, id)
	for _, chatID := range m.chatOrder {
		if c, ok := m.chats[chatID]; ok && c.ProjectID == id {
			delete(m.chats, chatID)
			delete(m.messages, chatID)
		}
	}
	return nil
}

func (m *MemoryStore) AppendDataset(ds domain.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.datasets[ds.ProjectID] = append(m.datasets[ds.ProjectID], ds)
	m.datasetByID[ds.ID] = ds
	return nil
}

func (m *MemoryStore) ListDatasets(projectID string) ([]domain.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Dataset, len(m.datasets[projectID]))
	copy(res, m.datasets[projectID])
	return res, nil
}

func (m *MemoryStore) GetDataset(id string) (domain.Dataset, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ds, ok := m.datasetByID[id]
	return ds, ok, nil
}

func (m *MemoryStore) CreateChat(c domain.Chat) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.chats[c.ID]; !exists {
		m.chatOrder = append(m.chatOrder, c.ID)
	}
	m.chats[c.ID] = c
	return nil
}

func (m *MemoryStore) GetChat(id string) (domain.Chat, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.chats[id]
	return c, ok, nil
}

func (m *MemoryStore) ListChatsByProject(projectID string) ([]domain.Chat, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Chat, 0, len(m.chatOrder))
	for _, id := range m.chatOrder {
		if c, ok := m.chats[id]; ok && c.ProjectID == projectID {
			res = append(res, c)
		}
	}
	return res, nil
}

func (m *MemoryStore) SetChatTitle(id, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[id]
	if !ok {
		return nil
	}
	c.Title = title
	m.chats[id] = c
	return nil
}

func (m *MemoryStore) AppendMessage(chatID string, msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages[chatID] = append(m.messages[chatID], msg)
	return nil
}

func (m *MemoryStore) ListMessages(chatID string) ([]domain.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Message, len(m.messages[chatID]))
	copy(res, m.messages[chatID])
	return res, nil
}

func (m *MemoryStore) LatestPendingMessage(chatID string) (domain.Message, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msgs := m.messages[chatID]
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Pending && msgs[i].Sender == domain.SenderHuman {
			return msgs[i], true, nil
		}
	}
	return domain.Message{}, false, nil
}

func (m *MemoryStore) MarkMessageAnswered(messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for chatID, msgs := range m.messages {
		for i := range msgs {
			if msgs[i].ID == messageID {
				msgs[i].Pending = false
				m.messages[chatID] = msgs
				return nil
			}
		}
	}
	return nil
}

func removeID(ids []string, id string) []string {
	filtered := ids[:0]
	for _, item := range ids {
		if item != id {
			filtered = append(filtered, item)
		}
	}
	return filtered
}
