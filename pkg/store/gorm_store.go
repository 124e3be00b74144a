package store

import (
	"encoding/json"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"datadesk/pkg/domain"
)

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(
		&OrganizationModel{},
		&UserModel{},
		&TeamModel{},
		&TeamMemberModel{},
		&ProjectModel{},
		&DatasetModel{},
		&ChatModel{},
		&MessageModel{},
	); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// SaveOrganization stores or updates an organization.
func (s *GormStore) SaveOrganization(org domain.Organization) error {
	model := orgToModel(org)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "email", "password_hash", "updated_at"}),
	}).Create(&model).Error
}

// HasOrganizationEmail checks if an organization email exists.
func (s *GormStore) HasOrganizationEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&OrganizationModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetOrganization returns an organization by ID.
func (s *GormStore) GetOrganization(id string) (domain.Organization, bool, error) {
	var model OrganizationModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Organization{}, false, nil
		}
		return domain.Organization{}, false, err
	}
	return orgFromModel(model), true, nil
}

// GetOrganizationByEmail looks up an organization by email.
func (s *GormStore) GetOrganizationByEmail(email string) (domain.Organization, bool, error) {
	var model OrganizationModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Organization{}, false, nil
		}
		return domain.Organization{}, false, err
	}
	return orgFromModel(model), true, nil
}

// ListOrganizations returns all organizations ordered by created_at.
func (s *GormStore) ListOrganizations() ([]domain.Organization, error) {
	var models []OrganizationModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Organization, 0, len(models))
	for _, m := range models {
		res = append(res, orgFromModel(m))
	}
	return res, nil
}

// DeleteOrganization removes an organization.
func (s *GormStore) DeleteOrganization(id string) error {
	return s.db.Delete(&OrganizationModel{}, "id = ?", id).Error
}

// SaveUser registers or updates a user.
func (s *GormStore) SaveUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email", "name", "password_hash", "status", "updated_at"}),
	}).Create(&model).Error
}

// HasUserEmail checks if email exists.
func (s *GormStore) HasUserEmail(email string) (bool, error) {
	var count int64
	if err := s.db.Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// GetUserByEmail looks up a user by email.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByID returns a user by ID.
func (s *GormStore) GetUserByID(id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// ListUsers returns all users ordered by created_at.
func (s *GormStore) ListUsers() ([]domain.User, error) {
	var models []UserModel
	if err := s.db.Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.User, 0, len(models))
	for _, m := range models {
		res = append(res, userFromModel(m))
	}
	return res, nil
}

// SaveTeam stores or updates a team. Membership rows are managed separately.
func (s *GormStore) SaveTeam(t domain.Team) error {
	model := TeamModel{ID: t.ID, OrgID: t.OrgID, Name: t.Name, CreatedAt: t.CreatedAt}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name"}),
	}).Create(&model).Error
}

// GetTeam returns a team with its members.
func (s *GormStore) GetTeam(id string) (domain.Team, bool, error) {
	var model TeamModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Team{}, false, nil
		}
		return domain.Team{}, false, err
	}
	members, err := s.listTeamMembers(id)
	if err != nil {
		return domain.Team{}, false, err
	}
	team := domain.Team{ID: model.ID, OrgID: model.OrgID, Name: model.Name, Members: members, CreatedAt: model.CreatedAt}
	return team, true, nil
}

// ListTeamsByOrg returns teams for an organization ordered by created_at.
func (s *GormStore) ListTeamsByOrg(orgID string) ([]domain.Team, error) {
	var models []TeamModel
	if err := s.db.Order("created_at ASC").Where("org_id = ?", orgID).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Team, 0, len(models))
	for _, m := range models {
		members, err := s.listTeamMembers(m.ID)
		if err != nil {
			return nil, err
		}
		res = append(res, domain.Team{ID: m.ID, OrgID: m.OrgID, Name: m.Name, Members: members, CreatedAt: m.CreatedAt})
	}
	return res, nil
}

// DeleteTeam removes a team and its membership rows.
func (s *GormStore) DeleteTeam(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&TeamMemberModel{}, "team_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&TeamModel{}, "id = ?", id).Error
	})
}

// AddTeamMember upserts a membership row.
func (s *GormStore) AddTeamMember(teamID string, member domain.TeamMember) error {
	model := TeamMemberModel{TeamID: teamID, UserID: member.UserID, Role: string(member.Role)}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "team_id"}, {Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"role"}),
	}).Create(&model).Error
}

// RemoveTeamMember deletes a membership row.
func (s *GormStore) RemoveTeamMember(teamID, userID string) error {
	return s.db.Delete(&TeamMemberModel{}, "team_id = ? AND user_id = ?", teamID, userID).Error
}

// GetTeamRole resolves a user's role on a team.
func (s *GormStore) GetTeamRole(teamID, userID string) (domain.TeamRole, bool, error) {
	var model TeamMemberModel
	if err := s.db.First(&model, "team_id = ? AND user_id = ?", teamID, userID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return "", false, nil
		}
		return "", false, err
	}
	return domain.TeamRole(model.Role), true, nil
}

func (s *GormStore) listTeamMembers(teamID string) ([]domain.TeamMember, error) {
	var models []TeamMemberModel
	if err := s.db.Where("team_id = ?", teamID).Find(&models).Error; err != nil {
		return nil, err
	}
	members := make([]domain.TeamMember, 0, len(models))
	for _, m := range models {
		members = append(members, domain.TeamMember{UserID: m.UserID, Role: domain.TeamRole(m.Role)})
	}
	return members, nil
}

// SaveProject stores or updates a project.
func (s *GormStore) SaveProject(p domain.Project) error {
	model := projectToModel(p)
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "updated_at"}),
	}).Create(&model).Error
}

// GetProject retrieves a project.
func (s *GormStore) GetProject(id string) (domain.Project, bool, error) {
	var model ProjectModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Project{}, false, nil
		}
		return domain.Project{}, false, err
	}
	return projectFromModel(model), true, nil
}

// ListProjectsByTeam returns projects for a team ordered by created_at.
func (s *GormStore) ListProjectsByTeam(teamID string) ([]domain.Project, error) {
	var models []ProjectModel
	if err := s.db.Order("created_at ASC").Where("team_id = ?", teamID).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Project, 0, len(models))
	for _, m := range models {
		res = append(res, projectFromModel(m))
	}
	return res, nil
}

// DeleteProject removes a project, its dataset records, chats, and messages.
func (s *GormStore) DeleteProject(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			"DELETE FROM message_models WHERE chat_id IN (SELECT id FROM chat_models WHERE project_id = ?)", id,
		).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ChatModel{}, "project_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&DatasetModel{}, "project_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&ProjectModel{}, "id = ?", id).Error
	})
}

// AppendDataset records an uploaded dataset. The registry is append-only.
func (s *GormStore) AppendDataset(ds domain.Dataset) error {
	model := datasetToModel(ds)
	return s.db.Create(&model).Error
}

// ListDatasets returns a project's datasets in upload order.
func (s *GormStore) ListDatasets(projectID string) ([]domain.Dataset, error) {
	var models []DatasetModel
	if err := s.db.Order("uploaded_at ASC").Where("project_id = ?", projectID).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Dataset, 0, len(models))
	for _, m := range models {
		res = append(res, datasetFromModel(m))
	}
	return res, nil
}

// GetDataset retrieves a dataset record.
func (s *GormStore) GetDataset(id string) (domain.Dataset, bool, error) {
	var model DatasetModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Dataset{}, false, nil
		}
		return domain.Dataset{}, false, err
	}
	return datasetFromModel(model), true, nil
}

// CreateChat stores a new empty chat.
func (s *GormStore) CreateChat(c domain.Chat) error {
	model := ChatModel{ID: c.ID, ProjectID: c.ProjectID, Title: c.Title, CreatedAt: c.CreatedAt, UpdatedAt: c.UpdatedAt}
	return s.db.Create(&model).Error
}

// GetChat retrieves a chat without its messages.
func (s *GormStore) GetChat(id string) (domain.Chat, bool, error) {
	var model ChatModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Chat{}, false, nil
		}
		return domain.Chat{}, false, err
	}
	return chatFromModel(model), true, nil
}

// ListChatsByProject returns chats in creation order.
func (s *GormStore) ListChatsByProject(projectID string) ([]domain.Chat, error) {
	var models []ChatModel
	if err := s.db.Order("created_at ASC").Where("project_id = ?", projectID).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Chat, 0, len(models))
	for _, m := range models {
		res = append(res, chatFromModel(m))
	}
	return res, nil
}

// SetChatTitle renames a chat.
func (s *GormStore) SetChatTitle(id, title string) error {
	return s.db.Model(&ChatModel{}).Where("id = ?", id).Update("title", title).Error
}

// AppendMessage records a message in a chat.
func (s *GormStore) AppendMessage(chatID string, msg domain.Message) error {
	model, err := messageToModel(msg)
	if err != nil {
		return err
	}
	model.ChatID = chatID
	return s.db.Create(&model).Error
}

// ListMessages returns a chat's messages in append order.
func (s *GormStore) ListMessages(chatID string) ([]domain.Message, error) {
	var models []MessageModel
	if err := s.db.Order("created_at ASC").Where("chat_id = ?", chatID).Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Message, 0, len(models))
	for _, m := range models {
		msg, err := messageFromModel(m)
		if err != nil {
			return nil, err
		}
		res = append(res, msg)
	}
	return res, nil
}

// LatestPendingMessage returns the most recent unanswered human message.
func (s *GormStore) LatestPendingMessage(chatID string) (domain.Message, bool, error) {
	var model MessageModel
	err := s.db.Order("created_at DESC").
		Where("chat_id = ? AND pending = ? AND sender = ?", chatID, true, string(domain.SenderHuman)).
		First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Message{}, false, nil
		}
		return domain.Message{}, false, err
	}
	msg, err := messageFromModel(model)
	if err != nil {
		return domain.Message{}, false, err
	}
	return msg, true, nil
}

// MarkMessageAnswered clears the pending flag.
func (s *GormStore) MarkMessageAnswered(messageID string) error {
	return s.db.Model(&MessageModel{}).Where("id = ?", messageID).Update("pending", false).Error
}

func orgToModel(o domain.Organization) OrganizationModel {
	return OrganizationModel{
		ID:           o.ID,
		Name:         o.Name,
		Email:        o.Email,
		PasswordHash: o.PasswordHash,
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
}

func orgFromModel(m OrganizationModel) domain.Organization {
	return domain.Organization{
		ID:           m.ID,
		Name:         m.Name,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Status:       string(u.Status),
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		Status:       domain.UserStatus(m.Status),
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func projectToModel(p domain.Project) ProjectModel {
	return ProjectModel{
		ID:          p.ID,
		TeamID:      p.TeamID,
		Name:        p.Name,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func projectFromModel(m ProjectModel) domain.Project {
	return domain.Project{
		ID:          m.ID,
		TeamID:      m.TeamID,
		Name:        m.Name,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func datasetToModel(d domain.Dataset) DatasetModel {
	return DatasetModel{
		ID:           d.ID,
		ProjectID:    d.ProjectID,
		Name:         d.Name,
		StorageKey:   d.StorageKey,
		StorageURL:   d.StorageURL,
		ResourceType: d.ResourceType,
		UploaderID:   d.UploaderID,
		UploadedAt:   d.UploadedAt,
	}
}

func datasetFromModel(m DatasetModel) domain.Dataset {
	return domain.Dataset{
		ID:           m.ID,
		ProjectID:    m.ProjectID,
		Name:         m.Name,
		StorageKey:   m.StorageKey,
		StorageURL:   m.StorageURL,
		ResourceType: m.ResourceType,
		UploaderID:   m.UploaderID,
		UploadedAt:   m.UploadedAt,
	}
}

func chatFromModel(m ChatModel) domain.Chat {
	return domain.Chat{
		ID:        m.ID,
		ProjectID: m.ProjectID,
		Title:     m.Title,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func messageToModel(msg domain.Message) (MessageModel, error) {
	model := MessageModel{
		ID:        msg.ID,
		ChatID:    msg.ChatID,
		Sender:    string(msg.Sender),
		Content:   msg.Content,
		Pending:   msg.Pending,
		CreatedAt: msg.CreatedAt,
	}
	if len(msg.DatasetIDs) > 0 {
		raw, err := json.Marshal(msg.DatasetIDs)
		if err != nil {
			return MessageModel{}, fmt.Errorf("marshal dataset ids: %w", err)
		}
		model.DatasetIDs = raw
	}
	if len(msg.Attachments) > 0 {
		raw, err := json.Marshal(msg.Attachments)
		if err != nil {
			return MessageModel{}, fmt.Errorf("marshal attachments: %w", err)
		}
		model.Attachments = raw
	}
	return model, nil
}

func messageFromModel(m MessageModel) (domain.Message, error) {
	msg := domain.Message{
		ID:        m.ID,
		ChatID:    m.ChatID,
		Sender:    domain.Sender(m.Sender),
		Content:   m.Content,
		Pending:   m.Pending,
		CreatedAt: m.CreatedAt,
	}
	if len(m.DatasetIDs) > 0 {
		if err := json.Unmarshal(m.DatasetIDs, &msg.DatasetIDs); err != nil {
			return domain.Message{}, fmt.Errorf("unmarshal dataset ids: %w", err)
		}
	}
	if len(m.Attachments) > 0 {
		if err := json.Unmarshal(m.Attachments, &msg.Attachments); err != nil {
			return domain.Message{}, fmt.Errorf("unmarshal attachments: %w", err)
		}
	}
	return msg, nil
}
