package store

import (
	"time"

	"gorm.io/datatypes"
)

// GORM models used for persistence.
type OrganizationModel struct {
	ID           string    `gorm:"primaryKey"`
	Name         string    `gorm:"not null"`
	Email        string    `gorm:"uniqueIndex;not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type UserModel struct {
	ID           string `gorm:"primaryKey"`
	Email        string `gorm:"uniqueIndex;not null"`
	Name         string
	PasswordHash string `gorm:"not null"`
	Status       string
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time
}

type TeamModel struct {
	ID        string    `gorm:"primaryKey"`
	OrgID     string    `gorm:"not null;index"`
	Name      string    `gorm:"not null"`
	CreatedAt time.Time `gorm:"not null"`
}

type TeamMemberModel struct {
	TeamID string `gorm:"primaryKey"`
	UserID string `gorm:"primaryKey"`
	Role   string `gorm:"not null"`
}

type ProjectModel struct {
	ID          string `gorm:"primaryKey"`
	TeamID      string `gorm:"not null;index"`
	Name        string `gorm:"not null"`
	Description string
	CreatedAt   time.Time `gorm:"not null"`
	UpdatedAt   time.Time `gorm:"not null"`
}

type DatasetModel struct {
	ID           string `gorm:"primaryKey"`
	ProjectID    string `gorm:"not null;index"`
	Name         string `gorm:"not null"`
	StorageKey   string `gorm:"not null"`
	StorageURL   string
	ResourceType string
	UploaderID   string
	UploadedAt   time.Time `gorm:"not null;index"`
}

type ChatModel struct {
	ID        string `gorm:"primaryKey"`
	ProjectID string `gorm:"not null;index"`
	Title     string
	CreatedAt time.Time `gorm:"not null;index"`
	UpdatedAt time.Time `gorm:"not null"`
}

type MessageModel struct {
	ID          string         `gorm:"primaryKey"`
	ChatID      string         `gorm:"not null;index"`
	Sender      string         `gorm:"not null"`
	Content     string         `gorm:"type:text;not null"`
	DatasetIDs  datatypes.JSON `gorm:"type:jsonb"`
	Attachments datatypes.JSON `gorm:"type:jsonb"`
	Pending     bool           `gorm:"not null;default:false"`
	CreatedAt   time.Time      `gorm:"not null;index"`
}
