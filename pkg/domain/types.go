package domain

import "time"

type Sender string

const (
	SenderHuman     Sender = "human"
	SenderAssistant Sender = "assistant"
)

type TeamRole string

const (
	RoleMember    TeamRole = "member"
	RoleTeamAdmin TeamRole = "team_admin"
)

type UserStatus string

const (
	StatusActive   UserStatus = "active"
	StatusDisabled UserStatus = "disabled"
)

// DefaultMessageContent is substituted when a user sends datasets or files
// without typing any text.
const DefaultMessageContent = "Analyze these"

// ProcessingErrorReply is appended as the assistant message when the LLM
// gateway call fails. The conversation stays usable; nothing is retried.
const ProcessingErrorReply = "There was an error processing your message."

type Organization struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type User struct {
	ID           string     `json:"id"`
	Email        string     `json:"email"`
	Name         string     `json:"name"`
	PasswordHash string     `json:"-"`
	Status       UserStatus `json:"status"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

type Team struct {
	ID        string       `json:"id"`
	OrgID     string       `json:"orgId"`
	Name      string       `json:"name"`
	Members   []TeamMember `json:"members"`
	CreatedAt time.Time    `json:"createdAt"`
}

type TeamMember struct {
	UserID string   `json:"userId"`
	Role   TeamRole `json:"role"`
}

type Project struct {
	ID          string    `json:"id"`
	TeamID      string    `json:"teamId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Dataset is a durable, project-scoped uploaded tabular file. Records are
// append-only: no update or delete is modeled.
type Dataset struct {
	ID           string    `json:"id"`
	ProjectID    string    `json:"projectId"`
	Name         string    `json:"name"`
	StorageKey   string    `json:"-"`
	StorageURL   string    `json:"url"`
	ResourceType string    `json:"resourceType"`
	UploaderID   string    `json:"uploaderId"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type Chat struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"projectId"`
	Title     string    `json:"title,omitempty"`
	Messages  []Message `json:"messages,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Message belongs to exactly one chat and is never mutated after append,
// except for the pending flag which flips once the reply phase completes.
// DatasetIDs are non-owning references into the project's dataset registry.
type Message struct {
	ID          string           `json:"id"`
	ChatID      string           `json:"chatId"`
	Sender      Sender           `json:"sender"`
	Content     string           `json:"content"`
	DatasetIDs  []string         `json:"datasetIds,omitempty"`
	Attachments []AttachmentMeta `json:"attachments,omitempty"`
	Pending     bool             `json:"pending,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// AttachmentMeta describes a chat-only ephemeral file. Contents are held in
// volatile memory until the reply phase and are never written to storage.
type AttachmentMeta struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	SizeBytes   int64  `json:"sizeBytes"`
}
