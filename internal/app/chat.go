package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"datadesk/internal/util"
	"datadesk/pkg/domain"
)

const replySystemPrompt = "You are a data analysis assistant. Answer the user's question using the provided datasets and attached files when they are relevant. Be concise and specific."

// CreateChat opens a new chat under a project.
func (a *App) CreateChat(p Principal, projectID string) (domain.Chat, error) {
	project, err := a.GetProject(p, projectID)
	if err != nil {
		return domain.Chat{}, err
	}
	now := time.Now().UTC()
	chat := domain.Chat{
		ID:        util.NewID(),
		ProjectID: project.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.CreateChat(chat); err != nil {
		return domain.Chat{}, fmt.Errorf("create chat: %w", err)
	}
	return chat, nil
}

// ListChats lists a project's chats in creation order.
func (a *App) ListChats(p Principal, projectID string) ([]domain.Chat, error) {
	if _, err := a.GetProject(p, projectID); err != nil {
		return nil, err
	}
	chats, err := a.store.ListChatsByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// RenameChat sets a chat title. Blank titles are rejected.
func (a *App) RenameChat(p Principal, projectID, chatID, title string) (domain.Chat, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.Chat{}, fmt.Errorf("%w: title required", ErrValidation)
	}
	chat, err := a.chatInProject(p, projectID, chatID)
	if err != nil {
		return domain.Chat{}, err
	}
	if err := a.store.SetChatTitle(chat.ID, title); err != nil {
		return domain.Chat{}, fmt.Errorf("rename chat: %w", err)
	}
	chat.Title = title
	return chat, nil
}

// GetChatHistory returns a chat with its full message sequence in append order.
func (a *App) GetChatHistory(p Principal, projectID, chatID string) (domain.Chat, error) {
	chat, err := a.chatInProject(p, projectID, chatID)
	if err != nil {
		return domain.Chat{}, err
	}
	messages, err := a.store.ListMessages(chat.ID)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("list messages: %w", err)
	}
	chat.Messages = messages
	return chat, nil
}

// AppendUserMessage records a human message with optional dataset references
// and ephemeral files. When text, datasets, and files are all absent the call
// is a no-op and the returned bool is false. Ephemeral file contents go to
// the in-memory cache only; they are never written to object storage.
func (a *App) AppendUserMessage(ctx context.Context, p Principal, projectID, chatID, content string, datasetIDs []string, files []EphemeralFile) (domain.Message, bool, error) {
	chat, err := a.chatInProject(p, projectID, chatID)
	if err != nil {
		return domain.Message{}, false, err
	}
	for _, f := range files {
		if _, ok := resourceTypeFor(f.Name, f.ContentType); !ok {
			return domain.Message{}, false, fmt.Errorf("%w: %s", ErrUnsupportedFileType, f.Name)
		}
	}

	content = strings.TrimSpace(content)
	resolved, err := a.resolveDatasetIDs(projectID, datasetIDs)
	if err != nil {
		return domain.Message{}, false, err
	}
	if content == "" && len(resolved) == 0 && len(files) == 0 {
		return domain.Message{}, false, nil
	}
	if content == "" {
		content = domain.DefaultMessageContent
	}

	attachments := make([]domain.AttachmentMeta, 0, len(files))
	for _, f := range files {
		attachments = append(attachments, domain.AttachmentMeta{
			Name:        f.Name,
			ContentType: f.ContentType,
			SizeBytes:   int64(len(f.Content)),
		})
	}

	msg := domain.Message{
		ID:          util.NewID(),
		ChatID:      chat.ID,
		Sender:      domain.SenderHuman,
		Content:     content,
		DatasetIDs:  resolved,
		Attachments: attachments,
		Pending:     true,
		CreatedAt:   time.Now().UTC(),
	}
	if err := a.store.AppendMessage(chat.ID, msg); err != nil {
		return domain.Message{}, false, fmt.Errorf("append message: %w", err)
	}
	a.attachments.put(chat.ID, msg.ID, files)
	return msg, true, nil
}

// RequestReply assembles the model context for the latest unanswered human
// message and appends the assistant reply. Assembly or gateway failures
// degrade to a fixed error reply inside the chat; the message is marked
// answered either way, so the model is called at most once per message.
func (a *App) RequestReply(ctx context.Context, p Principal, projectID, chatID string) (string, error) {
	chat, err := a.chatInProject(p, projectID, chatID)
	if err != nil {
		return "", err
	}
	pending, ok, err := a.store.LatestPendingMessage(chat.ID)
	if err != nil {
		return "", fmt.Errorf("load pending message: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("%w: chat %s", ErrNoPendingMessage, chat.ID)
	}

	files := a.attachments.take(chat.ID, pending.ID)
	reply, genErr := a.generateReply(ctx, chat, pending, files)
	if genErr != nil {
		slog.Warn("reply generation failed", "chat_id", chat.ID, "message_id", pending.ID, "error", genErr)
		reply = domain.ProcessingErrorReply
	}

	assistant := domain.Message{
		ID:        util.NewID(),
		ChatID:    chat.ID,
		Sender:    domain.SenderAssistant,
		Content:   reply,
		CreatedAt: time.Now().UTC(),
	}
	if err := a.store.AppendMessage(chat.ID, assistant); err != nil {
		return "", fmt.Errorf("append reply: %w", err)
	}
	if err := a.store.MarkMessageAnswered(pending.ID); err != nil {
		return "", fmt.Errorf("mark answered: %w", err)
	}
	return reply, nil
}

// generateReply builds the prompt from history, referenced dataset contents,
// and cached attachments, then calls the gateway once.
func (a *App) generateReply(ctx context.Context, chat domain.Chat, pending domain.Message, files []EphemeralFile) (string, error) {
	messages, err := a.store.ListMessages(chat.ID)
	if err != nil {
		return "", fmt.Errorf("load history: %w", err)
	}
	history := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.ID == pending.ID {
			continue
		}
		history = append(history, m)
	}
	if len(history) > a.historyLimit {
		history = history[len(history)-a.historyLimit:]
	}

	var sb strings.Builder
	if text := buildHistory(history); text != "" {
		sb.WriteString("Conversation history:\n")
		sb.WriteString(text)
		sb.WriteString("\n\n")
	}
	for _, id := range pending.DatasetIDs {
		ds, ok, err := a.store.GetDataset(id)
		if err != nil {
			return "", fmt.Errorf("load dataset %s: %w", id, err)
		}
		if !ok {
			continue
		}
		content, err := a.fetchObject(ctx, ds.StorageKey)
		if err != nil {
			return "", fmt.Errorf("fetch dataset %s: %w", ds.Name, err)
		}
		sb.WriteString(fmt.Sprintf("Dataset %s:\n%s\n\n", ds.Name, content))
	}
	for _, f := range files {
		sb.WriteString(fmt.Sprintf("Attached file %s:\n%s\n\n", f.Name, a.truncate(f.Content)))
	}
	sb.WriteString("Current message:\n")
	sb.WriteString(pending.Content)

	reply, err := a.generator.GenerateText(ctx, replySystemPrompt, sb.String())
	if err != nil {
		return "", fmt.Errorf("generate reply: %w", err)
	}
	return reply, nil
}

// resolveDatasetIDs keeps known datasets belonging to the project, in input
// order without duplicates. Unknown or foreign references are dropped;
// lookup failures are not, so a store outage cannot silently strip a valid
// reference from the message.
func (a *App) resolveDatasetIDs(projectID string, ids []string) ([]string, error) {
	var resolved []string
	seen := map[string]bool{}
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		ds, ok, err := a.store.GetDataset(id)
		if err != nil {
			return nil, fmt.Errorf("resolve dataset %s: %w", id, err)
		}
		if !ok || ds.ProjectID != projectID {
			slog.Warn("dropping unknown dataset reference", "project_id", projectID, "dataset_id", id)
			continue
		}
		resolved = append(resolved, id)
	}
	return resolved, nil
}

// chatInProject loads a chat and verifies it belongs to the given project.
// A chat under a different project reads as not found.
func (a *App) chatInProject(p Principal, projectID, chatID string) (domain.Chat, error) {
	if _, err := a.GetProject(p, projectID); err != nil {
		return domain.Chat{}, err
	}
	chat, ok, err := a.store.GetChat(chatID)
	if err != nil {
		return domain.Chat{}, fmt.Errorf("load chat: %w", err)
	}
	if !ok || chat.ProjectID != projectID {
		return domain.Chat{}, fmt.Errorf("%w: chat %s", ErrNotFound, chatID)
	}
	return chat, nil
}

func (a *App) fetchObject(ctx context.Context, key string) (string, error) {
	rc, err := a.objects.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, int64(a.maxFileContext)+1))
	if err != nil {
		return "", err
	}
	return a.truncate(data), nil
}

// truncate caps file content at maxFileContext bytes, backing the cut up to
// a rune boundary so the prompt never carries a split UTF-8 sequence.
func (a *App) truncate(data []byte) string {
	if len(data) <= a.maxFileContext {
		return string(data)
	}
	cut := a.maxFileContext
	for cut > 0 && !utf8.RuneStart(data[cut]) {
		cut--
	}
	return string(data[:cut]) + "…"
}

func buildHistory(messages []domain.Message) string {
	if len(messages) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, msg := range messages {
		role := "user"
		if msg.Sender == domain.SenderAssistant {
			role = "assistant"
		}
		sb.WriteString(role)
		sb.WriteString(": ")
		sb.WriteString(msg.Content)
		sb.WriteString("\n")
	}
	return strings.TrimSpace(sb.String())
}
