package app

import "sync"

// EphemeralFile is a chat-only attachment. Contents live in process memory
// between message append and reply assembly and are never persisted.
type EphemeralFile struct {
	Name        string
	ContentType string
	Content     []byte
}

// attachmentCache holds ephemeral file contents keyed by message ID. A chat
// has at most one cached entry: appending a new message drops whatever the
// previous message left behind.
type attachmentCache struct {
	mu        sync.Mutex
	byMsg     map[string][]EphemeralFile
	msgByChat map[string]string
}

func newAttachmentCache() *attachmentCache {
	return &attachmentCache{
		byMsg:     map[string][]EphemeralFile{},
		msgByChat: map[string]string{},
	}
}

func (c *attachmentCache) put(chatID, messageID string, files []EphemeralFile) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.msgByChat[chatID]; ok {
		delete(c.byMsg, prev)
	}
	delete(c.msgByChat, chatID)
	if len(files) == 0 {
		return
	}
	c.byMsg[messageID] = files
	c.msgByChat[chatID] = messageID
}

// take returns and removes the cached files for a message.
func (c *attachmentCache) take(chatID, messageID string) []EphemeralFile {
	c.mu.Lock()
	defer c.mu.Unlock()
	files := c.byMsg[messageID]
	delete(c.byMsg, messageID)
	if c.msgByChat[chatID] == messageID {
		delete(c.msgByChat, chatID)
	}
	return files
}
