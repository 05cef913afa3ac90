package models

import "time"

// Role identifies who authored a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMode selects which knowledge the webhook backend answers from.
type ChatMode string

const (
	ChatModeCompany    ChatMode = "Company"
	ChatModeGlobal     ChatMode = "Global"
	ChatModeSummarizer ChatMode = "Summarizer"
)

// DefaultChatMode is used when a request does not name a mode.
const DefaultChatMode = ChatModeCompany

// ChatModes lists every accepted chat mode.
var ChatModes = []ChatMode{ChatModeCompany, ChatModeGlobal, ChatModeSummarizer}

// Valid reports whether m is one of ChatModes.
func (m ChatMode) Valid() bool {
	for _, known := range ChatModes {
		if m == known {
			return true
		}
	}
	return false
}

// Source is citation metadata attached to assistant answers.
// It is passed through unchanged from the webhook backend.
type Source struct {
	FileID  string `json:"fileId"`
	Page    int    `json:"page"`
	ChunkID string `json:"chunkId"`
}

// AttachmentKind distinguishes previewable images from other files.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentFile  AttachmentKind = "file"
)

// Attachment references a file the user sent along with a message.
type Attachment struct {
	Kind        AttachmentKind `json:"kind"`
	Name        string         `json:"name"`
	ContentType string         `json:"content_type"`
	Size        int64          `json:"size"`
	Key         string         `json:"key"`
	URL         string         `json:"url,omitempty"`
}

// ChatMessage is a single entry in a session. Messages are immutable once appended.
type ChatMessage struct {
	ID         string      `json:"id" db:"id"`
	SessionID  string      `json:"session_id" db:"session_id"`
	Role       Role        `json:"role" db:"role"`
	Content    string      `json:"content" db:"content"`
	Sources    []Source    `json:"sources,omitempty" db:"sources"`
	Attachment *Attachment `json:"attachment,omitempty" db:"attachment"`
	Error      bool        `json:"error,omitempty" db:"is_error"`
	CreatedAt  time.Time   `json:"created_at" db:"created_at"`
}

// ChatSession is an ordered conversation owned by one user.
type ChatSession struct {
	ID           string        `json:"id" db:"id"`
	UserID       string        `json:"user_id" db:"user_id"`
	Title        string        `json:"title" db:"title"`
	ChatMode     ChatMode      `json:"chat_mode" db:"chat_mode"`
	MessageCount int           `json:"message_count" db:"-"`
	Messages     []ChatMessage `json:"messages,omitempty" db:"-"`
	CreatedAt    time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at" db:"updated_at"`
}
