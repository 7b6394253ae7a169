package model

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one turn of conversation history as supplied by the caller.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatSession struct {
	ID    string `json:"id" db:"id"`
	Title string `json:"title" db:"title"`
	Ctime int64  `json:"ctime" db:"ctime"`
	Mtime int64  `json:"mtime" db:"mtime"`
}

type ChatMessage struct {
	ID        string `json:"id" db:"id"`
	SessionID string `json:"session_id" db:"session_id"`
	Role      string `json:"role" db:"role"`
	Content   string `json:"content" db:"content"`
	Sources   string `json:"sources,omitempty" db:"sources"` // JSON-encoded []SourceInfo
	Model     string `json:"model,omitempty" db:"model"`
	Provider  string `json:"provider,omitempty" db:"provider"`
	Ctime     int64  `json:"ctime" db:"ctime"`
}
