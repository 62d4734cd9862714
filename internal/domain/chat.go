package domain

import "time"

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatSession es una conversacion del asistente ligada a una valuacion.
type ChatSession struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ValuationID string    `json:"valuation_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChatMessage struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Explanation es el texto explicativo de una valuacion.
type Explanation struct {
	Summary    string   `json:"summary"`
	Highlights []string `json:"highlights,omitempty"`
	Source     string   `json:"source"` // "llm" o "template"
}
