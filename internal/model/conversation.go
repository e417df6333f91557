// Package model defines data structures for the council client.
package model

import (
	"time"
)

// ConversationMetadata carries the roster configured for a conversation.
// Conversations created before roster tracking existed have neither field;
// the cost estimator treats that as "unavailable" rather than guessing.
type ConversationMetadata struct {
	CouncilModels []string `json:"council_models,omitempty"`
	ChairmanModel string   `json:"chairman_model,omitempty"`
}

// Conversation represents a full conversation thread as served by the backend.
type Conversation struct {
	ID        string               `json:"id"`
	CreatedAt time.Time            `json:"created_at"`
	Title     string               `json:"title"`
	Messages  []*Message           `json:"messages"`
	TotalCost float64              `json:"total_cost"`
	Metadata  ConversationMetadata `json:"metadata,omitempty"`
}

// ConversationSummary is the list-view projection of a conversation.
type ConversationSummary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Title        string    `json:"title"`
	MessageCount int       `json:"message_count"`
}

// CreateConversationRequest is the request to create a new conversation.
type CreateConversationRequest struct {
	Topic          string   `json:"topic"`
	CouncilMembers []string `json:"council_members,omitempty"`
	ChairmanModel  string   `json:"chairman_model,omitempty"`
}

// TurnMode selects how the backend handles a message.
type TurnMode string

const (
	// ModeAuto lets the backend pick council for the first turn, chat after.
	ModeAuto TurnMode = "auto"
	// ModeCouncil forces the full three-stage deliberation.
	ModeCouncil TurnMode = "council"
	// ModeChat forces a single-stage chairman follow-up.
	ModeChat TurnMode = "chat"
)

// SendMessageRequest is the request body for both message endpoints.
type SendMessageRequest struct {
	Content string   `json:"content"`
	Mode    TurnMode `json:"mode"`
}

// EffectiveMode resolves ModeAuto the same way the backend does: council on
// the first turn, chat once history exists.
func EffectiveMode(mode TurnMode, historyLen int) TurnMode {
	if mode != ModeAuto {
		return mode
	}
	if historyLen == 0 {
		return ModeCouncil
	}
	return ModeChat
}

// TurnIndex counts completed council turns, mirroring the backend's rule of
// counting assistant messages that carry a stage3 payload.
func (c *Conversation) TurnIndex() int {
	count := 0
	for _, msg := range c.Messages {
		if msg.Role == RoleAssistant && msg.Stage3 != nil {
			count++
		}
	}
	return count
}
