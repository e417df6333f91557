package tui

import (
	"github.com/llm-council/council-client/internal/api"
	"github.com/llm-council/council-client/internal/model"
	"github.com/llm-council/council-client/internal/stream"
)

// Messages delivered into the bubbletea update loop. Stream events arrive
// one per message, in network order; the pump goroutine never touches model
// state directly.

type modelsLoadedMsg struct {
	models []model.ModelInfo
}

type conversationsLoadedMsg struct {
	summaries []model.ConversationSummary
}

type conversationOpenedMsg struct {
	conversation *model.Conversation
}

type conversationCreatedMsg struct {
	conversation *model.Conversation
}

type analyticsLoadedMsg struct {
	stats []model.ModelStats
}

type turnStartedMsg struct {
	conversationID string
	turn           *api.TurnStream
}

type streamEventMsg struct {
	turn  *api.TurnStream
	event stream.Event
}

type streamClosedMsg struct {
	turn *api.TurnStream
	err  error
}

type uploadsDoneMsg struct {
	content string
}

type exportedMsg struct {
	path string
}

type errMsg struct {
	err error
}
