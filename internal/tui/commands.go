package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/llm-council/council-client/internal/api"
	"github.com/llm-council/council-client/internal/export"
	"github.com/llm-council/council-client/internal/model"
)

func (m *Model) loadModelsCmd() tea.Cmd {
	return func() tea.Msg {
		models, err := m.client.Models(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return modelsLoadedMsg{models: models}
	}
}

func (m *Model) loadConversationsCmd() tea.Cmd {
	return func() tea.Msg {
		summaries, err := m.client.ListConversations(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return conversationsLoadedMsg{summaries: summaries}
	}
}

func (m *Model) openConversationCmd(id string) tea.Cmd {
	return func() tea.Msg {
		conv, err := m.client.GetConversation(context.Background(), id)
		if err != nil {
			return errMsg{err}
		}
		return conversationOpenedMsg{conversation: conv}
	}
}

func (m *Model) createConversationCmd(req *model.CreateConversationRequest) tea.Cmd {
	return func() tea.Msg {
		conv, err := m.client.CreateConversation(context.Background(), req)
		if err != nil {
			return errMsg{err}
		}
		return conversationCreatedMsg{conversation: conv}
	}
}

func (m *Model) loadAnalyticsCmd() tea.Cmd {
	return func() tea.Msg {
		stats, err := m.client.Analytics(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return analyticsLoadedMsg{stats: stats}
	}
}

// uploadCmd runs the pending batch sequentially, then folds the extracted
// text into the message content. Any failure aborts the send.
func (m *Model) uploadCmd(content string, pending []*api.PendingUpload) tea.Cmd {
	return func() tea.Msg {
		results, err := m.client.UploadBatch(context.Background(), pending)
		if err != nil {
			return errMsg{err}
		}
		return uploadsDoneMsg{content: api.FoldUploads(content, results)}
	}
}

// startTurnCmd opens the turn stream. The stream context belongs to the
// session, not to this command, so switching conversations cancels it.
func (m *Model) startTurnCmd(ctx context.Context, conversationID, content string) tea.Cmd {
	return func() tea.Msg {
		turn, err := m.client.StreamMessage(ctx, conversationID, &model.SendMessageRequest{
			Content: content,
			Mode:    model.ModeAuto,
		})
		if err != nil {
			return errMsg{err}
		}
		return turnStartedMsg{conversationID: conversationID, turn: turn}
	}
}

// waitForEventCmd blocks on the next stream event. Re-issued after every
// delivery so events flow through Update strictly one at a time, in order.
func waitForEventCmd(turn *api.TurnStream) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-turn.Events()
		if !ok {
			return streamClosedMsg{turn: turn, err: turn.Err()}
		}
		return streamEventMsg{turn: turn, event: ev}
	}
}

func (m *Model) exportCmd(conv *model.Conversation) tea.Cmd {
	return func() tea.Msg {
		serializer := export.NewSerializer(m.names)
		path, err := serializer.WriteFile(conv, m.exportDir)
		if err != nil {
			return errMsg{err}
		}
		return exportedMsg{path: path}
	}
}
