package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/llm-council/council-client/internal/model"
)

// handleRosterKey drives the council/chairman picker. Space toggles council
// membership (a toggle past the cap is a silent no-op), "c" assigns the
// chairman, enter confirms, esc abandons.
func (m *Model) handleRosterKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.screen = screenList
		return m, nil

	case "up", "k":
		if m.rosterCursor > 0 {
			m.rosterCursor--
		}

	case "down", "j":
		if m.rosterCursor < len(m.registry)-1 {
			m.rosterCursor++
		}

	case " ":
		if len(m.registry) > 0 {
			entry := m.registry[m.rosterCursor]
			if entry.CanSitOnCouncil() {
				m.selection.ToggleCouncil(entry.ID)
				m.rosterErr = ""
			} else {
				m.rosterErr = entry.Name + " cannot sit on the council"
			}
		}

	case "c":
		if len(m.registry) > 0 {
			entry := m.registry[m.rosterCursor]
			if entry.CanChair() {
				m.selection.SetChairman(entry.ID)
				m.rosterErr = ""
			} else {
				m.rosterErr = entry.Name + " cannot chair"
			}
		}

	case "enter":
		if err := m.selection.Confirm(); err != nil {
			m.rosterErr = err.Error()
			return m, nil
		}
		meta := m.selection.Metadata()
		return m, m.createConversationCmd(&model.CreateConversationRequest{
			Topic:          "New Conversation",
			CouncilMembers: meta.CouncilModels,
			ChairmanModel:  meta.ChairmanModel,
		})
	}
	return m, nil
}
