package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/llm-council/council-client/internal/model"
)

// View renders the active screen.
func (m *Model) View() string {
	var body string
	switch m.screen {
	case screenList:
		body = m.viewList()
	case screenRoster:
		body = m.viewRoster()
	case screenAnalytics:
		body = m.viewAnalytics()
	default:
		body = m.viewChat()
	}

	var footer []string
	if m.errBanner != "" {
		footer = append(footer, errorStyle.Render(m.errBanner))
	}
	if m.notice != "" {
		footer = append(footer, noticeStyle.Render(m.notice))
	}
	if len(footer) > 0 {
		return body + "\n" + strings.Join(footer, "\n")
	}
	return body
}

func (m *Model) viewList() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("LLM Council") + "\n\n")

	if len(m.summaries) == 0 {
		b.WriteString(dimStyle.Render("no conversations yet") + "\n")
	}
	for i, s := range m.summaries {
		line := fmt.Sprintf("%s  %s", s.CreatedAt.Format("2006-01-02 15:04"), s.Title)
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	b.WriteString("\n" + dimStyle.Render("enter open · n new · a analytics · r refresh · q quit"))
	return b.String()
}

func (m *Model) viewRoster() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Configure council") + "\n")
	b.WriteString(dimStyle.Render(fmt.Sprintf("council %d/5-8 · chairman required", len(m.selection.Council))) + "\n\n")

	for i, entry := range m.registry {
		marks := "   "
		if m.selection.HasCouncil(entry.ID) {
			marks = "[x]"
		}
		chair := " "
		if m.selection.Chairman == entry.ID {
			chair = "C"
		}
		line := fmt.Sprintf("%s %s %-28s $%.2f/$%.2f  %s",
			marks, chair, entry.Name, entry.Pricing.Input, entry.Pricing.Output, entry.Type)
		if i == m.rosterCursor {
			b.WriteString(selectedStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	if m.rosterErr != "" {
		b.WriteString("\n" + errorStyle.Render(m.rosterErr))
	}
	b.WriteString("\n" + dimStyle.Render("space toggle council · c set chairman · enter confirm · esc back"))
	return b.String()
}

func (m *Model) viewAnalytics() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Model performance") + "\n\n")
	if len(m.stats) == 0 {
		b.WriteString(dimStyle.Render("no evaluations recorded yet") + "\n")
	} else {
		b.WriteString(headerStyle.Render(fmt.Sprintf("%-36s %10s %9s %6s", "model", "avg rank", "win rate", "evals")) + "\n")
		for _, s := range m.stats {
			name := s.Model
			if display, ok := m.names[s.Model]; ok {
				name = display
			}
			b.WriteString(fmt.Sprintf("%-36s %10.2f %8.1f%% %6d\n", name, s.AverageRank, s.WinRate, s.Evaluations))
		}
	}
	b.WriteString("\n" + dimStyle.Render("esc back"))
	return b.String()
}

func (m *Model) viewChat() string {
	if m.sess == nil {
		return dimStyle.Render("no conversation open")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.sess.conv.Title) + "\n")
	b.WriteString(m.view.View() + "\n")

	status := fmt.Sprintf("total $%.6f", m.sess.conv.TotalCost)
	if m.estimate != "" {
		status += " · " + m.estimate
	}
	if len(m.pending) > 0 {
		status += fmt.Sprintf(" · %d file(s) attached", len(m.pending))
	}
	if m.sess.turn != nil {
		status += " · " + m.spin.View() + "deliberating (send disabled)"
	}
	b.WriteString(statusBarStyle.Render(status) + "\n")
	b.WriteString(m.input.View())
	return b.String()
}

// refreshView rebuilds the transcript and keeps the viewport pinned to the
// latest content.
func (m *Model) refreshView() {
	if m.sess == nil {
		return
	}
	var b strings.Builder
	for _, msg := range m.sess.conv.Messages {
		m.renderMessage(&b, msg)
	}
	m.view.SetContent(b.String())
	m.view.GotoBottom()
}

func (m *Model) renderMessage(b *strings.Builder, msg *model.Message) {
	switch msg.Role {
	case model.RoleUser:
		b.WriteString(headerStyle.Render("You") + "\n")
		if msg.Content != nil {
			b.WriteString(*msg.Content + "\n")
		}
		b.WriteString("\n")

	case model.RoleAssistant:
		b.WriteString(headerStyle.Render("Council") + "\n")
		if msg.Err != nil {
			b.WriteString(errorStyle.Render("turn failed: "+*msg.Err) + "\n\n")
			return
		}
		m.renderStages(b, msg)
		b.WriteString("\n")
	}
}

func (m *Model) renderStages(b *strings.Builder, msg *model.Message) {
	rec := m.reconciler()

	if msg.Progress.Collect.InFlight() {
		b.WriteString(stageStyle.Render(m.spin.View()+"collecting independent answers...") + "\n")
	}
	if len(msg.Stage1) > 0 {
		b.WriteString(stageStyle.Render("Stage 1 · independent answers") + "\n")
		for _, res := range msg.Stage1 {
			preview := res.Response
			if r := []rune(preview); len(r) > 100 {
				preview = string(r[:100]) + "..."
			}
			b.WriteString(fmt.Sprintf("  %s: %s\n", rec.ModelName(res.Model), strings.ReplaceAll(preview, "\n", " ")))
		}
	}

	if msg.Progress.Rank.InFlight() {
		b.WriteString(stageStyle.Render(m.spin.View()+"ranking anonymously...") + "\n")
	}
	if msg.Stage2 != nil {
		b.WriteString(stageStyle.Render("Stage 2 · peer ranking") + "\n")
		for _, agg := range rec.RankedModels(msg) {
			b.WriteString(fmt.Sprintf("  %.2f  %s\n", agg.AverageRank, agg.Model))
		}
	}

	if msg.Progress.Synthesize.InFlight() {
		b.WriteString(stageStyle.Render(m.spin.View()+"chairman synthesizing...") + "\n")
	}
	if msg.Progress.Chat.InFlight() {
		b.WriteString(stageStyle.Render(m.spin.View()+"chairman thinking...") + "\n")
	}

	if final := msg.FinalText(); final != "" {
		if msg.Stage3 != nil && msg.Stage3.Confidence != "" {
			b.WriteString(dimStyle.Render("confidence: "+msg.Stage3.Confidence) + "\n")
		}
		b.WriteString(m.renderMarkdown(final))
	}
	if msg.Reasoning != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("(reasoning trace: %d chars)", len(*msg.Reasoning))) + "\n")
	}
}

// renderMarkdown renders the final answer; on any renderer failure the raw
// text is shown instead of nothing. The renderer is cached until the next
// resize.
func (m *Model) renderMarkdown(text string) string {
	if m.markdown == nil {
		width := m.width - 2
		if width < 20 {
			width = 78
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return text + "\n"
		}
		m.markdown = renderer
	}
	out, err := m.markdown.Render(text)
	if err != nil {
		return text + "\n"
	}
	return out
}
