// Package tui is the terminal presentation layer: conversation list, roster
// picker, streaming chat view and analytics, rendered with bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/llm-council/council-client/internal/api"
	"github.com/llm-council/council-client/internal/cost"
	"github.com/llm-council/council-client/internal/council"
	"github.com/llm-council/council-client/internal/model"
	"github.com/llm-council/council-client/internal/roster"
	"github.com/llm-council/council-client/internal/stream"
	"github.com/llm-council/council-client/pkg/logger"
	"github.com/llm-council/council-client/pkg/metrics"
)

type screen int

const (
	screenList screen = iota
	screenRoster
	screenChat
	screenAnalytics
)

// session is the state bound to one open conversation. Its context owns the
// active turn stream: tearing the session down cancels the reader, and no
// further events are applied.
type session struct {
	conv    *model.Conversation
	reducer *stream.Reducer
	turn    *api.TurnStream
	ctx     context.Context
	cancel  context.CancelFunc
}

func (s *session) close() {
	if s == nil {
		return
	}
	s.cancel()
	if s.turn != nil {
		s.turn.Close()
	}
}

// Model is the bubbletea application model.
type Model struct {
	client    *api.Client
	log       *logger.Logger
	exportDir string

	screen screen
	width  int
	height int

	// registry snapshot, refreshed between turns only
	registry []model.ModelInfo
	prices   model.PriceTable
	names    map[string]string

	summaries []model.ConversationSummary
	cursor    int

	selection    roster.Selection
	rosterCursor int
	rosterErr    string

	sess     *session
	pending  []*api.PendingUpload
	estimate string

	stats []model.ModelStats

	input     textarea.Model
	view      viewport.Model
	spin      spinner.Model
	errBanner string
	notice    string

	// markdown is rebuilt lazily after a resize; renderer construction is
	// too expensive to repeat per message per frame.
	markdown *glamour.TermRenderer
}

// New creates the application model.
func New(client *api.Client, exportDir string, log *logger.Logger) *Model {
	input := textarea.New()
	input.Placeholder = "Ask the council..."
	input.ShowLineNumbers = false
	input.SetHeight(3)

	sp := spinner.New(spinner.WithSpinner(spinner.Dot))

	return &Model{
		client:    client,
		log:       log,
		exportDir: exportDir,
		screen:    screenList,
		input:     input,
		view:      viewport.New(80, 20),
		spin:      sp,
		names:     map[string]string{},
		prices:    model.PriceTable{},
	}
}

// Init kicks off registry and conversation loading.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, m.loadModelsCmd(), m.loadConversationsCmd())
}

// Update is the single ordered entry point for every event: key presses,
// command results, and stream events one at a time in arrival order.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.view.Width = msg.Width
		m.view.Height = msg.Height - 9
		m.input.SetWidth(msg.Width - 4)
		m.markdown = nil
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd

	case modelsLoadedMsg:
		m.registry = msg.models
		m.prices = model.NewPriceTable(msg.models)
		m.names = model.DisplayNames(msg.models)
		m.selection = roster.Default(msg.models)
		return m, nil

	case conversationsLoadedMsg:
		m.summaries = msg.summaries
		if m.cursor >= len(m.summaries) {
			m.cursor = 0
		}
		return m, nil

	case conversationOpenedMsg:
		return m.openSession(msg.conversation)

	case conversationCreatedMsg:
		return m.openSession(msg.conversation)

	case analyticsLoadedMsg:
		m.stats = msg.stats
		m.screen = screenAnalytics
		return m, nil

	case uploadsDoneMsg:
		if m.sess == nil {
			// Session was torn down while the batch uploaded. The folded
			// content is dropped; sending it into a closed session would
			// start a turn nothing is listening to.
			return m, nil
		}
		return m.beginTurn(msg.content)

	case turnStartedMsg:
		if m.sess == nil || m.sess.conv.ID != msg.conversationID {
			// Conversation was switched while the request was in flight. The
			// stream belongs to the old session and must not attach here.
			msg.turn.Close()
			return m, nil
		}
		m.sess.turn = msg.turn
		return m, waitForEventCmd(msg.turn)

	case streamEventMsg:
		return m.applyStreamEvent(msg)

	case streamClosedMsg:
		return m.finishTurn(msg)

	case exportedMsg:
		m.notice = "exported to " + msg.path
		return m, nil

	case errMsg:
		m.errBanner = msg.err.Error()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		m.sess.close()
		return m, tea.Quit
	}
	m.errBanner = ""

	switch m.screen {
	case screenList:
		return m.handleListKey(msg)
	case screenRoster:
		return m.handleRosterKey(msg)
	case screenAnalytics:
		if msg.String() == "esc" || msg.String() == "q" {
			m.screen = screenList
		}
		return m, nil
	default:
		return m.handleChatKey(msg)
	}
}

func (m *Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.summaries)-1 {
			m.cursor++
		}
	case "enter":
		if len(m.summaries) > 0 {
			return m, m.openConversationCmd(m.summaries[m.cursor].ID)
		}
	case "n":
		m.rosterErr = ""
		m.screen = screenRoster
	case "a":
		return m, m.loadAnalyticsCmd()
	case "r":
		return m, m.loadConversationsCmd()
	}
	return m, nil
}

func (m *Model) handleChatKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		// Tearing down the view releases the stream reader; an unfinished
		// message stays visibly in progress and is not resumed.
		m.sess.close()
		m.sess = nil
		m.pending = nil
		m.screen = screenList
		return m, m.loadConversationsCmd()

	case tea.KeyEnter:
		return m.submit()
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.refreshEstimate()
	return m, cmd
}

// submit validates and sends the composed message. While a turn is in flight
// the send affordance is disabled: submission is rejected here, not queued.
func (m *Model) submit() (tea.Model, tea.Cmd) {
	if m.sess == nil {
		return m, nil
	}
	if m.sess.turn != nil || m.client.TurnInFlight(m.sess.conv.ID) {
		m.errBanner = "a turn is already in flight"
		return m, nil
	}

	content := strings.TrimSpace(m.input.Value())
	if content == "" {
		return m, nil
	}

	if cmd, handled := m.handleSlashCommand(content); handled {
		m.input.Reset()
		return m, cmd
	}

	m.input.Reset()
	m.estimate = ""

	if len(m.pending) > 0 {
		if err := m.client.ValidateBatch(m.pending); err != nil {
			m.errBanner = err.Error()
			return m, nil
		}
		return m, m.uploadCmd(content, m.pending)
	}
	return m.beginTurn(content)
}

func (m *Model) handleSlashCommand(content string) (tea.Cmd, bool) {
	switch {
	case content == "/export":
		return m.exportCmd(m.sess.conv), true
	case content == "/analytics":
		return m.loadAnalyticsCmd(), true
	case strings.HasPrefix(content, "/attach "):
		path := strings.TrimSpace(strings.TrimPrefix(content, "/attach "))
		p, err := m.client.NewPendingUpload(path)
		if err != nil {
			m.errBanner = err.Error()
			return nil, true
		}
		m.pending = append(m.pending, p)
		m.notice = fmt.Sprintf("attached %s (%d queued)", p.Name, len(m.pending))
		return nil, true
	case content == "/detach":
		m.pending = nil
		m.notice = "attachments cleared"
		return nil, true
	}
	return nil, false
}

// beginTurn appends the user message and the in-progress assistant message,
// then opens the stream. The assistant message is mutated in place by the
// reducer, so the view renders whichever stages have arrived.
func (m *Model) beginTurn(content string) (tea.Model, tea.Cmd) {
	conv := m.sess.conv
	conv.Messages = append(conv.Messages, model.NewUserMessage(content))

	m.sess.reducer = stream.NewReducer(m.log)
	conv.Messages = append(conv.Messages, m.sess.reducer.Message())
	m.pending = nil
	m.refreshView()

	return m, m.startTurnCmd(m.sess.ctx, conv.ID, content)
}

func (m *Model) applyStreamEvent(msg streamEventMsg) (tea.Model, tea.Cmd) {
	if m.sess == nil || m.sess.turn != msg.turn {
		// Stale event from an abandoned stream; the pump is already closing.
		return m, nil
	}

	m.sess.reducer.Apply(msg.event)
	if title := m.sess.reducer.Title(); title != "" {
		m.sess.conv.Title = title
	}
	if _, total, known := m.sess.reducer.Costs(); known {
		m.sess.conv.TotalCost = total
	}
	m.refreshView()

	return m, waitForEventCmd(msg.turn)
}

func (m *Model) finishTurn(msg streamClosedMsg) (tea.Model, tea.Cmd) {
	if m.sess == nil || m.sess.turn != msg.turn {
		return m, nil
	}
	m.sess.turn = nil

	red := m.sess.reducer
	turnCost, _, known := red.Costs()
	mode := model.ModeChat
	if red.Message().Stage3 != nil {
		mode = model.ModeCouncil
	}
	status := "ok"
	if red.Message().Err != nil || msg.err != nil {
		status = "error"
	}
	if known || status == "error" {
		metrics.RecordTurn(string(mode), status, turnCost)
	}

	if msg.err != nil {
		m.errBanner = "stream ended: " + msg.err.Error()
		m.log.Warn("turn stream ended abnormally",
			zap.String("conversation_id", m.sess.conv.ID),
			zap.Error(msg.err),
		)
	}
	m.refreshView()
	m.refreshEstimate()
	return m, nil
}

func (m *Model) openSession(conv *model.Conversation) (tea.Model, tea.Cmd) {
	m.sess.close()
	ctx, cancel := context.WithCancel(context.Background())
	m.sess = &session{conv: conv, ctx: ctx, cancel: cancel}
	m.screen = screenChat
	m.pending = nil
	m.notice = ""
	m.input.Reset()
	m.input.Focus()
	m.refreshView()
	m.refreshEstimate()
	return m, nil
}

// refreshEstimate reprojects next-turn cost from the current input. Pure and
// cheap, so it runs on every keystroke.
func (m *Model) refreshEstimate() {
	if m.sess == nil {
		m.estimate = ""
		return
	}
	est, err := cost.EstimateTurn(m.input.Value(), len(m.sess.conv.Messages), m.sess.conv.Metadata, m.prices)
	if err != nil {
		m.estimate = "est. n/a"
		return
	}
	m.estimate = fmt.Sprintf("est. $%.6f (%s)", est.Dollars, est.Mode)
}

func (m *Model) reconciler() *council.Reconciler {
	return council.NewReconciler(m.names)
}
