package model

// Role represents the role of a message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StageStatus is the lifecycle of a single deliberation stage within one
// message. The zero value is StagePending: no start event has been applied.
type StageStatus int

const (
	// StagePending means the stage has not started.
	StagePending StageStatus = iota
	// StageStreaming means a start event arrived and data may still follow.
	StageStreaming
	// StageDone means the stage's payload is complete.
	StageDone
	// StageErrored means the turn failed while this stage was in flight.
	StageErrored
)

// String returns the status name for logs and rendering.
func (s StageStatus) String() string {
	switch s {
	case StageStreaming:
		return "streaming"
	case StageDone:
		return "done"
	case StageErrored:
		return "errored"
	default:
		return "pending"
	}
}

// InFlight reports whether the stage has started but not yet settled.
func (s StageStatus) InFlight() bool {
	return s == StageStreaming
}

// StageProgress tracks per-stage status for an in-flight message. It replaces
// the boolean loading-flag set: a stage is "loading" exactly when its status
// is StageStreaming, and invalid flag combinations cannot be represented.
type StageProgress struct {
	Collect    StageStatus `json:"-"`
	Rank       StageStatus `json:"-"`
	Synthesize StageStatus `json:"-"`
	Chat       StageStatus `json:"-"`
}

// Any reports whether any stage is still in flight.
func (p StageProgress) Any() bool {
	return p.Collect.InFlight() || p.Rank.InFlight() ||
		p.Synthesize.InFlight() || p.Chat.InFlight()
}

// Stage1Response is one council member's independent answer.
type Stage1Response struct {
	Model     string `json:"model"`
	Response  string `json:"response"`
	Reasoning string `json:"reasoning,omitempty"`
}

// RankingJudgment is one council member's anonymous peer evaluation.
type RankingJudgment struct {
	Model         string   `json:"model"`
	Ranking       string   `json:"ranking"`
	ParsedRanking []string `json:"parsed_ranking,omitempty"`
}

// AggregateRanking is the derived ordering across all judgments.
type AggregateRanking struct {
	Model       string  `json:"model"`
	Label       string  `json:"label,omitempty"`
	AverageRank float64 `json:"average_rank"`
}

// Stage2Metadata carries the anonymization mapping and derived ordering for
// one message. Labels are only meaningful within the same message.
type Stage2Metadata struct {
	LabelToModel      map[string]string  `json:"label_to_model,omitempty"`
	AggregateRankings []AggregateRanking `json:"aggregate_rankings,omitempty"`
}

// Stage2Payload holds the peer-ranking results.
type Stage2Payload struct {
	Rankings []RankingJudgment `json:"rankings"`
	Metadata Stage2Metadata    `json:"metadata,omitempty"`
}

// Stage3Payload is the chairman's synthesized final answer.
type Stage3Payload struct {
	Model      string `json:"model,omitempty"`
	Response   string `json:"response"`
	Confidence string `json:"confidence,omitempty"`
}

// Message represents a conversation message. Assistant messages pass through
// intermediate states while a turn streams: stage payloads are appended as
// they arrive and are never retracted. Content is nil until the terminal
// payload exists.
type Message struct {
	Role      Role    `json:"role"`
	Content   *string `json:"content,omitempty"`
	Reasoning *string `json:"reasoning,omitempty"`

	Stage1 []Stage1Response `json:"stage1,omitempty"`
	Stage2 *Stage2Payload   `json:"stage2,omitempty"`
	Stage3 *Stage3Payload   `json:"stage3,omitempty"`

	Progress StageProgress `json:"-"`

	// Err is set once an error event arrives; the turn is then terminal and
	// further stage events are ignored.
	Err *string `json:"error,omitempty"`
}

// NewUserMessage builds a user message with the given content.
func NewUserMessage(content string) *Message {
	return &Message{Role: RoleUser, Content: &content}
}

// Finalized reports whether the message reached a terminal state: either a
// terminal payload landed with nothing left in flight, or the turn errored.
func (m *Message) Finalized() bool {
	if m.Err != nil {
		return true
	}
	if m.Progress.Any() {
		return false
	}
	return m.Content != nil || m.Stage3 != nil
}

// FinalText returns the text a reader considers "the answer": the stage3
// synthesis for council turns, plain content for follow-ups.
func (m *Message) FinalText() string {
	if m.Stage3 != nil {
		return m.Stage3.Response
	}
	if m.Content != nil {
		return *m.Content
	}
	return ""
}
