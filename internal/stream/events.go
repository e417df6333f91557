// Package stream reconstructs conversation state from council turn streams:
// it classifies decoded frames into typed events, dispatches them in arrival
// order, and folds them into a single in-progress message.
package stream

import (
	"encoding/json"
	"fmt"

	"github.com/llm-council/council-client/internal/model"
)

// EventType is the wire discriminator carried by every frame.
type EventType string

const (
	EventStage1Start    EventType = "stage1_start"
	EventStage1Complete EventType = "stage1_complete"
	EventStage2Start    EventType = "stage2_start"
	EventStage2Complete EventType = "stage2_complete"
	EventStage3Start    EventType = "stage3_start"
	EventStage3Complete EventType = "stage3_complete"
	EventChatStart      EventType = "chat_start"
	EventChatResponse   EventType = "chat_response"
	EventTitleComplete  EventType = "title_complete"
	EventComplete       EventType = "complete"
	EventError          EventType = "error"
)

// Event is one decoded council stream event. The set of implementations is
// closed except for UnknownEvent, which absorbs server-added kinds so new
// event types degrade gracefully instead of matching nothing.
type Event interface {
	Type() EventType
}

// Stage1StartEvent announces independent answer collection.
type Stage1StartEvent struct{}

// Stage1CompleteEvent carries council answers in roster order.
type Stage1CompleteEvent struct {
	Data []model.Stage1Response
}

// Stage2StartEvent announces anonymous peer ranking.
type Stage2StartEvent struct{}

// Stage2CompleteEvent carries ranking judgments plus the anonymization
// metadata for this message.
type Stage2CompleteEvent struct {
	Data     []model.RankingJudgment
	Metadata model.Stage2Metadata
}

// Stage3StartEvent announces chairman synthesis.
type Stage3StartEvent struct{}

// Stage3CompleteEvent carries the synthesized final answer.
type Stage3CompleteEvent struct {
	Data model.Stage3Payload
}

// ChatStartEvent announces a single-stage follow-up turn.
type ChatStartEvent struct{}

// ChatPayload is the body of a follow-up response.
type ChatPayload struct {
	Content   string `json:"content"`
	Reasoning string `json:"reasoning,omitempty"`
}

// ChatResponseEvent carries the follow-up answer.
type ChatResponseEvent struct {
	Data ChatPayload
}

// TitleCompleteEvent carries the generated conversation title.
type TitleCompleteEvent struct {
	Title string
}

// CostPayload is the server-reported cost of the finished turn.
type CostPayload struct {
	TurnCost  float64 `json:"turn_cost"`
	TotalCost float64 `json:"total_cost"`
}

// CompleteEvent terminates a successful turn.
type CompleteEvent struct {
	Data CostPayload
}

// ErrorEvent terminates a failed turn.
type ErrorEvent struct {
	Message string
}

// UnknownEvent holds a frame whose type this client does not know.
type UnknownEvent struct {
	Kind EventType
	Raw  json.RawMessage
}

func (Stage1StartEvent) Type() EventType    { return EventStage1Start }
func (Stage1CompleteEvent) Type() EventType { return EventStage1Complete }
func (Stage2StartEvent) Type() EventType    { return EventStage2Start }
func (Stage2CompleteEvent) Type() EventType { return EventStage2Complete }
func (Stage3StartEvent) Type() EventType    { return EventStage3Start }
func (Stage3CompleteEvent) Type() EventType { return EventStage3Complete }
func (ChatStartEvent) Type() EventType      { return EventChatStart }
func (ChatResponseEvent) Type() EventType   { return EventChatResponse }
func (TitleCompleteEvent) Type() EventType  { return EventTitleComplete }
func (CompleteEvent) Type() EventType       { return EventComplete }
func (ErrorEvent) Type() EventType          { return EventError }
func (e UnknownEvent) Type() EventType      { return e.Kind }

// envelope is the common frame shape: a discriminator plus kind-specific
// fields that are decoded lazily per type.
type envelope struct {
	Type     EventType       `json:"type"`
	Data     json.RawMessage `json:"data,omitempty"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	Message  string          `json:"message,omitempty"`
}

// ParseEvent decodes one frame body into a typed event. A malformed frame is
// an error for this frame only; callers log and skip it so one bad frame
// does not sever an otherwise healthy stream.
func ParseEvent(raw []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("malformed frame: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("frame missing type discriminator")
	}

	switch env.Type {
	case EventStage1Start:
		return Stage1StartEvent{}, nil

	case EventStage1Complete:
		var data []model.Stage1Response
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		return Stage1CompleteEvent{Data: data}, nil

	case EventStage2Start:
		return Stage2StartEvent{}, nil

	case EventStage2Complete:
		var data []model.RankingJudgment
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		var meta model.Stage2Metadata
		if len(env.Metadata) > 0 {
			if err := json.Unmarshal(env.Metadata, &meta); err != nil {
				return nil, fmt.Errorf("%s metadata: %w", env.Type, err)
			}
		}
		return Stage2CompleteEvent{Data: data, Metadata: meta}, nil

	case EventStage3Start:
		return Stage3StartEvent{}, nil

	case EventStage3Complete:
		var data model.Stage3Payload
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		return Stage3CompleteEvent{Data: data}, nil

	case EventChatStart:
		return ChatStartEvent{}, nil

	case EventChatResponse:
		var data ChatPayload
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		return ChatResponseEvent{Data: data}, nil

	case EventTitleComplete:
		var data struct {
			Title string `json:"title"`
		}
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		return TitleCompleteEvent{Title: data.Title}, nil

	case EventComplete:
		var data CostPayload
		if err := json.Unmarshal(env.Data, &data); err != nil {
			return nil, fmt.Errorf("%s payload: %w", env.Type, err)
		}
		return CompleteEvent{Data: data}, nil

	case EventError:
		return ErrorEvent{Message: env.Message}, nil

	default:
		return UnknownEvent{Kind: env.Type, Raw: append(json.RawMessage(nil), raw...)}, nil
	}
}
