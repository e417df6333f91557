package stream

import (
	"go.uber.org/zap"

	"github.com/llm-council/council-client/internal/model"
	"github.com/llm-council/council-client/pkg/logger"
)

// Reducer folds an ordered sequence of turn events into one mutable
// in-progress assistant message. It applies fields, never whole-message
// replacement, so a render mid-stream shows whichever stages have arrived.
// Stage payloads, once set, are only appended to or superseded by a fresh
// start event for the same stage.
type Reducer struct {
	msg *model.Message
	log *logger.Logger

	title     string
	turnCost  float64
	totalCost float64
	costKnown bool
	completed bool
}

// NewReducer creates a reducer around a fresh assistant message.
func NewReducer(log *logger.Logger) *Reducer {
	if log == nil {
		log = logger.Global()
	}
	return &Reducer{
		msg: &model.Message{Role: model.RoleAssistant},
		log: log,
	}
}

// Message returns the message under construction. Callers may render it at
// any point; the reducer keeps mutating it until the turn terminates.
func (r *Reducer) Message() *model.Message {
	return r.msg
}

// Title returns the conversation title if a title event arrived, else "".
func (r *Reducer) Title() string {
	return r.title
}

// Costs returns the server-reported turn and running totals, and whether the
// completion event carrying them has arrived. The client never re-derives
// actual cost; only the estimator predicts, and only the server settles.
func (r *Reducer) Costs() (turn, total float64, known bool) {
	return r.turnCost, r.totalCost, r.costKnown
}

// Finalized reports whether the turn reached a terminal state.
func (r *Reducer) Finalized() bool {
	return r.completed || r.msg.Err != nil
}

// Bind registers the reducer on a router for every event kind it folds.
func (r *Reducer) Bind(router *Router) {
	for _, t := range []EventType{
		EventStage1Start, EventStage1Complete,
		EventStage2Start, EventStage2Complete,
		EventStage3Start, EventStage3Complete,
		EventChatStart, EventChatResponse,
		EventTitleComplete, EventComplete, EventError,
	} {
		router.Handle(t, r.Apply)
	}
	router.HandleUnknown(r.Apply)
}

// Apply folds one event into the message. A fault while applying degrades
// that single field, not the whole conversation: it is recovered and logged,
// and the reducer stays usable for subsequent events.
func (r *Reducer) Apply(ev Event) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error("recovered applying stream event",
				zap.String("type", string(ev.Type())),
				zap.Any("panic", rec),
			)
		}
	}()

	// An errored turn is terminal. Stray events after the error are ignored.
	if r.msg.Err != nil {
		r.log.Debug("ignoring event after turn error", zap.String("type", string(ev.Type())))
		return
	}

	switch ev := ev.(type) {
	case Stage1StartEvent:
		r.msg.Stage1 = nil
		r.msg.Progress.Collect = model.StageStreaming

	case Stage1CompleteEvent:
		r.msg.Stage1 = ev.Data
		r.msg.Progress.Collect = model.StageDone

	case Stage2StartEvent:
		r.msg.Stage2 = nil
		r.msg.Progress.Rank = model.StageStreaming

	case Stage2CompleteEvent:
		r.msg.Stage2 = &model.Stage2Payload{
			Rankings: ev.Data,
			Metadata: ev.Metadata,
		}
		r.msg.Progress.Rank = model.StageDone

	case Stage3StartEvent:
		r.msg.Stage3 = nil
		r.msg.Progress.Synthesize = model.StageStreaming

	case Stage3CompleteEvent:
		payload := ev.Data
		r.msg.Stage3 = &payload
		r.msg.Content = &payload.Response
		r.msg.Progress.Synthesize = model.StageDone

	case ChatStartEvent:
		r.msg.Content = nil
		r.msg.Reasoning = nil
		r.msg.Progress.Chat = model.StageStreaming

	case ChatResponseEvent:
		content := ev.Data.Content
		r.msg.Content = &content
		if ev.Data.Reasoning != "" {
			reasoning := ev.Data.Reasoning
			r.msg.Reasoning = &reasoning
		}
		r.msg.Progress.Chat = model.StageDone

	case TitleCompleteEvent:
		r.title = ev.Title

	case CompleteEvent:
		r.turnCost = ev.Data.TurnCost
		r.totalCost = ev.Data.TotalCost
		r.costKnown = true
		r.completed = true
		r.settle(model.StageDone)

	case ErrorEvent:
		msg := ev.Message
		r.msg.Err = &msg
		r.settle(model.StageErrored)

	case UnknownEvent:
		r.log.Debug("skipping unknown stream event", zap.String("type", string(ev.Kind)))

	default:
		r.log.Debug("skipping unrouted stream event", zap.String("type", string(ev.Type())))
	}
}

// settle resolves any stage still in flight to the given terminal status, so
// no spinner survives the end of a turn.
func (r *Reducer) settle(status model.StageStatus) {
	p := &r.msg.Progress
	for _, s := range []*model.StageStatus{&p.Collect, &p.Rank, &p.Synthesize, &p.Chat} {
		if s.InFlight() {
			*s = status
		}
	}
}
