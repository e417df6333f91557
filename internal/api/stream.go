package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/llm-council/council-client/internal/model"
	"github.com/llm-council/council-client/internal/sse"
	"github.com/llm-council/council-client/internal/stream"
	"github.com/llm-council/council-client/pkg/metrics"
)

// ErrTurnInFlight is returned when a turn is already streaming for the
// conversation. A second submission is rejected, not queued: interleaving two
// event streams into one message's state is never recoverable.
var ErrTurnInFlight = errors.New("a turn is already in flight for this conversation")

// TurnStream is one in-flight streamed turn. Events arrive on Events() in
// exact network order; the channel closes when the stream ends. After the
// channel closes Err reports how the stream ended.
type TurnStream struct {
	events chan stream.Event
	cancel context.CancelFunc
	done   chan struct{}
	err    error
}

// Events returns the ordered event channel.
func (t *TurnStream) Events() <-chan stream.Event {
	return t.events
}

// Err reports how the stream ended. Valid once Events() is closed.
func (t *TurnStream) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Close releases the stream early: the body reader is torn down and no
// further events are delivered. Safe to call more than once.
func (t *TurnStream) Close() {
	t.cancel()
	<-t.done
}

// StreamMessage submits a turn on the streaming path and returns the event
// stream. At most one turn may be in flight per conversation; the guard is
// released when the stream ends or is closed.
func (c *Client) StreamMessage(ctx context.Context, conversationID string, req *model.SendMessageRequest) (*TurnStream, error) {
	if err := c.acquireTurn(conversationID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(ctx)
	ctx, span := c.tracer.Start(ctx, "council.turn.stream",
		trace.WithAttributes(
			attribute.String("conversation.id", conversationID),
			attribute.String("turn.mode", string(req.Mode)),
		))

	body, err := json.Marshal(req)
	if err != nil {
		span.End()
		cancel()
		c.releaseTurn(conversationID)
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	path := fmt.Sprintf("/api/conversations/%s/message/stream", conversationID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		span.End()
		cancel()
		c.releaseTurn(conversationID)
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		span.End()
		cancel()
		c.releaseTurn(conversationID)
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		err := decodeError(resp)
		span.End()
		cancel()
		c.releaseTurn(conversationID)
		return nil, err
	}

	ts := &TurnStream{
		events: make(chan stream.Event),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	metrics.StreamsActive.Inc()
	go c.pump(ctx, span, conversationID, resp.Body, ts)

	return ts, nil
}

// pump reads frames until the stream ends or the context is cancelled. It is
// the only goroutine touching the body, and it guarantees teardown: body
// closed, guard released, channel closed.
func (c *Client) pump(ctx context.Context, span trace.Span, conversationID string, body io.ReadCloser, ts *TurnStream) {
	defer func() {
		body.Close()
		metrics.StreamsActive.Dec()
		c.releaseTurn(conversationID)
		span.End()
		close(ts.events)
		close(ts.done)
	}()

	dec := sse.NewDecoder(body, c.log)
	for {
		frame, err := dec.Next()
		if err != nil {
			if err != io.EOF && ctx.Err() == nil {
				ts.err = fmt.Errorf("stream read failed: %w", err)
			}
			if ctx.Err() != nil {
				ts.err = ctx.Err()
			}
			return
		}

		ev, err := stream.ParseEvent(frame)
		if err != nil {
			// One malformed frame must not sever the stream.
			metrics.FrameDecodeErrors.Inc()
			c.log.Warn("skipping malformed stream frame",
				zap.String("conversation_id", conversationID),
				zap.Error(err),
			)
			continue
		}

		select {
		case ts.events <- ev:
		case <-ctx.Done():
			ts.err = ctx.Err()
			return
		}
	}
}

func (c *Client) acquireTurn(conversationID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, busy := c.inflight[conversationID]; busy {
		return ErrTurnInFlight
	}
	c.inflight[conversationID] = struct{}{}
	return nil
}

func (c *Client) releaseTurn(conversationID string) {
	c.mu.Lock()
	delete(c.inflight, conversationID)
	c.mu.Unlock()
}

// TurnInFlight reports whether a turn is currently streaming for the
// conversation; the UI uses it to disable the send affordance.
func (c *Client) TurnInFlight(conversationID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, busy := c.inflight[conversationID]
	return busy
}
