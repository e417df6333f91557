// Package api is the HTTP client for the council backend: conversation CRUD,
// the model registry, analytics, file uploads and streamed turns.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/llm-council/council-client/internal/model"
	"github.com/llm-council/council-client/pkg/logger"
)

// Options configures a Client.
type Options struct {
	// BaseURL is the backend root, e.g. "http://localhost:8001".
	BaseURL string
	// RequestTimeout bounds non-streaming requests.
	RequestTimeout time.Duration
	// StreamHeaderTimeout bounds time-to-response-headers on a turn stream.
	// The body itself has no deadline; a council turn can run for minutes.
	StreamHeaderTimeout time.Duration
	// MaxUploadBytes caps a single file; MaxUploadBatch caps files per send.
	MaxUploadBytes int64
	MaxUploadBatch int
}

// Client talks to the council backend. Safe for concurrent use; the
// per-conversation in-flight guard serializes turns.
type Client struct {
	baseURL string
	http    *http.Client
	stream  *http.Client
	log     *logger.Logger
	tracer  trace.Tracer

	maxUploadBytes int64
	maxUploadBatch int

	mu       sync.Mutex
	inflight map[string]struct{}
}

// New creates a client.
func New(opts Options, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Global()
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	if opts.StreamHeaderTimeout == 0 {
		opts.StreamHeaderTimeout = 30 * time.Second
	}
	if opts.MaxUploadBytes == 0 {
		opts.MaxUploadBytes = 25 * 1024 * 1024
	}
	if opts.MaxUploadBatch == 0 {
		opts.MaxUploadBatch = 10
	}

	rt := newTransport(nil, log)
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		http: &http.Client{
			Timeout:   opts.RequestTimeout,
			Transport: rt,
		},
		// No overall timeout: it would sever long-lived turn streams.
		stream: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: opts.StreamHeaderTimeout,
			},
		},
		log:            log,
		tracer:         otel.Tracer("council-client/api"),
		maxUploadBytes: opts.MaxUploadBytes,
		maxUploadBatch: opts.MaxUploadBatch,
		inflight:       make(map[string]struct{}),
	}
}

// APIError is a non-success response from the backend.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("backend returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

// ListConversations fetches all conversation summaries.
func (c *Client) ListConversations(ctx context.Context) ([]model.ConversationSummary, error) {
	var out []model.ConversationSummary
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateConversation creates a conversation with an optional roster.
func (c *Client) CreateConversation(ctx context.Context, req *model.CreateConversationRequest) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.doJSON(ctx, http.MethodPost, "/api/conversations", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetConversation fetches a full conversation.
func (c *Client) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	var out model.Conversation
	if err := c.doJSON(ctx, http.MethodGet, "/api/conversations/"+id, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendMessage runs a turn on the synchronous, non-streaming path and returns
// the raw result body.
func (c *Client) SendMessage(ctx context.Context, conversationID string, req *model.SendMessageRequest) (json.RawMessage, error) {
	if err := c.acquireTurn(conversationID); err != nil {
		return nil, err
	}
	defer c.releaseTurn(conversationID)

	var out json.RawMessage
	path := fmt.Sprintf("/api/conversations/%s/message", conversationID)
	if err := c.doJSON(ctx, http.MethodPost, path, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Models fetches the model registry with pricing and capabilities.
func (c *Client) Models(ctx context.Context) ([]model.ModelInfo, error) {
	var out model.ModelsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/models", nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

// Analytics fetches aggregate peer-ranking performance per model.
func (c *Client) Analytics(ctx context.Context) ([]model.ModelStats, error) {
	var out model.AnalyticsResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/analytics", nil, &out); err != nil {
		return nil, err
	}
	return out.Models, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	ctx, span := c.tracer.Start(ctx, method+" "+path,
		trace.WithAttributes(attribute.String("http.method", method), attribute.String("http.path", path)))
	defer span.End()

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError extracts the backend's {"detail": ...} error body when present.
func decodeError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err == nil && len(data) > 0 {
		var body struct {
			Detail string `json:"detail"`
			Error  string `json:"error"`
		}
		if json.Unmarshal(data, &body) == nil {
			if body.Detail != "" {
				apiErr.Detail = body.Detail
			} else {
				apiErr.Detail = body.Error
			}
		}
	}
	return apiErr
}
