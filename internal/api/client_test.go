package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-council/council-client/internal/model"
	"github.com/llm-council/council-client/internal/stream"
	"github.com/llm-council/council-client/pkg/logger"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c := New(Options{BaseURL: srv.URL, RequestTimeout: 5 * time.Second}, logger.Nop())
	return c, srv
}

func TestListConversations(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/conversations", r.URL.Path)
		fmt.Fprint(w, `[{"id":"c1","title":"First","message_count":4}]`)
	}))

	out, err := c.ListConversations(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "c1", out[0].ID)
	assert.Equal(t, 4, out[0].MessageCount)
}

func TestCreateConversationSendsRoster(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req model.CreateConversationRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, []string{"a", "b", "c", "d", "e"}, req.CouncilMembers)
		assert.Equal(t, "chair", req.ChairmanModel)
		fmt.Fprint(w, `{"id":"new","title":""}`)
	}))

	conv, err := c.CreateConversation(context.Background(), &model.CreateConversationRequest{
		Topic:          "hello",
		CouncilMembers: []string{"a", "b", "c", "d", "e"},
		ChairmanModel:  "chair",
	})
	require.NoError(t, err)
	assert.Equal(t, "new", conv.ID)
}

func TestErrorResponsesCarryDetail(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"detail":"Conversation not found"}`)
	}))

	_, err := c.GetConversation(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Conversation not found", apiErr.Detail)
}

func TestModels(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/models", r.URL.Path)
		fmt.Fprint(w, `{"models":[{"id":"gpt-5.1","name":"GPT 5.1","type":"both","pricing":{"input":1.25,"output":10}}]}`)
	}))

	models, err := c.Models(context.Background())
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.True(t, models[0].CanChair())
	assert.Equal(t, 1.25, models[0].Pricing.Input)
}

func TestStreamMessageDeliversEventsInOrder(t *testing.T) {
	// Frames deliberately split mid-line across flushes to exercise reassembly
	// through the real HTTP chunked path.
	wire := []string{
		"data: {\"type\":\"stage1_start\"}\ndata: {\"type\":\"stage1_com",
		"plete\",\"data\":[{\"model\":\"m\",\"response\":\"hi\"}]}\n",
		"data: {\"type\":\"complete\",\"data\":{\"turn_cost\":0.01,\"total_cost\":0.02}}\n",
	}

	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/conversations/c1/message/stream", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, chunk := range wire {
			fmt.Fprint(w, chunk)
			flusher.Flush()
		}
	}))

	ts, err := c.StreamMessage(context.Background(), "c1", &model.SendMessageRequest{Content: "q", Mode: model.ModeAuto})
	require.NoError(t, err)

	var types []stream.EventType
	for ev := range ts.Events() {
		types = append(types, ev.Type())
	}
	assert.Equal(t, []stream.EventType{
		stream.EventStage1Start,
		stream.EventStage1Complete,
		stream.EventComplete,
	}, types)
	assert.NoError(t, ts.Err())
	assert.False(t, c.TurnInFlight("c1"))
}

func TestStreamMessageSkipsMalformedFrames(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"type\":\"stage1_start\"}\n")
		fmt.Fprint(w, "data: {\"type\": oops not json\n")
		fmt.Fprint(w, "data: {\"type\":\"complete\",\"data\":{}}\n")
	}))

	ts, err := c.StreamMessage(context.Background(), "c1", &model.SendMessageRequest{Content: "q", Mode: model.ModeAuto})
	require.NoError(t, err)

	var types []stream.EventType
	for ev := range ts.Events() {
		types = append(types, ev.Type())
	}
	assert.Equal(t, []stream.EventType{stream.EventStage1Start, stream.EventComplete}, types)
	assert.NoError(t, ts.Err())
}

func TestStreamMessageRejectsSecondTurn(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"type\":\"stage1_start\"}\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))

	ts, err := c.StreamMessage(context.Background(), "c1", &model.SendMessageRequest{Content: "q", Mode: model.ModeAuto})
	require.NoError(t, err)
	assert.True(t, c.TurnInFlight("c1"))

	_, err = c.StreamMessage(context.Background(), "c1", &model.SendMessageRequest{Content: "again", Mode: model.ModeAuto})
	assert.ErrorIs(t, err, ErrTurnInFlight)

	// Other conversations are not blocked by c1's turn.
	assert.False(t, c.TurnInFlight("c2"))

	ts.Close()
	assert.False(t, c.TurnInFlight("c1"))
	assert.ErrorIs(t, ts.Err(), context.Canceled)
}

func TestStreamMessageErrorStatusReleasesGuard(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		fmt.Fprint(w, `{"detail":"A turn is already being processed"}`)
	}))

	_, err := c.StreamMessage(context.Background(), "c1", &model.SendMessageRequest{Content: "q", Mode: model.ModeAuto})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.False(t, c.TurnInFlight("c1"))
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewPendingUploadCapsFileSize(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	c := New(Options{BaseURL: srv.URL, MaxUploadBytes: 16}, logger.Nop())

	small := writeTempFile(t, "small.txt", "within limit")
	p, err := c.NewPendingUpload(small)
	require.NoError(t, err)
	assert.Equal(t, "small.txt", p.Name)
	assert.NotEmpty(t, p.ID)

	big := writeTempFile(t, "big.txt", "this file is comfortably past sixteen bytes")
	_, err = c.NewPendingUpload(big)
	assert.Error(t, err)

	_, err = c.NewPendingUpload(filepath.Dir(small))
	assert.Error(t, err)
}

func TestValidateBatchCap(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)
	c := New(Options{BaseURL: srv.URL, MaxUploadBatch: 2}, logger.Nop())

	batch := []*PendingUpload{{Name: "a"}, {Name: "b"}}
	assert.NoError(t, c.ValidateBatch(batch))
	assert.Error(t, c.ValidateBatch(append(batch, &PendingUpload{Name: "c"})))
}

func TestUploadBatchSequentialAbortOnFailure(t *testing.T) {
	var mu sync.Mutex
	var received []string
	var inFlight atomic.Int32
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, int32(1), inFlight.Add(1), "uploads must not overlap")
		defer inFlight.Add(-1)

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		file.Close()
		mu.Lock()
		received = append(received, header.Filename)
		mu.Unlock()

		if header.Filename == "second.txt" {
			w.WriteHeader(http.StatusUnprocessableEntity)
			fmt.Fprint(w, `{"detail":"unsupported file type"}`)
			return
		}
		fmt.Fprintf(w, `{"text":"contents of %s","filename":%q,"truncated":false}`, header.Filename, header.Filename)
	}))

	pending := []*PendingUpload{}
	for _, name := range []string{"first.txt", "second.txt", "third.txt"} {
		p, err := c.NewPendingUpload(writeTempFile(t, name, "hello"))
		require.NoError(t, err)
		pending = append(pending, p)
	}

	results, err := c.UploadBatch(context.Background(), pending)

	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, "second.txt", upErr.Filename)
	var apiErr *APIError
	assert.ErrorAs(t, upErr, &apiErr)

	// The first file succeeded, the third was never attempted.
	require.Len(t, results, 1)
	assert.Equal(t, "contents of first.txt", results[0].Text)
	mu.Lock()
	assert.Equal(t, []string{"first.txt", "second.txt"}, received)
	mu.Unlock()
}

func TestUploadBatchSuccess(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, header, err := r.FormFile("file")
		require.NoError(t, err)
		fmt.Fprintf(w, `{"text":"extracted","filename":%q,"truncated":true}`, header.Filename)
	}))

	p, err := c.NewPendingUpload(writeTempFile(t, "notes.pdf", "pdf bytes"))
	require.NoError(t, err)

	results, err := c.UploadBatch(context.Background(), []*PendingUpload{p})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Truncated)
}

func TestFoldUploads(t *testing.T) {
	assert.Equal(t, "question", FoldUploads("question", nil))

	folded := FoldUploads("question", []UploadResult{
		{Filename: "a.txt", Text: "alpha"},
		{Filename: "b.txt", Text: "beta", Truncated: true},
	})
	assert.Equal(t, "question"+
		"\n\n--- Attached file: a.txt ---\nalpha"+
		"\n\n--- Attached file: b.txt (truncated) ---\nbeta", folded)
}
