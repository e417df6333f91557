package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/llm-council/council-client/pkg/metrics"
)

// PendingUpload is a client-held, not-yet-sent file. Created on selection,
// destroyed on removal or after a successful send folds its extracted text
// into the outgoing message.
type PendingUpload struct {
	ID   string
	Name string
	Path string
	Size int64
}

// UploadResult is the backend's extraction of one uploaded file.
type UploadResult struct {
	Text      string `json:"text"`
	Filename  string `json:"filename"`
	Truncated bool   `json:"truncated"`
}

// UploadError reports which file of a batch failed. Remaining uploads are
// aborted so a failure leaves a precise boundary, not a partial batch.
type UploadError struct {
	Filename string
	Err      error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload %s: %v", e.Filename, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// NewPendingUpload stats and validates a selected file against the single
// file cap before it is queued.
func (c *Client) NewPendingUpload(path string) (*PendingUpload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > c.maxUploadBytes {
		return nil, fmt.Errorf("%s is %.1f MB; max file size is %d MB",
			filepath.Base(path),
			float64(info.Size())/(1024*1024),
			c.maxUploadBytes/(1024*1024))
	}
	return &PendingUpload{
		ID:   uuid.New().String(),
		Name: filepath.Base(path),
		Path: path,
		Size: info.Size(),
	}, nil
}

// ValidateBatch checks the per-send batch cap before any network call.
func (c *Client) ValidateBatch(pending []*PendingUpload) error {
	if len(pending) > c.maxUploadBatch {
		return fmt.Errorf("at most %d files per message (have %d)", c.maxUploadBatch, len(pending))
	}
	return nil
}

// UploadBatch uploads the pending files strictly sequentially: one file fully
// uploaded before the next begins. The first failure aborts the rest and is
// reported with the failing filename.
func (c *Client) UploadBatch(ctx context.Context, pending []*PendingUpload) ([]UploadResult, error) {
	if err := c.ValidateBatch(pending); err != nil {
		return nil, err
	}

	results := make([]UploadResult, 0, len(pending))
	for _, p := range pending {
		result, err := c.uploadOne(ctx, p)
		if err != nil {
			metrics.UploadsTotal.WithLabelValues("error").Inc()
			return results, &UploadError{Filename: p.Name, Err: err}
		}
		metrics.UploadsTotal.WithLabelValues("ok").Inc()
		metrics.UploadBytes.Add(float64(p.Size))
		results = append(results, *result)
	}
	return results, nil
}

func (c *Client) uploadOne(ctx context.Context, p *PendingUpload) (*UploadResult, error) {
	file, err := os.Open(p.Path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", p.Name)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finish form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &buf)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, decodeError(resp)
	}

	var result UploadResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	c.log.Info("file uploaded",
		zap.String("filename", p.Name),
		zap.Int64("bytes", p.Size),
		zap.Bool("truncated", result.Truncated),
	)
	return &result, nil
}

// FoldUploads appends extracted file text to the outgoing message content.
// After a successful send the pending uploads are discarded by the caller.
func FoldUploads(content string, results []UploadResult) string {
	if len(results) == 0 {
		return content
	}
	var b strings.Builder
	b.WriteString(content)
	for _, r := range results {
		b.WriteString("\n\n--- Attached file: " + r.Filename)
		if r.Truncated {
			b.WriteString(" (truncated)")
		}
		b.WriteString(" ---\n")
		b.WriteString(r.Text)
	}
	return b.String()
}
