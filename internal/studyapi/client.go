package studyapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// UploadField is the multipart part name the intake endpoint reads.
const UploadField = "file"

// Client talks to the study service HTTP API.
type Client struct {
	baseURL      string
	maxErrorBody int64
	httpClient   *http.Client
	stats        *Stats
}

// NewClient returns a client for baseURL. A zero timeout means requests
// are bounded only by their context.
func NewClient(baseURL string, timeout time.Duration, maxErrorBody int64) *Client {
	if maxErrorBody <= 0 {
		maxErrorBody = 4096
	}
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		maxErrorBody: maxErrorBody,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		stats: NewStats(time.Hour),
	}
}

// Stats returns the latency tracker for calls made by this client.
func (c *Client) Stats() *Stats { return c.stats }

// UploadResponse is the success body of POST /upload. Optional fields are
// pointers so absence can be told apart from zero.
type UploadResponse struct {
	DocID      string  `json:"doc_id"`
	ChunkCount *int    `json:"chunk_count,omitempty"`
	Preview    *string `json:"preview,omitempty"`
}

// StudyResponse is the success body of POST /study/.
type StudyResponse struct {
	DocID      string   `json:"doc_id"`
	Mode       string   `json:"mode"`
	Output     string   `json:"output"`
	UsedChunks int      `json:"used_chunks"`
	Warnings   []string `json:"warnings,omitempty"`
}

// DocumentInfo is the body of GET /docs/{doc_id}.
type DocumentInfo struct {
	DocID         string   `json:"doc_id"`
	Filename      string   `json:"filename"`
	CreatedAt     string   `json:"created_at"`
	ChunkCount    int      `json:"chunk_count"`
	ChunksPreview []string `json:"chunks_preview"`
}

// Upload posts the document as a single multipart part named "file".
func (c *Client) Upload(ctx context.Context, filename string, content io.Reader) (*UploadResponse, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(UploadField, filename)
	if err != nil {
		return nil, &TransportError{Op: "upload", Err: fmt.Errorf("create form file: %w", err)}
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, &TransportError{Op: "upload", Err: fmt.Errorf("read document: %w", err)}
	}
	if err := mw.Close(); err != nil {
		return nil, &TransportError{Op: "upload", Err: fmt.Errorf("close multipart: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload", &buf)
	if err != nil {
		return nil, &TransportError{Op: "upload", Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := c.do("upload", httpReq)
	if err != nil {
		return nil, &TransportError{Op: "upload", Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, c.statusError(resp)
	}

	var out UploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &DecodeError{Op: "upload", StatusCode: resp.StatusCode, Err: err}
	}
	if out.DocID == "" {
		return nil, &DecodeError{Op: "upload", StatusCode: resp.StatusCode, Err: fmt.Errorf("response has no doc_id")}
	}
	return &out, nil
}

// Study posts a JSON analysis request. The returned status code is the
// HTTP status observed, or 0 if no response arrived; it is valid even when
// err is non-nil.
func (c *Client) Study(ctx context.Context, payload any) (*StudyResponse, int, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, &TransportError{Op: "study", Err: fmt.Errorf("marshal request: %w", err)}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/study/", bytes.NewReader(body))
	if err != nil {
		return nil, 0, &TransportError{Op: "study", Err: fmt.Errorf("create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.do("study", httpReq)
	if err != nil {
		return nil, 0, &TransportError{Op: "study", Err: err}
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return nil, resp.StatusCode, c.statusError(resp)
	}

	var out StudyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, resp.StatusCode, &DecodeError{Op: "study", StatusCode: resp.StatusCode, Err: err}
	}
	return &out, resp.StatusCode, nil
}

// Document fetches the stored metadata for a document.
func (c *Client) Document(ctx context.Context, docID string) (*DocumentInfo, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/docs/"+url.PathEscape(docID), nil)
	if err != nil {
		return nil, &TransportError{Op: "document", Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.do("document", httpReq)
	if err != nil {
		return nil, &TransportError{Op: "document", Err: err}
	}
	defer resp.Body.Close()
	if !isSuccess(resp.StatusCode) {
		return nil, c.statusError(resp)
	}

	var out DocumentInfo
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &DecodeError{Op: "document", StatusCode: resp.StatusCode, Err: err}
	}
	return &out, nil
}

// Health calls GET /health and returns the service's message.
func (c *Client) Health(ctx context.Context) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return "", &TransportError{Op: "health", Err: fmt.Errorf("create request: %w", err)}
	}

	resp, err := c.do("health", httpReq)
	if err != nil {
		return "", &TransportError{Op: "health", Err: err}
	}
	defer resp.Body.Close()
	if !isSuccess(resp.StatusCode) {
		return "", c.statusError(resp)
	}

	var out struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &DecodeError{Op: "health", StatusCode: resp.StatusCode, Err: err}
	}
	if out.Message != "" {
		return out.Message, nil
	}
	return out.Status, nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

// do sends req and records how long the round trip took.
func (c *Client) do(op string, req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	failed := err
	if err == nil && !isSuccess(resp.StatusCode) {
		failed = fmt.Errorf("status %d", resp.StatusCode)
	}
	c.stats.Record(op, time.Since(start), failed)
	return resp, err
}

func (c *Client) statusError(resp *http.Response) *StatusError {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, c.maxErrorBody))
	return &StatusError{
		StatusCode: resp.StatusCode,
		Message:    errorMessage(body),
	}
}

func isSuccess(code int) bool {
	return code >= 200 && code < 300
}
