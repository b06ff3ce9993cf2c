package coze

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
)

const (
	uploadPath   = "/v1/files/upload"
	workflowPath = "/v1/workflow/run"
	maxErrorBody = 4 << 10
)

// File is an uploaded file as reported by Coze.
type File struct {
	ID        string `json:"id"`
	Bytes     int64  `json:"bytes"`
	FileName  string `json:"file_name"`
	CreatedAt int64  `json:"created_at"`
}

// Usage is the token accounting of a workflow run.
type Usage struct {
	InputCount  int `json:"input_count"`
	OutputCount int `json:"output_count"`
	TokenCount  int `json:"token_count"`
}

// Result is the outcome of a prompt workflow run.
type Result struct {
	// Prompt is the workflow's output1 field, or the whole output when the
	// field is absent.
	Prompt   any    `json:"prompt"`
	Usage    *Usage `json:"usage,omitempty"`
	DebugURL string `json:"debug_url,omitempty"`
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client calls the Coze open API.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient creates a client. The token and workflow id are required.
func NewClient(cfg Config, opts ...Option) (*Client, error) {
	if cfg.Token == "" {
		return nil, ErrMissingToken
	}
	if cfg.WorkflowID == "" {
		return nil, ErrMissingWorkflow
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type envelope struct {
	Code     int             `json:"code"`
	Msg      string          `json:"msg"`
	Data     json.RawMessage `json:"data"`
	Usage    *Usage          `json:"usage"`
	DebugURL string          `json:"debug_url"`
}

// Upload streams r to Coze as a multipart file and returns its metadata.
func (c *Client) Upload(ctx context.Context, name, contentType string, r io.Reader) (*File, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, name))
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+uploadPath, &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if env.Code != 0 {
		return nil, &APIError{Code: env.Code, Msg: env.Msg, DebugURL: env.DebugURL}
	}
	var f File
	if err := json.Unmarshal(env.Data, &f); err != nil {
		return nil, errors.Join(ErrDecodeFailed, fmt.Errorf("decode file: %w", err))
	}
	if f.ID == "" {
		return nil, errors.Join(ErrDecodeFailed, errors.New("upload response has no file id"))
	}
	return &f, nil
}

type workflowRequest struct {
	WorkflowID string             `json:"workflow_id"`
	Parameters workflowParameters `json:"parameters"`
}

type workflowParameters struct {
	UserQuery  string       `json:"userQuery"`
	Img        workflowFile `json:"img"`
	PromptType string       `json:"promptType"`
}

type workflowFile struct {
	Type   string `json:"type"`
	FileID string `json:"file_id"`
}

// RunWorkflow runs the prompt workflow on an uploaded image.
// A non-zero response code is returned as *APIError.
func (c *Client) RunWorkflow(ctx context.Context, fileID string) (*Result, error) {
	payload, err := json.Marshal(workflowRequest{
		WorkflowID: c.cfg.WorkflowID,
		Parameters: workflowParameters{
			UserQuery:  c.cfg.UserQuery,
			Img:        workflowFile{Type: "file", FileID: fileID},
			PromptType: c.cfg.PromptType,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+workflowPath, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Accept", "application/json")

	env, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if env.Code != 0 {
		return nil, &APIError{Code: env.Code, Msg: env.Msg, DebugURL: env.DebugURL}
	}
	prompt, ok := extractPrompt(env.Data)
	if !ok {
		return nil, ErrNoData
	}
	return &Result{Prompt: prompt, Usage: env.Usage, DebugURL: env.DebugURL}, nil
}

func (c *Client) do(req *http.Request) (*envelope, error) {
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Join(ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, errors.Join(ErrBadStatus, fmt.Errorf("status=%d body=%s", resp.StatusCode, bytes.TrimSpace(b)))
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, errors.Join(ErrDecodeFailed, err)
	}
	return &env, nil
}

// extractPrompt unwraps data, which may be a JSON document encoded as a
// string, and picks its output1 field when it is set.
func extractPrompt(data json.RawMessage) (any, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, false
	}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false
	}
	if s, ok := v.(string); ok {
		if s == "" {
			return nil, false
		}
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err != nil {
			return s, true
		}
		v = inner
	}
	if obj, ok := v.(map[string]any); ok {
		if out, ok := obj["output1"]; ok && truthy(out) {
			return out, true
		}
	}
	return v, true
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	}
	return true
}
