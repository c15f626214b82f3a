// Package backend is the HTTP client for the segmentation backend. The
// backend is the durable source of truth for workspaces; this client maps its
// JSON API onto typed requests and a small error taxonomy.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// APIError represents a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend request failed: HTTP %d: %s", e.StatusCode, e.Detail)
}

// IsRetryable returns true for server errors (5xx). Client errors (4xx) are
// considered permanent.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode >= 500
}

// Client communicates with the segmentation backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		detail := resp.Status
		var payload struct {
			Detail string `json:"detail"`
		}
		if json.Unmarshal(respBody, &payload) == nil && payload.Detail != "" {
			detail = payload.Detail
		}
		return &APIError{StatusCode: resp.StatusCode, Detail: detail}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, "", out)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out interface{}) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, bytes.NewReader(encoded), "application/json", out)
}

func workspacePath(path, suffix string) string {
	return "/api/workspaces/" + url.PathEscape(path) + suffix
}

// ListWorkspaces returns the authoritative workspace list.
func (c *Client) ListWorkspaces(ctx context.Context) ([]Workspace, error) {
	var list []Workspace
	if err := c.getJSON(ctx, "/api/workspaces", &list); err != nil {
		return nil, err
	}
	return list, nil
}

// CreateWorkspace allocates a new workspace on the backend.
func (c *Client) CreateWorkspace(ctx context.Context, name string) (*OpenResult, error) {
	var result OpenResult
	if err := c.postJSON(ctx, "/api/workspaces", map[string]string{"name": name}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// OpenWorkspace opens an existing workspace by path.
func (c *Client) OpenWorkspace(ctx context.Context, path string) (*OpenResult, error) {
	var result OpenResult
	if err := c.postJSON(ctx, "/api/workspaces/open", map[string]string{"path": path}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetSegmentation(ctx context.Context, path string) (*Segmentation, error) {
	var seg Segmentation
	if err := c.getJSON(ctx, workspacePath(path, "/segmentation"), &seg); err != nil {
		return nil, err
	}
	return &seg, nil
}

func (c *Client) SaveSegmentation(ctx context.Context, path string, seg *Segmentation) error {
	return c.postJSON(ctx, workspacePath(path, "/segmentation"), seg, nil)
}

// ListDeconstructionFiles returns the deconstruction file names stored in a
// workspace.
func (c *Client) ListDeconstructionFiles(ctx context.Context, path string) ([]string, error) {
	var resp struct {
		Files []string `json:"files"`
	}
	if err := c.getJSON(ctx, workspacePath(path, "/deconstruction-files"), &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

// GetDeconstruction fetches the content of one deconstruction file. An empty
// file name requests the workspace default.
func (c *Client) GetDeconstruction(ctx context.Context, path, file string) (string, error) {
	endpoint := workspacePath(path, "/deconstruction")
	if file != "" {
		endpoint += "?file=" + url.QueryEscape(file)
	}
	var resp struct {
		Content string `json:"content"`
	}
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return "", err
	}
	return resp.Content, nil
}

func (c *Client) SaveDeconstruction(ctx context.Context, path, content, file string) error {
	body := map[string]string{"content": content}
	if file != "" {
		body["file"] = file
	}
	return c.postJSON(ctx, workspacePath(path, "/deconstruction"), body, nil)
}

func (c *Client) GetShots(ctx context.Context, path string) ([]Shot, error) {
	var resp struct {
		Shots []Shot `json:"shots"`
	}
	if err := c.getJSON(ctx, workspacePath(path, "/shots"), &resp); err != nil {
		return nil, err
	}
	return resp.Shots, nil
}

func (c *Client) SaveShots(ctx context.Context, path string, shots []Shot) error {
	return c.postJSON(ctx, workspacePath(path, "/shots"), map[string]interface{}{"shots": shots}, nil)
}

// SaveStep persists the current workflow step for a workspace.
func (c *Client) SaveStep(ctx context.Context, path string, step int) error {
	return c.postJSON(ctx, workspacePath(path, "/step"), map[string]int{"step": step}, nil)
}

// GenerateAssets triggers frame/clip generation for a workspace.
func (c *Client) GenerateAssets(ctx context.Context, path string, payload GenerateAssetsPayload) error {
	return c.postJSON(ctx, workspacePath(path, "/generate-assets"), payload, nil)
}

// Analyze uploads a video file for automatic segmentation.
func (c *Client) Analyze(ctx context.Context, fileName string, content io.Reader) (*AnalyzeResult, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("create multipart form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("write multipart body: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("finalize multipart body: %w", err)
	}

	var result AnalyzeResult
	if err := c.do(ctx, http.MethodPost, "/api/analyze", &buf, writer.FormDataContentType(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// DownloadYouTube asks the backend to download and segment a video by URL.
func (c *Client) DownloadYouTube(ctx context.Context, videoURL string) (*AnalyzeResult, error) {
	var result AnalyzeResult
	if err := c.postJSON(ctx, "/api/download-youtube", map[string]string{"url": videoURL}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// AssetReport reads a workspace's generated-assets report.
func (c *Client) AssetReport(ctx context.Context, slug string) (*AssetReport, error) {
	var report AssetReport
	if err := c.getJSON(ctx, "/workspaces/"+url.PathEscape(slug)+"/assets/report.json", &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ModificationLog reads a workspace's modification_log.json verbatim.
func (c *Client) ModificationLog(ctx context.Context, slug string) (string, error) {
	return c.getText(ctx, "/workspaces/"+url.PathEscape(slug)+"/modification_log.json")
}

// OptimizedStoryboard reads a workspace's optimized_storyboard.json verbatim.
func (c *Client) OptimizedStoryboard(ctx context.Context, slug string) (string, error) {
	return c.getText(ctx, "/workspaces/"+url.PathEscape(slug)+"/optimized_storyboard.json")
}

func (c *Client) getText(ctx context.Context, path string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &APIError{StatusCode: resp.StatusCode, Detail: strings.TrimSpace(string(respBody))}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(body), nil
}
