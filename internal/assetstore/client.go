package assetstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/dgallion1/deckseg/internal/asset"
)

// Client communicates with the external asset-store HTTP API, the
// collaborator that holds per-page extraction records and persists
// classification results.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// RetryableError wraps transient failures (timeouts, 429, 5xx) so the
// pipeline can back off and retry.
type RetryableError struct {
	Err error
}

func (e *RetryableError) Error() string { return e.Err.Error() }
func (e *RetryableError) Unwrap() error { return e.Err }

// FetchAssets retrieves every asset of a document, in page order.
func (c *Client) FetchAssets(ctx context.Context, documentID string) ([]asset.Asset, error) {
	u := c.baseURL + "/documents/" + url.PathEscape(documentID) + "/assets"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RetryableError{Err: fmt.Errorf("fetch assets: %w", err)}
	}
	defer resp.Body.Close()
	if err := checkStatus(resp, "fetch assets "+documentID); err != nil {
		return nil, err
	}

	var result struct {
		Assets []asset.Asset `json:"assets"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode assets: %w", err)
	}
	return result.Assets, nil
}

// PageResult is one persisted classification outcome.
type PageResult struct {
	AssetID    string  `json:"asset_id"`
	Segment    string  `json:"segment"`
	Confidence float64 `json:"confidence"`
	Title      string  `json:"title,omitempty"`
	TitleSrc   string  `json:"title_source,omitempty"`
	Reason     string  `json:"reason,omitempty"`
}

// PostResults stores per-page classification results for a document.
func (c *Client) PostResults(ctx context.Context, documentID string, results []PageResult) error {
	return c.post(ctx, "/documents/"+url.PathEscape(documentID)+"/segments", map[string]any{
		"results": results,
	})
}

// PostSections stores the grouped display sections for a document.
func (c *Client) PostSections(ctx context.Context, documentID string, sections any) error {
	return c.post(ctx, "/documents/"+url.PathEscape(documentID)+"/sections", map[string]any{
		"sections": sections,
	})
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return &RetryableError{Err: fmt.Errorf("post %s: %w", path, err)}
	}
	defer resp.Body.Close()
	return checkStatus(resp, "post "+path)
}

func checkStatus(resp *http.Response, op string) error {
	if resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	err := fmt.Errorf("%s: status %d: %s", op, resp.StatusCode, string(respBody))
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return &RetryableError{Err: err}
	}
	return err
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
