// Package client talks to the manual HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ziadkadry99/manualview/internal/manual"
)

// Client fetches manuals and asks questions over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// List returns the summaries of all manuals. A non-empty query filters by
// title on the server.
func (c *Client) List(ctx context.Context, query string) ([]manual.Summary, error) {
	u := c.baseURL + "/api/manuals"
	if query != "" {
		u += "?q=" + url.QueryEscape(query)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list manuals: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("list manuals: HTTP status %d: %s", resp.StatusCode, errorMessage(resp.Body))
	}
	var out []manual.Summary
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode manual list: %w", err)
	}
	return out, nil
}

// Get fetches manual id. A 404 yields manual.ErrNotFound wrapped in a
// *manual.LoadError; any other failure yields a *manual.LoadError.
func (c *Client) Get(ctx context.Context, id int) (*manual.Manual, error) {
	u := fmt.Sprintf("%s/api/manuals/%d", c.baseURL, id)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, &manual.LoadError{ID: id, Err: err}
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &manual.LoadError{ID: id, Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, &manual.LoadError{ID: id, Status: resp.StatusCode, Err: manual.ErrNotFound}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, &manual.LoadError{
			ID:     id,
			Status: resp.StatusCode,
			Err:    errors.New(errorMessage(resp.Body)),
		}
	}

	m, err := manual.Decode(resp.Body)
	if err != nil {
		return nil, &manual.LoadError{ID: id, Err: err}
	}
	return m, nil
}

// Load implements source.Loader.
func (c *Client) Load(ctx context.Context, id int) (*manual.Manual, error) {
	return c.Get(ctx, id)
}

type askRequest struct {
	Question string `json:"question"`
}

type askResponse struct {
	Answer string `json:"answer"`
	Error  string `json:"error"`
}

// Ask posts a question to the Q&A endpoint and returns the answer.
func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	body, err := json.Marshal(askRequest{Question: question})
	if err != nil {
		return "", fmt.Errorf("failed to marshal question: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/qa", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("ask: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(resp.Body)
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return "", fmt.Errorf("ask: HTTP status %d: %s", resp.StatusCode, msg)
	}

	var out askResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ask: failed to decode answer: %w", err)
	}
	return out.Answer, nil
}

// errorMessage extracts {"error": "..."} from a response body, falling back
// to the raw text.
func errorMessage(r io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(r, 4096))
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &e) == nil && e.Error != "" {
		return e.Error
	}
	return strings.TrimSpace(string(data))
}
