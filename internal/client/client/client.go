// Package client is a thin HTTP wrapper over the report server API. It keeps
// the session token obtained at login and attaches it to every subsequent
// request.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is a non-2xx response decoded from the server's error envelope.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("server returned status %d", e.StatusCode)
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// LoginResult is the server's answer to a successful login.
type LoginResult struct {
	Token    string `json:"token"`
	Role     string `json:"role"`
	FullName string `json:"full_name"`
}

// Login authenticates and remembers the session token for later calls.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	var result LoginResult
	err := c.call(ctx, http.MethodPost, "/api/login",
		map[string]string{"username": username, "password": password}, &result)
	if err != nil {
		return nil, err
	}
	c.token = result.Token
	return &result, nil
}

// Logout ends the session on the server and drops the local token.
func (c *Client) Logout(ctx context.Context) error {
	err := c.call(ctx, http.MethodPost, "/api/logout", nil, nil)
	c.token = ""
	return err
}

// LoggedIn reports whether the client holds a session token.
func (c *Client) LoggedIn() bool {
	return c.token != ""
}

// LoadResult summarizes a completed dataset load.
type LoadResult struct {
	Source  string `json:"source"`
	Rows    int    `json:"rows"`
	Columns int    `json:"columns"`
}

func (c *Client) LoadDataset(ctx context.Context, source string) (*LoadResult, error) {
	var result LoadResult
	err := c.call(ctx, http.MethodPost, "/api/dataset/load",
		map[string]string{"source": source}, &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// DatasetColumn and DatasetRow mirror the server's dataset view. Cell values
// arrive already rendered as strings.
type DatasetColumn struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type DatasetRow struct {
	RowID int               `json:"row_id"`
	Cells map[string]string `json:"cells"`
}

type DatasetView struct {
	Loaded  bool            `json:"loaded"`
	Source  string          `json:"source"`
	Columns []DatasetColumn `json:"columns"`
	Rows    []DatasetRow    `json:"rows"`
}

func (c *Client) Dataset(ctx context.Context) (*DatasetView, error) {
	var view DatasetView
	if err := c.call(ctx, http.MethodGet, "/api/dataset", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

// Report returns the KPI figures keyed by display label, already formatted.
func (c *Client) Report(ctx context.Context) (map[string]string, error) {
	var report map[string]string
	if err := c.call(ctx, http.MethodGet, "/api/report", nil, &report); err != nil {
		return nil, err
	}
	return report, nil
}

func (c *Client) Edit(ctx context.Context, rowID int, column, newValue string) error {
	return c.call(ctx, http.MethodPost, "/api/edit", map[string]any{
		"row_id":    rowID,
		"column":    column,
		"new_value": newValue,
	}, nil)
}

// AuditRecord is one entry of the server's audit trail view.
type AuditRecord struct {
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	RowID     int    `json:"row_id"`
	Column    string `json:"column"`
	OldValue  string `json:"old_value"`
	NewValue  string `json:"new_value"`
}

func (c *Client) Audit(ctx context.Context) ([]AuditRecord, error) {
	var resp struct {
		Records []AuditRecord `json:"records"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/audit", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Records, nil
}

func (c *Client) Ask(ctx context.Context, question string) (string, error) {
	var resp struct {
		Answer string `json:"answer"`
	}
	err := c.call(ctx, http.MethodPost, "/api/assistant",
		map[string]string{"question": question}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Answer, nil
}

// call performs one API request. A non-2xx status is returned as *APIError
// with the server's error message when one is present.
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var envelope struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &envelope) == nil {
			apiErr.Message = envelope.Error
		}
		return apiErr
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
