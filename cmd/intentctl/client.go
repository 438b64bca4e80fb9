package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/neogan74/intent/internal/crime"
	"github.com/neogan74/intent/internal/handlers"
	"github.com/neogan74/intent/internal/theme"
)

// Client talks to the intent HTTP API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// APIError is a non-2xx reply from the server.
type APIError struct {
	Status  int               `json:"-"`
	Kind    string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// ListFilter holds the optional list query parameters.
type ListFilter struct {
	Solved string
	Query  string
	From   string
	To     string
}

func (f ListFilter) values() url.Values {
	v := url.Values{}
	if f.Solved != "" {
		v.Set("solved", f.Solved)
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	if f.From != "" {
		v.Set("from", f.From)
	}
	if f.To != "" {
		v.Set("to", f.To)
	}
	return v
}

// NewClient creates a client for baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) ListCrimes(ctx context.Context, filter ListFilter) ([]crime.Crime, error) {
	path := "/crimes"
	if q := filter.values().Encode(); q != "" {
		path += "?" + q
	}
	var out handlers.ListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Crimes, nil
}

func (c *Client) GetCrime(ctx context.Context, id string) (crime.Crime, error) {
	var out crime.Crime
	err := c.do(ctx, http.MethodGet, "/crimes/"+url.PathEscape(id), nil, &out)
	return out, err
}

func (c *Client) CreateCrime(ctx context.Context, in crime.Input) (crime.Crime, error) {
	var out crime.Crime
	err := c.do(ctx, http.MethodPost, "/crimes", in, &out)
	return out, err
}

func (c *Client) UpdateCrime(ctx context.Context, id string, in crime.Input) (crime.Crime, error) {
	var out crime.Crime
	err := c.do(ctx, http.MethodPut, "/crimes/"+url.PathEscape(id), in, &out)
	return out, err
}

func (c *Client) DeleteCrime(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/crimes/"+url.PathEscape(id), nil, nil)
}

func (c *Client) ClearCrimes(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/crimes", nil, nil)
}

func (c *Client) Stats(ctx context.Context) (crime.Stats, error) {
	var out crime.Stats
	err := c.do(ctx, http.MethodGet, "/crimes/stats", nil, &out)
	return out, err
}

func (c *Client) CurrentTheme(ctx context.Context) (theme.Theme, error) {
	var out theme.Theme
	err := c.do(ctx, http.MethodGet, "/theme", nil, &out)
	return out, err
}

func (c *Client) SelectTheme(ctx context.Context, key string) (theme.Theme, error) {
	var out theme.Theme
	err := c.do(ctx, http.MethodPut, "/theme", map[string]string{"theme": key}, &out)
	return out, err
}

// ThemeList is the body of GET /themes.
type ThemeList struct {
	Themes  []theme.Theme `json:"themes"`
	Current string        `json:"current"`
}

func (c *Client) ListThemes(ctx context.Context) (ThemeList, error) {
	var out ThemeList
	err := c.do(ctx, http.MethodGet, "/themes", nil, &out)
	return out, err
}

func (c *Client) CreateBackup(ctx context.Context) (string, error) {
	var out struct {
		Name string `json:"name"`
	}
	err := c.do(ctx, http.MethodPost, "/backups", nil, &out)
	return out.Name, err
}

func (c *Client) ListBackups(ctx context.Context) ([]handlers.BackupInfo, error) {
	var out struct {
		Backups []handlers.BackupInfo `json:"backups"`
	}
	err := c.do(ctx, http.MethodGet, "/backups", nil, &out)
	return out.Backups, err
}

func (c *Client) RestoreBackup(ctx context.Context, name string) error {
	return c.do(ctx, http.MethodPost, "/backups/restore", map[string]string{"name": name}, nil)
}

func (c *Client) Health(ctx context.Context) (handlers.HealthStatus, error) {
	var out handlers.HealthStatus
	err := c.do(ctx, http.MethodGet, "/health", nil, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.Unmarshal(data, apiErr)
		return apiErr
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
