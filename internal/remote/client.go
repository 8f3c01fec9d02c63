// Package remote holds the HTTP clients for the remote relational store
// and the blob store. Both speak the PostgREST-style REST dialect the
// hosted backend exposes.
package remote

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Client talks to the remote relational store.
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

// New creates a remote store client.
func New(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upsert bulk-writes rows keyed by id. Existing rows are merged, so the
// call is safe to repeat.
func (c *Client) Upsert(table string, rows []map[string]any) error {
	body, err := json.Marshal(rows)
	if err != nil {
		return fmt.Errorf("marshal rows: %w", err)
	}

	req, err := http.NewRequest("POST", fmt.Sprintf("%s/rest/v1/%s?on_conflict=id", c.BaseURL, table), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "resolution=merge-duplicates,return=minimal")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.statusError("upsert "+table, resp)
	}
	return nil
}

// Select pages rows with updated_at strictly after since, ascending.
// Empty since means all rows (full resync).
func (c *Client) Select(table, since string, offset, limit int) ([]map[string]any, error) {
	params := url.Values{}
	params.Set("select", "*")
	params.Set("order", "updated_at.asc")
	params.Set("offset", strconv.Itoa(offset))
	params.Set("limit", strconv.Itoa(limit))
	if since != "" {
		params.Set("updated_at", "gt."+since)
	}

	req, err := http.NewRequest("GET", fmt.Sprintf("%s/rest/v1/%s?%s", c.BaseURL, table, params.Encode()), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, c.statusError("select "+table, resp)
	}

	var rows []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode rows: %w", err)
	}
	return rows, nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("apikey", c.APIKey)
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
}

func (c *Client) statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%s: %w", op, ErrUnauthorized)
	case http.StatusNotFound:
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	default:
		return fmt.Errorf("%s: HTTP %d: %s", op, resp.StatusCode, bytes.TrimSpace(body))
	}
}
