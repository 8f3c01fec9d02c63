package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// BlobClient talks to the remote blob store (thumbnail bucket).
type BlobClient struct {
	BaseURL string
	APIKey  string
	Bucket  string
	HTTP    *http.Client
}

// NewBlobClient creates a blob store client for one bucket.
func NewBlobClient(baseURL, apiKey, bucket string) *BlobClient {
	return &BlobClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Bucket:  bucket,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Upload writes bytes at path with overwrite-allowed semantics, so a
// repeated sweep lands on the same object.
func (c *BlobClient) Upload(path string, data []byte, contentType string) error {
	req, err := http.NewRequest("POST",
		fmt.Sprintf("%s/storage/v1/object/%s/%s", c.BaseURL, c.Bucket, path),
		bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("upload %s: HTTP %d: %s", path, resp.StatusCode, bytes.TrimSpace(body))
	}
	return nil
}

// Download fetches the object at path.
func (c *BlobClient) Download(path string) ([]byte, error) {
	req, err := http.NewRequest("GET",
		fmt.Sprintf("%s/storage/v1/object/%s/%s", c.BaseURL, c.Bucket, path), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("download %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("download %s: HTTP %d", path, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return data, nil
}

// SignedURL returns a time-limited URL for direct access to path, for
// callers rendering remote thumbnails without the API key.
func (c *BlobClient) SignedURL(path string, ttlSeconds int) (string, error) {
	body, err := json.Marshal(map[string]int{"expiresIn": ttlSeconds})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequest("POST",
		fmt.Sprintf("%s/storage/v1/object/sign/%s/%s", c.BaseURL, c.Bucket, path),
		bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("sign %s: HTTP %d", path, resp.StatusCode)
	}

	var out struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return c.BaseURL + out.SignedURL, nil
}
