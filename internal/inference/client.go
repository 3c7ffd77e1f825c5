package inference

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
	"net/url"
	"strings"
	"time"
)

const (
	DefaultPath        = "/explain"
	FileField          = "file"
	defaultHTTPTimeout = 5 * time.Minute
)

// Config describes how to reach the inference endpoint.
type Config struct {
	BaseURL    string
	Path       string
	HTTPClient *http.Client
}

// Client submits images to the inference endpoint.
type Client struct {
	base   *url.URL
	path   string
	client *http.Client
}

// New validates cfg and returns a Client.
func New(cfg Config) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		return nil, errors.New("inference endpoint URL is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid inference endpoint URL: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("inference endpoint must be http or https, got %q", base.Scheme)
	}
	path := cfg.Path
	if path == "" {
		path = DefaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return &Client{base: base, path: path, client: pickHTTPClient(cfg.HTTPClient)}, nil
}

func pickHTTPClient(custom *http.Client) *http.Client {
	if custom != nil {
		return custom
	}
	// Explanations are slow to compute server-side; the caller's context bounds the wait.
	return &http.Client{Timeout: defaultHTTPTimeout}
}

// Endpoint returns the absolute URL analyses are posted to.
func (c *Client) Endpoint() string {
	return c.base.String() + c.path
}

// Analyze posts the image as a multipart form with a single file field and decodes
// the structured result.
func (c *Client) Analyze(ctx context.Context, filename, mediaType string, image io.Reader) (*Result, error) {
	body, contentType, err := encodeForm(filename, mediaType, image)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.Endpoint(), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}
	return DecodeResult(resp.Body)
}

// Ping fetches the service banner from the endpoint root.
func (c *Client) Ping(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base.String()+"/", nil)
	if err != nil {
		return "", err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &StatusError{StatusCode: resp.StatusCode}
	}
	var banner struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&banner); err != nil {
		return "", fmt.Errorf("failed to decode banner: %w", err)
	}
	return banner.Message, nil
}

func encodeForm(filename, mediaType string, image io.Reader) (io.Reader, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, FileField, filename))
	if mediaType == "" {
		mediaType = "application/octet-stream"
	}
	header.Set("Content-Type", mediaType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, "", fmt.Errorf("write image payload: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return &buf, writer.FormDataContentType(), nil
}
