// Package extract is a client for the remote extraction service, which applies a
// template to an uploaded PDF and returns the value of every field.
package extract

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

	apperrors "github.com/a3tai/mcp-pdf-regions/internal/errors"
	"github.com/a3tai/mcp-pdf-regions/internal/region"
)

// DefaultTimeout is the default timeout for service requests.
const DefaultTimeout = 60 * time.Second

// Hint is shown next to service failures.
const Hint = "check that the extraction service is running and reachable"

// Request is the template part of an extraction request.
type Request struct {
	Vendor string                 `json:"vendor"`
	Fields []region.TemplateField `json:"fields"`
}

// ServiceError is a failure reported by the service. Message is the service's
// error text, unchanged.
type ServiceError struct {
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	return e.Message
}

// Client talks to one extraction service. Requests are never retried.
type Client struct {
	baseURL string
	client  *http.Client
	timeout time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the timeout for service requests.
// Defaults to DefaultTimeout if not specified.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the underlying HTTP client. WithTimeout is ignored.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.client = hc
	}
}

// NewClient creates a client for the service at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, apperrors.Newf(apperrors.KindPrecondition, "extraction service",
			"invalid service URL %q", baseURL)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

// BaseURL returns the service address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Extract uploads the document named filename together with the template of vendor
// and returns the extracted value of every field.
func (c *Client) Extract(ctx context.Context, vendor string, t region.Template, filename string, doc io.Reader) (map[string]any, error) {
	body, contentType, err := encodeRequest(vendor, t, filename, doc)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindFormat, "extract", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindService, "extract", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindService, "extract", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindService, "extract", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.Wrap(apperrors.KindService, "extract", decodeFailure(resp, raw))
	}

	var result struct {
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, apperrors.Wrap(apperrors.KindService, "extract", fmt.Errorf("invalid service response: %w", err))
	}
	if result.Data == nil {
		result.Data = map[string]any{}
	}
	return result.Data, nil
}

// Health probes the service.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return apperrors.Wrap(apperrors.KindService, "health", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Wrap(apperrors.KindService, "health", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperrors.Wrap(apperrors.KindService, "health", err)
	}
	if resp.StatusCode != http.StatusOK {
		return apperrors.Wrap(apperrors.KindService, "health", decodeFailure(resp, raw))
	}

	var status struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(raw, &status); err != nil || status.Status != "ok" {
		return apperrors.Wrap(apperrors.KindService, "health",
			&ServiceError{StatusCode: resp.StatusCode, Message: "service is not healthy"})
	}
	return nil
}

func encodeRequest(vendor string, t region.Template, filename string, doc io.Reader) (io.Reader, string, error) {
	fields := make([]region.TemplateField, len(t.Fields))
	for i, f := range t.Fields {
		if f.Type == "" {
			f.Type = region.DefaultType(f.Field)
		}
		fields[i] = f
	}
	tmpl, err := json.Marshal(Request{Vendor: vendor, Fields: fields})
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("pdf", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, doc); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("template", string(tmpl)); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// decodeFailure turns a non-2xx response into a ServiceError carrying the service's
// own message when it sent one
func decodeFailure(resp *http.Response, raw []byte) *ServiceError {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return &ServiceError{StatusCode: resp.StatusCode, Message: body.Error}
	}
	return &ServiceError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))}
}
