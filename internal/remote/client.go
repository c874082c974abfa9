// Package remote implements bill.RemoteStore over the billstore HTTP API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/zombor/billed/internal/bill"
)

// Client talks to a billstore server on behalf of one employee
type Client struct {
	baseURL    *url.URL
	identity   bill.Identity
	password   string
	httpClient *http.Client
}

// Option configures a Client
type Option func(*Client)

// WithPassword sets the shared basic auth password
func WithPassword(password string) Option {
	return func(c *Client) {
		c.password = password
	}
}

// WithHTTPClient replaces the default HTTP client
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithTimeout bounds every request made by the client
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a Client for the server at baseURL
func NewClient(baseURL string, identity bill.Identity, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parsing server url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("server url %q must be absolute", baseURL)
	}

	c := &Client{
		baseURL:    u,
		identity:   identity,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// resolve turns a server path such as /api/files/x into an absolute URL
func (c *Client) resolve(path string) string {
	ref, err := url.Parse(path)
	if err != nil {
		return path
	}
	return c.baseURL.ResolveReference(ref).String()
}

// do sends the request and decodes a 2xx JSON answer into out. Transport
// failures come back as *bill.TransportError and rejections as
// *bill.ServerError, both unwrapped so their message reaches the user as is.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.resolve(path), body)
	if err != nil {
		return fmt.Errorf("building %s request: %w", op, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if c.identity.Email != "" || c.password != "" {
		req.SetBasicAuth(c.identity.Email, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &bill.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return serverError(resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &bill.TransportError{Op: op, Err: fmt.Errorf("decoding response: %w", err)}
	}
	return nil
}

func serverError(resp *http.Response) *bill.ServerError {
	serverErr := &bill.ServerError{StatusCode: resp.StatusCode}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(data) == 0 {
		return serverErr
	}
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &body) == nil {
		serverErr.Message = body.Error
	}
	return serverErr
}

// ListBills returns the bills of the client's identity
func (c *Client) ListBills(ctx context.Context) ([]*bill.Bill, error) {
	var bills []*bill.Bill
	if err := c.do(ctx, "list bills", http.MethodGet, "api/bills", "", nil, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

// StoreFile uploads a receipt as multipart form data, keeping its declared type
func (c *Client) StoreFile(ctx context.Context, att bill.Attachment) (*bill.StoredFile, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, att.BaseName()))
	header.Set("Content-Type", att.ContentType)
	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("creating form part: %w", err)
	}
	if _, err := part.Write(att.Data); err != nil {
		return nil, fmt.Errorf("writing form part: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("closing form: %w", err)
	}

	var stored bill.StoredFile
	if err := c.do(ctx, "store file", http.MethodPost, "api/files", writer.FormDataContentType(), &buf, &stored); err != nil {
		return nil, err
	}
	stored.DownloadURL = c.resolve(stored.DownloadURL)
	return &stored, nil
}

// CreateBill persists a new bill
func (c *Client) CreateBill(ctx context.Context, b *bill.Bill) (*bill.Bill, error) {
	payload, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("marshaling bill: %w", err)
	}

	var created bill.Bill
	if err := c.do(ctx, "create bill", http.MethodPost, "api/bills", "application/json", bytes.NewReader(payload), &created); err != nil {
		return nil, err
	}
	return &created, nil
}
