// Package crudclient talks to a records endpoint: it lists records and
// creates, updates and removes them with multipart form bodies.
package crudclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/apex/log"
	"github.com/jjudge-oj/imageforms/types"
)

const maxErrorBody = 4 << 10

// ErrMalformedResponse is returned when a response body cannot be decoded
// into the expected shape.
var ErrMalformedResponse = errors.New("malformed response")

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Message)
}

// Endpoint locates a records API. Mutations go to BaseURL and
// BaseURL/{id}; listing goes to BaseURL+ListPath.
type Endpoint struct {
	BaseURL  string
	ListPath string
}

// Client performs CRUD calls against a single endpoint.
type Client struct {
	endpoint   Endpoint
	httpClient *http.Client
	logTags    log.Fields
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient = &http.Client{Timeout: d}
	}
}

// New constructs a client for the given endpoint.
func New(endpoint Endpoint, opts ...Option) *Client {
	endpoint.BaseURL = strings.TrimRight(endpoint.BaseURL, "/")
	c := &Client{
		endpoint:   endpoint,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logTags:    log.Fields{"module": "crudclient", "component": "client", "endpoint": endpoint.BaseURL},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the endpoint the client talks to.
func (c *Client) Endpoint() Endpoint {
	return c.endpoint
}

// List fetches every record of the endpoint.
func (c *Client) List(ctx context.Context) ([]types.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint.BaseURL+c.endpoint.ListPath, nil)
	if err != nil {
		return nil, err
	}

	var records []types.Record
	if err := c.do(req, &records); err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	if records == nil {
		records = []types.Record{}
	}
	return records, nil
}

// Create submits a new record and returns it as stored by the server.
func (c *Client) Create(ctx context.Context, payload Payload) (types.Record, error) {
	rec, err := c.submit(ctx, http.MethodPost, c.endpoint.BaseURL, payload)
	if err != nil {
		return types.Record{}, fmt.Errorf("create record: %w", err)
	}
	return rec, nil
}

// Update replaces the editable fields of the record with the given id.
func (c *Client) Update(ctx context.Context, id string, payload Payload) (types.Record, error) {
	rec, err := c.submit(ctx, http.MethodPut, c.recordURL(id), payload)
	if err != nil {
		return types.Record{}, fmt.Errorf("update record %s: %w", id, err)
	}
	return rec, nil
}

// Remove deletes the record with the given id.
func (c *Client) Remove(ctx context.Context, id string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.recordURL(id), nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("remove record %s: %w", id, err)
	}
	return nil
}

func (c *Client) recordURL(id string) string {
	return c.endpoint.BaseURL + "/" + url.PathEscape(id)
}

func (c *Client) submit(ctx context.Context, method, target string, payload Payload) (types.Record, error) {
	body, contentType, err := payload.encode()
	if err != nil {
		return types.Record{}, err
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return types.Record{}, err
	}
	req.Header.Set("Content-Type", contentType)

	var parsed types.RecordResponse
	if err := c.do(req, &parsed); err != nil {
		return types.Record{}, err
	}
	if parsed.User.ID == "" {
		return types.Record{}, fmt.Errorf("%w: missing user._id", ErrMalformedResponse)
	}
	return parsed.User, nil
}

// do executes req and decodes a JSON body into out when out is non-nil.
// Any 2xx status is a success.
func (c *Client) do(req *http.Request, out any) error {
	logger := log.WithFields(c.logTags).WithFields(log.Fields{"method": req.Method, "url": req.URL.String()})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		logger.WithError(err).Debug("Request failed")
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := &StatusError{StatusCode: resp.StatusCode, Message: readErrorMessage(resp.Body)}
		logger.WithField("status", resp.StatusCode).Debug("Unexpected response status")
		return statusErr
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	return nil
}

func readErrorMessage(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	var parsed struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &parsed) == nil {
		if parsed.Error != "" {
			return parsed.Error
		}
		if parsed.Message != "" {
			return parsed.Message
		}
	}
	return strings.TrimSpace(string(raw))
}
