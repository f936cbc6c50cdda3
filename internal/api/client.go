// Package api implements the HTTP transport to the remote analysis
// service. A bearer token from the token source is attached to every
// outgoing request automatically.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"
)

// DefaultBaseURL points at the production service.
const DefaultBaseURL = "https://analisador-api-service-861393614978.southamerica-east1.run.app/api/v1"

// TokenSource supplies the saved bearer token. An empty token means the
// request goes out unauthenticated (only /login accepts that).
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource over a fixed string.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) {
	return string(t), nil
}

// FilePart names one file field of a multipart request. Content is
// streamed from Path when the request is built.
type FilePart struct {
	Field    string
	Filename string
	Path     string
}

// Response is the raw outcome of a successful request.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
}

// APIError is a non-2xx response, carrying the server-supplied message
// when the error body was structured.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("server returned %d", e.StatusCode)
}

// Client talks to the remote service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	retry      RetryOptions
}

// NewClient creates a transport client. Uploads of large XML batches can
// be slow, so the timeout is generous; the orchestration core imposes
// none of its own.
func NewClient(baseURL string, tokens TokenSource) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 5 * time.Minute,
		},
		tokens: tokens,
	}
}

// WithRetry overrides the backoff applied to failed requests.
func (c *Client) WithRetry(opts RetryOptions) *Client {
	c.retry = opts
	return c
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode credentials: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read login response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newAPIError(resp.StatusCode, body)
	}

	var decoded struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode login response: %w", err)
	}
	if decoded.Token == "" {
		return "", fmt.Errorf("login response carried no token")
	}
	return decoded.Token, nil
}

// PostMultipart sends the named files and form fields to path and
// returns the raw response. Non-2xx statuses become an *APIError.
// Requests that never reached the server are retried with backoff;
// any response, success or error, settles the call immediately.
func (c *Client) PostMultipart(ctx context.Context, path string, files []FilePart, fields map[string]string) (*Response, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for _, part := range files {
		if err := writeFilePart(writer, part); err != nil {
			return nil, err
		}
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := writer.WriteField(name, fields[name]); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	var token string
	if c.tokens != nil {
		var tokenErr error
		token, tokenErr = c.tokens.Token(ctx)
		if tokenErr != nil {
			return nil, fmt.Errorf("failed to read session token: %w", tokenErr)
		}
	}

	payload := buf.Bytes()
	contentType := writer.FormDataContentType()

	var out *Response
	err := withRetry(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
		if err != nil {
			return &terminalError{err: fmt.Errorf("failed to create request: %w", err)}
		}
		req.Header.Set("Content-Type", contentType)
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("request failed: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &terminalError{err: newAPIError(resp.StatusCode, body)}
		}

		out = &Response{
			StatusCode: resp.StatusCode,
			Body:       body,
			Header:     resp.Header,
		}
		return nil
	}, c.retry)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func writeFilePart(writer *multipart.Writer, part FilePart) error {
	f, err := os.Open(part.Path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", part.Path, err)
	}
	defer f.Close()

	w, err := writer.CreateFormFile(part.Field, part.Filename)
	if err != nil {
		return fmt.Errorf("failed to create form file %s: %w", part.Field, err)
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("failed to copy %s into request: %w", part.Path, err)
	}
	return nil
}

// newAPIError extracts a structured server message when present.
func newAPIError(status int, body []byte) *APIError {
	var decoded struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	message := ""
	if err := json.Unmarshal(body, &decoded); err == nil {
		if decoded.Error != "" {
			message = decoded.Error
		} else {
			message = decoded.Message
		}
	}
	return &APIError{StatusCode: status, Message: message}
}
