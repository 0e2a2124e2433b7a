package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/charliek/woconsole/internal/constants"
	"github.com/charliek/woconsole/internal/domain"
	"github.com/charliek/woconsole/internal/stream"
)

// APIError is a non-2xx response from the management API
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.StatusCode)
	}
	if e.Message != "" {
		return fmt.Sprintf("%s (status %d)", e.Message, e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

// Detail returns the human-readable message reported by the server
func (e *APIError) Detail() string {
	return e.Message
}

// Unwrap maps authentication failures to domain.ErrUnauthorized
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return domain.ErrUnauthorized
	}
	return nil
}

// errorBody covers both error shapes the API produces: FastAPI's
// {"detail": ...} and the relay's {"error": ..., "code": ...}
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
	Code   string          `json:"code"`
}

type validationItem struct {
	Loc []any  `json:"loc"`
	Msg string `json:"msg"`
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil || len(body) == 0 {
		return apiErr
	}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		apiErr.Message = strings.TrimSpace(string(body))
		return apiErr
	}

	apiErr.Code = eb.Code
	apiErr.Message = eb.Error
	if len(eb.Detail) > 0 {
		apiErr.Message = detailMessage(eb.Detail)
	}
	return apiErr
}

// detailMessage flattens a FastAPI detail, which is either a string or a
// list of validation errors
func detailMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []validationItem
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg != "" {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}

	return string(raw)
}

// Client is an HTTP client for the management API
type Client struct {
	baseURL      string
	token        string
	httpClient   *http.Client
	streamClient *http.Client
}

// NewClient creates a new API client. A non-positive timeout selects
// constants.DefaultRequestTimeout. Streams are never subject to it.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	return &Client{
		baseURL:      strings.TrimSuffix(baseURL, "/"),
		token:        token,
		httpClient:   &http.Client{Timeout: timeout},
		streamClient: &http.Client{},
	}
}

// Token returns the credential the client was configured with
func (c *Client) Token() string {
	return c.token
}

type siteCreateRequest struct {
	Domain     string   `json:"domain"`
	PHPVersion string   `json:"php_version"`
	Features   []string `json:"features"`
	Plugins    []string `json:"plugins"`
	TenantID   *int     `json:"tenant_id,omitempty"`
}

// CreateSite queues provisioning of one site
func (c *Client) CreateSite(ctx context.Context, req domain.SiteRequest) error {
	body := siteCreateRequest{
		Domain:     req.Domain,
		PHPVersion: req.PHPVersion,
		Features:   req.Features,
		Plugins:    req.Plugins,
		TenantID:   req.TenantID,
	}
	if body.Features == nil {
		body.Features = []string{}
	}
	if body.Plugins == nil {
		body.Plugins = []string{}
	}
	return c.post(ctx, "/api/v1/sites", body, nil)
}

// LogHealth returns the availability of each log source, sorted by name
func (c *Client) LogHealth(ctx context.Context) ([]domain.SourceHealth, error) {
	var resp map[string]domain.SourceHealth
	if err := c.get(ctx, "/api/v1/system/logs/health", &resp); err != nil {
		return nil, err
	}

	out := make([]domain.SourceHealth, 0, len(resp))
	for name, h := range resp {
		h.Name = name
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Dial opens the push log channel for source. It implements stream.Dialer.
func (c *Client) Dial(ctx context.Context, source, token string) (stream.Conn, error) {
	query := url.Values{}
	query.Set("token", token)
	u := c.baseURL + "/api/v1/system/logs/stream/" + url.PathEscape(source) + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.streamClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("opening log stream: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeAPIError(resp)
	}

	return newSSEConn(resp.Body), nil
}

// sseConn reads data payloads from a text/event-stream body
type sseConn struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newSSEConn(body io.ReadCloser) *sseConn {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, constants.ScannerBufferSize), constants.ScannerMaxBufferSize)
	return &sseConn{body: body, scanner: scanner}
}

// Next returns the next event's data. Multiple data lines of one event
// are joined with newlines; comments and other fields are ignored.
func (s *sseConn) Next() (string, error) {
	var data []string
	for s.scanner.Scan() {
		line := strings.TrimSuffix(s.scanner.Text(), "\r")

		if line == "" {
			if data != nil {
				return strings.Join(data, "\n"), nil
			}
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, _ := strings.Cut(line, ":")
		if field != "data" {
			continue
		}
		data = append(data, strings.TrimPrefix(value, " "))
	}

	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *sseConn) Close() error {
	return s.body.Close()
}

func (c *Client) get(ctx context.Context, path string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, v)
}

func (c *Client) post(ctx context.Context, path string, body, v any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, v)
}

func (c *Client) do(req *http.Request, v any) error {
	c.addAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return decodeAPIError(resp)
	}

	if v == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// addAuthHeader adds the Authorization header if a token is available
func (c *Client) addAuthHeader(req *http.Request) {
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}
