package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

const (
	defaultTimeout    = 300 * time.Second
	retryBackoff      = 200 * time.Millisecond
	maxErrorBody      = 4096
	requestIDHeader   = "X-Request-ID"
	defaultMaxConns   = 4
	maxResponseLength = 256 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL string
	// Timeout bounds each attempt; zero uses the default.
	Timeout time.Duration
	// Retries is the number of extra attempts after a transport error or a
	// 429/502/503/504 response.
	Retries    int
	MaxConns   int
	Logger     *slog.Logger
	HTTPClient *http.Client
}

// Client talks to the print-preparation backend.
type Client struct {
	base    *url.URL
	http    *http.Client
	timeout time.Duration
	retries int
	logger  *slog.Logger
}

// New validates the options and builds a client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q: unsupported scheme %q", raw, base.Scheme)
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = newHTTPClient(opts.MaxConns)
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := opts.Retries
	if retries < 0 {
		retries = 0
	}
	return &Client{base: base, http: hc, timeout: timeout, retries: retries, logger: opts.Logger}, nil
}

func newHTTPClient(maxConns int) *http.Client {
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxConnsPerHost:     maxConns,
		MaxIdleConnsPerHost: maxConns,
		MaxIdleConns:        maxConns * 2,
		IdleConnTimeout:     90 * time.Second,
	}
	return &http.Client{Transport: transport}
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) endpointURL(ep Endpoint) string {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + ep.Path()
	return u.String()
}

// Health calls GET /health and expects {"status": "healthy"}.
func (c *Client) Health(ctx context.Context) error {
	res, err := c.send(ctx, EndpointHealth, http.MethodGet, nil, "")
	if err != nil {
		return err
	}
	var parsed healthResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return fmt.Errorf("%w: decode health: %v", ErrUnhealthy, err)
	}
	if parsed.Status != "healthy" {
		return fmt.Errorf("%w: status %q", ErrUnhealthy, parsed.Status)
	}
	return nil
}

// Do posts req as multipart/form-data with the upload in the "file" part.
func (c *Client) Do(ctx context.Context, req Request) (*Result, error) {
	if len(req.File.Data) == 0 {
		return nil, fmt.Errorf("%s: %w", req.Endpoint.Path(), ErrEmptyUpload)
	}
	body, contentType, err := encodeMultipart(req)
	if err != nil {
		return nil, fmt.Errorf("%s: encode form: %w", req.Endpoint.Path(), err)
	}
	if c.logger != nil {
		c.logger.Info("backend request",
			"endpoint", req.Endpoint.Path(),
			"file", req.File.Filename,
			"size", humanize.Bytes(uint64(len(req.File.Data))),
			"fields", len(req.Fields),
		)
	}
	return c.send(ctx, req.Endpoint, http.MethodPost, body, contentType)
}

// DecodeAnalysis extracts the text of an analysis response.
func DecodeAnalysis(res *Result) (string, error) {
	if res == nil {
		return "", errors.New("nil result")
	}
	var parsed analysisResponse
	if err := json.Unmarshal(res.Body, &parsed); err != nil {
		return "", fmt.Errorf("%s: decode analysis: %w", res.Endpoint.Path(), err)
	}
	return parsed.Result, nil
}

func (c *Client) send(ctx context.Context, ep Endpoint, method string, body []byte, contentType string) (*Result, error) {
	requestID := uuid.NewString()
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(retryBackoff * time.Duration(attempt)):
			}
		}
		res, err := c.attempt(ctx, ep, method, body, contentType, requestID)
		if err == nil {
			return res, nil
		}
		lastErr = err
		if ctx.Err() != nil || !retryable(err) {
			return nil, err
		}
		if c.logger != nil {
			c.logger.Warn("backend retry", "endpoint", ep.Path(), "attempt", attempt+1, "request_id", requestID, "error", err)
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, ep Endpoint, method string, body []byte, contentType, requestID string) (*Result, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	httpReq, err := http.NewRequestWithContext(reqCtx, method, c.endpointURL(ep), rd)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set(requestIDHeader, requestID)
	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", ep.Path(), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, newStatusError(ep, resp.StatusCode, data)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLength))
	if err != nil {
		return nil, fmt.Errorf("%s: read body: %w", ep.Path(), err)
	}
	res := &Result{
		Endpoint:    ep,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        data,
		RequestID:   requestID,
		Elapsed:     time.Since(start),
	}
	if c.logger != nil {
		c.logger.Debug("backend response",
			"endpoint", ep.Path(),
			"status", resp.StatusCode,
			"content_type", res.ContentType,
			"size", humanize.Bytes(uint64(len(data))),
			"elapsed", res.Elapsed,
			"request_id", requestID,
		)
	}
	return res, nil
}

func retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	return !errors.Is(err, context.Canceled)
}

// encodeMultipart writes the fields in sorted order followed by the file.
func encodeMultipart(req Request) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, k := range sortedKeys(req.Fields) {
		if err := w.WriteField(k, req.Fields[k]); err != nil {
			return nil, "", err
		}
	}
	filename := req.File.Filename
	if filename == "" {
		filename = "upload"
	}
	ct := req.File.ContentType
	if ct == "" {
		ct = http.DetectContentType(req.File.Data)
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	h.Set("Content-Type", ct)
	part, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(req.File.Data); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}
