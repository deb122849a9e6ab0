// Package client talks to the teachers backend. Each operation shapes a request, calls the
// transport, unwraps the backend envelope and returns a typed result or a *Error.
package client

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

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/noah-isme/teachers-admin/internal/models"
	"github.com/noah-isme/teachers-admin/pkg/config"
	"github.com/noah-isme/teachers-admin/pkg/middleware/requestid"
)

const maxResponseBytes = 10 << 20

// Doer executes HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Observer receives timing for every upstream call.
type Observer interface {
	ObserveUpstream(operation string, status int, duration time.Duration)
}

// Client is the typed teachers backend client.
type Client struct {
	cfg      config.UpstreamConfig
	base     *url.URL
	http     Doer
	limiter  *rate.Limiter
	observer Observer
	logger   *zap.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithDoer replaces the default *http.Client.
func WithDoer(d Doer) Option {
	return func(c *Client) {
		if d != nil {
			c.http = d
		}
	}
}

// WithObserver attaches upstream call metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

// WithLogger sets the logger used for request/response context.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

// New constructs a client for the configured backend.
func New(cfg config.UpstreamConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("parse upstream base url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("upstream base url %q must be absolute", cfg.BaseURL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}
	burst := cfg.RateBurst
	if burst <= 0 {
		burst = 1
	}

	c := &Client{
		cfg:     cfg,
		base:    base,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(limit, burst),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type bearerKey struct{}

// WithBearer stores the caller's access token for forwarding to the backend.
func WithBearer(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerFrom returns the token stored by WithBearer, or "".
func BearerFrom(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}

func (c *Client) bearer(ctx context.Context) string {
	if token := BearerFrom(ctx); token != "" {
		return token
	}
	return c.cfg.Token
}

// envelope is the backend's {success, message, data} wrapper.
type envelope[T any] struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

type call struct {
	operation   string
	method      string
	endpoint    string
	query       url.Values
	body        []byte
	contentType string
}

// endpoint resolves path segments against the base URL, keeping any trailing slash handling
// of the configured prefixes ("user/" + "search" -> "user/search").
func (c *Client) endpoint(prefix string, parts ...string) string {
	segments := []string{strings.Trim(prefix, "/")}
	for _, p := range parts {
		if p = strings.Trim(p, "/"); p != "" {
			segments = append(segments, p)
		}
	}
	rel := &url.URL{Path: strings.Join(segments, "/")}
	return c.base.ResolveReference(rel).String()
}

func (c *Client) do(ctx context.Context, in call) ([]byte, int, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, 0, &Error{Operation: in.operation, Endpoint: in.endpoint, Err: err}
	}

	target := in.endpoint
	if len(in.query) > 0 {
		target += "?" + in.query.Encode()
	}

	var body io.Reader
	if in.body != nil {
		body = bytes.NewReader(in.body)
	}
	req, err := http.NewRequestWithContext(ctx, in.method, target, body)
	if err != nil {
		return nil, 0, &Error{Operation: in.operation, Endpoint: in.endpoint, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in.contentType != "" {
		req.Header.Set("Content-Type", in.contentType)
	}
	if token := c.bearer(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey(), id)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.observe(in.operation, 0, time.Since(start))
		callErr := &Error{Operation: in.operation, Endpoint: in.endpoint, Err: err}
		c.logFailure(in, callErr)
		return nil, 0, callErr
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	c.observe(in.operation, resp.StatusCode, time.Since(start))
	if err != nil {
		callErr := &Error{Operation: in.operation, Endpoint: in.endpoint, Status: resp.StatusCode, Err: err}
		c.logFailure(in, callErr)
		return nil, resp.StatusCode, callErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		callErr := &Error{
			Operation: in.operation,
			Endpoint:  in.endpoint,
			Status:    resp.StatusCode,
			Message:   backendMessage(raw),
			Body:      raw,
		}
		c.logFailure(in, callErr)
		return nil, resp.StatusCode, callErr
	}

	c.logger.Debug("upstream response",
		zap.String("operation", in.operation),
		zap.String("endpoint", in.endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(raw)),
	)
	return raw, resp.StatusCode, nil
}

func (c *Client) observe(operation string, status int, d time.Duration) {
	if c.observer != nil {
		c.observer.ObserveUpstream(operation, status, d)
	}
}

func (c *Client) logFailure(in call, err *Error) {
	fields := []zap.Field{
		zap.String("operation", in.operation),
		zap.String("endpoint", in.endpoint),
		zap.Int("status", err.Status),
	}
	if len(in.query) > 0 {
		fields = append(fields, zap.String("params", in.query.Encode()))
	}
	if len(err.Body) > 0 {
		fields = append(fields, zap.ByteString("body", err.Body))
	}
	if err.Err != nil {
		fields = append(fields, zap.Error(err.Err))
	}
	c.logger.Error("upstream request failed", fields...)
}

// ListTeachers fetches one page of the teachers directory.
func (c *Client) ListTeachers(ctx context.Context, query models.PageQuery) (*models.TeacherPage, error) {
	in := call{
		operation: "list_teachers",
		method:    http.MethodGet,
		endpoint:  c.endpoint(c.cfg.UsersPath, "search"),
		query:     query.Values(),
	}
	c.logger.Debug("upstream request",
		zap.String("operation", in.operation),
		zap.String("endpoint", in.endpoint),
		zap.String("params", in.query.Encode()),
	)

	raw, status, err := c.do(ctx, in)
	if err != nil {
		return nil, err
	}

	var env envelope[models.TeacherPage]
	if err := json.Unmarshal(raw, &env); err != nil {
		callErr := &Error{Operation: in.operation, Endpoint: in.endpoint, Status: status, Body: raw, Err: fmt.Errorf("decode teachers page: %w", err)}
		c.logFailure(in, callErr)
		return nil, callErr
	}
	if env.Success != nil && !*env.Success {
		callErr := &Error{Operation: in.operation, Endpoint: in.endpoint, Status: status, Message: env.Message, Body: raw}
		c.logFailure(in, callErr)
		return nil, callErr
	}
	if env.Data.Body == nil {
		env.Data.Body = []models.Teacher{}
	}
	return &env.Data, nil
}

// CreateTeacher registers a teacher account through the auth service.
func (c *Client) CreateTeacher(ctx context.Context, input models.TeacherCreateInput) (*models.Teacher, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("encode teacher payload: %w", err)
	}
	in := call{
		operation:   "create_teacher",
		method:      http.MethodPost,
		endpoint:    c.endpoint(c.cfg.AuthPath, "saveUser"),
		body:        payload,
		contentType: "application/json",
	}
	c.logger.Debug("upstream request",
		zap.String("operation", in.operation),
		zap.String("endpoint", in.endpoint),
		zap.Any("payload", input.Redacted()),
	)

	raw, status, err := c.do(ctx, in)
	if err != nil {
		return nil, err
	}
	teacher, ok := UnwrapCreated(raw)
	if !ok {
		c.logger.Debug("created teacher body not decodable",
			zap.String("operation", in.operation),
			zap.Int("status", status),
			zap.ByteString("body", raw),
		)
	}
	return teacher, nil
}

// ListDepartments returns the department lookup list.
func (c *Client) ListDepartments(ctx context.Context) ([]models.LookupItem, error) {
	return c.listLookup(ctx, "list_departments", c.cfg.DepartmentsPath)
}

// ListPositions returns the position (lavozim) lookup list.
func (c *Client) ListPositions(ctx context.Context) ([]models.LookupItem, error) {
	return c.listLookup(ctx, "list_positions", c.cfg.PositionsPath)
}

func (c *Client) listLookup(ctx context.Context, operation, path string) ([]models.LookupItem, error) {
	in := call{operation: operation, method: http.MethodGet, endpoint: c.endpoint(path)}
	raw, status, err := c.do(ctx, in)
	if err != nil {
		return nil, err
	}
	items, err := decodeLookup(raw)
	if err != nil {
		callErr := &Error{Operation: operation, Endpoint: in.endpoint, Status: status, Body: raw, Err: err}
		c.logFailure(in, callErr)
		return nil, callErr
	}
	return items, nil
}

// decodeLookup accepts {data: [...]}, {data: {body: [...]}} or a bare array.
func decodeLookup(raw []byte) ([]models.LookupItem, error) {
	var list envelope[[]models.LookupItem]
	if err := json.Unmarshal(raw, &list); err == nil && list.Data != nil {
		return list.Data, nil
	}
	var page envelope[models.PageResult[models.LookupItem]]
	if err := json.Unmarshal(raw, &page); err == nil && page.Data.Body != nil {
		return page.Data.Body, nil
	}
	var bare []models.LookupItem
	if err := json.Unmarshal(raw, &bare); err != nil {
		return nil, fmt.Errorf("decode lookup list: %w", err)
	}
	return bare, nil
}

// UnwrapCreated extracts the created teacher from envelope.data, falling back to the raw body.
// A 2xx reply is a success whatever it carries, so an undecodable body yields an empty
// teacher and ok=false.
func UnwrapCreated(raw []byte) (*models.Teacher, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return &models.Teacher{}, false
	}
	source := raw
	if data, ok := fields["data"]; ok && isJSONObject(data) {
		source = data
	}
	var teacher models.Teacher
	if err := json.Unmarshal(source, &teacher); err != nil {
		return &models.Teacher{}, false
	}
	return &teacher, true
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

func backendMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return ""
	}
	if body.Message != "" {
		return body.Message
	}
	return body.Error
}
