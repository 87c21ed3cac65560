// Package exchange is the REST client for the rate-limited upstream exchange.
package exchange

import (
	"bytes"
	"context"
	"corequeue/internal/domain"
	"corequeue/internal/ports"
	"crypto/md5"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

var _ ports.Upstream = (*Client)(nil)

const maxBodyBytes = 4 << 20

var defaultHeaders = map[string]string{
	"Content-Type": "application/json; charset=utf-8",
	"Accept":       "application/json",
	"User-Agent":   "corequeue/1.0",
}

type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	c := &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Call executes operation with args. Auth operations need creds.
func (c *Client) Call(ctx context.Context, operation string, args map[string]any, creds *domain.Credentials) (json.RawMessage, error) {
	ep, ok := operations[operation]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownOperation, operation)
	}
	if ep.auth && (creds == nil || creds.Empty()) {
		return nil, fmt.Errorf("%s: %w", operation, domain.ErrCredentialsRequired)
	}

	params := make(map[string]string, len(args)+len(ep.defaults)+2)
	for k, v := range ep.defaults {
		params[k] = formatValue(v)
	}
	for k, v := range args {
		params[k] = formatValue(v)
	}

	path, err := fillPath(ep.path, params)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", operation, err)
	}

	req, err := c.build(ctx, ep, path, params, creds)
	if err != nil {
		return nil, fmt.Errorf("%s: build request: %w", operation, err)
	}

	log.Ctx(ctx).Debug().Str("component", "exchange").Str("operation", operation).
		Str("method", req.Method).Str("url", req.URL.Path).Msg("sending upstream request")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("%s %s: read body: %w", req.Method, req.URL.Path, err)
	}
	return processResponse(resp.StatusCode, body)
}

func (c *Client) build(ctx context.Context, ep endpoint, path string, params map[string]string, creds *domain.Credentials) (*http.Request, error) {
	headers := make(http.Header, len(defaultHeaders)+2)
	for k, v := range defaultHeaders {
		headers.Set(k, v)
	}

	var target string
	switch ep.family {
	case perpetualV1:
		target = c.baseURL + "perpetual/v1/" + path
		if ep.auth {
			headers.Set("AccessId", creds.AccessID)
			params["timestamp"] = strconv.FormatInt(c.now().UnixMilli(), 10)
			headers.Set("Authorization", signPerpetual(params, creds.SecretKey))
		}
	default:
		target = c.baseURL + "v1/" + path
		if ep.auth {
			params["access_id"] = creds.AccessID
			params["tonce"] = strconv.FormatInt(c.now().UnixMilli(), 10)
			headers.Set("Authorization", signV1(params, creds.SecretKey))
		}
	}

	var body io.Reader
	if ep.method == http.MethodPost {
		if ep.family == perpetualV1 {
			body = strings.NewReader(toValues(params).Encode())
			headers.Set("Content-Type", "application/x-www-form-urlencoded")
		} else {
			b, err := json.Marshal(params)
			if err != nil {
				return nil, err
			}
			body = bytes.NewReader(b)
		}
	} else if len(params) > 0 {
		target += "?" + toValues(params).Encode()
	}

	req, err := http.NewRequestWithContext(ctx, ep.method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header = headers
	return req, nil
}

func processResponse(status int, body []byte) (json.RawMessage, error) {
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, &domain.UpstreamError{HTTPStatus: status, Message: snippet(body)}
	}
	if env.Code != 0 {
		return nil, &domain.UpstreamError{Code: env.Code, Message: env.Message, HTTPStatus: status}
	}
	if status < 200 || status > 299 {
		return nil, &domain.UpstreamError{HTTPStatus: status, Message: snippet(body)}
	}
	if len(env.Data) == 0 {
		return json.RawMessage("null"), nil
	}
	return env.Data, nil
}

// signV1 is the spot api signature: upper-case md5 over the sorted query
// with the secret appended.
func signV1(params map[string]string, secret string) string {
	sum := md5.Sum([]byte(canonical(params) + "&secret_key=" + secret))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}

// signPerpetual is the perpetual api signature: sha256 over the same string.
func signPerpetual(params map[string]string, secret string) string {
	sum := sha256.Sum256([]byte(canonical(params) + "&secret_key=" + secret))
	return hex.EncodeToString(sum[:])
}

func canonical(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + params[k]
	}
	return strings.Join(parts, "&")
}

func toValues(params map[string]string) url.Values {
	v := make(url.Values, len(params))
	for k, val := range params {
		v.Set(k, val)
	}
	return v
}

// fillPath replaces {name} segments with params[name] and drops them from params.
func fillPath(path string, params map[string]string) (string, error) {
	for {
		open := strings.IndexByte(path, '{')
		if open < 0 {
			return path, nil
		}
		end := strings.IndexByte(path[open:], '}')
		if end < 0 {
			return "", fmt.Errorf("malformed path %q", path)
		}
		name := path[open+1 : open+end]
		val, ok := params[name]
		if !ok || val == "" {
			return "", fmt.Errorf("missing path argument %q", name)
		}
		delete(params, name)
		path = path[:open] + url.PathEscape(val) + path[open+end+1:]
	}
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 256 {
		s = s[:256]
	}
	if s == "" {
		s = "empty response"
	}
	return s
}
