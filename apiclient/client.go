// Package apiclient issues requests to the ClientHunt backend with bearer
// authentication, the CSRF double-submit cookie protocol, and a single
// recovery attempt when the backend rejects a CSRF token.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/clienthunt-admin/internal/errors"
	"github.com/jrsteele09/clienthunt-admin/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/net/publicsuffix"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultCSRFCookieName    = "csrf_token"
	DefaultCSRFHeaderName    = "X-CSRF-Token"
	DefaultCSRFTokenEndpoint = "/api/v1/csrf-token"

	headerRequestID   = "X-Request-ID"
	contentTypeJSON   = "application/json"
	maxErrorBodyBytes = 1 << 20
)

// TokenLoader yields the durable credentials, if any.
type TokenLoader interface {
	Load() (*oauth2.Token, error)
}

// CSRFCache is the tab-scoped cache for the CSRF token.
type CSRFCache interface {
	CSRFToken() (string, bool)
	SetCSRFToken(token string)
	ClearCSRFToken()
}

// Doer is the subset of Client the domain services depend on.
type Doer interface {
	Do(ctx context.Context, endpoint string, opts RequestOptions, out any) error
}

var _ Doer = (*Client)(nil)

// Client talks to one backend base URL on behalf of one session.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	tokens  TokenLoader
	csrf    CSRFCache

	csrfCookieName    string
	csrfHeaderName    string
	csrfTokenEndpoint string

	fetchGroup singleflight.Group
	metrics    *metrics.Metrics
	logger     zerolog.Logger
	nowTime    func() time.Time
}

// ClientOption modifies a Client during construction.
type ClientOption func(*Client)

// WithHTTPClient replaces the transport client. A cookie jar is added when it has none.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout sets the overall per-request timeout. Zero leaves the transport default.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.http.Timeout = d
	}
}

// WithCSRF overrides the cookie name, header name and token endpoint. Empty values keep the defaults.
func WithCSRF(cookieName, headerName, tokenEndpoint string) ClientOption {
	return func(c *Client) {
		if cookieName != "" {
			c.csrfCookieName = cookieName
		}
		if headerName != "" {
			c.csrfHeaderName = headerName
		}
		if tokenEndpoint != "" {
			c.csrfTokenEndpoint = tokenEndpoint
		}
	}
}

func WithMetrics(m *metrics.Metrics) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(l zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = l
	}
}

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ClientOption {
	return func(c *Client) {
		c.nowTime = nowFunc
	}
}

// New creates a client for baseURL. tokens and csrf are the session's durable
// and tab-scoped stores.
func New(baseURL string, tokens TokenLoader, csrf CSRFCache, options ...ClientOption) (*Client, error) {
	if tokens == nil {
		return nil, errors.New("[apiclient New] token loader is required")
	}
	if csrf == nil {
		return nil, errors.New("[apiclient New] csrf cache is required")
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "[apiclient New] invalid base URL %q", baseURL)
	}

	c := &Client{
		baseURL:           u,
		http:              &http.Client{},
		tokens:            tokens,
		csrf:              csrf,
		csrfCookieName:    DefaultCSRFCookieName,
		csrfHeaderName:    DefaultCSRFHeaderName,
		csrfTokenEndpoint: DefaultCSRFTokenEndpoint,
		logger:            zerolog.Nop(),
		nowTime:           time.Now,
	}
	for _, opt := range options {
		opt(c)
	}

	if c.http.Jar == nil {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return nil, errors.Wrapf(err, "[apiclient New] cookie jar")
		}
		c.http.Jar = jar
	}
	return c, nil
}

// BaseURL returns the configured backend root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// Cookie returns the value of the named cookie the jar would send to the backend.
func (c *Client) Cookie(name string) (string, bool) {
	for _, ck := range c.http.Jar.Cookies(c.rootURL()) {
		if ck.Name == name && ck.Value != "" {
			return ck.Value, true
		}
	}
	return "", false
}

// SetCookie stores a cookie for the backend root in the jar.
func (c *Client) SetCookie(ck *http.Cookie) {
	c.http.Jar.SetCookies(c.rootURL(), []*http.Cookie{ck})
}

func (c *Client) rootURL() *url.URL {
	u := *c.baseURL
	u.Path = "/"
	u.RawQuery = ""
	return &u
}

// Do sends one logical request and decodes a successful JSON response into out
// (which may be nil). A 403 that names CSRF triggers one resend with a freshly
// fetched token; every other failure is returned as is.
func (c *Client) Do(ctx context.Context, endpoint string, opts RequestOptions, out any) error {
	method := opts.method()
	body, err := opts.encodeBody()
	if err != nil {
		return errors.Wrapf(err, "[apiclient Do] %s %s: encode body", method, endpoint)
	}

	var csrfToken string
	if isMutating(method) {
		csrfToken = c.resolveCSRFToken(ctx)
		if csrfToken == "" {
			c.metrics.CSRFMissing()
			c.logger.Warn().Str("method", method).Str("endpoint", endpoint).
				Msg("CSRF token unavailable, sending request without header")
		}
	}

	resp, err := c.send(ctx, method, endpoint, opts, body, csrfToken)
	if err != nil {
		return err
	}
	if isSuccess(resp.StatusCode) {
		return decodeSuccess(resp, out)
	}

	apiErr := readAPIError(resp, method, endpoint)
	if !IsCSRFRejection(apiErr) {
		return apiErr
	}

	c.metrics.CSRFRetry()
	c.logger.Info().Str("method", method).Str("endpoint", endpoint).Msg("CSRF token rejected, retrying once with a fresh token")

	fresh := c.refreshCSRFToken(ctx)
	if fresh == "" {
		c.logger.Warn().Str("endpoint", endpoint).Msg("no fresh CSRF token available, giving up")
		return apiErr
	}

	resp, err = c.send(ctx, method, endpoint, opts, body, fresh)
	if err != nil {
		return err
	}
	if isSuccess(resp.StatusCode) {
		return decodeSuccess(resp, out)
	}
	return readAPIError(resp, method, endpoint)
}

// send performs a single HTTP round trip. The caller owns resp.Body.
func (c *Client) send(ctx context.Context, method, endpoint string, opts RequestOptions, body []byte, csrfToken string) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, endpoint, opts.Query, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", contentTypeJSON)
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set(headerRequestID, uuid.NewString())
	for k, values := range opts.Headers {
		req.Header.Del(k)
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	c.setAuthHeader(req)
	if csrfToken != "" {
		req.Header.Set(c.csrfHeaderName, csrfToken)
	}

	start := c.nowTime()
	resp, err := c.http.Do(req)
	elapsed := c.nowTime().Sub(start).Seconds()
	if err != nil {
		c.metrics.ObserveAPI(method, endpoint, "error", elapsed)
		c.logger.Debug().Err(err).Str("method", method).Str("endpoint", endpoint).Msg("backend request failed")
		return nil, errors.Wrapf(errors.Join(errors.ErrTransport, err), "[apiclient] %s %s", method, endpoint)
	}
	c.metrics.ObserveAPI(method, endpoint, strconv.Itoa(resp.StatusCode), elapsed)
	c.logger.Debug().Str("method", method).Str("endpoint", endpoint).Int("status", resp.StatusCode).
		Str("request_id", req.Header.Get(headerRequestID)).Msg("backend request")
	return resp, nil
}

func (c *Client) newRequest(ctx context.Context, method, endpoint string, query url.Values, body []byte) (*http.Request, error) {
	target, err := c.resolve(endpoint, query)
	if err != nil {
		return nil, err
	}
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, errors.Wrapf(err, "[apiclient] build %s %s", method, endpoint)
	}
	return req, nil
}

// resolve joins endpoint onto the base URL, merging any query in endpoint with query.
func (c *Client) resolve(endpoint string, query url.Values) (string, error) {
	ref, err := url.Parse(endpoint)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidRequest, "[apiclient] endpoint %q", endpoint)
	}
	u := *c.baseURL
	rawPath := strings.TrimRight(c.baseURL.EscapedPath(), "/") + "/" + strings.TrimLeft(ref.EscapedPath(), "/")
	path, err := url.PathUnescape(rawPath)
	if err != nil {
		return "", errors.Wrapf(errors.ErrInvalidRequest, "[apiclient] endpoint %q", endpoint)
	}
	u.Path, u.RawPath = path, rawPath
	q := ref.Query()
	for k, vs := range query {
		for _, v := range vs {
			q.Add(k, v)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) setAuthHeader(req *http.Request) {
	tok, err := c.tokens.Load()
	if err != nil || tok == nil || tok.AccessToken == "" {
		return
	}
	tok.SetAuthHeader(req)
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}

// decodeSuccess decodes a 2xx body into out. Bodies that are empty, not JSON,
// or malformed decode as the empty object.
func decodeSuccess(resp *http.Response, out any) error {
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.Wrapf(errors.Join(errors.ErrTransport, err), "[apiclient] read response")
	}
	if out == nil {
		return nil
	}
	if !isJSON(resp.Header.Get("Content-Type")) || len(bytes.TrimSpace(data)) == 0 {
		decodeEmpty(out)
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		decodeEmpty(out)
	}
	return nil
}

// decodeEmpty resets out and decodes "{}" into it, so maps come back empty
// rather than nil and structs come back zeroed.
func decodeEmpty(out any) {
	if rv := reflect.ValueOf(out); rv.Kind() == reflect.Pointer && !rv.IsNil() {
		rv.Elem().Set(reflect.Zero(rv.Elem().Type()))
	}
	_ = json.Unmarshal([]byte("{}"), out)
}

func isJSON(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))
	return ct == contentTypeJSON || strings.HasSuffix(ct, "+json")
}
