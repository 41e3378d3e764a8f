// Package transport executes HTTP requests against a fixed base URI with one
// authentication strategy and normalizes every outcome into a Result.
// Transport failures are data, not errors: Execute never returns an error.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-rootcerts"
)

const (
	// DefaultTimeout bounds a whole request including reading the body.
	DefaultTimeout = 10 * time.Second

	// DefaultUserAgent is sent unless WithUserAgent overrides it.
	DefaultUserAgent = "swaggerclient/1.0"

	defaultContentType = "application/json; charset=utf-8"
)

// Request is a fully routed call. Path is relative to the base URI.
type Request struct {
	Method  string
	Path    string
	Query   map[string]any
	Body    map[string]any
	Headers map[string]string
}

// TLSConfig selects the certificate authorities used to verify the server.
type TLSConfig struct {
	CACert   string
	CAPath   string
	Insecure bool
}

// Transport executes routed requests. Implementations report transport
// failures through the Result rather than an error.
type Transport interface {
	Execute(ctx context.Context, r Request) *Result
}

var _ Transport = (*HTTPTransport)(nil)

// HTTPTransport is safe for concurrent use once constructed.
type HTTPTransport struct {
	base    *url.URL
	auth    AuthStrategy
	client  *http.Client
	headers map[string]string
	logger  hclog.Logger
}

// Option configures an HTTPTransport.
type Option func(*settings)

type settings struct {
	timeout   time.Duration
	client    *http.Client
	userAgent string
	headers   map[string]string
	tls       *TLSConfig
	logger    hclog.Logger
}

// WithTimeout overrides DefaultTimeout. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *settings) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHTTPClient uses c as is. Timeout and TLS options do not touch it.
func WithHTTPClient(c *http.Client) Option { return func(s *settings) { s.client = c } }

func WithUserAgent(ua string) Option { return func(s *settings) { s.userAgent = ua } }

// WithDefaultHeaders adds headers sent on every request. They override the
// built-in defaults and are overridden by per-request headers.
func WithDefaultHeaders(h map[string]string) Option {
	return func(s *settings) {
		for k, v := range h {
			s.headers[k] = v
		}
	}
}

func WithTLS(cfg TLSConfig) Option { return func(s *settings) { s.tls = &cfg } }

func WithLogger(l hclog.Logger) Option { return func(s *settings) { s.logger = l } }

// New builds a transport for baseURI, which must be an absolute http or
// https URL.
func New(baseURI string, auth AuthStrategy, opts ...Option) (*HTTPTransport, error) {
	if auth == nil {
		return nil, errors.New("transport: auth strategy is required")
	}
	base, err := parseBase(baseURI)
	if err != nil {
		return nil, err
	}

	s := &settings{
		timeout:   DefaultTimeout,
		userAgent: DefaultUserAgent,
		headers:   map[string]string{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = hclog.NewNullLogger()
	}

	client := s.client
	if client == nil {
		client = cleanhttp.DefaultPooledClient()
		client.Timeout = s.timeout
		if s.tls != nil {
			tlsCfg, err := buildTLS(*s.tls)
			if err != nil {
				return nil, err
			}
			if ht, ok := client.Transport.(*http.Transport); ok {
				ht.TLSClientConfig = tlsCfg
			}
		}
	}

	headers := map[string]string{
		"Content-Type": defaultContentType,
		"Accept":       "application/json",
		"User-Agent":   s.userAgent,
	}
	for k, v := range s.headers {
		headers[k] = v
	}

	return &HTTPTransport{
		base:    base,
		auth:    auth,
		client:  client,
		headers: headers,
		logger:  s.logger.Named("transport"),
	}, nil
}

func parseBase(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("transport: base URI is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("transport: invalid base URI %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("transport: base URI %q must use http or https", raw)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("transport: base URI %q has no host", raw)
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.RawPath = ""
	return u, nil
}

func buildTLS(cfg TLSConfig) (*tls.Config, error) {
	tlsCfg := &tls.Config{
		MinVersion:         tls.VersionTLS12,
		InsecureSkipVerify: cfg.Insecure, //nolint:gosec
	}
	if cfg.CACert == "" && cfg.CAPath == "" {
		return tlsCfg, nil
	}
	if err := rootcerts.ConfigureTLS(tlsCfg, &rootcerts.Config{
		CAFile: cfg.CACert,
		CAPath: cfg.CAPath,
	}); err != nil {
		return nil, fmt.Errorf("transport: loading CA certificates: %w", err)
	}
	return tlsCfg, nil
}

// BaseURI returns the base URI requests are resolved against.
func (t *HTTPTransport) BaseURI() string { return t.base.String() }

// Auth returns the configured strategy.
func (t *HTTPTransport) Auth() AuthStrategy { return t.auth }

// Execute performs one request. The body is JSON-encoded and sent only when
// it has entries.
func (t *HTTPTransport) Execute(ctx context.Context, r Request) *Result {
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method == "" {
		method = http.MethodGet
	}
	u := t.resolve(r.Path)
	u.RawQuery = EncodeQuery(r.Query)

	var body io.Reader
	if len(r.Body) > 0 {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return t.fail(method, u, fmt.Errorf("encoding request body: %w", err))
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return t.fail(method, u, err)
	}
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	t.auth.apply(req)
	for k, v := range r.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return t.fail(method, u, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return t.fail(method, u, fmt.Errorf("reading response body: %w", err))
	}

	t.logger.Debug("request complete", "method", method, "url", redact(u), "status", resp.StatusCode, "duration", time.Since(start))
	return newResult(resp, raw)
}

// resolve appends path to the base path. Unlike RFC 3986 reference
// resolution, the base path is always kept.
func (t *HTTPTransport) resolve(path string) *url.URL {
	u := *t.base
	raw := strings.TrimRight(u.EscapedPath(), "/") + "/" + escapePath(strings.TrimLeft(path, "/"))
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		u.Path = raw
		u.RawPath = ""
		return &u
	}
	u.Path = decoded
	u.RawPath = raw
	return &u
}

// escapePath percent-encodes bytes that may not appear in a URL path. Valid
// %XX sequences are kept so values escaped upstream are not escaped twice.
func escapePath(p string) string {
	var b strings.Builder
	b.Grow(len(p))
	for i := 0; i < len(p); i++ {
		c := p[i]
		switch {
		case c == '%' && i+2 < len(p) && isHex(p[i+1]) && isHex(p[i+2]):
			b.WriteByte(c)
		case isPathByte(c):
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

func isPathByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return strings.IndexByte("-._~!$&'()*+,;=:@/", c) >= 0
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

func (t *HTTPTransport) fail(method string, u *url.URL, err error) *Result {
	t.logger.Warn("transport failure", "method", method, "url", redact(u), "error", err)
	return failureResult(err)
}

func redact(u *url.URL) string {
	c := *u
	c.User = nil
	return c.String()
}
