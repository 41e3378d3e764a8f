// Package swagger invokes operations of an API described by a Swagger 2.0
// document. Callers name an operation by its templated path and method (or
// its operationId) and pass one flat map of values; the client fills the path
// template, routes the remaining values to the query string or JSON body and
// returns the normalized response.
package swagger

import (
	"context"
	"net/url"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/mark3labs/swaggerclient/internal/config"
	"github.com/mark3labs/swaggerclient/internal/route"
	"github.com/mark3labs/swaggerclient/internal/spec"
	"github.com/mark3labs/swaggerclient/internal/transport"
)

// Client is safe for concurrent use. All per-call state lives in Invoke.
type Client struct {
	doc       *spec.Document
	transport transport.Transport
	logger    hclog.Logger
	routeOpts []route.Option
	pathOpts  []route.PathOption
}

// Option configures a Client.
type Option func(*options)

type options struct {
	logger        hclog.Logger
	prefixes      []string
	prefixesSet   bool
	escapePath    bool
	loadOpts      []spec.Option
	transportOpts []transport.Option
}

func WithLogger(l hclog.Logger) Option { return func(o *options) { o.logger = l } }

// WithFreeFormPrefixes replaces the prefixes that send undeclared keys to
// the query string. An empty list disables free-form routing.
func WithFreeFormPrefixes(prefixes ...string) Option {
	return func(o *options) {
		o.prefixes = prefixes
		o.prefixesSet = true
	}
}

// WithEscapePathValues percent-escapes substituted path values, including
// "/" and "?".
func WithEscapePathValues(escape bool) Option { return func(o *options) { o.escapePath = escape } }

// WithLoadOptions passes options to the document loader in NewFromConfig.
func WithLoadOptions(opts ...spec.Option) Option {
	return func(o *options) { o.loadOpts = append(o.loadOpts, opts...) }
}

// WithTransportOptions passes options to the transport in NewFromConfig.
// They are applied after the ones derived from the configuration.
func WithTransportOptions(opts ...transport.Option) Option {
	return func(o *options) { o.transportOpts = append(o.transportOpts, opts...) }
}

func buildOptions(opts []Option) *options {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.logger == nil {
		o.logger = hclog.NewNullLogger()
	}
	return o
}

// New binds a loaded document to a transport.
func New(doc *spec.Document, tr transport.Transport, opts ...Option) (*Client, error) {
	if doc == nil {
		return nil, config.NewConfigurationError("document is required")
	}
	if tr == nil {
		return nil, config.NewConfigurationError("transport is required")
	}
	return newClient(doc, tr, buildOptions(opts)), nil
}

func newClient(doc *spec.Document, tr transport.Transport, o *options) *Client {
	c := &Client{
		doc:       doc,
		transport: tr,
		logger:    o.logger.Named("swagger"),
	}
	if o.prefixesSet {
		c.routeOpts = append(c.routeOpts, route.WithFreeFormPrefixes(o.prefixes))
	}
	if o.escapePath {
		c.pathOpts = append(c.pathOpts, route.WithEscapedValues(true))
	}
	return c
}

// NewFromConfig validates cfg, loads the document it names and builds a
// transport with its credentials. When cfg has no host the document's
// schemes, host and basePath are used instead.
func NewFromConfig(ctx context.Context, cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, config.NewConfigurationError("configuration is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)

	doc, err := spec.Load(ctx, cfg.SpecSource, o.loadOpts...)
	if err != nil {
		return nil, err
	}

	base := cfg.BaseURL()
	if base == "" {
		base = documentBaseURL(doc)
	}
	if base == "" {
		return nil, config.NewConfigurationError("host is not configured and %s declares none", cfg.SpecSource)
	}

	trOpts := []transport.Option{
		transport.WithTimeout(cfg.Timeout),
		transport.WithLogger(o.logger),
	}
	if cfg.UserAgent != "" {
		trOpts = append(trOpts, transport.WithUserAgent(cfg.UserAgent))
	}
	if cfg.TLS != (config.TLSConfig{}) {
		trOpts = append(trOpts, transport.WithTLS(transport.TLSConfig{
			CACert:   cfg.TLS.CACert,
			CAPath:   cfg.TLS.CAPath,
			Insecure: cfg.TLS.Insecure,
		}))
	}
	tr, err := transport.New(base, AuthFromConfig(cfg), append(trOpts, o.transportOpts...)...)
	if err != nil {
		return nil, config.NewConfigurationError("%v", err)
	}

	if !o.prefixesSet {
		o.prefixes = cfg.FreeFormPrefixes
		o.prefixesSet = true
	}
	return newClient(doc, tr, o), nil
}

// AuthFromConfig picks the auth strategy named by cfg.AuthMethod.
func AuthFromConfig(cfg *config.Config) transport.AuthStrategy {
	if cfg.AuthMethod == config.AuthBasic {
		return transport.BasicAuth{Username: cfg.Username, Password: cfg.Password}
	}
	return transport.TokenAuth{Header: cfg.TokenHeaderName, Token: cfg.Token}
}

// documentBaseURL derives scheme://host/basePath from the document,
// preferring https when it is listed.
func documentBaseURL(doc *spec.Document) string {
	host := strings.TrimSpace(doc.Host())
	if host == "" {
		return ""
	}
	scheme := "https"
	if schemes := doc.Schemes(); len(schemes) > 0 {
		scheme = strings.ToLower(schemes[0])
		for _, s := range schemes {
			if strings.EqualFold(s, "https") {
				scheme = "https"
				break
			}
		}
	}
	u := url.URL{Scheme: scheme, Host: host, Path: doc.BasePath()}
	return u.String()
}

// Document returns the loaded document.
func (c *Client) Document() *spec.Document { return c.doc }

// Operation returns the resolved descriptor for path and method.
func (c *Client) Operation(path, method string) (*spec.Operation, error) {
	return spec.Resolve(c.doc, path, method)
}

// Operations lists the document's operations.
func (c *Client) Operations(opts ...spec.ListOption) []spec.OperationSummary {
	return spec.ListOperations(c.doc, opts...)
}

// CallOption adjusts a single Invoke.
type CallOption func(*callOptions)

type callOptions struct {
	headers map[string]string
}

// WithHeader sends an extra header on this call only. It overrides default
// and auth headers of the same name.
func WithHeader(key, value string) CallOption {
	return func(co *callOptions) { co.headers[key] = value }
}

// Invoke calls the operation declared at path with method (GET when empty).
// It returns an *OperationNotFoundError without touching the network when
// the document does not declare the pair. Transport failures are reported
// in the Result with StatusTransportFailure, not as an error.
func (c *Client) Invoke(ctx context.Context, path, method string, data map[string]any, callOpts ...CallOption) (*Result, error) {
	if strings.TrimSpace(method) == "" {
		method = string(spec.GET)
	}
	op, err := spec.Resolve(c.doc, path, method)
	if err != nil {
		return nil, err
	}
	for _, ref := range op.UnresolvedRefs {
		c.logger.Warn("skipping unresolved parameter reference", "path", path, "method", op.Method, "ref", ref)
	}

	co := &callOptions{headers: map[string]string{}}
	for _, opt := range callOpts {
		opt(co)
	}

	built := route.BuildPath(path, data, c.pathOpts...)
	if missing := route.Unresolved(built); len(missing) > 0 {
		c.logger.Warn("path placeholders left unfilled", "path", path, "missing", missing)
	}
	routed := route.Route(data, op.Parameters, c.routeOpts...)

	req := transport.Request{
		Method:  strings.ToUpper(string(op.Method)),
		Path:    built,
		Query:   routed.Query,
		Body:    routed.Body,
		Headers: co.headers,
	}
	c.logger.Debug("invoking operation", "operation_id", op.OperationID, "method", req.Method, "path", built,
		"query_keys", len(routed.Query), "body_keys", len(routed.Body))

	res := c.transport.Execute(ctx, req)
	if res == nil {
		res = &Result{Status: StatusTransportFailure, StatusMessage: "transport returned no result", Headers: map[string][]string{}, Body: map[string]any{}}
	}
	return res, nil
}

// InvokeByOperationID looks the operation up by operationId, then behaves
// like Invoke.
func (c *Client) InvokeByOperationID(ctx context.Context, operationID string, data map[string]any, callOpts ...CallOption) (*Result, error) {
	path, method, err := c.doc.FindOperationID(operationID)
	if err != nil {
		return nil, err
	}
	return c.Invoke(ctx, path, method, data, callOpts...)
}
