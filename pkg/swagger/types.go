package swagger

import (
	"context"

	"github.com/mark3labs/swaggerclient/internal/config"
	"github.com/mark3labs/swaggerclient/internal/spec"
	"github.com/mark3labs/swaggerclient/internal/transport"
)

type (
	Result           = transport.Result
	Request          = transport.Request
	Transport        = transport.Transport
	TransportOption  = transport.Option
	AuthStrategy     = transport.AuthStrategy
	TokenAuth        = transport.TokenAuth
	BasicAuth        = transport.BasicAuth
	Config           = config.Config
	ConfigOption     = config.Option
	Document         = spec.Document
	LoadOption       = spec.Option
	Operation        = spec.Operation
	Parameter        = spec.Parameter
	OperationSummary = spec.OperationSummary
	ListOption       = spec.ListOption
)

// LoadDocument reads a Swagger document from a file path or http(s) URL.
func LoadDocument(ctx context.Context, source string, opts ...LoadOption) (*Document, error) {
	return spec.Load(ctx, source, opts...)
}

// LoadConfig resolves configuration from files, the environment and
// overrides.
func LoadConfig(opts ...ConfigOption) (*Config, error) { return config.Load(opts...) }

// NewTransport builds the HTTP transport used by NewFromConfig.
func NewTransport(baseURI string, auth AuthStrategy, opts ...TransportOption) (*transport.HTTPTransport, error) {
	return transport.New(baseURI, auth, opts...)
}
