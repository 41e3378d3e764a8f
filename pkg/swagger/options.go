package swagger

import (
	"github.com/mark3labs/swaggerclient/internal/config"
	"github.com/mark3labs/swaggerclient/internal/spec"
	"github.com/mark3labs/swaggerclient/internal/transport"
)

// TLSConfig selects CA material for WithTLS.
type TLSConfig = transport.TLSConfig

// Document loading options, for LoadDocument and WithLoadOptions.
var (
	WithSpecHTTPTimeout = spec.WithHTTPTimeout
	WithSpecMaxRetries  = spec.WithMaxRetries
	WithSpecBackoffBase = spec.WithBackoffBase
	WithSpecHTTPClient  = spec.WithHTTPClient
)

// Transport options, for NewTransport and WithTransportOptions.
var (
	WithRequestTimeout      = transport.WithTimeout
	WithTransportHTTPClient = transport.WithHTTPClient
	WithUserAgent           = transport.WithUserAgent
	WithDefaultHeaders      = transport.WithDefaultHeaders
	WithTLS                 = transport.WithTLS
	WithTransportLogger     = transport.WithLogger
)

// Configuration options, for LoadConfig.
var (
	WithConfigFile = config.WithConfigFile
	WithEnvFile    = config.WithEnvFile
	WithEnvPrefix  = config.WithEnvPrefix
	WithOverride   = config.WithOverride
)

// Listing filters, for Client.Operations.
var (
	WithIncludeTags  = spec.WithIncludeTags
	WithExcludeTags  = spec.WithExcludeTags
	WithMethods      = spec.WithMethods
	WithPathPatterns = spec.WithPathPatterns
)

// BearerAuth sends token as "Authorization: Bearer <token>".
var BearerAuth = transport.BearerAuth
