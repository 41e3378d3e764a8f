package swagger

import (
	"github.com/mark3labs/swaggerclient/internal/config"
	"github.com/mark3labs/swaggerclient/internal/spec"
	"github.com/mark3labs/swaggerclient/internal/transport"
)

// Sentinels for errors.Is.
var (
	ErrSpecLoad          = spec.ErrSpecLoad
	ErrSpecParse         = spec.ErrSpecParse
	ErrOperationNotFound = spec.ErrOperationNotFound
	ErrConfiguration     = config.ErrConfiguration
)

type (
	SpecError              = spec.SpecError
	OperationNotFoundError = spec.OperationNotFoundError
	ConfigurationError     = config.ConfigurationError
)

// StatusTransportFailure is the Result status when no response arrived.
const StatusTransportFailure = transport.StatusTransportFailure
