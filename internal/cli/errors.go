package cli

import (
	"errors"
	"fmt"

	"github.com/mark3labs/swaggerclient/internal/config"
	"github.com/mark3labs/swaggerclient/internal/spec"
)

var ErrUsage = errors.New("cli usage error")

type usageError struct {
	msg string
}

func newUsageError(msg string) error {
	return usageError{msg: msg}
}

func (e usageError) Error() string {
	return e.msg
}

func (e usageError) Is(target error) bool {
	return target == ErrUsage
}

// friendlyError turns document, configuration and lookup failures into
// usage errors with the details a user needs to fix them. envPrefix names the
// environment variables the hint points at.
func friendlyError(err error, envPrefix string) error {
	var se *spec.SpecError
	if errors.As(err, &se) {
		msg := fmt.Sprintf("spec: %s", se.Message)
		if se.Location != "" {
			msg = fmt.Sprintf("%s\nLocation: %s", msg, se.Location)
		}
		if se.JSONPointer != "" {
			msg = fmt.Sprintf("%s\nPointer: %s", msg, se.JSONPointer)
		}
		return newUsageError(msg)
	}
	var ce *config.ConfigurationError
	if errors.As(err, &ce) {
		if envPrefix == "" {
			envPrefix = config.DefaultEnvPrefix
		}
		return newUsageError(fmt.Sprintf("%v\nHint: set values in a config file, %s_* environment variables or flags.", ce, envPrefix))
	}
	var nf *spec.OperationNotFoundError
	if errors.As(err, &nf) {
		return newUsageError(fmt.Sprintf("%v\nHint: run `swaggerclient list` to see declared operations.", nf))
	}
	return err
}
