package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"
)

// ErrConfiguration matches every ConfigurationError via errors.Is.
var ErrConfiguration = errors.New("invalid configuration")

// ConfigurationError carries every problem found in one validation pass.
type ConfigurationError struct {
	errs *multierror.Error
}

// NewConfigurationError wraps a single problem.
func NewConfigurationError(format string, args ...any) *ConfigurationError {
	errs := multierror.Append(nil, fmt.Errorf(format, args...))
	errs.ErrorFormat = listFormat
	return &ConfigurationError{errs: errs}
}

func (e *ConfigurationError) Error() string {
	if e == nil || e.errs == nil {
		return ErrConfiguration.Error()
	}
	return ErrConfiguration.Error() + ": " + e.errs.Error()
}

// Problems lists each reported problem.
func (e *ConfigurationError) Problems() []error {
	if e == nil || e.errs == nil {
		return nil
	}
	return e.errs.WrappedErrors()
}

func (e *ConfigurationError) Unwrap() error {
	if e == nil || e.errs == nil {
		return nil
	}
	return e.errs
}

func (e *ConfigurationError) Is(target error) bool { return target == ErrConfiguration }

// listFormat renders problems on one line: "a; b; c".
func listFormat(es []error) string {
	parts := make([]string, len(es))
	for i, err := range es {
		parts[i] = err.Error()
	}
	return strings.Join(parts, "; ")
}
