package spec

import (
	"errors"
	"fmt"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	LoadError       ErrorCode = "LoadError"
	NetworkError    ErrorCode = "NetworkError"
	ParseError      ErrorCode = "ParseError"
	ConversionError ErrorCode = "ConversionError"
)

var (
	// ErrSpecLoad matches any SpecError raised because the source could not be read.
	ErrSpecLoad = errors.New("spec: source cannot be read")
	// ErrSpecParse matches any SpecError raised because the content is not a usable document.
	ErrSpecParse = errors.New("spec: content is not a valid document")
	// ErrOperationNotFound matches OperationNotFoundError.
	ErrOperationNotFound = errors.New("spec: operation not found")
)

// SpecError is a structured error with optional location and JSON Pointer.
type SpecError struct {
	Code        ErrorCode
	Message     string
	Location    string // file path or URL
	JSONPointer string // e.g. "#/paths/~1pets/get"
	Cause       error
}

func (e *SpecError) Error() string { return e.Message }
func (e *SpecError) Unwrap() error { return e.Cause }

// Is lets callers branch on the two load-time failure classes without
// inspecting the code.
func (e *SpecError) Is(target error) bool {
	switch target {
	case ErrSpecLoad:
		return e.Code == LoadError || e.Code == NetworkError
	case ErrSpecParse:
		return e.Code == ParseError || e.Code == ConversionError
	}
	return false
}

// OperationNotFoundError reports a (path, method) pair or an operationId
// that the document does not declare.
type OperationNotFoundError struct {
	Path        string
	Method      string
	OperationID string
}

func (e *OperationNotFoundError) Error() string {
	if e.OperationID != "" {
		return fmt.Sprintf("spec: no operation with operationId %q", e.OperationID)
	}
	return fmt.Sprintf("spec: operation for %s %s not found", e.Method, e.Path)
}

func (e *OperationNotFoundError) Is(target error) bool { return target == ErrOperationNotFound }
