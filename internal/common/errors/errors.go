// Package errors provides standardized error handling for the prediction service.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Request-time errors
const (
	ErrCodeInvalidInput            ErrorCode = "INVALID_INPUT"
	ErrCodeMalformedRequest        ErrorCode = "MALFORMED_REQUEST"
	ErrCodeFeatureConversionFailed ErrorCode = "FEATURE_CONVERSION_FAILED"
	ErrCodeInferenceFailed         ErrorCode = "INFERENCE_FAILED"
	ErrCodeInternal                ErrorCode = "INTERNAL_ERROR"
)

// Startup errors
const (
	ErrCodeArtifactNotFound ErrorCode = "ARTIFACT_NOT_FOUND"
	ErrCodeArtifactInvalid  ErrorCode = "ARTIFACT_INVALID"
	ErrCodeModelLoadFailed  ErrorCode = "MODEL_LOAD_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns the error with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewInvalidInputError creates a non-retryable input-shape error.
func NewInvalidInputError(message, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidInput,
		Message:   message,
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMalformedRequestError wraps a body that could not be decoded.
func NewMalformedRequestError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeMalformedRequest,
		Message:   err.Error(),
		Details:   "request body is not a JSON object",
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewFeatureConversionError reports a value that cannot be used as a number.
func NewFeatureConversionError(feature string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFeatureConversionFailed,
		Message:   err.Error(),
		Details:   fmt.Sprintf("feature: %s", feature),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInferenceFailedError wraps an error returned by a model's predict call.
func NewInferenceFailedError(model string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInferenceFailed,
		Message:   err.Error(),
		Details:   fmt.Sprintf("model: %s", model),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewArtifactNotFoundError reports a missing model artifact.
func NewArtifactNotFoundError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArtifactNotFound,
		Message:   "Model artifact not found",
		Details:   fmt.Sprintf("path: %s", path),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewArtifactInvalidError reports an artifact that failed schema or structural checks.
func NewArtifactInvalidError(path string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeArtifactInvalid,
		Message:   "Model artifact is invalid",
		Details:   fmt.Sprintf("path: %s, error: %s", path, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewModelLoadFailedError reports any other failure while loading a model.
func NewModelLoadFailedError(slot string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeModelLoadFailed,
		Message:   "Model could not be loaded",
		Details:   fmt.Sprintf("slot: %s, error: %s", slot, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewInternalError wraps an unexpected error.
func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Utility Functions
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// Is reports whether err carries the given code.
func Is(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

// HTTPStatus maps an error code to the status returned at the HTTP boundary.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory returns the category of the error code.
func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "INVALID_INPUT"):
		return "VALIDATION"
	case strings.Contains(codeStr, "REQUEST"):
		return "REQUEST"
	case strings.Contains(codeStr, "CONVERSION") || strings.Contains(codeStr, "INFERENCE"):
		return "INFERENCE"
	case strings.Contains(codeStr, "ARTIFACT") || strings.Contains(codeStr, "MODEL_LOAD"):
		return "STARTUP"
	default:
		return "OTHER"
	}
}
