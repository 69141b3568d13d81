package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// AppError represents a structured application error
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   err,
		}
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Cause:   err,
	}
}

// Wrapf wraps an error with formatted additional context
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Wrap(err, fmt.Sprintf(format, args...))
}

// WithCode adds an error code to an existing error
func WithCode(code string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return &AppError{
			Code:    code,
			Message: appErr.Message,
			Cause:   appErr.Cause,
		}
	}
	return &AppError{
		Code:    code,
		Message: err.Error(),
		Cause:   err,
	}
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Is reports whether err carries the given code anywhere in its chain.
func Is(err error, code string) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && appErr.Code == code {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// PublicMessage returns the message that is safe to hand to a client: the
// outermost AppError message, or the raw error text otherwise.
func PublicMessage(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// HTTPStatus maps an error to the status code the HTTP layer should answer with.
func HTTPStatus(err error) int {
	switch GetCode(err) {
	case CodeInvalidPayload, CodeNotFound, CodeExhausted:
		return http.StatusBadRequest
	case CodeFileNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// Predefined error codes
const (
	CodeConfigInvalid  = "CONFIG_INVALID"
	CodeInvalidPayload = "INVALID_PAYLOAD"
	CodeNotFound       = "NOT_FOUND"
	CodeExhausted      = "EXHAUSTED"
	CodeFileNotFound   = "FILE_NOT_FOUND"
	CodeForbidden      = "FORBIDDEN"
	CodeIOFailure      = "IO_FAILURE"
	CodeParseFailure   = "PARSE_FAILURE"
	CodeInternalError  = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func InvalidPayload(message string) *AppError {
	return New(CodeInvalidPayload, message)
}

func NotFound(message string) *AppError {
	return New(CodeNotFound, message)
}

func Exhausted(message string) *AppError {
	return New(CodeExhausted, message)
}

func FileNotFound(message string) *AppError {
	return New(CodeFileNotFound, message)
}

func Forbidden(message string) *AppError {
	return New(CodeForbidden, message)
}

func IOFailure(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeIOFailure,
		Message: message,
		Cause:   cause,
	}
}

func ParseFailure(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeParseFailure,
		Message: message,
		Cause:   cause,
	}
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
