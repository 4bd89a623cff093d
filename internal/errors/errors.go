package errors

import (
	"fmt"
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
	if appErr, ok := err.(*AppError); ok {
		return &AppError{
			Code:    appErr.Code,
			Message: message,
			Cause:   appErr,
		}
	}
	return &AppError{
		Code:    "INTERNAL_ERROR",
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
	if appErr, ok := err.(*AppError); ok {
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
	_, ok := err.(*AppError)
	return ok
}

// GetCode returns the error code if it's an AppError, otherwise returns "UNKNOWN"
func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

// Predefined error codes
const (
	CodeConfigInvalid     = "CONFIG_INVALID"
	CodeTemplateInvalid   = "TEMPLATE_INVALID"
	CodeDataInvalid       = "DATA_INVALID"
	CodeUnsupportedFormat = "UNSUPPORTED_FORMAT"
	CodeMappingInvalid    = "MAPPING_INVALID"
	CodeOutputDir         = "OUTPUT_DIR_UNAVAILABLE"
	CodeRowRender         = "ROW_RENDER_FAILED"
	CodeWriteFailed       = "WRITE_FAILED"
	CodeSessionNotFound   = "SESSION_NOT_FOUND"
	CodeUploadTooLarge    = "UPLOAD_TOO_LARGE"
	CodeInternalError     = "INTERNAL_ERROR"
)

// Common error constructors
func ConfigInvalid(message string) *AppError {
	return New(CodeConfigInvalid, message)
}

func TemplateInvalid(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeTemplateInvalid,
		Message: message,
		Cause:   cause,
	}
}

func DataInvalid(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeDataInvalid,
		Message: message,
		Cause:   cause,
	}
}

func UnsupportedFormat(extension string) *AppError {
	return New(CodeUnsupportedFormat, fmt.Sprintf("unsupported file format %q", extension))
}

func MappingInvalid(message string) *AppError {
	return New(CodeMappingInvalid, message)
}

func OutputDirUnavailable(dir string, cause error) *AppError {
	return &AppError{
		Code:    CodeOutputDir,
		Message: fmt.Sprintf("output directory %q is not writable", dir),
		Cause:   cause,
	}
}

func SessionNotFound(id string) *AppError {
	return New(CodeSessionNotFound, fmt.Sprintf("session %s not found or expired", id))
}

func UploadTooLarge(limit int64) *AppError {
	return New(CodeUploadTooLarge, fmt.Sprintf("upload exceeds the %d byte limit", limit))
}

func InternalError(message string) *AppError {
	return New(CodeInternalError, message)
}
