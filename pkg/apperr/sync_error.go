package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes
const (
	// Input errors
	CodeInvalidEmail    = "INVALID_EMAIL"
	CodeInvalidPayload  = "INVALID_PAYLOAD"
	CodeMissingField    = "MISSING_FIELD"
	CodeMissingCTAField = "MISSING_CTA_FIELDS"

	// Sync errors
	CodeRecordCreationFailed    = "RECORD_CREATION_FAILED"
	CodeContactResolutionFailed = "CONTACT_RESOLUTION_FAILED"

	// Auth errors
	CodeAuthFailed   = "AUTH_FAILED"
	CodeUnauthorized = "UNAUTHORIZED"

	// Resource errors
	CodeNotFound = "NOT_FOUND"
	CodeConflict = "CONFLICT"

	// External errors
	CodeExternalError = "EXTERNAL_ERROR"

	// Internal errors
	CodeInternalError = "INTERNAL_ERROR"
	CodeConfigError   = "CONFIG_ERROR"
)

// AppError represents a structured application error
type AppError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Status  int            `json:"-"`
	Details map[string]any `json:"details,omitempty"`
	Err     error          `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// HTTPStatus returns the HTTP status code
func (e *AppError) HTTPStatus() int {
	return e.Status
}

// Constructor functions
func New(code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
	}
}

func Wrap(err error, code, message string, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Err:     err,
	}
}

// Input errors
func InvalidEmail(email string) *AppError {
	return &AppError{
		Code:    CodeInvalidEmail,
		Message: "malformed email address",
		Status:  http.StatusBadRequest,
		Details: map[string]any{"email": email},
	}
}

func InvalidPayload(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidPayload,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

func MissingField(field string) *AppError {
	return &AppError{
		Code:    CodeMissingField,
		Message: fmt.Sprintf("missing required field: %s", field),
		Status:  http.StatusBadRequest,
		Details: map[string]any{"field": field},
	}
}

func MissingCTAFields() *AppError {
	return &AppError{
		Code:    CodeMissingCTAField,
		Message: "CTA link and text are required for CTA click tracking",
		Status:  http.StatusBadRequest,
	}
}

// Sync errors
func RecordCreationFailed(resource string, err error) *AppError {
	return &AppError{
		Code:    CodeRecordCreationFailed,
		Message: fmt.Sprintf("failed to create %s record", resource),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"resource": resource},
		Err:     err,
	}
}

func ContactResolutionFailed(email string) *AppError {
	return &AppError{
		Code:    CodeContactResolutionFailed,
		Message: "could not resolve a contact for email",
		Status:  http.StatusBadGateway,
		Details: map[string]any{"email": email},
	}
}

// Auth errors
func AuthFailed(service string, err error) *AppError {
	return &AppError{
		Code:    CodeAuthFailed,
		Message: fmt.Sprintf("authentication failed for %s", service),
		Status:  http.StatusUnauthorized,
		Details: map[string]any{"service": service},
		Err:     err,
	}
}

func Unauthorized(message string) *AppError {
	if message == "" {
		message = "unauthorized"
	}
	return &AppError{
		Code:    CodeUnauthorized,
		Message: message,
		Status:  http.StatusUnauthorized,
	}
}

// Resource errors
func NotFound(resource string) *AppError {
	return &AppError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Status:  http.StatusNotFound,
	}
}

func Conflict(message string) *AppError {
	return &AppError{
		Code:    CodeConflict,
		Message: message,
		Status:  http.StatusConflict,
	}
}

// External errors
func ExternalError(service string, err error) *AppError {
	return &AppError{
		Code:    CodeExternalError,
		Message: fmt.Sprintf("external service error: %s", service),
		Status:  http.StatusBadGateway,
		Details: map[string]any{"service": service},
		Err:     err,
	}
}

// Internal errors
func Internal(message string) *AppError {
	if message == "" {
		message = "internal server error"
	}
	return &AppError{
		Code:    CodeInternalError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

func ConfigError(message string) *AppError {
	return &AppError{
		Code:    CodeConfigError,
		Message: message,
		Status:  http.StatusInternalServerError,
	}
}

// Helper functions
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

func AsAppError(err error) *AppError {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeInternalError, "internal server error", http.StatusInternalServerError)
}

// IsCode reports whether err carries the given application error code.
func IsCode(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// IsConflict reports whether err is a store-side conflict (409-class) response.
// Schema registration and unique-key collisions surface this way and are
// treated as already-applied by callers.
func IsConflict(err error) bool {
	return IsCode(err, CodeConflict)
}

func GetHTTPStatus(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
