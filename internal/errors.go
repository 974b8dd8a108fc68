package internal

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrorTypeValidation   ErrorType = "VALIDATION_ERROR"
	ErrorTypeNotFound     ErrorType = "NOT_FOUND"
	ErrorTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrorTypeForbidden    ErrorType = "FORBIDDEN"
	ErrorTypeConflict     ErrorType = "CONFLICT"
	ErrorTypeMigration    ErrorType = "MIGRATION_ERROR"
	ErrorTypeInternal     ErrorType = "INTERNAL_ERROR"
)

type ErrorCode string

const (
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidTenantID  ErrorCode = "INVALID_TENANT_ID"
	ErrCodeTableNotAllowed  ErrorCode = "TABLE_NOT_ALLOWED"
	ErrCodeInvalidOrderBy   ErrorCode = "INVALID_ORDER_BY"
	ErrCodeInvalidStato     ErrorCode = "INVALID_STATO"
	ErrCodeEmptyPayload     ErrorCode = "EMPTY_PAYLOAD"

	ErrCodeTenantNotFound ErrorCode = "TENANT_NOT_FOUND"
	ErrCodeRecordNotFound ErrorCode = "RECORD_NOT_FOUND"

	ErrCodeInvalidToken    ErrorCode = "INVALID_TOKEN"
	ErrCodeMissingToken    ErrorCode = "MISSING_TOKEN"
	ErrCodeNoTenantBinding ErrorCode = "NO_TENANT_BINDING"
	ErrCodeTenantMismatch  ErrorCode = "TENANT_MISMATCH"
	ErrCodeSlugDisabled    ErrorCode = "SLUG_RESOLUTION_DISABLED"

	ErrCodeDuplicateKey ErrorCode = "DUPLICATE_KEY"

	ErrCodeMigrationFailed       ErrorCode = "MIGRATION_FAILED"
	ErrCodeMigrationIrreversible ErrorCode = "MIGRATION_IRREVERSIBLE"
)

type AppError struct {
	Type       ErrorType   `json:"type"`
	Code       ErrorCode   `json:"code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
	StatusCode int         `json:"-"`
	Cause      error       `json:"-"`
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

func (e *AppError) WithCause(cause error) *AppError {
	c := *e
	c.Cause = cause
	return &c
}

func (e *AppError) WithDetails(details interface{}) *AppError {
	c := *e
	c.Details = details
	return &c
}

func NewValidationError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeValidation,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusBadRequest,
	}
}

func NewNotFoundError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeNotFound,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusNotFound,
	}
}

func NewUnauthorizedError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeUnauthorized,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeForbidden,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusForbidden,
	}
}

func NewConflictError(message string, code ErrorCode) *AppError {
	return &AppError{
		Type:       ErrorTypeConflict,
		Code:       code,
		Message:    message,
		StatusCode: http.StatusConflict,
	}
}

func NewMigrationError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeMigration,
		Code:       ErrCodeMigrationFailed,
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

func NewInternalError(message string, cause error) *AppError {
	return &AppError{
		Type:       ErrorTypeInternal,
		Code:       "INTERNAL_ERROR",
		Message:    message,
		StatusCode: http.StatusInternalServerError,
		Cause:      cause,
	}
}

var (
	ErrInvalidTenantID = NewValidationError("invalid company id", ErrCodeInvalidTenantID)
	ErrTenantNotFound  = NewNotFoundError("company not found", ErrCodeTenantNotFound)

	// Single opaque message for both token-verification strategies; the
	// individual causes are logged server-side only.
	ErrInvalidToken = NewUnauthorizedError("invalid or expired token", ErrCodeInvalidToken)
	ErrMissingToken = NewUnauthorizedError("missing bearer token", ErrCodeMissingToken)

	ErrNoTenantBinding = NewForbiddenError("identity has no company binding", ErrCodeNoTenantBinding)
	ErrTenantMismatch  = NewForbiddenError("company does not match identity", ErrCodeTenantMismatch)
	ErrSlugDisabled    = NewForbiddenError("slug tenant resolution is disabled", ErrCodeSlugDisabled)
)

func IsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

type Response struct {
	Error *AppError `json:"error"`
}

func (e *AppError) ToHTTPResponse() (int, interface{}) {
	return e.StatusCode, Response{Error: e}
}

func (e *AppError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type    ErrorType   `json:"type"`
		Code    ErrorCode   `json:"code"`
		Message string      `json:"message"`
		Details interface{} `json:"details,omitempty"`
	}{
		Type:    e.Type,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	})
}
