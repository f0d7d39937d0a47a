package apperr

import (
	"errors"
	"net/http"
)

// Error kinds shared by the domain services and the HTTP layer.
const (
	CodeUnauthorized = "unauthorized"
	CodeForbidden    = "forbidden"
	CodeValidation   = "validation_error"
	CodeNotFound     = "not_found"
	CodeConflict     = "conflict"
	CodeStore        = "store_error"
	CodeInternal     = "internal_error"
)

type AppError struct {
	Code    string `json:"code"`
	Message string `json:"error"`
	Err     error  `json:"-"`
	status  int
}

func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Code != "" {
		return e.Code
	}
	return e.Err.Error()
}

func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func (e *AppError) StatusCode() int {
	if e == nil || e.status == 0 {
		return http.StatusInternalServerError
	}
	return e.status
}

func BadRequest(code, msg string, err error) *AppError {
	return newAppError(code, msg, err, http.StatusBadRequest)
}

func NotFound(code, msg string, err error) *AppError {
	return newAppError(code, msg, err, http.StatusNotFound)
}

func Conflict(code, msg string, err error) *AppError {
	return newAppError(code, msg, err, http.StatusConflict)
}

func Unauthorized(code, msg string, err error) *AppError {
	return newAppError(code, msg, err, http.StatusUnauthorized)
}

func Forbidden(code, msg string, err error) *AppError {
	return newAppError(code, msg, err, http.StatusForbidden)
}

func Internal(code, msg string, err error) *AppError {
	return newAppError(code, msg, err, http.StatusInternalServerError)
}

// Validation reports malformed or out-of-policy input.
func Validation(msg string, err error) *AppError {
	return BadRequest(CodeValidation, msg, err)
}

// Store hides a gateway failure behind a generic message. The cause stays
// reachable through Unwrap for logging only.
func Store(err error) *AppError {
	return newAppError(CodeStore, "storage unavailable", err, http.StatusInternalServerError)
}

func FromError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(CodeInternal, http.StatusText(http.StatusInternalServerError), err)
}

// CodeOf returns the kind of err, or "" for nil and non-AppError values.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

func newAppError(code, msg string, err error, status int) *AppError {
	return &AppError{
		Code:    code,
		Message: msg,
		Err:     err,
		status:  status,
	}
}
