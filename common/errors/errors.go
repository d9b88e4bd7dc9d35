package errors

import (
	"fmt"
	"net/http"
)

// Error is an application error with the HTTP status it maps to. Services
// return these; controllers unwrap them with errors.As and render Code plus
// Message without inspecting the cause.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Import pipeline error types
var (
	ErrJobNotFound      = New(http.StatusNotFound, "Import job not found", nil)
	ErrJobNotCancelable = New(http.StatusBadRequest, "Cannot cancel job that is not in progress", nil)
	ErrInvalidFile      = New(http.StatusBadRequest, "Invalid file type. Allowed: csv, txt, xlsx, xls", nil)
	ErrFileTooLarge     = New(http.StatusBadRequest, "File exceeds the 500MB upload limit", nil)
)
