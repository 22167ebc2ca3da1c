package utils

import "net/http"

// AppError carries an HTTP status alongside a user-facing message.
// Handlers translate it to a response; anything else becomes a 500.
type AppError struct {
	StatusCode int
	Message    string
}

func (e *AppError) Error() string {
	return e.Message
}

func NewBadRequestError(message string) *AppError {
	return &AppError{StatusCode: http.StatusBadRequest, Message: message}
}

func NewNotFoundError(message string) *AppError {
	return &AppError{StatusCode: http.StatusNotFound, Message: message}
}

func NewConflictError(message string) *AppError {
	return &AppError{StatusCode: http.StatusConflict, Message: message}
}

func NewInternalError(message string) *AppError {
	return &AppError{StatusCode: http.StatusInternalServerError, Message: message}
}
