package models

import (
	"errors"
	"net/http"
)

// ErrorResponse описывает ошибку с кодом и сообщением.
type ErrorResponse struct {
	StatusCode int    `json:"-"`
	Message    string `json:"reason"`
}

// NewErrorResponse создает новую ошибку с кодом и сообщением.
func NewErrorResponse(statusCode int, message string) *ErrorResponse {
	return &ErrorResponse{
		StatusCode: statusCode,
		Message:    message}
}

// Реализация метода Error() для удовлетворения интерфейса error.
func (e *ErrorResponse) Error() string {
	return e.Message
}

// FromError сопоставляет ошибку движка с HTTP-кодом.
func FromError(err error) *ErrorResponse {
	switch {
	case errors.Is(err, ErrNotFound):
		return NewErrorResponse(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrUnauthorized):
		return NewErrorResponse(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrEmptyBidSet),
		errors.Is(err, ErrAmountMismatch):
		return NewErrorResponse(http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrInsufficientFunds):
		return NewErrorResponse(http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, ErrConflict):
		return NewErrorResponse(http.StatusConflict, err.Error())
	case errors.Is(err, ErrLedgerUnavailable):
		return NewErrorResponse(http.StatusBadGateway, err.Error())
	}
	var resp *ErrorResponse
	if errors.As(err, &resp) {
		return resp
	}
	return NewErrorResponse(http.StatusInternalServerError, "internal server error")
}
