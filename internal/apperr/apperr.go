// Package apperr defines the errors the HTTP API reports to clients.
// Handlers translate everything into an AppError so internal details
// never reach a response body.
package apperr

import (
	"errors"
	"net/http"

	"fintrack/internal/core"
)

// AppError is a client-facing error with a stable code and HTTP status.
type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Internal   error  `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

func (e *AppError) Unwrap() error { return e.Internal }

// Wrap copies sentinel and attaches an internal cause.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    sentinel.Message,
		StatusCode: sentinel.StatusCode,
		Internal:   internal,
	}
}

// WithMessage copies sentinel with a custom client message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:       sentinel.Code,
		Message:    message,
		StatusCode: sentinel.StatusCode,
		Internal:   sentinel.Internal,
	}
}

// General errors.
var (
	ErrInvalidInput   = &AppError{Code: "INVALID_INPUT", Message: "Invalid input", StatusCode: http.StatusBadRequest}
	ErrUnauthorized   = &AppError{Code: "UNAUTHORIZED", Message: "Missing user id", StatusCode: http.StatusUnauthorized}
	ErrNotFound       = &AppError{Code: "NOT_FOUND", Message: "Resource not found", StatusCode: http.StatusNotFound}
	ErrRateLimited    = &AppError{Code: "RATE_LIMITED", Message: "Too many requests", StatusCode: http.StatusTooManyRequests}
	ErrInternalServer = &AppError{Code: "INTERNAL_ERROR", Message: "An internal error occurred", StatusCode: http.StatusInternalServerError}
	ErrUnavailable    = &AppError{Code: "UNAVAILABLE", Message: "Service temporarily unavailable", StatusCode: http.StatusServiceUnavailable}
)

// Ledger errors.
var (
	ErrIncomeNotFound      = &AppError{Code: "INCOME_NOT_FOUND", Message: "Income not found", StatusCode: http.StatusNotFound}
	ErrBillNotFound        = &AppError{Code: "BILL_NOT_FOUND", Message: "Bill not found", StatusCode: http.StatusNotFound}
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "Transaction not found", StatusCode: http.StatusNotFound}
	ErrAccountNotFound     = &AppError{Code: "ACCOUNT_NOT_FOUND", Message: "Account not found", StatusCode: http.StatusNotFound}
	ErrBankSyncFailed      = &AppError{Code: "BANK_SYNC_FAILED", Message: "Bank connection failed", StatusCode: http.StatusBadGateway}
)

// domainErrors maps core validation sentinels onto invalid-input messages.
var domainErrors = []error{
	core.ErrInvalidAmount,
	core.ErrEmptyTitle,
	core.ErrTitleTooLong,
	core.ErrInvalidFrequency,
	core.ErrInvalidBillType,
	core.ErrInvalidDueDate,
	core.ErrInvalidTxType,
	core.ErrInvalidDate,
	core.ErrInvalidAccount,
	core.ErrInvalidSource,
	core.ErrEmptyCurrency,
	core.ErrInvalidDay,
	core.ErrInvalidMonth,
}

// From converts any error into an AppError. AppErrors pass through, core
// validation errors become INVALID_INPUT, and everything else is internal.
func From(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	for _, sentinel := range domainErrors {
		if errors.Is(err, sentinel) {
			return &AppError{
				Code:       ErrInvalidInput.Code,
				Message:    sentinel.Error(),
				StatusCode: ErrInvalidInput.StatusCode,
				Internal:   err,
			}
		}
	}
	return Wrap(ErrInternalServer, err)
}
