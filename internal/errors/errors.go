package errors

import (
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	InvalidInput     ErrorCode = "invalid_input"
	AccountNotFound  ErrorCode = "account_not_found"
	LimitExceeded    ErrorCode = "limit_exceeded"
	AmountOutOfRange ErrorCode = "amount_out_of_range"
	StoreUnavailable ErrorCode = "store_unavailable"
	StoreProtocol    ErrorCode = "store_protocol"
	InternalError    ErrorCode = "internal_error"
)

type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

func (e AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewAppError(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

func NewAppErrorf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// WithDetails returns a copy so the predefined errors below stay untouched.
func (e *AppError) WithDetails(details string) *AppError {
	cp := *e
	cp.Details = details
	return &cp
}

// Is matches on code, so errors.Is(err, ErrLimitExceeded) holds for copies made by WithDetails.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// HTTPStatus maps the error code to the response status.
func (e *AppError) HTTPStatus() int {
	switch e.Code {
	case InvalidInput, LimitExceeded, AmountOutOfRange:
		return http.StatusUnprocessableEntity
	case AccountNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Predefined errors for common cases
var (
	ErrInvalidInput     = NewAppError(InvalidInput, "invalid request body")
	ErrAccountNotFound  = NewAppError(AccountNotFound, "account not found")
	ErrLimitExceeded    = NewAppError(LimitExceeded, "operation exceeds account limit")
	ErrAmountOutOfRange = NewAppError(AmountOutOfRange, "resulting balance out of range")
	ErrStoreUnavailable = NewAppError(StoreUnavailable, "store unavailable")
)
