package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err  *AppError
		want int
	}{
		{ErrInvalidInput, http.StatusUnprocessableEntity},
		{ErrLimitExceeded, http.StatusUnprocessableEntity},
		{ErrAmountOutOfRange, http.StatusUnprocessableEntity},
		{ErrAccountNotFound, http.StatusNotFound},
		{ErrStoreUnavailable, http.StatusInternalServerError},
		{NewAppError(StoreProtocol, "unexpected outcome"), http.StatusInternalServerError},
		{NewAppError(InternalError, "boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.HTTPStatus())
		})
	}
}

func TestWithDetailsDoesNotMutatePredefined(t *testing.T) {
	detailed := ErrStoreUnavailable.WithDetails("connection refused")

	assert.Equal(t, "connection refused", detailed.Details)
	assert.Empty(t, ErrStoreUnavailable.Details)
	assert.True(t, stderrors.Is(detailed, ErrStoreUnavailable))
}

func TestIsThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("apply: %w", ErrLimitExceeded)

	assert.True(t, stderrors.Is(wrapped, ErrLimitExceeded))
	assert.False(t, stderrors.Is(wrapped, ErrAccountNotFound))

	var appErr *AppError
	assert.True(t, stderrors.As(wrapped, &appErr))
	assert.Equal(t, LimitExceeded, appErr.Code)
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "account_not_found: account not found", ErrAccountNotFound.Error())
	assert.Equal(t, "store_protocol: unexpected outcome 7 (account_id=1)",
		NewAppErrorf(StoreProtocol, "unexpected outcome %d", 7).WithDetails("account_id=1").Error())
}
