package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Codes(t *testing.T) {
	cases := []struct {
		err  *APIError
		code int
	}{
		{NewValidationError("bad", nil), http.StatusBadRequest},
		{NewAuthError("who", nil), http.StatusUnauthorized},
		{NewNotFoundError("gone", nil), http.StatusNotFound},
		{NewConflictError("busy", nil), http.StatusConflict},
		{NewInternalError("oops", nil), http.StatusInternalServerError},
		{NewUnavailableError("down", nil), http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		assert.Equal(t, c.code, c.err.Code, string(c.err.Type))
	}
}

func TestAPIError_Predicates(t *testing.T) {
	cause := stderrors.New("bus stuck")
	err := fmt.Errorf("handler: %w", NewUnavailableError("hub offline", cause).WithRequestID("req_1"))

	assert.True(t, IsUnavailable(err))
	assert.False(t, IsNotFound(err))
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "bus stuck")

	assert.True(t, IsValidation(NewValidationError("x", nil)))
	assert.True(t, IsNotFound(NewNotFoundError("x", nil)))
	assert.False(t, IsValidation(cause))
}
