package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors_MatchSentinels(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		code   string
	}{
		{"not found", NotFound("list", "l-1"), ErrNotFound, "NOT_FOUND"},
		{"invalid", InvalidInput("qty must be positive"), ErrInvalidInput, "INVALID_INPUT"},
		{"unauthorized", Unauthorized("no session"), ErrUnauthorized, "UNAUTHORIZED"},
		{"conflict", Conflict("last list"), ErrConflict, "CONFLICT"},
		{"unavailable", Unavailable("catalog", errors.New("dial tcp")), ErrServiceUnavail, "SERVICE_UNAVAILABLE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("op: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.target)
			assert.Equal(t, tt.code, Code(wrapped))
		})
	}
}

func TestAppError_Message(t *testing.T) {
	err := NotFound("product", "p-9")
	assert.Equal(t, `NOT_FOUND: product "p-9" not found: resource not found`, err.Error())

	assert.Equal(t, "INTERNAL_ERROR", Code(errors.New("boom")))
}
