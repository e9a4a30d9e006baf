package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKinds(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind error
		msg  string
	}{
		{"validation", Validation("bad amount"), ErrValidation, "bad amount"},
		{"unauthorized", Unauthorized("no token"), ErrUnauthorized, "no token"},
		{"forbidden", Forbidden("admin only"), ErrForbidden, "admin only"},
		{"not found", NotFound("sale not found"), ErrNotFound, "sale not found"},
		{"invalid state", InvalidState("completed"), ErrInvalidState, "completed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("%s: %w", "storage.Op", tt.err)
			assert.ErrorIs(t, wrapped, tt.kind)
			assert.Equal(t, tt.msg, Message(wrapped))
		})
	}
}

func TestMessage_PlainError(t *testing.T) {
	assert.Empty(t, Message(errors.New("connection refused")))
	assert.Empty(t, Message(nil))
}

func TestError_EmptyMessage(t *testing.T) {
	err := &Error{Kind: ErrNotFound}
	assert.Equal(t, "not found", err.Error())
}
