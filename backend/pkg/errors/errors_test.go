package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"invalid argument", NewInvalidArgument("query", "must not be empty"), CodeInvalidArgument},
		{"not found", NewNotFound("article", "a1"), CodeNotFound},
		{"unauthorized", NewUnauthorized("no subject"), CodeUnauthorized},
		{"store", NewStoreUnavailable("find_nodes", 2, fmt.Errorf("connection refused")), CodeStoreUnavailable},
		{"wrapped store", fmt.Errorf("load snapshot: %w", NewStoreUnavailable("traverse", 1, nil)), CodeStoreUnavailable},
		{"config", NewConfigMissingRequired("NEO4J_URI"), CodeConfig},
		{"plain", fmt.Errorf("boom"), CodeInternal},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
		})
	}
}

func TestIsErrorType_Wrapped(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewNotFound("article", "x"))
	assert.True(t, IsErrorType(err, ErrorTypeNotFound))
	assert.False(t, IsErrorType(err, ErrorTypeStore))

	var nf *ErrNotFound
	assert.True(t, stderrors.As(err, &nf))
	assert.Equal(t, "x", nf.ID)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewStoreUnavailable("find_nodes", 1, context.DeadlineExceeded)))
	assert.False(t, IsRetryable(NewStoreUnavailable("find_nodes", 1, context.Canceled)))
	assert.False(t, IsRetryable(NewInvalidArgument("latitude", "out of range")))
	assert.False(t, IsRetryable(fmt.Errorf("plain")))
	assert.False(t, IsRetryable(NewBaseError(ErrorTypeCircuitOpen, "circuit open", nil)))
	assert.Equal(t, CodeStoreUnavailable, Code(NewBaseError(ErrorTypeCircuitOpen, "circuit open", nil)))
}

func TestStoreUnavailable_Unwrap(t *testing.T) {
	cause := fmt.Errorf("socket closed")
	err := NewStoreUnavailable("traverse", 2, cause)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "traverse")
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "invalid latitude: must be between -90 and 90", Message(NewInvalidArgument("latitude", "must be between -90 and 90")))
	assert.Equal(t, "article not found: a9", Message(fmt.Errorf("lookup: %w", NewNotFound("article", "a9"))))
	assert.Equal(t, "internal error", Message(fmt.Errorf("driver detail")))
}
