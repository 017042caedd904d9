package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "validation", err: Validation("bad"), want: http.StatusBadRequest},
		{name: "auth", err: Auth("who"), want: http.StatusUnauthorized},
		{name: "not found", err: NotFound("gone"), want: http.StatusNotFound},
		{name: "conflict", err: Conflict("dup"), want: http.StatusConflict},
		{name: "upstream", err: Upstream("catalog", errors.New("502")), want: http.StatusInternalServerError},
		{name: "persistence", err: Persistence("write", errors.New("disk")), want: http.StatusInternalServerError},
		{name: "wrapped validation", err: fmt.Errorf("create: %w", Validation("bad")), want: http.StatusBadRequest},
		{name: "plain error", err: errors.New("boom"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusCode(tt.err))
		})
	}
}

func TestMessage(t *testing.T) {
	assert.Equal(t, "Address is required.", Message(Validation("Address is required."), "fallback"))
	assert.Equal(t, "fallback", Message(errors.New("raw"), "fallback"))
}

func TestUnwrapKeepsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := Persistence("Failed to create order.", cause)
	assert.ErrorIs(t, err, cause)
	assert.True(t, Is(err, KindPersistence))
	assert.False(t, Is(err, KindValidation))
	assert.Contains(t, err.Error(), "disk full")
}
