package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "message only",
			err:  NewUserError("invalid date", nil),
			want: "invalid date",
		},
		{
			name: "wrapped cause",
			err:  NewUserError("failed to open database", errors.New("disk full")),
			want: "failed to open database: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestUserErrorSurvivesWrapping(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("ingest: %w", NewUserError("failed to open database", cause))

	var userErr *UserError
	require.True(t, errors.As(err, &userErr))
	assert.Equal(t, "failed to open database", userErr.UserMessage)
	assert.ErrorIs(t, err, cause)
}

func TestConfigErrorUnwrapsToInvalidConfig(t *testing.T) {
	err := NewConfigError("tolerance.absolute", errors.New("negative"))

	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "tolerance.absolute")
}
