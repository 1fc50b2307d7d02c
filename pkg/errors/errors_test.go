package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppErrorUnwrap(t *testing.T) {
	err := Newf(ErrConfiguration, "tf mode %q unknown", "square")
	assert.True(t, Is(err, ErrConfiguration))
	assert.False(t, Is(err, ErrEmptyCollection))
	assert.Equal(t, `invalid configuration: tf mode "square" unknown`, err.Error())
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"configuration", New(ErrConfiguration, "bad"), ExitConfiguration},
		{"wrapped configuration", fmt.Errorf("loading: %w", ErrConfiguration), ExitConfiguration},
		{"empty collection", fmt.Errorf("weighting: %w", New(ErrEmptyCollection, "N=0")), ExitEmptyCollection},
		{"storage", New(ErrStorage, "disk"), ExitFailure},
		{"plain", fmt.Errorf("boom"), ExitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExitCode(tt.err))
		})
	}
}
