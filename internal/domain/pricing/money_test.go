package pricing

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLenient(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"12.5", "12.5"},
		{" 1,200 ", "1200"},
		{"", "0"},
		{"   ", "0"},
		{"abc", "0"},
		{"-3", "0"},
		{"0.001", "0.001"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assertDecimal(t, tt.want, ParseLenient(tt.input))
		})
	}
}

func TestFromFloat(t *testing.T) {
	got, err := FromFloat(12.25)
	require.NoError(t, err)
	assertDecimal(t, "12.25", got)

	for _, f := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := FromFloat(f)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrNonFinite))
		assert.True(t, IsCalculation(err))
	}
}
