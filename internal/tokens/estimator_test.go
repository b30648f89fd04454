package tokens

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharEstimator(t *testing.T) {
	est := CharEstimator{}
	tests := []struct {
		text string
		want int
	}{
		{"", 1},
		{"abc", 1},
		{"abcd", 1},
		{"abcdefgh", 2},
		{strings.Repeat("x", 400), 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, est.Estimate(tt.text), "len=%d", len(tt.text))
	}
}

func TestCharEstimatorCustomRatio(t *testing.T) {
	assert.Equal(t, 5, CharEstimator{CharsPerToken: 2}.Estimate("0123456789"))
}

func TestCharEstimatorMonotonic(t *testing.T) {
	est := CharEstimator{}
	prev := 0
	for n := 0; n < 200; n++ {
		got := est.Estimate(strings.Repeat("a", n))
		assert.GreaterOrEqual(t, got, prev)
		assert.GreaterOrEqual(t, got, 1)
		prev = got
	}
}

func TestNewChars(t *testing.T) {
	for _, name := range []string{"", "chars", " chars "} {
		est, err := New(name)
		require.NoError(t, err)
		assert.IsType(t, CharEstimator{}, est)
	}
}

func TestNewUnknownEncoding(t *testing.T) {
	_, err := New("no_such_encoding")
	require.ErrorIs(t, err, ErrUnknownEstimator)

	assert.IsType(t, CharEstimator{}, NewWithFallback("no_such_encoding"))
}

func TestTiktoken(t *testing.T) {
	est, err := NewTiktoken(DefaultEncoding)
	if err != nil {
		t.Skipf("encoding unavailable offline: %v", err)
	}
	assert.Equal(t, 1, est.Estimate(""))
	assert.Greater(t, est.Estimate("The party enters the ruined keep at dusk."), 5)
	assert.Equal(t, DefaultEncoding, est.Encoding())
}
