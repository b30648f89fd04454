// Package tokens estimates how much of a model's context window a piece of
// text occupies. Estimates are approximate; budgets built on them should
// leave headroom.
package tokens

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// DefaultCharsPerToken is the ratio used by CharEstimator when none is set.
	DefaultCharsPerToken = 4

	// NameChars selects CharEstimator in New.
	NameChars = "chars"
	// DefaultEncoding is the tiktoken encoding used by NewWithFallback callers
	// that do not configure one.
	DefaultEncoding = "cl100k_base"
)

var ErrUnknownEstimator = errors.New("unknown token estimator")

// Estimator maps text to an approximate token count. Implementations return
// at least 1 for any input, including the empty string, and never decrease
// as text grows.
type Estimator interface {
	Estimate(text string) int
}

// CharEstimator divides the byte length by a fixed ratio.
type CharEstimator struct {
	CharsPerToken int
}

func (c CharEstimator) Estimate(text string) int {
	ratio := c.CharsPerToken
	if ratio <= 0 {
		ratio = DefaultCharsPerToken
	}
	return max(1, len(text)/ratio)
}

// New returns the estimator registered under name: "chars" or a tiktoken
// encoding such as "cl100k_base".
func New(name string) (Estimator, error) {
	switch n := strings.TrimSpace(name); n {
	case "", NameChars:
		return CharEstimator{}, nil
	default:
		est, err := NewTiktoken(n)
		if err != nil {
			return nil, fmt.Errorf("%w %q: %w", ErrUnknownEstimator, n, err)
		}
		return est, nil
	}
}
