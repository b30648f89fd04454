package tokens

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"campaign_agent/pkg/logger"
)

// TiktokenEstimator counts BPE tokens with a tiktoken encoding.
type TiktokenEstimator struct {
	encoding string
	tkt      *tiktoken.Tiktoken
}

// NewTiktoken loads encoding. The first load of an encoding may download its
// ranks file, so failures here are usually network or cache problems.
func NewTiktoken(encoding string) (*TiktokenEstimator, error) {
	tkt, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("get encoding failed, encoding=%v, err=%w", encoding, err)
	}
	return &TiktokenEstimator{encoding: encoding, tkt: tkt}, nil
}

func (t *TiktokenEstimator) Estimate(text string) int {
	return max(1, len(t.tkt.Encode(text, nil, nil)))
}

func (t *TiktokenEstimator) Encoding() string {
	return t.encoding
}

// NewWithFallback prefers the named estimator and degrades to CharEstimator
// when it cannot be loaded.
func NewWithFallback(name string) Estimator {
	est, err := New(name)
	if err != nil {
		logger.Warnf("[tokens] %v; falling back to ~%d chars/token", err, DefaultCharsPerToken)
		return CharEstimator{}
	}
	return est
}
