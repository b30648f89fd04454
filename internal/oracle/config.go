package oracle

import (
	"time"

	"github.com/cloudwego/eino/callbacks"
	"github.com/cloudwego/eino/components/model"
)

const (
	DefaultRetryInterval = 500 * time.Millisecond
	DefaultRetries       = 2
)

// Config configures ChatOracle.
type Config struct {
	// Model answers every request. Required.
	Model model.BaseChatModel

	// Retries is the number of extra attempts after a failed call. Zero
	// means one attempt; negative values use DefaultRetries.
	Retries int

	// RetryInterval is the first backoff delay. Default: DefaultRetryInterval.
	RetryInterval time.Duration

	// Timeout bounds a whole request including retries. Zero disables it.
	Timeout time.Duration

	// SystemPrompt overrides the embedded system prompt.
	SystemPrompt string

	// Callbacks are attached to every chain invocation.
	Callbacks []callbacks.Handler
}

func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}
	if c.Model == nil {
		return ErrModelRequired
	}
	return nil
}

func (c *Config) GetRetries() int {
	if c.Retries < 0 {
		return DefaultRetries
	}
	return c.Retries
}

func (c *Config) GetRetryInterval() time.Duration {
	if c.RetryInterval <= 0 {
		return DefaultRetryInterval
	}
	return c.RetryInterval
}
