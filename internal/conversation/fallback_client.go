package conversation

import (
	"context"

	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

// FallbackLLMClient retries a failed completion once on a second provider.
type FallbackLLMClient struct {
	primary  LLMClient
	fallback LLMClient
	logger   *logging.Logger
}

// NewFallbackLLMClient wraps primary. A nil fallback makes it a pass-through.
func NewFallbackLLMClient(primary, fallback LLMClient, logger *logging.Logger) *FallbackLLMClient {
	if primary == nil {
		panic("conversation: primary llm client cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &FallbackLLMClient{primary: primary, fallback: fallback, logger: logger}
}

func (c *FallbackLLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	resp, err := c.primary.Complete(ctx, req)
	if err == nil {
		return resp, nil
	}

	c.logger.Warn("conversation: primary llm failed",
		"error", err,
		"fallback_available", c.fallback != nil,
	)
	// Nothing left to try once the turn deadline is gone.
	if c.fallback == nil || ctx.Err() != nil {
		return LLMResponse{}, err
	}

	// The model override belongs to the primary provider.
	req.Model = ""
	fallbackResp, fallbackErr := c.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		c.logger.Error("conversation: fallback llm also failed",
			"primary_error", err,
			"fallback_error", fallbackErr,
		)
		return LLMResponse{}, fallbackErr
	}
	c.logger.Info("conversation: fallback llm succeeded after primary failure")
	return fallbackResp, nil
}
