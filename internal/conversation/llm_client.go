package conversation

import (
	"context"
	"errors"
)

const (
	ChatRoleSystem    = "system"
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one entry of the conversation history. The caller speaks as user.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
	TotalTokens  int32
}

type LLMRequest struct {
	Model       string
	System      []string
	Messages    []ChatMessage
	MaxTokens   int32
	Temperature float32
}

type LLMResponse struct {
	Text       string
	Usage      TokenUsage
	StopReason string
}

// LLMClient is the completion function. Implementations must honour ctx cancellation.
type LLMClient interface {
	Complete(ctx context.Context, req LLMRequest) (LLMResponse, error)
}

// LLMClientFunc adapts a plain function to LLMClient.
type LLMClientFunc func(ctx context.Context, req LLMRequest) (LLMResponse, error)

func (f LLMClientFunc) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	return f(ctx, req)
}

// ErrLLMUnavailable is returned by UnavailableLLMClient.
var ErrLLMUnavailable = errors.New("conversation: no completion provider configured")

// UnavailableLLMClient stands in when no provider credentials are configured. Turns
// that reach the model get the apology reply; deterministic prompts still work.
type UnavailableLLMClient struct{}

func (UnavailableLLMClient) Complete(context.Context, LLMRequest) (LLMResponse, error) {
	return LLMResponse{}, ErrLLMUnavailable
}
