package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type openAIChatAPI interface {
	New(ctx context.Context, body openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAILLMClient implements LLMClient with the Chat Completions API.
type OpenAILLMClient struct {
	api   openAIChatAPI
	model string
}

// NewOpenAILLMClient creates a client. baseURL may be empty for the public endpoint.
func NewOpenAILLMClient(apiKey, baseURL, model string) (*OpenAILLMClient, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("conversation: openai api key is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(1)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	client := openai.NewClient(opts...)
	return newOpenAILLMClientWithAPI(&client.Chat.Completions, model), nil
}

func newOpenAILLMClientWithAPI(api openAIChatAPI, model string) *OpenAILLMClient {
	if api == nil {
		panic("conversation: openai chat api cannot be nil")
	}
	if strings.TrimSpace(model) == "" {
		model = string(openai.ChatModelGPT4oMini)
	}
	return &OpenAILLMClient{api: api, model: model}
}

func (c *OpenAILLMClient) Complete(ctx context.Context, req LLMRequest) (LLMResponse, error) {
	model := c.model
	if strings.TrimSpace(req.Model) != "" {
		model = req.Model
	}

	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.System)+len(req.Messages))
	for _, block := range req.System {
		if strings.TrimSpace(block) != "" {
			messages = append(messages, openai.SystemMessage(block))
		}
	}
	for _, msg := range req.Messages {
		content := strings.TrimSpace(msg.Content)
		if content == "" {
			continue
		}
		switch msg.Role {
		case ChatRoleSystem:
			messages = append(messages, openai.SystemMessage(content))
		case ChatRoleUser:
			messages = append(messages, openai.UserMessage(content))
		case ChatRoleAssistant:
			messages = append(messages, openai.AssistantMessage(content))
		default:
			return LLMResponse{}, fmt.Errorf("conversation: unsupported role %q", msg.Role)
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}
	// Negative temperature leaves the provider default.
	if req.Temperature >= 0 {
		params.Temperature = openai.Float(float64(req.Temperature))
	}

	out, err := c.api.New(ctx, params)
	if err != nil {
		return LLMResponse{}, fmt.Errorf("conversation: openai completion failed: %w", err)
	}
	if out == nil || len(out.Choices) == 0 {
		return LLMResponse{}, errors.New("conversation: openai returned no choices")
	}

	choice := out.Choices[0]
	return LLMResponse{
		Text:       strings.TrimSpace(choice.Message.Content),
		StopReason: string(choice.FinishReason),
		Usage: TokenUsage{
			InputTokens:  int32(out.Usage.PromptTokens),
			OutputTokens: int32(out.Usage.CompletionTokens),
			TotalTokens:  int32(out.Usage.TotalTokens),
		},
	}, nil
}
