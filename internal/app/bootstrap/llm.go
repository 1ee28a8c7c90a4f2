package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	appconfig "github.com/wolfman30/selaro-receptionist/internal/config"
	"github.com/wolfman30/selaro-receptionist/internal/conversation"
	"github.com/wolfman30/selaro-receptionist/pkg/logging"
)

const (
	ProviderOpenAI  = "openai"
	ProviderBedrock = "bedrock"
	ProviderGemini  = "gemini"
	ProviderNone    = "none"
)

// BuildLLMClient wires the completion provider from config. A fallback provider, when
// configured and available, retries failed completions once. Missing credentials give
// the unavailable client rather than an error so the server still boots.
func BuildLLMClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) (conversation.LLMClient, conversation.LLMSettings, error) {
	if cfg == nil {
		return nil, conversation.LLMSettings{}, fmt.Errorf("bootstrap: config is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	settings := conversation.LLMSettings{
		Provider:    ProviderNone,
		Timeout:     cfg.LLMTimeout,
		MaxTokens:   int32(cfg.LLMMaxTokens),
		Temperature: float32(cfg.LLMTemperature),
	}

	primary, model, err := buildProvider(ctx, cfg, cfg.LLMProvider)
	if err != nil {
		return nil, settings, err
	}
	if primary == nil {
		logger.Warn("no completion provider configured; model turns will answer with an apology",
			"provider", cfg.LLMProvider)
		return conversation.UnavailableLLMClient{}, settings, nil
	}
	settings.Provider = cfg.LLMProvider
	settings.Model = model

	fallbackName := cfg.LLMFallbackProvider
	if fallbackName == "" || fallbackName == cfg.LLMProvider {
		logger.Info("completion provider configured", "provider", settings.Provider, "model", model)
		return primary, settings, nil
	}
	fallback, fallbackModel, err := buildProvider(ctx, cfg, fallbackName)
	if err != nil {
		logger.Warn("fallback provider unavailable", "provider", fallbackName, "error", err)
		fallback = nil
	}
	if fallback == nil {
		return primary, settings, nil
	}
	logger.Info("completion provider configured",
		"provider", settings.Provider,
		"model", model,
		"fallback_provider", fallbackName,
		"fallback_model", fallbackModel,
	)
	return conversation.NewFallbackLLMClient(primary, fallback, logger), settings, nil
}

// buildProvider returns a nil client without error when the provider has no credentials.
func buildProvider(ctx context.Context, cfg *appconfig.Config, name string) (conversation.LLMClient, string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, "", nil
		}
		client, err := conversation.NewOpenAILLMClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel)
		if err != nil {
			return nil, "", fmt.Errorf("bootstrap: openai client: %w", err)
		}
		return client, cfg.OpenAIModel, nil
	case ProviderBedrock:
		if cfg.BedrockModelID == "" {
			return nil, "", nil
		}
		awsCfg, err := loadAWSConfig(ctx, cfg)
		if err != nil {
			return nil, "", err
		}
		return conversation.NewBedrockLLMClient(bedrockruntime.NewFromConfig(awsCfg), cfg.BedrockModelID), cfg.BedrockModelID, nil
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, "", nil
		}
		client, err := conversation.NewGeminiLLMClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, "", fmt.Errorf("bootstrap: gemini client: %w", err)
		}
		return client, cfg.GeminiModel, nil
	case "", ProviderNone:
		return nil, "", nil
	default:
		return nil, "", fmt.Errorf("bootstrap: unknown llm provider %q", name)
	}
}
