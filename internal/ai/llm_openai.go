package ai

import (
	"context"
	"errors"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Settings carries the provider configuration for the OpenAI-compatible
// endpoint.
type Settings struct {
	APIKey  string
	BaseURL string
	Model   string
}

// OpenAILLM implements LLMClient with the official openai-go SDK (chat
// completions).
type OpenAILLM struct {
	model string
	opts  []option.RequestOption
}

func NewOpenAILLM(cfg Settings) (*OpenAILLM, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	if cfg.Model == "" {
		return nil, errors.New("llm model is required")
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &OpenAILLM{model: cfg.Model, opts: opts}, nil
}

func (o *OpenAILLM) Complete(ctx context.Context, prompt Prompt) (string, error) {
	client := openai.NewClient(o.opts...)

	resp, err := client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompt.System),
			openai.UserMessage(prompt.User),
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: empty choices")
	}
	return resp.Choices[0].Message.Content, nil
}
