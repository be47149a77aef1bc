package ai

import "context"

// LLMClient abstracts the model provider so the worker can be tested with a
// stub.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is the message pair sent to the model.
type Prompt struct {
	System string
	User   string
}
