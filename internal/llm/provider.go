// Package llm abstracts the external chat-completion providers behind a
// single interface so the chat service never touches provider wire shapes.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Provider names accepted in the chat request's model selector.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Sampling parameters are fixed product-wide.
const (
	maxCompletionTokens = 200
	samplingTemperature = 0.7
)

const defaultRequestTimeout = 60 * time.Second

// Message is one entry of the prompt sequence handed to a provider.
// Role is "system", "user" or "assistant"; each provider maps these onto
// its own wire vocabulary.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage reports the provider's token accounting for one exchange.
type Usage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens"`
	TotalTokens      int `json:"totalTokens"`
}

// Reply is a validated completion: Content is never empty.
type Reply struct {
	Content      string
	Model        string
	FinishReason string
	Usage        Usage
}

// Provider generates one reply for an assembled prompt sequence.
type Provider interface {
	Name() string
	GenerateReply(ctx context.Context, messages []Message) (*Reply, error)
}

// ProviderError wraps any failure of an external provider call, including a
// response without a usable candidate.
type ProviderError struct {
	Provider string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %v", e.Provider, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: defaultRequestTimeout}
}
