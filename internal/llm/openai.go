package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens"`
	Temperature float64         `json:"temperature"`
}

type openAIChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// OpenAI calls the chat-completions endpoint.
type OpenAI struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewOpenAI creates the OpenAI provider.
func NewOpenAI(apiKey, model string, log *zap.Logger) *OpenAI {
	return &OpenAI{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultOpenAIBaseURL,
		httpClient: newHTTPClient(),
		log:        log,
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (p *OpenAI) WithBaseURL(baseURL string) *OpenAI {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

func (p *OpenAI) Name() string {
	return ProviderOpenAI
}

func (p *OpenAI) GenerateReply(ctx context.Context, messages []Message) (*Reply, error) {
	chatReq := openAIChatRequest{
		Model:       p.model,
		MaxTokens:   maxCompletionTokens,
		Temperature: samplingTemperature,
	}
	for _, m := range messages {
		chatReq.Messages = append(chatReq.Messages, openAIMessage{Role: m.Role, Content: m.Content})
	}

	body, err := json.Marshal(chatReq)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Error("openai request failed", zap.Error(err))
		return nil, &ProviderError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var chatResp openAIChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("invalid response body: %w", err)}
	}

	if chatResp.Error != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %s", chatResp.Error.Type, chatResp.Error.Message)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	// The response must carry at least one candidate with non-empty text.
	if len(chatResp.Choices) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("response contained no choices")}
	}
	content := strings.TrimSpace(chatResp.Choices[0].Message.Content)
	if content == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("response contained an empty completion")}
	}

	return &Reply{
		Content:      content,
		Model:        chatResp.Model,
		FinishReason: chatResp.Choices[0].FinishReason,
		Usage: Usage{
			PromptTokens:     chatResp.Usage.PromptTokens,
			CompletionTokens: chatResp.Usage.CompletionTokens,
			TotalTokens:      chatResp.Usage.TotalTokens,
		},
	}, nil
}
