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

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerateRequest struct {
	SystemInstruction *geminiContent  `json:"systemInstruction,omitempty"`
	Contents          []geminiContent `json:"contents"`
	GenerationConfig  struct {
		Temperature     float64 `json:"temperature"`
		MaxOutputTokens int     `json:"maxOutputTokens"`
	} `json:"generationConfig"`
}

type geminiGenerateResponse struct {
	Candidates []struct {
		Content      geminiContent `json:"content"`
		FinishReason string        `json:"finishReason"`
	} `json:"candidates"`
	UsageMetadata struct {
		PromptTokenCount     int `json:"promptTokenCount"`
		CandidatesTokenCount int `json:"candidatesTokenCount"`
		TotalTokenCount      int `json:"totalTokenCount"`
	} `json:"usageMetadata"`
	ModelVersion string `json:"modelVersion"`
	Error        *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Status  string `json:"status"`
	} `json:"error,omitempty"`
}

// Gemini calls the generateContent endpoint. The wire shape differs from
// OpenAI's: the system prompt travels as systemInstruction and assistant
// turns use the "model" role.
type Gemini struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewGemini creates the Gemini provider.
func NewGemini(apiKey, model string, log *zap.Logger) *Gemini {
	return &Gemini{
		apiKey:     apiKey,
		model:      model,
		baseURL:    defaultGeminiBaseURL,
		httpClient: newHTTPClient(),
		log:        log,
	}
}

// WithBaseURL overrides the API endpoint. Used by tests.
func (p *Gemini) WithBaseURL(baseURL string) *Gemini {
	p.baseURL = strings.TrimRight(baseURL, "/")
	return p
}

func (p *Gemini) Name() string {
	return ProviderGemini
}

func (p *Gemini) GenerateReply(ctx context.Context, messages []Message) (*Reply, error) {
	var genReq geminiGenerateRequest
	genReq.GenerationConfig.Temperature = samplingTemperature
	genReq.GenerationConfig.MaxOutputTokens = maxCompletionTokens

	for _, m := range messages {
		switch m.Role {
		case "system":
			genReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: m.Content}}}
		case "assistant":
			genReq.Contents = append(genReq.Contents, geminiContent{Role: "model", Parts: []geminiPart{{Text: m.Content}}})
		default:
			genReq.Contents = append(genReq.Contents, geminiContent{Role: "user", Parts: []geminiPart{{Text: m.Content}}})
		}
	}

	body, err := json.Marshal(genReq)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		p.log.Error("gemini request failed", zap.Error(err))
		return nil, &ProviderError{Provider: p.Name(), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("failed to read response: %w", err)}
	}

	var genResp geminiGenerateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("invalid response body: %w", err)}
	}

	if genResp.Error != nil {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("%s: %s", genResp.Error.Status, genResp.Error.Message)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	// The response must carry at least one candidate with non-empty text.
	if len(genResp.Candidates) == 0 || len(genResp.Candidates[0].Content.Parts) == 0 {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("response contained no candidates")}
	}
	var sb strings.Builder
	for _, part := range genResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	content := strings.TrimSpace(sb.String())
	if content == "" {
		return nil, &ProviderError{Provider: p.Name(), Err: fmt.Errorf("response contained an empty completion")}
	}

	model := genResp.ModelVersion
	if model == "" {
		model = p.model
	}

	return &Reply{
		Content:      content,
		Model:        model,
		FinishReason: genResp.Candidates[0].FinishReason,
		Usage: Usage{
			PromptTokens:     genResp.UsageMetadata.PromptTokenCount,
			CompletionTokens: genResp.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      genResp.UsageMetadata.TotalTokenCount,
		},
	}, nil
}
