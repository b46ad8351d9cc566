package aiclient

import (
	"fmt"
	"strings"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
)

// ── 服务商专属配置 ──
//
// ai_model_configs.config 是 JSONB 字段，每种服务商一种显式结构，
// 创建模型配置时校验，而不是等到调用时才发现配置坏了。

// ProviderConfig 服务商配置的标记接口
type ProviderConfig interface {
	// Validate 校验配置字段合法性
	Validate() error
}

// OpenAIConfig openai 服务商配置
type OpenAIConfig struct {
	BaseURL     string  // 缺省 https://api.openai.com/v1
	Temperature float64 // 0-2
}

func (c *OpenAIConfig) Validate() error {
	if c.Temperature < 0 || c.Temperature > 2 {
		return fmt.Errorf("temperature 必须在 0-2 之间，实际 %v", c.Temperature)
	}
	return validateBaseURL(c.BaseURL)
}

// AnthropicConfig anthropic 服务商配置
type AnthropicConfig struct {
	BaseURL   string // 缺省 https://api.anthropic.com
	MaxTokens int    // 缺省 4096
}

func (c *AnthropicConfig) Validate() error {
	if c.MaxTokens < 0 || c.MaxTokens > 64000 {
		return fmt.Errorf("max_tokens 必须在 0-64000 之间，实际 %d", c.MaxTokens)
	}
	return validateBaseURL(c.BaseURL)
}

// OllamaConfig ollama 本地服务商配置
type OllamaConfig struct {
	BaseURL string // 缺省 http://localhost:11434
}

func (c *OllamaConfig) Validate() error {
	return validateBaseURL(c.BaseURL)
}

func validateBaseURL(u string) error {
	if u == "" {
		return nil
	}
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		return fmt.Errorf("base_url 必须以 http:// 或 https:// 开头，实际 %q", u)
	}
	return nil
}

// ParseProviderConfig 将 JSONB 配置解析为服务商专属结构并校验
func ParseProviderConfig(provider string, raw map[string]interface{}) (ProviderConfig, error) {
	var cfg ProviderConfig
	switch provider {
	case model.ProviderOpenAI:
		cfg = &OpenAIConfig{
			BaseURL:     stringField(raw, "base_url"),
			Temperature: floatField(raw, "temperature"),
		}
	case model.ProviderAnthropic:
		cfg = &AnthropicConfig{
			BaseURL:   stringField(raw, "base_url"),
			MaxTokens: int(floatField(raw, "max_tokens")),
		}
	case model.ProviderOllama:
		cfg = &OllamaConfig{
			BaseURL: stringField(raw, "base_url"),
		}
	default:
		return nil, fmt.Errorf("不支持的服务商 %q", provider)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("服务商 %s 配置无效: %w", provider, err)
	}
	return cfg, nil
}

func stringField(raw map[string]interface{}, key string) string {
	if raw == nil {
		return ""
	}
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}

func floatField(raw map[string]interface{}, key string) float64 {
	if raw == nil {
		return 0
	}
	switch v := raw[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 0
}
