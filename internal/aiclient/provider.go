package aiclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Invocation 一次模型调用的输入
type Invocation struct {
	ModelName  string
	Credential string // 已解密的 API Key；ollama 等本地服务商可为空
	Config     ProviderConfig
	Prompt     string
}

// ProviderAdapter 服务商适配器
//
// 每个服务商一个变体，注册到 Registry；新增服务商只加一个变体，
// 不在客户端里散落 if provider == "xxx" 分支。
// Invoke 返回模型输出的原始文本；错误统一为分类后的 *Failure。
type ProviderAdapter interface {
	Name() string
	Invoke(ctx context.Context, inv Invocation) (string, *Failure)
}

// Registry 按服务商标识索引的适配器注册表
type Registry struct {
	adapters map[string]ProviderAdapter
}

// NewRegistry 创建注册表并挂载内置服务商适配器
func NewRegistry(httpClient *http.Client) *Registry {
	r := &Registry{adapters: make(map[string]ProviderAdapter)}
	r.Register(&openAIAdapter{client: httpClient})
	r.Register(&anthropicAdapter{client: httpClient})
	r.Register(&ollamaAdapter{client: httpClient})
	return r
}

// Register 挂载适配器（后注册覆盖先注册）
func (r *Registry) Register(a ProviderAdapter) {
	r.adapters[a.Name()] = a
}

// Get 按服务商标识获取适配器
func (r *Registry) Get(provider string) (ProviderAdapter, bool) {
	a, ok := r.adapters[provider]
	return a, ok
}

// ── 错误分类 ──

// classifyTransportError 传输层错误分类：超时/取消/网络问题都算 Connection
func classifyTransportError(err error) *Failure {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return newFailure(FailureConnection, "调用超时: %v", err)
	}
	return newFailure(FailureConnection, "网络错误: %v", err)
}

// classifyStatusCode HTTP 状态码分类
func classifyStatusCode(provider string, status int, body string) *Failure {
	const maxBody = 300
	if len(body) > maxBody {
		body = body[:maxBody]
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return newFailure(FailureCredential, "%s 拒绝凭据 (HTTP %d)", provider, status)
	case status == http.StatusTooManyRequests:
		return newFailure(FailureRateLimit, "%s 限流 (HTTP %d)", provider, status)
	case status == http.StatusNotFound:
		return newFailure(FailureModelUnavailable, "%s 模型不存在 (HTTP %d): %s", provider, status, body)
	case status >= 500:
		return newFailure(FailureModelUnavailable, "%s 服务不可用 (HTTP %d): %s", provider, status, body)
	default:
		return newFailure(FailureUnknown, "%s 返回非预期状态 (HTTP %d): %s", provider, status, body)
	}
}

// configFor 取出指定类型的服务商配置；类型不匹配说明调用方注入错了
func configFor[T ProviderConfig](inv Invocation, provider string) (T, *Failure) {
	cfg, ok := inv.Config.(T)
	if !ok {
		var zero T
		return zero, newFailure(FailureUnknown, "%s 适配器收到错误的配置类型 %T", provider, inv.Config)
	}
	return cfg, nil
}

var errEmptyResponse = fmt.Errorf("服务商返回空响应")
