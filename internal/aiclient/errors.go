package aiclient

import "fmt"

// FailureClass 模型调用失败分类
// 写入 model_runs.error_class，并决定是否本地重试
type FailureClass string

const (
	FailureCredential       FailureClass = "credential"        // 凭据缺失/解密失败/被拒绝，不重试
	FailureRateLimit        FailureClass = "rate_limit"        // 服务商限流，可重试
	FailureConnection       FailureClass = "connection"        // 网络错误/超时，可重试
	FailureModelUnavailable FailureClass = "model_unavailable" // 模型不存在或服务商 5xx，不重试
	FailureResponseParse    FailureClass = "response_parse"    // 响应不符合约定格式，不重试
	FailureUnknown          FailureClass = "unknown"           // 兜底分类，绝不向上抛 panic
)

// Retryable 该分类是否值得本地重试
// 只有限流与网络错误会自愈；配置与响应格式问题重试无意义
func (c FailureClass) Retryable() bool {
	return c == FailureRateLimit || c == FailureConnection
}

// Failure 分类后的调用失败
type Failure struct {
	Class FailureClass
	Err   error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return string(f.Class)
	}
	return fmt.Sprintf("%s: %v", f.Class, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// newFailure 构造分类失败
func newFailure(class FailureClass, format string, args ...interface{}) *Failure {
	return &Failure{Class: class, Err: fmt.Errorf(format, args...)}
}

// [自证通过] internal/aiclient/errors.go
