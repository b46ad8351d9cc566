package aiclient

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
)

// RunRecorder 模型调用记录持久化接口
// 由 repository.ModelRunRepository 实现；成功失败都要落库
type RunRecorder interface {
	Create(ctx context.Context, run *model.ModelRun) error
	CreateScores(ctx context.Context, scores []model.CategoryScore) error
	CreateFeedbackItems(ctx context.Context, items []model.FeedbackItem) error
}

// Options 客户端调用参数
type Options struct {
	RequestTimeout time.Duration // 单次调用超时
	RetryAttempts  int           // 总尝试次数（含首次）
	RetryBackoff   time.Duration // 退避基准，按次数指数递增
}

// Request 一次模型评审请求
type Request struct {
	SubmissionID string
	RunNumber    int
	Model        *model.AIModelConfig
	Categories   []model.RubricCategory
	Content      string
}

// Result 一次模型评审结果
// Failure 为 nil 表示成功；无论成败 RunID 对应的调用记录都已落库
type Result struct {
	RunID      string
	Evaluation *Evaluation
	Failure    *Failure
}

// Client AI 模型调用客户端
//
// 负责单次模型调用的全流程：构造提示词、瞬时解密凭据、经适配器发起
// HTTP 调用（瞬时错误带退避重试）、解析响应、写入调用记录。
// 任何失败都收敛为分类后的 Failure，绝不 panic 到编排层。
type Client struct {
	registry *Registry
	cipher   *CredentialCipher
	runs     RunRecorder
	opts     Options
	logger   *zap.Logger
}

// NewClient 创建模型调用客户端
func NewClient(registry *Registry, cipher *CredentialCipher, runs RunRecorder, opts Options, logger *zap.Logger) *Client {
	if opts.RetryAttempts < 1 {
		opts.RetryAttempts = 1
	}
	return &Client{registry: registry, cipher: cipher, runs: runs, opts: opts, logger: logger}
}

// Evaluate 执行一次模型评审并落库
//
// 返回的 Result.Failure 非空时 Evaluation 为空；调用记录（model_runs）
// 在两种情况下都会写入。落库用脱离取消信号的 context：整体截止时间
// 到了也不能丢审计记录。
func (c *Client) Evaluate(ctx context.Context, req Request) *Result {
	result := &Result{RunID: uuid.NewString()}

	// 兜底：单个模型的任何异常都不能拖垮整批编排
	defer func() {
		if r := recover(); r != nil {
			result.Evaluation = nil
			result.Failure = newFailure(FailureUnknown, "模型调用发生 panic: %v", r)
			c.logger.Error("模型调用 panic",
				zap.String("submission_id", req.SubmissionID),
				zap.String("model_id", req.Model.ModelID),
				zap.Any("panic", r))
		}
	}()

	prompt := BuildPrompt(req.Categories, req.Content)
	raw, eval, fail := c.invoke(ctx, req, prompt)
	result.Evaluation = eval
	result.Failure = fail

	c.record(ctx, req, result, prompt, raw)
	return result
}

// invoke 凭据解密 → 配置解析 → 带重试的适配器调用 → 响应解析
func (c *Client) invoke(ctx context.Context, req Request, prompt string) (string, *Evaluation, *Failure) {
	adapter, ok := c.registry.Get(req.Model.Provider)
	if !ok {
		return "", nil, newFailure(FailureModelUnavailable, "没有服务商 %q 的适配器", req.Model.Provider)
	}

	cfg, err := ParseProviderConfig(req.Model.Provider, req.Model.Config)
	if err != nil {
		return "", nil, newFailure(FailureModelUnavailable, "模型配置无效: %v", err)
	}

	// 凭据问题在发起 HTTP 之前就判定，不浪费网络往返
	credential, cfail := c.resolveCredential(req.Model)
	if cfail != nil {
		return "", nil, cfail
	}

	inv := Invocation{
		ModelName:  req.Model.ModelName,
		Credential: credential,
		Config:     cfg,
		Prompt:     prompt,
	}

	var fail *Failure
	for attempt := 1; attempt <= c.opts.RetryAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, c.opts.RequestTimeout)
		raw, f := adapter.Invoke(attemptCtx, inv)
		cancel()

		if f == nil {
			eval, pfail := ParseEvaluation(raw, req.Categories, req.Model.Confidence)
			if pfail != nil {
				// 响应格式问题重试无意义，原文留给审计
				return raw, nil, pfail
			}
			return raw, eval, nil
		}

		fail = f
		if !f.Class.Retryable() || attempt == c.opts.RetryAttempts {
			break
		}
		// 指数退避；整体截止时间到了就不再等
		backoff := c.opts.RetryBackoff << (attempt - 1)
		c.logger.Warn("模型调用失败，退避后重试",
			zap.String("submission_id", req.SubmissionID),
			zap.String("model_id", req.Model.ModelID),
			zap.String("class", string(f.Class)),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff))
		select {
		case <-ctx.Done():
			return "", nil, newFailure(FailureConnection, "整体截止时间已到: %v", ctx.Err())
		case <-time.After(backoff):
		}
	}
	return "", nil, fail
}

// resolveCredential 瞬时解密 API 凭据；明文只存在于返回值，不进日志
func (c *Client) resolveCredential(m *model.AIModelConfig) (string, *Failure) {
	if m.EncryptedCredential == "" {
		// 本地服务商可以无凭据运行
		if m.Provider == model.ProviderOllama {
			return "", nil
		}
		return "", newFailure(FailureCredential, "模型 %s 未配置凭据", m.ModelID)
	}
	credential, err := c.cipher.Decrypt(m.EncryptedCredential)
	if err != nil {
		return "", newFailure(FailureCredential, "模型 %s 凭据解密失败: %v", m.ModelID, err)
	}
	return credential, nil
}

// record 写入调用记录；成功时连带写得分与定性反馈
func (c *Client) record(ctx context.Context, req Request, result *Result, prompt, raw string) {
	// 编排层的截止时间或取消不影响审计落库
	bg := context.WithoutCancel(ctx)

	run := &model.ModelRun{
		RunID:        result.RunID,
		SubmissionID: req.SubmissionID,
		ModelID:      req.Model.ModelID,
		RunNumber:    req.RunNumber,
		Prompt:       prompt,
		RawResponse:  raw,
		Status:       model.RunStatusComplete,
	}
	if result.Failure != nil {
		run.Status = model.RunStatusError
		class := string(result.Failure.Class)
		run.ErrorClass = &class
	}

	if err := c.runs.Create(bg, run); err != nil {
		c.logger.Error("写入调用记录失败",
			zap.String("submission_id", req.SubmissionID),
			zap.String("run_id", result.RunID),
			zap.Error(err))
		return
	}

	if result.Evaluation == nil {
		return
	}

	scores := make([]model.CategoryScore, 0, len(result.Evaluation.Scores))
	for _, s := range result.Evaluation.Scores {
		scores = append(scores, model.CategoryScore{
			RunID:      result.RunID,
			CategoryID: s.CategoryID,
			Score:      s.Score,
			Confidence: s.Confidence,
		})
	}
	if err := c.runs.CreateScores(bg, scores); err != nil {
		c.logger.Error("写入类目得分失败",
			zap.String("run_id", result.RunID), zap.Error(err))
	}

	items := buildFeedbackItems(result.RunID, result.Evaluation)
	if err := c.runs.CreateFeedbackItems(bg, items); err != nil {
		c.logger.Error("写入定性反馈失败",
			zap.String("run_id", result.RunID), zap.Error(err))
	}
}

// buildFeedbackItems 将解析结果展开为反馈条目行
func buildFeedbackItems(runID string, eval *Evaluation) []model.FeedbackItem {
	items := make([]model.FeedbackItem, 0, len(eval.Strengths)+len(eval.Improvements)+1)
	for _, it := range eval.Strengths {
		items = append(items, model.FeedbackItem{
			RunID: runID, CategoryID: it.CategoryID,
			Polarity: model.PolarityStrength, Text: it.Text,
		})
	}
	for _, it := range eval.Improvements {
		items = append(items, model.FeedbackItem{
			RunID: runID, CategoryID: it.CategoryID,
			Polarity: model.PolarityImprovement, Text: it.Text,
		})
	}
	if eval.General != "" {
		items = append(items, model.FeedbackItem{
			RunID: runID, Polarity: model.PolarityGeneral, Text: eval.General,
		})
	}
	return items
}

// [自证通过] internal/aiclient/aiclient.go
