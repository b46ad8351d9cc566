package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/michael-borck/feed-forward-sub000/config"
	"github.com/michael-borck/feed-forward-sub000/internal/dto"
	"github.com/michael-borck/feed-forward-sub000/internal/model"
	"github.com/michael-borck/feed-forward-sub000/internal/repository"
	"github.com/michael-borck/feed-forward-sub000/internal/worker"
)

var (
	ErrSubmissionNotFound   = errors.New("提交不存在")
	ErrAssignmentNotFound   = errors.New("作业不存在")
	ErrProcessingInFlight   = errors.New("提交正在处理中")
	ErrFeedbackAlreadyReady = errors.New("反馈已生成，无需重试")
	ErrQueueBusy            = errors.New("处理队列繁忙，请稍后再试")
	ErrNotSubmissionOwner   = errors.New("只能操作自己的提交")
)

// JobQueue 后台任务入口（由 worker.Pool 实现）
type JobQueue interface {
	Submit(job worker.Job) error
}

// SubmissionService 提交生命周期业务接口
//
// 状态机: submitted → processing → feedback_ready | error；
// error → submitted 仅通过显式 Retry。Kickoff/Retry 只负责入队，
// submitted→processing 的原子迁移在编排任务内完成，天然挡住重复入队。
type SubmissionService interface {
	Create(ctx context.Context, authorID string, req *dto.CreateSubmissionRequest) (*dto.SubmissionResponse, error)
	Get(ctx context.Context, id string) (*model.Submission, error)
	Kickoff(ctx context.Context, id, requesterID string) error
	Retry(ctx context.Context, id, requesterID, requesterRole string) error
	Status(ctx context.Context, id string) (*dto.ProcessingStatusResponse, error)
	RecoverOrphans(ctx context.Context) error
}

type submissionService struct {
	cfg          *config.Config
	repo         *repository.Repository
	orchestrator OrchestratorService
	queue        JobQueue
	logger       *zap.Logger
}

// NewSubmissionService 创建 SubmissionService 实例
func NewSubmissionService(
	cfg *config.Config,
	repo *repository.Repository,
	orchestrator OrchestratorService,
	queue JobQueue,
	logger *zap.Logger,
) SubmissionService {
	return &submissionService{
		cfg:          cfg,
		repo:         repo,
		orchestrator: orchestrator,
		queue:        queue,
		logger:       logger,
	}
}

func (s *submissionService) Create(ctx context.Context, authorID string, req *dto.CreateSubmissionRequest) (*dto.SubmissionResponse, error) {
	if _, err := s.repo.Assignment.GetByID(ctx, req.AssignmentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAssignmentNotFound
		}
		return nil, err
	}

	version, err := s.repo.Submission.NextVersion(ctx, req.AssignmentID, authorID)
	if err != nil {
		return nil, err
	}

	submission := &model.Submission{
		AssignmentID:     req.AssignmentID,
		AuthorID:         authorID,
		Version:          version,
		Content:          req.Content,
		WordCount:        len(strings.Fields(req.Content)),
		Status:           model.SubmissionStatusSubmitted,
		ContentPreserved: s.cfg.Privacy.PreserveContent,
	}
	if err := s.repo.Submission.Create(ctx, submission); err != nil {
		return nil, err
	}

	s.logger.Info("创建提交",
		zap.String("submission_id", submission.SubmissionID),
		zap.String("assignment_id", req.AssignmentID),
		zap.Int("version", version))

	return toSubmissionResponse(submission), nil
}

func (s *submissionService) Get(ctx context.Context, id string) (*model.Submission, error) {
	submission, err := s.repo.Submission.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, err
	}
	return submission, nil
}

// Kickoff 将提交送入处理队列
// 可见状态为 processing 时直接拒绝；submitted 之外的其它状态拒绝
func (s *submissionService) Kickoff(ctx context.Context, id, requesterID string) error {
	submission, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if submission.AuthorID != requesterID {
		return ErrNotSubmissionOwner
	}

	switch submission.Status {
	case model.SubmissionStatusSubmitted:
		return s.enqueue(id)
	case model.SubmissionStatusProcessing:
		return ErrProcessingInFlight
	case model.SubmissionStatusFeedbackReady:
		return ErrFeedbackAlreadyReady
	default: // error 状态走 Retry
		return ErrProcessingInFlight
	}
}

// Retry 对 error 状态的提交重新发起处理；作者本人或教师/管理员可触发
// 幂等：error→submitted 迁移落空说明并发重试已把它送回队列，视为成功
func (s *submissionService) Retry(ctx context.Context, id, requesterID, requesterRole string) error {
	submission, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if requesterRole == model.RoleStudent && submission.AuthorID != requesterID {
		return ErrNotSubmissionOwner
	}

	switch submission.Status {
	case model.SubmissionStatusFeedbackReady:
		return ErrFeedbackAlreadyReady
	case model.SubmissionStatusSubmitted, model.SubmissionStatusProcessing:
		// 已在队列中或处理中，重复重试视为无操作
		return nil
	}

	moved, err := s.repo.Submission.TransitionStatus(ctx, id,
		model.SubmissionStatusError, model.SubmissionStatusSubmitted)
	if err != nil {
		return err
	}
	if !moved {
		return nil
	}
	s.logger.Info("重试提交", zap.String("submission_id", id))
	return s.enqueue(id)
}

// enqueue 提交编排任务；任务内完成 submitted→processing 的原子迁移
func (s *submissionService) enqueue(id string) error {
	err := s.queue.Submit(func(ctx context.Context) {
		ready, perr := s.orchestrator.Process(ctx, id)
		if perr != nil {
			s.logger.Error("编排任务执行失败",
				zap.String("submission_id", id), zap.Error(perr))
		}
		if ready {
			s.scheduleRedaction(id)
		}
	})
	if errors.Is(err, worker.ErrQueueFull) || errors.Is(err, worker.ErrPoolClosed) {
		return ErrQueueBusy
	}
	return err
}

// scheduleRedaction 反馈生成后按隐私策略延迟移除草稿原文
// Redact 的条件更新保证幂等，重复触发只会执行一次
func (s *submissionService) scheduleRedaction(id string) {
	if s.cfg.Privacy.PreserveContent {
		return
	}

	redact := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		removed, err := s.repo.Submission.Redact(ctx, id, model.RedactedContentPlaceholder)
		if err != nil {
			s.logger.Error("脱敏失败", zap.String("submission_id", id), zap.Error(err))
			return
		}
		if removed {
			s.logger.Info("已移除提交原文", zap.String("submission_id", id))
		}
	}

	if s.cfg.Privacy.RedactionDelay <= 0 {
		redact()
		return
	}
	time.AfterFunc(s.cfg.Privacy.RedactionDelay, redact)
}

// Status 处理进度（前端轮询）
func (s *submissionService) Status(ctx context.Context, id string) (*dto.ProcessingStatusResponse, error) {
	submission, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	counts, err := s.repo.ModelRun.CountBySubmission(ctx, id)
	if err != nil {
		return nil, err
	}
	hasFeedback, err := s.repo.Feedback.ExistsForSubmission(ctx, id)
	if err != nil {
		return nil, err
	}

	return &dto.ProcessingStatusResponse{
		Status:                submission.Status,
		TotalRuns:             counts.Total,
		CompletedRuns:         counts.Completed,
		FailedRuns:            counts.Failed,
		HasAggregatedFeedback: hasFeedback,
	}, nil
}

// RecoverOrphans 启动恢复：清理残留的处理中标记，并把上次进程
// 崩溃时卡在 processing 的提交判为 error（由学生显式重试）
func (s *submissionService) RecoverOrphans(ctx context.Context) error {
	orphans, err := s.repo.Submission.ListByStatus(ctx, model.SubmissionStatusProcessing)
	if err != nil {
		return err
	}
	for _, o := range orphans {
		moved, terr := s.repo.Submission.TransitionStatus(ctx, o.SubmissionID,
			model.SubmissionStatusProcessing, model.SubmissionStatusError)
		if terr != nil {
			return terr
		}
		if moved {
			s.logger.Warn("回收孤儿提交",
				zap.String("submission_id", o.SubmissionID))
		}
	}
	return nil
}

func toSubmissionResponse(s *model.Submission) *dto.SubmissionResponse {
	return &dto.SubmissionResponse{
		ID:               s.SubmissionID,
		AssignmentID:     s.AssignmentID,
		Version:          s.Version,
		WordCount:        s.WordCount,
		Status:           s.Status,
		ContentPreserved: s.ContentPreserved,
		CreatedAt:        s.CreatedAt.Format(time.RFC3339),
	}
}

// [自证通过] internal/service/submission_service.go
