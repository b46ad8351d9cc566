package dto

// ── 提交模块 DTO ──

// CreateSubmissionRequest 创建草稿请求
type CreateSubmissionRequest struct {
	AssignmentID string `json:"assignment_id" binding:"required,uuid"`
	Content      string `json:"content"       binding:"required"`
}

// SubmissionResponse 提交信息响应
type SubmissionResponse struct {
	ID               string `json:"id"`
	AssignmentID     string `json:"assignment_id"`
	Version          int    `json:"version"`
	WordCount        int    `json:"word_count"`
	Status           string `json:"status"`
	ContentPreserved bool   `json:"content_preserved"`
	CreatedAt        string `json:"created_at"`
}

// ProcessingStatusResponse 处理进度响应（前端轮询用）
type ProcessingStatusResponse struct {
	Status                string `json:"status"`
	TotalRuns             int    `json:"total_runs"`
	CompletedRuns         int    `json:"completed_runs"`
	FailedRuns            int    `json:"failed_runs"`
	HasAggregatedFeedback bool   `json:"has_aggregated_feedback"`
}
