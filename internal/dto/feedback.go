package dto

// ── 聚合反馈模块 DTO ──

// AggregatedFeedbackResponse 单个类目的聚合反馈响应
type AggregatedFeedbackResponse struct {
	ID              string  `json:"id"`
	CategoryID      string  `json:"category_id,omitempty"` // 空 = 整体反馈行
	CategoryName    string  `json:"category_name,omitempty"`
	CategoryWeight  float64 `json:"category_weight,omitempty"`
	AggregatedScore float64 `json:"aggregated_score"`
	FeedbackText    string  `json:"feedback_text"`
	Method          string  `json:"method"`
	Status          string  `json:"status"`
	CreatedAt       string  `json:"created_at"`
}

// SubmissionFeedbackResponse 提交的完整反馈响应
// OverallScore 为按类目权重加权的总分（权重已归一化到 100）
type SubmissionFeedbackResponse struct {
	SubmissionID string                       `json:"submission_id"`
	OverallScore float64                      `json:"overall_score"`
	Categories   []AggregatedFeedbackResponse `json:"categories"`
}
