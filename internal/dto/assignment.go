package dto

// ── 作业模块 DTO ──

// RubricCategoryRequest 量规类目定义
type RubricCategoryRequest struct {
	Name        string  `json:"name"        binding:"required,max=100"`
	Weight      float64 `json:"weight"      binding:"required,gte=0,lte=100"`
	Description string  `json:"description" binding:"max=2000"`
}

// CreateAssignmentRequest 创建作业请求（附量规类目）
type CreateAssignmentRequest struct {
	Title             string                  `json:"title"              binding:"required,max=255"`
	Description       string                  `json:"description"`
	DueAt             *string                 `json:"due_at"`             // RFC3339，可空
	RequiresReview    bool                    `json:"requires_review"`
	AggregationMethod string                  `json:"aggregation_method"` // 缺省用系统默认
	Categories        []RubricCategoryRequest `json:"categories"         binding:"required,min=1,dive"`
}

// AttachModelRequest 为作业绑定评审模型
type AttachModelRequest struct {
	ModelID       string `json:"model_id"       binding:"required,uuid"`
	RunsRequested int    `json:"runs_requested" binding:"required,min=1,max=10"`
}

// RubricCategoryResponse 量规类目响应
type RubricCategoryResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description,omitempty"`
}

// AssignmentResponse 作业信息响应
type AssignmentResponse struct {
	ID                string                   `json:"id"`
	Title             string                   `json:"title"`
	Description       string                   `json:"description,omitempty"`
	DueAt             string                   `json:"due_at,omitempty"`
	RequiresReview    bool                     `json:"requires_review"`
	AggregationMethod string                   `json:"aggregation_method"`
	Categories        []RubricCategoryResponse `json:"categories,omitempty"`
	CreatedAt         string                   `json:"created_at"`
}
