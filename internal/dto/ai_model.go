package dto

// ── AI 模型配置模块 DTO ──

// CreateAIModelRequest 创建模型配置请求
// Config 的字段结构随 provider 不同，创建时按类型校验
type CreateAIModelRequest struct {
	Provider   string                 `json:"provider"   binding:"required,oneof=openai anthropic ollama"`
	ModelName  string                 `json:"model_name" binding:"required,max=100"`
	Config     map[string]interface{} `json:"config"`
	Credential string                 `json:"credential" binding:"required"` // 明文仅在请求中出现，入库前加密
	Confidence *float64               `json:"confidence" binding:"omitempty,gte=0,lte=1"`
}

// UpdateAIModelRequest 更新模型配置请求（仅支持启停与置信度）
type UpdateAIModelRequest struct {
	IsActive   *bool    `json:"is_active"`
	Confidence *float64 `json:"confidence" binding:"omitempty,gte=0,lte=1"`
}

// AIModelResponse 模型配置响应（不含任何凭据信息）
type AIModelResponse struct {
	ID         string                 `json:"id"`
	Provider   string                 `json:"provider"`
	ModelName  string                 `json:"model_name"`
	Config     map[string]interface{} `json:"config,omitempty"`
	Confidence float64                `json:"confidence"`
	IsActive   bool                   `json:"is_active"`
	CreatedAt  string                 `json:"created_at"`
}
