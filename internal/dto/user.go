package dto

// ── 用户模块 DTO ──

// AssignRoleRequest 分配角色请求（仅管理员）
type AssignRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=student instructor admin"`
}

// ResetPasswordResponse 重置密码响应
type ResetPasswordResponse struct {
	TempPassword string `json:"temp_password"`
}
