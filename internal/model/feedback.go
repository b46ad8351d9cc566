package model

// 聚合反馈状态
const (
	FeedbackStatusPendingReview = "pending_review"
	FeedbackStatusApproved      = "approved"
	FeedbackStatusReleased      = "released"
)

// AggregatedFeedback 聚合反馈表 — 对应 aggregated_feedback
//
// 每次编排每个有得分的类目写一行；存在整体评语时额外写一行
// category_id 为 NULL 的整体反馈行，其得分为加权总分。
// 零成功调用的提交不产生任何行。写入后仅教师审核流程
//（approve/release）可以改状态。
type AggregatedFeedback struct {
	FeedbackID      string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"feedback_id"`
	SubmissionID    string  `gorm:"type:uuid;not null;index"                       json:"submission_id"`
	CategoryID      *string `gorm:"type:uuid"                                      json:"category_id,omitempty"`
	AggregatedScore float64 `gorm:"type:numeric(5,2);not null"                     json:"aggregated_score"`
	FeedbackText    string  `gorm:"type:text;not null"                             json:"feedback_text"`
	Method          string  `gorm:"type:varchar(20);not null"                      json:"method"`
	Status          string  `gorm:"type:varchar(20);not null;default:'pending_review'" json:"status"` // pending_review | approved | released
	TimestampModel

	// 关联
	Category *RubricCategory `gorm:"foreignKey:CategoryID;references:CategoryID" json:"category,omitempty"`
}

func (AggregatedFeedback) TableName() string { return "aggregated_feedback" }
