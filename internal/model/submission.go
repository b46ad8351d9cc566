package model

import "time"

// 提交状态机: submitted → processing → feedback_ready | error；error → submitted（仅显式重试）
const (
	SubmissionStatusSubmitted     = "submitted"
	SubmissionStatusProcessing    = "processing"
	SubmissionStatusFeedbackReady = "feedback_ready"
	SubmissionStatusError         = "error"
)

// RedactedContentPlaceholder 脱敏后替换原文的占位符
const RedactedContentPlaceholder = "[内容已按隐私策略移除]"

// Submission 提交（草稿）表 — 对应 submissions
//
// status 是"是否正在处理"的唯一权威来源；content 在反馈完成后按隐私策略
// 不可逆替换为占位符（除非 content_preserved 为 true），仅保留 word_count
// 与移除时间。
type Submission struct {
	SubmissionID     string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"submission_id"`
	AssignmentID     string     `gorm:"type:uuid;not null;index"                       json:"assignment_id"`
	AuthorID         string     `gorm:"type:uuid;not null"                             json:"author_id"`
	Version          int        `gorm:"not null;default:1"                             json:"version"`
	Content          string     `gorm:"type:text;not null"                             json:"content"`
	WordCount        int        `gorm:"not null;default:0"                             json:"word_count"`
	Status           string     `gorm:"type:varchar(20);not null;default:'submitted';index" json:"status"`
	ContentPreserved bool       `gorm:"not null;default:false"                         json:"content_preserved"`
	ContentRemovedAt *time.Time `json:"content_removed_at,omitempty"`
	TimestampModel

	// 关联
	Assignment *Assignment `gorm:"foreignKey:AssignmentID;references:AssignmentID" json:"assignment,omitempty"`
}

func (Submission) TableName() string { return "submissions" }
