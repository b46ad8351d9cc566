package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
)

// SubmissionRepository 提交数据访问接口
//
// TransitionStatus 以条件更新实现状态机迁移的原子性：
// 只有当前状态与 from 一致时才迁移，返回是否迁移成功。
type SubmissionRepository interface {
	Create(ctx context.Context, submission *model.Submission) error
	GetByID(ctx context.Context, id string) (*model.Submission, error)
	NextVersion(ctx context.Context, assignmentID, authorID string) (int, error)
	TransitionStatus(ctx context.Context, id, from, to string) (bool, error)
	ListByStatus(ctx context.Context, status string) ([]model.Submission, error)
	Redact(ctx context.Context, id string, placeholder string) (bool, error)
}

type submissionRepo struct {
	db *gorm.DB
}

// NewSubmissionRepo 创建 SubmissionRepository 实例
func NewSubmissionRepo(db *gorm.DB) SubmissionRepository {
	return &submissionRepo{db: db}
}

func (r *submissionRepo) Create(ctx context.Context, submission *model.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepo) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var submission model.Submission
	err := r.db.WithContext(ctx).
		Where("submission_id = ?", id).
		First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

// NextVersion 同一作者对同一作业的下一个草稿版本号（从 1 开始）
func (r *submissionRepo) NextVersion(ctx context.Context, assignmentID, authorID string) (int, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("assignment_id = ? AND author_id = ?", assignmentID, authorID).
		Count(&n).Error
	if err != nil {
		return 0, err
	}
	return int(n) + 1, nil
}

func (r *submissionRepo) TransitionStatus(ctx context.Context, id, from, to string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("submission_id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{
			"status":     to,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *submissionRepo) ListByStatus(ctx context.Context, status string) ([]model.Submission, error) {
	var submissions []model.Submission
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Find(&submissions).Error
	return submissions, err
}

// Redact 不可逆替换提交内容，仅保留字数与移除时间
// content_removed_at 非空时不再更新（幂等），返回本次是否实际执行了脱敏
func (r *submissionRepo) Redact(ctx context.Context, id string, placeholder string) (bool, error) {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("submission_id = ? AND content_preserved = FALSE AND content_removed_at IS NULL", id).
		Updates(map[string]interface{}{
			"content":            placeholder,
			"content_removed_at": now,
			"updated_at":         now,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
