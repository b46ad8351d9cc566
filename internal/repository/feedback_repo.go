package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
)

// AssignmentFeedbackRow 导出用的聚合反馈行（关联提交与类目）
type AssignmentFeedbackRow struct {
	SubmissionID   string
	AuthorName     string
	AuthorEmail    string
	Version        int
	CategoryName   string
	CategoryWeight float64
	Score          float64
	Method         string
	Status         string
	CreatedAt      time.Time
}

// FeedbackRepository 聚合反馈数据访问接口
type FeedbackRepository interface {
	CreateBatch(ctx context.Context, feedback []model.AggregatedFeedback) error
	GetByID(ctx context.Context, id string) (*model.AggregatedFeedback, error)
	ListBySubmission(ctx context.Context, submissionID string) ([]model.AggregatedFeedback, error)
	ExistsForSubmission(ctx context.Context, submissionID string) (bool, error)
	UpdateStatus(ctx context.Context, id, status string) error
	ListByAssignment(ctx context.Context, assignmentID string) ([]AssignmentFeedbackRow, error)
}

type feedbackRepo struct {
	db *gorm.DB
}

// NewFeedbackRepo 创建 FeedbackRepository 实例
func NewFeedbackRepo(db *gorm.DB) FeedbackRepository {
	return &feedbackRepo{db: db}
}

func (r *feedbackRepo) CreateBatch(ctx context.Context, feedback []model.AggregatedFeedback) error {
	if len(feedback) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&feedback).Error
}

func (r *feedbackRepo) GetByID(ctx context.Context, id string) (*model.AggregatedFeedback, error) {
	var fb model.AggregatedFeedback
	err := r.db.WithContext(ctx).
		Where("feedback_id = ?", id).
		First(&fb).Error
	if err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *feedbackRepo) ListBySubmission(ctx context.Context, submissionID string) ([]model.AggregatedFeedback, error) {
	var feedback []model.AggregatedFeedback
	err := r.db.WithContext(ctx).
		Preload("Category").
		Where("submission_id = ?", submissionID).
		Order("created_at ASC").
		Find(&feedback).Error
	return feedback, err
}

func (r *feedbackRepo) ExistsForSubmission(ctx context.Context, submissionID string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).
		Model(&model.AggregatedFeedback{}).
		Where("submission_id = ?", submissionID).
		Count(&n).Error
	return n > 0, err
}

func (r *feedbackRepo) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).
		Model(&model.AggregatedFeedback{}).
		Where("feedback_id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

func (r *feedbackRepo) ListByAssignment(ctx context.Context, assignmentID string) ([]AssignmentFeedbackRow, error) {
	var rows []AssignmentFeedbackRow
	err := r.db.WithContext(ctx).
		Table("aggregated_feedback AS af").
		Select(`s.submission_id AS submission_id,
			u.name AS author_name,
			u.email AS author_email,
			s.version AS version,
			COALESCE(rc.name, '整体') AS category_name,
			COALESCE(rc.weight, 0) AS category_weight,
			af.aggregated_score AS score,
			af.method AS method,
			af.status AS status,
			af.created_at AS created_at`).
		Joins("JOIN submissions s ON s.submission_id = af.submission_id").
		Joins("JOIN users u ON u.user_id = s.author_id").
		Joins("LEFT JOIN rubric_categories rc ON rc.category_id = af.category_id").
		Where("s.assignment_id = ?", assignmentID).
		Order("u.name ASC, s.version ASC, category_weight DESC").
		Scan(&rows).Error
	return rows, err
}
