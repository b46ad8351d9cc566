package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
)

// AssignmentRepository 作业/量规/模型绑定数据访问接口
//
// RubricProvider 与 ModelRegistry 两个协作方都由这里落地：
// GetCategories 提供带权重的量规类目，GetModels 提供 (模型, 次数) 配置。
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *model.Assignment) error
	GetByID(ctx context.Context, id string) (*model.Assignment, error)
	List(ctx context.Context) ([]model.Assignment, error)
	GetCategories(ctx context.Context, assignmentID string) ([]model.RubricCategory, error)
	GetModels(ctx context.Context, assignmentID string) ([]model.AssignmentModel, error)
	AttachModel(ctx context.Context, am *model.AssignmentModel) error
}

type assignmentRepo struct {
	db *gorm.DB
}

// NewAssignmentRepo 创建 AssignmentRepository 实例
func NewAssignmentRepo(db *gorm.DB) AssignmentRepository {
	return &assignmentRepo{db: db}
}

func (r *assignmentRepo) Create(ctx context.Context, assignment *model.Assignment) error {
	// Categories 关联由 GORM 级联插入
	return r.db.WithContext(ctx).Create(assignment).Error
}

func (r *assignmentRepo) GetByID(ctx context.Context, id string) (*model.Assignment, error) {
	var assignment model.Assignment
	err := r.db.WithContext(ctx).
		Preload("Categories").
		Where("assignment_id = ?", id).
		First(&assignment).Error
	if err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepo) List(ctx context.Context) ([]model.Assignment, error) {
	var assignments []model.Assignment
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&assignments).Error
	return assignments, err
}

func (r *assignmentRepo) GetCategories(ctx context.Context, assignmentID string) ([]model.RubricCategory, error) {
	var categories []model.RubricCategory
	err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("weight DESC, name ASC").
		Find(&categories).Error
	return categories, err
}

func (r *assignmentRepo) GetModels(ctx context.Context, assignmentID string) ([]model.AssignmentModel, error) {
	var models []model.AssignmentModel
	err := r.db.WithContext(ctx).
		Preload("Model").
		Where("assignment_id = ?", assignmentID).
		Find(&models).Error
	return models, err
}

func (r *assignmentRepo) AttachModel(ctx context.Context, am *model.AssignmentModel) error {
	return r.db.WithContext(ctx).Create(am).Error
}
