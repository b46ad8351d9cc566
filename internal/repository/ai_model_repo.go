package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
)

// AIModelRepository AI 模型配置数据访问接口
type AIModelRepository interface {
	Create(ctx context.Context, cfg *model.AIModelConfig) error
	GetByID(ctx context.Context, id string) (*model.AIModelConfig, error)
	List(ctx context.Context) ([]model.AIModelConfig, error)
	Update(ctx context.Context, cfg *model.AIModelConfig) error
}

type aiModelRepo struct {
	db *gorm.DB
}

// NewAIModelRepo 创建 AIModelRepository 实例
func NewAIModelRepo(db *gorm.DB) AIModelRepository {
	return &aiModelRepo{db: db}
}

func (r *aiModelRepo) Create(ctx context.Context, cfg *model.AIModelConfig) error {
	return r.db.WithContext(ctx).Create(cfg).Error
}

func (r *aiModelRepo) GetByID(ctx context.Context, id string) (*model.AIModelConfig, error) {
	var cfg model.AIModelConfig
	err := r.db.WithContext(ctx).
		Where("model_id = ?", id).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *aiModelRepo) List(ctx context.Context) ([]model.AIModelConfig, error) {
	var cfgs []model.AIModelConfig
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&cfgs).Error
	return cfgs, err
}

func (r *aiModelRepo) Update(ctx context.Context, cfg *model.AIModelConfig) error {
	return r.db.WithContext(ctx).Save(cfg).Error
}
