package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
)

// RunCounts 某个提交的调用统计
type RunCounts struct {
	Total     int
	Completed int
	Failed    int
}

// ModelRunRepository 模型调用记录数据访问接口
// ModelRun/CategoryScore/FeedbackItem 均为追加型写入，写入后不修改
type ModelRunRepository interface {
	Create(ctx context.Context, run *model.ModelRun) error
	CountBySubmission(ctx context.Context, submissionID string) (*RunCounts, error)
	CreateScores(ctx context.Context, scores []model.CategoryScore) error
	CreateFeedbackItems(ctx context.Context, items []model.FeedbackItem) error
	ListScoresByRuns(ctx context.Context, runIDs []string) ([]model.CategoryScore, error)
	ListFeedbackItemsByRuns(ctx context.Context, runIDs []string) ([]model.FeedbackItem, error)
}

type modelRunRepo struct {
	db *gorm.DB
}

// NewModelRunRepo 创建 ModelRunRepository 实例
func NewModelRunRepo(db *gorm.DB) ModelRunRepository {
	return &modelRunRepo{db: db}
}

func (r *modelRunRepo) Create(ctx context.Context, run *model.ModelRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *modelRunRepo) CountBySubmission(ctx context.Context, submissionID string) (*RunCounts, error) {
	type statusCount struct {
		Status string
		N      int
	}
	var rows []statusCount
	err := r.db.WithContext(ctx).
		Model(&model.ModelRun{}).
		Select("status, COUNT(*) AS n").
		Where("submission_id = ?", submissionID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := &RunCounts{}
	for _, row := range rows {
		counts.Total += row.N
		switch row.Status {
		case model.RunStatusComplete:
			counts.Completed += row.N
		case model.RunStatusError:
			counts.Failed += row.N
		}
	}
	return counts, nil
}

func (r *modelRunRepo) CreateScores(ctx context.Context, scores []model.CategoryScore) error {
	if len(scores) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&scores).Error
}

func (r *modelRunRepo) CreateFeedbackItems(ctx context.Context, items []model.FeedbackItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *modelRunRepo) ListScoresByRuns(ctx context.Context, runIDs []string) ([]model.CategoryScore, error) {
	if len(runIDs) == 0 {
		return nil, nil
	}
	var scores []model.CategoryScore
	err := r.db.WithContext(ctx).
		Where("run_id IN ?", runIDs).
		Find(&scores).Error
	return scores, err
}

func (r *modelRunRepo) ListFeedbackItemsByRuns(ctx context.Context, runIDs []string) ([]model.FeedbackItem, error) {
	if len(runIDs) == 0 {
		return nil, nil
	}
	var items []model.FeedbackItem
	err := r.db.WithContext(ctx).
		Where("run_id IN ?", runIDs).
		Find(&items).Error
	return items, err
}
