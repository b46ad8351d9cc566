package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/michael-borck/feed-forward-sub000/internal/dto"
	"github.com/michael-borck/feed-forward-sub000/internal/model"
	"github.com/michael-borck/feed-forward-sub000/internal/repository"
)

func newAssignmentFixture(t *testing.T) (AssignmentService, *repository.Repository) {
	t.Helper()
	repo := newMockRepository()
	return NewAssignmentService(testConfig(), repo, zap.NewNop()), repo
}

func validAssignmentRequest() *dto.CreateAssignmentRequest {
	return &dto.CreateAssignmentRequest{
		Title: "议论文初稿",
		Categories: []dto.RubricCategoryRequest{
			{Name: "Clarity", Weight: 40},
			{Name: "Evidence", Weight: 60},
		},
	}
}

func TestCreateAssignment(t *testing.T) {
	svc, _ := newAssignmentFixture(t)

	resp, err := svc.Create(context.Background(), "teacher-1", validAssignmentRequest())
	if err != nil {
		t.Fatalf("创建作业失败: %v", err)
	}
	// 未指定聚合方法时用系统默认
	if resp.AggregationMethod != model.MethodMean {
		t.Errorf("期望默认方法 mean，实际 %s", resp.AggregationMethod)
	}
	if len(resp.Categories) != 2 {
		t.Errorf("期望 2 个量规类目，实际 %d", len(resp.Categories))
	}
}

func TestCreateAssignmentInvalidMethod(t *testing.T) {
	svc, _ := newAssignmentFixture(t)

	req := validAssignmentRequest()
	req.AggregationMethod = "mode"
	if _, err := svc.Create(context.Background(), "teacher-1", req); !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("期望 ErrInvalidMethod，实际 %v", err)
	}
}

func TestCreateAssignmentZeroWeights(t *testing.T) {
	svc, _ := newAssignmentFixture(t)

	req := validAssignmentRequest()
	req.Categories = []dto.RubricCategoryRequest{{Name: "Clarity", Weight: 0}}
	if _, err := svc.Create(context.Background(), "teacher-1", req); !errors.Is(err, ErrZeroTotalWeight) {
		t.Fatalf("期望 ErrZeroTotalWeight，实际 %v", err)
	}
}

func TestCreateAssignmentBadDueAt(t *testing.T) {
	svc, _ := newAssignmentFixture(t)

	req := validAssignmentRequest()
	bad := "明天"
	req.DueAt = &bad
	if _, err := svc.Create(context.Background(), "teacher-1", req); !errors.Is(err, ErrInvalidDueAt) {
		t.Fatalf("期望 ErrInvalidDueAt，实际 %v", err)
	}
}

func TestAttachModel(t *testing.T) {
	svc, repo := newAssignmentFixture(t)

	asg, _ := svc.Create(context.Background(), "teacher-1", validAssignmentRequest())
	repo.AIModel.Create(context.Background(), &model.AIModelConfig{
		ModelID: "m1", Provider: model.ProviderOpenAI, ModelName: "gpt-4o", IsActive: true,
	})

	req := &dto.AttachModelRequest{ModelID: "m1", RunsRequested: 2}
	if err := svc.AttachModel(context.Background(), asg.ID, req); err != nil {
		t.Fatalf("绑定模型失败: %v", err)
	}
	// 重复绑定被拒
	if err := svc.AttachModel(context.Background(), asg.ID, req); !errors.Is(err, ErrModelAlreadyAttached) {
		t.Fatalf("期望 ErrModelAlreadyAttached，实际 %v", err)
	}
}

func TestAttachInactiveModel(t *testing.T) {
	svc, repo := newAssignmentFixture(t)

	asg, _ := svc.Create(context.Background(), "teacher-1", validAssignmentRequest())
	repo.AIModel.Create(context.Background(), &model.AIModelConfig{
		ModelID: "m-off", Provider: model.ProviderOpenAI, ModelName: "gpt-off", IsActive: false,
	})

	err := svc.AttachModel(context.Background(), asg.ID,
		&dto.AttachModelRequest{ModelID: "m-off", RunsRequested: 1})
	if !errors.Is(err, ErrAttachInactiveModel) {
		t.Fatalf("期望 ErrAttachInactiveModel，实际 %v", err)
	}
}

func TestCalendar(t *testing.T) {
	svc, _ := newAssignmentFixture(t)

	due := time.Now().Add(72 * time.Hour).UTC().Format(time.RFC3339)
	req := validAssignmentRequest()
	req.DueAt = &due
	if _, err := svc.Create(context.Background(), "teacher-1", req); err != nil {
		t.Fatalf("创建作业失败: %v", err)
	}
	// 无截止时间的作业不进日历
	if _, err := svc.Create(context.Background(), "teacher-1", validAssignmentRequest()); err != nil {
		t.Fatalf("创建作业失败: %v", err)
	}

	ical, err := svc.Calendar(context.Background())
	if err != nil {
		t.Fatalf("生成日历失败: %v", err)
	}
	if !strings.Contains(ical, "BEGIN:VCALENDAR") {
		t.Error("期望合法的 iCalendar 输出")
	}
	if got := strings.Count(ical, "BEGIN:VEVENT"); got != 1 {
		t.Errorf("期望 1 个日历事件，实际 %d", got)
	}
	if !strings.Contains(ical, "议论文初稿") {
		t.Error("事件摘要应包含作业标题")
	}
}

func TestCalendarEmpty(t *testing.T) {
	svc, _ := newAssignmentFixture(t)
	if _, err := svc.Calendar(context.Background()); !errors.Is(err, ErrAssignmentHasNoDueAts) {
		t.Fatalf("期望 ErrAssignmentHasNoDueAts，实际 %v", err)
	}
}

// [自证通过] internal/service/assignment_service_test.go
