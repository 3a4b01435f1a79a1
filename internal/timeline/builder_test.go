package timeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Lova-clover/DevHistory/internal/models"
	"github.com/Lova-clover/DevHistory/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockStore is a mock implementation of the store interface
type MockStore struct {
	mock.Mock
}

func (m *MockStore) ListCommits(ctx context.Context, userID string, start, end time.Time) ([]models.Commit, error) {
	args := m.Called(ctx, userID, start, end)
	return args.Get(0).([]models.Commit), args.Error(1)
}

func (m *MockStore) ListProblems(ctx context.Context, userID string, start, end time.Time) ([]models.Problem, error) {
	args := m.Called(ctx, userID, start, end)
	return args.Get(0).([]models.Problem), args.Error(1)
}

func (m *MockStore) ListNotes(ctx context.Context, userID string, start, end time.Time) ([]models.Note, error) {
	args := m.Called(ctx, userID, start, end)
	return args.Get(0).([]models.Note), args.Error(1)
}

func (m *MockStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockStore) ListUsers(ctx context.Context) ([]models.User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]models.User), args.Error(1)
}

func (m *MockStore) GetStyleProfile(ctx context.Context, userID string) (*models.StyleProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.StyleProfile), args.Error(1)
}

func (m *MockStore) GetWeeklySummary(ctx context.Context, userID string, weekStart, weekEnd time.Time) (*models.WeeklySummary, error) {
	args := m.Called(ctx, userID, weekStart, weekEnd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WeeklySummary), args.Error(1)
}

func (m *MockStore) GetWeeklySummaryByID(ctx context.Context, id string) (*models.WeeklySummary, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WeeklySummary), args.Error(1)
}

func (m *MockStore) UpsertWeeklySummary(ctx context.Context, summary *models.WeeklySummary) (*models.WeeklySummary, error) {
	args := m.Called(ctx, summary)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WeeklySummary), args.Error(1)
}

func (m *MockStore) SetLLMSummary(ctx context.Context, id, text string) error {
	args := m.Called(ctx, id, text)
	return args.Error(0)
}

func (m *MockStore) ClearLLMSummary(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) WeeklyStats(ctx context.Context, userID string) (*models.WeeklyStats, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.WeeklyStats), args.Error(1)
}

func (m *MockStore) CreateGeneratedContent(ctx context.Context, content *models.GeneratedContent) (*models.GeneratedContent, error) {
	args := m.Called(ctx, content)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GeneratedContent), args.Error(1)
}

func (m *MockStore) UpdateGeneratedContentStatus(ctx context.Context, id, status, errorMessage string) error {
	args := m.Called(ctx, id, status, errorMessage)
	return args.Error(0)
}

func (m *MockStore) CompleteGeneratedContent(ctx context.Context, id, text string) error {
	args := m.Called(ctx, id, text)
	return args.Error(0)
}

func TestBuilder_Build(t *testing.T) {
	ctx := context.Background()
	weekStart := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	weekEnd := time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC)

	commits := []models.Commit{
		{SHA: "c1", RepoFullName: "x/y", CommittedAt: weekStart.Add(10 * time.Hour)},
		{SHA: "c2", RepoFullName: "x/y", CommittedAt: weekStart.AddDate(0, 0, 2).Add(11 * time.Hour)},
	}
	problems := []models.Problem{
		{ProblemID: 1, Tags: []string{"dp"}, SolvedAt: weekStart.Add(20 * time.Hour)},
	}
	notes := []models.Note{}

	mockStore := &MockStore{}
	mockStore.On("GetUser", ctx, "user-1").Return(&models.User{ID: "user-1"}, nil)
	mockStore.On("ListCommits", ctx, "user-1", weekStart, weekEnd).Return(commits, nil)
	mockStore.On("ListProblems", ctx, "user-1", weekStart, weekEnd).Return(problems, nil)
	mockStore.On("ListNotes", ctx, "user-1", weekStart, weekEnd).Return(notes, nil)
	mockStore.On("UpsertWeeklySummary", ctx, mock.MatchedBy(func(s *models.WeeklySummary) bool {
		return s.UserID == "user-1" &&
			s.WeekStart.Equal(weekStart) && s.WeekEnd.Equal(weekEnd) &&
			s.CommitCount == 2 && s.ProblemCount == 1 && s.NoteCount == 0 &&
			s.Summary != nil && s.Summary.CommitsByRepo["x/y"] == 2
	})).Return(&models.WeeklySummary{ID: "sum-1", UserID: "user-1", WeekStart: weekStart, WeekEnd: weekEnd}, nil)

	builder := NewBuilder(mockStore)
	result, err := builder.Build(ctx, "user-1", weekStart)
	require.NoError(t, err)

	assert.Equal(t, "sum-1", result.SummaryID)
	assert.Equal(t, 2, result.CommitCount)
	assert.Equal(t, 1, result.ProblemCount)
	assert.Equal(t, 0, result.NoteCount)
	assert.Equal(t, weekEnd, result.WeekEnd)
	mockStore.AssertExpectations(t)
}

func TestBuilder_Build_UserNotFound(t *testing.T) {
	ctx := context.Background()
	mockStore := &MockStore{}
	mockStore.On("GetUser", ctx, "ghost").Return(nil, store.ErrNotFound)

	builder := NewBuilder(mockStore)
	_, err := builder.Build(ctx, "ghost", time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC))
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrNotFound)
	mockStore.AssertNotCalled(t, "UpsertWeeklySummary", mock.Anything, mock.Anything)
}

func TestBuilder_Build_StoreFailureAbortsBeforeWrite(t *testing.T) {
	ctx := context.Background()
	weekStart := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)
	storeDown := errors.New("store unavailable")

	mockStore := &MockStore{}
	mockStore.On("GetUser", ctx, "user-1").Return(&models.User{ID: "user-1"}, nil)
	mockStore.On("ListCommits", ctx, "user-1", mock.Anything, mock.Anything).Return([]models.Commit(nil), storeDown)

	builder := NewBuilder(mockStore)
	_, err := builder.Build(ctx, "user-1", weekStart)
	require.Error(t, err)
	assert.ErrorIs(t, err, storeDown)
	mockStore.AssertNotCalled(t, "UpsertWeeklySummary", mock.Anything, mock.Anything)
}

func TestBuilder_Build_RejectsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	weekStart := time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC)

	mockStore := &MockStore{}
	mockStore.On("GetUser", ctx, "user-1").Return(&models.User{ID: "user-1"}, nil)
	mockStore.On("ListCommits", ctx, "user-1", mock.Anything, mock.Anything).
		Return([]models.Commit{{SHA: "broken"}}, nil)
	mockStore.On("ListProblems", ctx, "user-1", mock.Anything, mock.Anything).Return([]models.Problem{}, nil)
	mockStore.On("ListNotes", ctx, "user-1", mock.Anything, mock.Anything).Return([]models.Note{}, nil)

	builder := NewBuilder(mockStore)
	_, err := builder.Build(ctx, "user-1", weekStart)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "committed_at")
	mockStore.AssertNotCalled(t, "UpsertWeeklySummary", mock.Anything, mock.Anything)
}
