package store

import (
	"context"
	"errors"
	"time"

	"github.com/Lova-clover/DevHistory/internal/models"
)

// ErrNotFound is returned when a referenced entity does not exist.
var ErrNotFound = errors.New("not found")

// Store defines the contract for the activity and summary store.
// Date-range queries are inclusive: end covers the entire final day.
type Store interface {
	ListCommits(ctx context.Context, userID string, start, end time.Time) ([]models.Commit, error)
	ListProblems(ctx context.Context, userID string, start, end time.Time) ([]models.Problem, error)
	ListNotes(ctx context.Context, userID string, start, end time.Time) ([]models.Note, error)

	GetUser(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	GetStyleProfile(ctx context.Context, userID string) (*models.StyleProfile, error)

	GetWeeklySummary(ctx context.Context, userID string, weekStart, weekEnd time.Time) (*models.WeeklySummary, error)
	GetWeeklySummaryByID(ctx context.Context, id string) (*models.WeeklySummary, error)
	UpsertWeeklySummary(ctx context.Context, summary *models.WeeklySummary) (*models.WeeklySummary, error)
	SetLLMSummary(ctx context.Context, id, text string) error
	ClearLLMSummary(ctx context.Context, id string) error
	WeeklyStats(ctx context.Context, userID string) (*models.WeeklyStats, error)

	CreateGeneratedContent(ctx context.Context, content *models.GeneratedContent) (*models.GeneratedContent, error)
	UpdateGeneratedContentStatus(ctx context.Context, id, status, errorMessage string) error
	CompleteGeneratedContent(ctx context.Context, id, text string) error
}
