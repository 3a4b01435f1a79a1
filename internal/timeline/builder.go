package timeline

import (
	"context"
	"fmt"
	"time"

	"github.com/Lova-clover/DevHistory/internal/models"
	"github.com/Lova-clover/DevHistory/internal/store"
	"github.com/sirupsen/logrus"
)

// Builder assembles and persists weekly summaries.
type Builder struct {
	store store.Store
}

// NewBuilder creates a new weekly-summary builder.
func NewBuilder(s store.Store) *Builder {
	return &Builder{store: s}
}

// BuildResult confirms what a build wrote.
type BuildResult struct {
	SummaryID    string    `json:"summary_id"`
	UserID       string    `json:"user_id"`
	WeekStart    time.Time `json:"week_start"`
	WeekEnd      time.Time `json:"week_end"`
	CommitCount  int       `json:"commit_count"`
	ProblemCount int       `json:"problem_count"`
	NoteCount    int       `json:"note_count"`
}

// Build loads the week's activity for a user, aggregates it, and upserts the
// weekly summary row keyed by (user_id, week_start, week_end). Rebuilding
// with unchanged underlying data converges to the same stored state; the
// existing llm_summary is never touched here.
func (b *Builder) Build(ctx context.Context, userID string, weekStart time.Time) (*BuildResult, error) {
	if _, err := b.store.GetUser(ctx, userID); err != nil {
		return nil, fmt.Errorf("loading user %s: %w", userID, err)
	}

	weekEnd := WeekEnd(weekStart)

	commits, err := b.store.ListCommits(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("loading commits: %w", err)
	}
	problems, err := b.store.ListProblems(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("loading problems: %w", err)
	}
	notes, err := b.store.ListNotes(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, fmt.Errorf("loading notes: %w", err)
	}

	aggregate, err := Aggregate(commits, problems, notes)
	if err != nil {
		return nil, fmt.Errorf("aggregating week %s: %w", weekStart.Format(dayFormat), err)
	}

	saved, err := b.store.UpsertWeeklySummary(ctx, &models.WeeklySummary{
		UserID:       userID,
		WeekStart:    weekStart,
		WeekEnd:      weekEnd,
		CommitCount:  len(commits),
		ProblemCount: len(problems),
		NoteCount:    len(notes),
		Summary:      aggregate,
	})
	if err != nil {
		return nil, fmt.Errorf("saving weekly summary: %w", err)
	}

	logrus.Infof("Built weekly summary %s for user %s (%s ~ %s): %d commits, %d problems, %d notes",
		saved.ID, userID, weekStart.Format(dayFormat), weekEnd.Format(dayFormat),
		len(commits), len(problems), len(notes))

	return &BuildResult{
		SummaryID:    saved.ID,
		UserID:       userID,
		WeekStart:    weekStart,
		WeekEnd:      weekEnd,
		CommitCount:  len(commits),
		ProblemCount: len(problems),
		NoteCount:    len(notes),
	}, nil
}
