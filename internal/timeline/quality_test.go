package timeline

import (
	"testing"

	"github.com/Lova-clover/DevHistory/internal/models"
	"github.com/stretchr/testify/assert"
)

// spreadDays builds a by_day map with one event on each of n distinct days.
func spreadDays(n int) map[string]models.DayActivity {
	byDay := make(map[string]models.DayActivity)
	days := []string{"2024-01-01", "2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05", "2024-01-06", "2024-01-07"}
	for i := 0; i < n; i++ {
		byDay[days[i]] = models.DayActivity{Commits: 1}
	}
	return byDay
}

func TestAssessSignalQuality_CommitThresholds(t *testing.T) {
	tests := []struct {
		name        string
		commitCount int
		expected    models.Level
	}{
		{"zero commits", 0, models.LevelNone},
		{"one commit", 1, models.LevelMedium},
		{"four commits", 4, models.LevelMedium},
		{"five commits", 5, models.LevelHigh},
		{"many commits", 40, models.LevelHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quality := AssessSignalQuality(tt.commitCount, 0, 0, spreadDays(3), nil)
			assert.Equal(t, tt.expected, quality.Commits.Level)
			assert.NotEmpty(t, quality.Commits.Reason)
		})
	}
}

func TestAssessSignalQuality_ProblemThresholds(t *testing.T) {
	tagged := map[string]int{"dp": 10}

	tests := []struct {
		name          string
		problemCount  int
		problemsByTag map[string]int
		expected      models.Level
	}{
		{"zero problems", 0, tagged, models.LevelNone},
		{"one problem", 1, tagged, models.LevelLow},
		{"two problems", 2, tagged, models.LevelLow},
		{"three problems but no tag spread", 3, nil, models.LevelLow},
		{"three problems with tags", 3, tagged, models.LevelMedium},
		{"seven problems with tags", 7, tagged, models.LevelMedium},
		// Capped at medium: solved_at may be sync time, never high.
		{"ten problems with tags", 10, tagged, models.LevelMedium},
		{"hundred problems with tags", 100, tagged, models.LevelMedium},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quality := AssessSignalQuality(0, tt.problemCount, 0, spreadDays(3), tt.problemsByTag)
			assert.Equal(t, tt.expected, quality.Problems.Level)
		})
	}
}

func TestAssessSignalQuality_ProblemCapReasonMentionsSyncTime(t *testing.T) {
	quality := AssessSignalQuality(0, 10, 0, spreadDays(3), map[string]int{"dp": 10})
	assert.Equal(t, models.LevelMedium, quality.Problems.Level)
	assert.Contains(t, quality.Problems.Reason, "sync-derived")
}

func TestAssessSignalQuality_NoteThresholds(t *testing.T) {
	tests := []struct {
		name      string
		noteCount int
		expected  models.Level
	}{
		{"zero notes", 0, models.LevelNone},
		{"one note", 1, models.LevelLow},
		{"two notes", 2, models.LevelLow},
		{"three notes", 3, models.LevelMedium},
		{"five notes", 5, models.LevelMedium},
		{"six notes", 6, models.LevelHigh},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quality := AssessSignalQuality(0, 0, tt.noteCount, spreadDays(3), nil)
			assert.Equal(t, tt.expected, quality.Notes.Level)
		})
	}
}

func TestAssessSignalQuality_GlobalGuidance(t *testing.T) {
	tagged := map[string]int{"dp": 5}

	t.Run("single active day forces concentrated guidance", func(t *testing.T) {
		// High counts everywhere still lose to the active-day check.
		quality := AssessSignalQuality(20, 10, 10, spreadDays(1), tagged)
		assert.Equal(t, guidanceConcentrated, quality.GlobalGuidance)
	})

	t.Run("no active days forces concentrated guidance", func(t *testing.T) {
		quality := AssessSignalQuality(0, 0, 0, nil, nil)
		assert.Equal(t, guidanceConcentrated, quality.GlobalGuidance)
	})

	t.Run("weak problems and notes lean on commits", func(t *testing.T) {
		quality := AssessSignalQuality(10, 1, 0, spreadDays(4), tagged)
		assert.Equal(t, guidanceLeanCommits, quality.GlobalGuidance)
	})

	t.Run("balanced otherwise", func(t *testing.T) {
		quality := AssessSignalQuality(10, 5, 4, spreadDays(4), tagged)
		assert.Equal(t, guidanceBalanced, quality.GlobalGuidance)
	})
}

func TestAssessSignalQuality_Deterministic(t *testing.T) {
	byDay := spreadDays(3)
	tags := map[string]int{"dp": 4, "graph": 2}

	first := AssessSignalQuality(4, 4, 4, byDay, tags)
	second := AssessSignalQuality(4, 4, 4, byDay, tags)
	assert.Equal(t, first, second)
}
