package timeline

import (
	"fmt"

	"github.com/Lova-clover/DevHistory/internal/models"
)

const dayFormat = "2006-01-02"

// Aggregate folds one week of commits, problems and notes into the
// daily/tag/repo breakdown stored on a weekly summary. Input order does not
// matter and the inputs are not modified; the function is safe to call
// concurrently with different inputs.
//
// A record with a zero timestamp is a contract violation by the upstream
// collectors. Rather than silently bucketing it under the zero date, the
// record is reported as an error naming the offending stream.
func Aggregate(commits []models.Commit, problems []models.Problem, notes []models.Note) (*models.WeeklyAggregate, error) {
	agg := &models.WeeklyAggregate{
		ByDay:         make(map[string]models.DayActivity),
		ProblemsByTag: make(map[string]int),
		CommitsByRepo: make(map[string]int),
	}

	for _, commit := range commits {
		if commit.CommittedAt.IsZero() {
			return nil, fmt.Errorf("commit %s has no committed_at timestamp", commit.SHA)
		}
		day := agg.ByDay[commit.CommittedAt.Format(dayFormat)]
		day.Commits++
		agg.ByDay[commit.CommittedAt.Format(dayFormat)] = day

		repoName := commit.RepoFullName
		if repoName == "" {
			repoName = "Unknown"
		}
		agg.CommitsByRepo[repoName]++
	}

	for _, problem := range problems {
		if problem.SolvedAt.IsZero() {
			return nil, fmt.Errorf("problem %d has no solved_at timestamp", problem.ProblemID)
		}
		day := agg.ByDay[problem.SolvedAt.Format(dayFormat)]
		day.Problems++
		agg.ByDay[problem.SolvedAt.Format(dayFormat)] = day

		// Tag fan-out: a problem with N tags increments N tag counters, so
		// problems_by_tag is not a partition of the problem count.
		for _, tag := range problem.Tags {
			agg.ProblemsByTag[tag]++
		}
	}

	for _, note := range notes {
		if note.CreatedAt.IsZero() {
			return nil, fmt.Errorf("note %s has no created_at timestamp", note.ID)
		}
		day := agg.ByDay[note.CreatedAt.Format(dayFormat)]
		day.Notes++
		agg.ByDay[note.CreatedAt.Format(dayFormat)] = day
	}

	return agg, nil
}
