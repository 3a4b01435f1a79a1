package timeline

import "github.com/Lova-clover/DevHistory/internal/models"

// Per-level reason strings. These are fixed so that generated prompts stay
// reproducible for a given week of data.
const (
	commitReasonNone   = "No commit events were captured in this week."
	commitReasonMedium = "Commit volume is low; trend interpretation is limited."
	commitReasonHigh   = "Commit volume is sufficient for weekly trend statements."

	problemReasonNone   = "No solved problem entries were captured."
	problemReasonLow    = "Sparse problem data and/or missing tag spread. Also, solved_at may reflect sync timing."
	problemReasonMedium = "Usable signal, but date-level pace claims may still be noisy."
	problemReasonCapped = "Volume is solid, but solved_at can still be sync-derived; avoid over-precise temporal claims."

	noteReasonNone   = "No notes were captured this week."
	noteReasonLow    = "Very few notes; use as anecdotal signal only."
	noteReasonMedium = "Moderate note volume; inference should stay conservative."
	noteReasonHigh   = "Sufficient note volume for recurring pattern discussion."

	guidanceConcentrated = "Activity is concentrated in very few days. Avoid broad productivity claims."
	guidanceLeanCommits  = "Lean more on commits and clearly mark weak evidence areas."
	guidanceBalanced     = "Balance repo activity with study signals, and label uncertainty explicitly."
)

// AssessSignalQuality scores each data stream's reliability from raw counts
// and the structural richness of the aggregate (tag spread, active days).
// It is deterministic and performs no I/O.
//
// The problem stream is deliberately capped at medium: solved_at may record
// sync time rather than the true solve time, so no problem volume justifies
// high-confidence temporal claims.
func AssessSignalQuality(commitCount, problemCount, noteCount int, byDay map[string]models.DayActivity, problemsByTag map[string]int) models.SignalQuality {
	activeDays := 0
	for _, day := range byDay {
		if day.Commits+day.Problems+day.Notes > 0 {
			activeDays++
		}
	}

	var quality models.SignalQuality

	// Commits: usually the most reliable signal in this system.
	switch {
	case commitCount == 0:
		quality.Commits = models.StreamQuality{Level: models.LevelNone, Reason: commitReasonNone}
	case commitCount < 5:
		quality.Commits = models.StreamQuality{Level: models.LevelMedium, Reason: commitReasonMedium}
	default:
		quality.Commits = models.StreamQuality{Level: models.LevelHigh, Reason: commitReasonHigh}
	}

	switch {
	case problemCount == 0:
		quality.Problems = models.StreamQuality{Level: models.LevelNone, Reason: problemReasonNone}
	case problemCount <= 2 || len(problemsByTag) == 0:
		quality.Problems = models.StreamQuality{Level: models.LevelLow, Reason: problemReasonLow}
	case problemCount < 8:
		quality.Problems = models.StreamQuality{Level: models.LevelMedium, Reason: problemReasonMedium}
	default:
		quality.Problems = models.StreamQuality{Level: models.LevelMedium, Reason: problemReasonCapped}
	}

	// Notes: often sparse, so require enough volume for strong conclusions.
	switch {
	case noteCount == 0:
		quality.Notes = models.StreamQuality{Level: models.LevelNone, Reason: noteReasonNone}
	case noteCount <= 2:
		quality.Notes = models.StreamQuality{Level: models.LevelLow, Reason: noteReasonLow}
	case noteCount < 6:
		quality.Notes = models.StreamQuality{Level: models.LevelMedium, Reason: noteReasonMedium}
	default:
		quality.Notes = models.StreamQuality{Level: models.LevelHigh, Reason: noteReasonHigh}
	}

	switch {
	case activeDays <= 1:
		quality.GlobalGuidance = guidanceConcentrated
	case weakLevel(quality.Problems.Level) && weakLevel(quality.Notes.Level):
		quality.GlobalGuidance = guidanceLeanCommits
	default:
		quality.GlobalGuidance = guidanceBalanced
	}

	return quality
}

func weakLevel(level models.Level) bool {
	return level == models.LevelNone || level == models.LevelLow
}
