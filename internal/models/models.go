package models

import "time"

// Commit is a single GitHub commit synced for a user.
type Commit struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	RepoFullName string    `json:"repo_full_name"` // "owner/name", empty when the repo could not be resolved
	SHA          string    `json:"sha"`
	Message      string    `json:"message,omitempty"`
	CommittedAt  time.Time `json:"committed_at"`
}

// Problem is a solved.ac problem solve event.
// SolvedAt may reflect sync time rather than the true solve time; the
// signal-quality model compensates for that downstream.
type Problem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProblemID int       `json:"problem_id"`
	Title     string    `json:"title,omitempty"`
	Level     int       `json:"level,omitempty"`
	Tags      []string  `json:"tags"` // ['graph','dp'], may be empty
	SolvedAt  time.Time `json:"solved_at"`
}

// Note is a study note or blog draft entry.
type Note struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DayActivity holds per-day event counts inside a weekly aggregate.
type DayActivity struct {
	Commits  int `json:"commits"`
	Problems int `json:"problems"`
	Notes    int `json:"notes"`
}

// WeeklyAggregate is the derived daily/tag/repo breakdown of one week.
// by_day is sparse: only dates with at least one event appear.
// problems_by_tag fans out (a problem with 3 tags contributes 3 increments),
// so its values can sum to more than the problem count.
type WeeklyAggregate struct {
	ByDay         map[string]DayActivity `json:"by_day"`
	ProblemsByTag map[string]int         `json:"problems_by_tag"`
	CommitsByRepo map[string]int         `json:"commits_by_repo"`
}

// Level is a per-stream confidence label.
type Level string

const (
	LevelNone   Level = "none"
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// StreamQuality is the confidence assessment for one data stream.
type StreamQuality struct {
	Level  Level  `json:"level"`
	Reason string `json:"reason"`
}

// SignalQuality is the full heuristic assessment used to keep generated
// reports from overstating sparse or unreliable evidence.
type SignalQuality struct {
	Commits        StreamQuality `json:"commits"`
	Problems       StreamQuality `json:"problems"`
	Notes          StreamQuality `json:"notes"`
	GlobalGuidance string        `json:"global_guidance"`
}

// WeeklySummary is the persisted aggregate for one user and one week.
// At most one row exists per (user_id, week_start, week_end).
type WeeklySummary struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	WeekStart    time.Time        `json:"week_start"` // Monday
	WeekEnd      time.Time        `json:"week_end"`   // Sunday, week_start+6d
	CommitCount  int              `json:"commit_count"`
	ProblemCount int              `json:"problem_count"`
	NoteCount    int              `json:"note_count"`
	Summary      *WeeklyAggregate `json:"summary_json"`
	LLMSummary   *string          `json:"llm_summary,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// Status reports the summary's generation state for API consumers.
func (w *WeeklySummary) Status() string {
	if w.LLMSummary != nil && *w.LLMSummary != "" {
		return "completed"
	}
	return "pending"
}

// Generated content statuses.
const (
	ContentPending    = "pending"
	ContentGenerating = "generating"
	ContentCompleted  = "completed"
	ContentFailed     = "failed"
)

// ContentMetadata carries the recognized optional extras on generated content.
type ContentMetadata struct {
	Context         string `json:"context,omitempty"`
	DateRangeStart  string `json:"date_range_start,omitempty"`
	DateRangeEnd    string `json:"date_range_end,omitempty"`
	UseStyleProfile bool   `json:"use_style_profile,omitempty"`
}

// GeneratedContent is one LLM generation result. Rows are append-only:
// regeneration creates a new row instead of overwriting an old one.
type GeneratedContent struct {
	ID           string           `json:"id"`
	UserID       string           `json:"user_id"`
	ContentType  string           `json:"content_type"` // 'weekly_report', 'repo_blog', ...
	SourceRef    string           `json:"source_ref"`   // 'weekly:<summary id>'
	Title        string           `json:"title,omitempty"`
	Content      string           `json:"content"`
	Status       string           `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
	Metadata     *ContentMetadata `json:"metadata,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
}

// StyleProfile supplies language/tone/section-order preferences for
// generated text.
type StyleProfile struct {
	UserID            string   `json:"user_id"`
	Language          string   `json:"language"` // 'ko', 'en'
	Tone              string   `json:"tone"`     // 'technical', 'casual', 'study-note'
	ReportStructure   []string `json:"report_structure"`
	ExtraInstructions string   `json:"extra_instructions,omitempty"`
}

// DefaultStyleProfile returns the profile used when a user has not
// configured one.
func DefaultStyleProfile(userID string) *StyleProfile {
	return &StyleProfile{
		UserID:          userID,
		Language:        "ko",
		Tone:            "technical",
		ReportStructure: []string{"Summary", "What I did", "Learned", "Next"},
	}
}

// User is the minimal user shape the pipeline needs.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
}

// WeeklyStats is the rollup served to the stats overview endpoint.
type WeeklyStats struct {
	TotalSummaries        int     `json:"total_summaries"`
	TotalCommits          int     `json:"total_commits"`
	TotalProblems         int     `json:"total_problems"`
	TotalNotes            int     `json:"total_notes"`
	AverageCommitsPerWeek float64 `json:"average_commits_per_week"`
	MostProductiveWeek    string  `json:"most_productive_week,omitempty"`
}
