package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Lova-clover/DevHistory/internal/models"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id          TEXT PRIMARY KEY,
    email       TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);

CREATE TABLE IF NOT EXISTS commits (
    id              TEXT PRIMARY KEY,
    user_id         TEXT NOT NULL REFERENCES users(id),
    repo_full_name  TEXT NOT NULL DEFAULT '',
    sha             TEXT NOT NULL,
    message         TEXT NOT NULL DEFAULT '',
    committed_at    TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS problems (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL REFERENCES users(id),
    problem_id  INTEGER NOT NULL DEFAULT 0,
    title       TEXT NOT NULL DEFAULT '',
    level       INTEGER NOT NULL DEFAULT 0,
    tags        TEXT NOT NULL DEFAULT '[]',
    solved_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS notes (
    id          TEXT PRIMARY KEY,
    user_id     TEXT NOT NULL REFERENCES users(id),
    title       TEXT NOT NULL DEFAULT '',
    created_at  TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS weekly_summaries (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL REFERENCES users(id),
    week_start     TEXT NOT NULL,
    week_end       TEXT NOT NULL,
    commit_count   INTEGER NOT NULL DEFAULT 0,
    problem_count  INTEGER NOT NULL DEFAULT 0,
    note_count     INTEGER NOT NULL DEFAULT 0,
    summary_json   TEXT NOT NULL DEFAULT '{}',
    llm_summary    TEXT,
    created_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
    updated_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now')),
    UNIQUE (user_id, week_start, week_end)
);

CREATE TABLE IF NOT EXISTS generated_contents (
    id             TEXT PRIMARY KEY,
    user_id        TEXT NOT NULL REFERENCES users(id),
    content_type   TEXT NOT NULL,
    source_ref     TEXT NOT NULL DEFAULT '',
    title          TEXT NOT NULL DEFAULT '',
    content        TEXT NOT NULL DEFAULT '',
    status         TEXT NOT NULL DEFAULT 'pending'
                   CHECK (status IN ('pending', 'generating', 'completed', 'failed')),
    error_message  TEXT NOT NULL DEFAULT '',
    metadata       TEXT,
    created_at     TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);

CREATE TABLE IF NOT EXISTS style_profiles (
    user_id             TEXT PRIMARY KEY REFERENCES users(id),
    language            TEXT NOT NULL DEFAULT 'ko',
    tone                TEXT NOT NULL DEFAULT 'technical',
    report_structure    TEXT NOT NULL DEFAULT '[]',
    extra_instructions  TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_commits_user_time ON commits(user_id, committed_at);
CREATE INDEX IF NOT EXISTS idx_problems_user_time ON problems(user_id, solved_at);
CREATE INDEX IF NOT EXISTS idx_notes_user_time ON notes(user_id, created_at);
CREATE INDEX IF NOT EXISTS idx_generated_contents_source ON generated_contents(source_ref);
`

// SQLiteStore implements Store on an embedded sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements Store
var _ Store = (*SQLiteStore)(nil)

// Open opens (creating if needed) the sqlite database at path and applies
// the schema.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("running schema migration: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// rangeBounds widens [start, end] so that end covers its entire day.
func rangeBounds(start, end time.Time) (string, string) {
	dayStart := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	dayAfterEnd := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return dayStart.Format(time.RFC3339), dayAfterEnd.Format(time.RFC3339)
}

func (s *SQLiteStore) ListCommits(ctx context.Context, userID string, start, end time.Time) ([]models.Commit, error) {
	lo, hi := rangeBounds(start, end)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, repo_full_name, sha, message, committed_at
		 FROM commits WHERE user_id = ? AND committed_at >= ? AND committed_at < ?
		 ORDER BY committed_at ASC`, userID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("listing commits: %w", err)
	}
	defer rows.Close()

	var results []models.Commit
	for rows.Next() {
		var c models.Commit
		var committedAt string
		if err := rows.Scan(&c.ID, &c.UserID, &c.RepoFullName, &c.SHA, &c.Message, &committedAt); err != nil {
			return nil, fmt.Errorf("scanning commit: %w", err)
		}
		c.CommittedAt, _ = time.Parse(time.RFC3339, committedAt)
		results = append(results, c)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) ListProblems(ctx context.Context, userID string, start, end time.Time) ([]models.Problem, error) {
	lo, hi := rangeBounds(start, end)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, problem_id, title, level, tags, solved_at
		 FROM problems WHERE user_id = ? AND solved_at >= ? AND solved_at < ?
		 ORDER BY solved_at ASC`, userID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("listing problems: %w", err)
	}
	defer rows.Close()

	var results []models.Problem
	for rows.Next() {
		var p models.Problem
		var tags, solvedAt string
		if err := rows.Scan(&p.ID, &p.UserID, &p.ProblemID, &p.Title, &p.Level, &tags, &solvedAt); err != nil {
			return nil, fmt.Errorf("scanning problem: %w", err)
		}
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, fmt.Errorf("parsing tags of problem %s: %w", p.ID, err)
		}
		p.SolvedAt, _ = time.Parse(time.RFC3339, solvedAt)
		results = append(results, p)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) ListNotes(ctx context.Context, userID string, start, end time.Time) ([]models.Note, error) {
	lo, hi := rangeBounds(start, end)
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, created_at
		 FROM notes WHERE user_id = ? AND created_at >= ? AND created_at < ?
		 ORDER BY created_at ASC`, userID, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("listing notes: %w", err)
	}
	defer rows.Close()

	var results []models.Note
	for rows.Next() {
		var n models.Note
		var createdAt string
		if err := rows.Scan(&n.ID, &n.UserID, &n.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning note: %w", err)
		}
		n.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		results = append(results, n)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*models.User, error) {
	u := &models.User{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email FROM users WHERE id = ?`, id).Scan(&u.ID, &u.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting user: %w", err)
	}
	return u, nil
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, email FROM users ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	var results []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Email); err != nil {
			return nil, fmt.Errorf("scanning user: %w", err)
		}
		results = append(results, u)
	}
	return results, rows.Err()
}

func (s *SQLiteStore) GetStyleProfile(ctx context.Context, userID string) (*models.StyleProfile, error) {
	p := &models.StyleProfile{}
	var structure string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, language, tone, report_structure, extra_instructions
		 FROM style_profiles WHERE user_id = ?`, userID).
		Scan(&p.UserID, &p.Language, &p.Tone, &structure, &p.ExtraInstructions)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting style profile: %w", err)
	}
	if err := json.Unmarshal([]byte(structure), &p.ReportStructure); err != nil {
		return nil, fmt.Errorf("parsing report structure: %w", err)
	}
	return p, nil
}

const summaryColumns = `id, user_id, week_start, week_end, commit_count, problem_count, note_count, summary_json, llm_summary, created_at, updated_at`

func (s *SQLiteStore) scanSummary(row *sql.Row) (*models.WeeklySummary, error) {
	w := &models.WeeklySummary{}
	var weekStart, weekEnd, summaryJSON, createdAt, updatedAt string
	var llmSummary sql.NullString
	err := row.Scan(&w.ID, &w.UserID, &weekStart, &weekEnd,
		&w.CommitCount, &w.ProblemCount, &w.NoteCount,
		&summaryJSON, &llmSummary, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning weekly summary: %w", err)
	}
	w.WeekStart, _ = time.Parse(dateFormat, weekStart)
	w.WeekEnd, _ = time.Parse(dateFormat, weekEnd)
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	w.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)
	if llmSummary.Valid {
		w.LLMSummary = &llmSummary.String
	}
	w.Summary = &models.WeeklyAggregate{}
	if err := json.Unmarshal([]byte(summaryJSON), w.Summary); err != nil {
		return nil, fmt.Errorf("parsing summary_json of %s: %w", w.ID, err)
	}
	return w, nil
}

const dateFormat = "2006-01-02"

func (s *SQLiteStore) GetWeeklySummary(ctx context.Context, userID string, weekStart, weekEnd time.Time) (*models.WeeklySummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+summaryColumns+` FROM weekly_summaries
		 WHERE user_id = ? AND week_start = ? AND week_end = ?`,
		userID, weekStart.Format(dateFormat), weekEnd.Format(dateFormat))
	return s.scanSummary(row)
}

func (s *SQLiteStore) GetWeeklySummaryByID(ctx context.Context, id string) (*models.WeeklySummary, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+summaryColumns+` FROM weekly_summaries WHERE id = ?`, id)
	return s.scanSummary(row)
}

// UpsertWeeklySummary creates or overwrites the summary row for
// (user_id, week_start, week_end). Counts and the aggregate are replaced;
// llm_summary is left untouched on update. The statement is atomic.
func (s *SQLiteStore) UpsertWeeklySummary(ctx context.Context, summary *models.WeeklySummary) (*models.WeeklySummary, error) {
	summaryJSON, err := json.Marshal(summary.Summary)
	if err != nil {
		return nil, fmt.Errorf("marshaling summary_json: %w", err)
	}

	id := summary.ID
	if id == "" {
		id = uuid.NewString()
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO weekly_summaries (id, user_id, week_start, week_end, commit_count, problem_count, note_count, summary_json)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(user_id, week_start, week_end) DO UPDATE SET
		     commit_count = excluded.commit_count,
		     problem_count = excluded.problem_count,
		     note_count = excluded.note_count,
		     summary_json = excluded.summary_json,
		     updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now')`,
		id, summary.UserID,
		summary.WeekStart.Format(dateFormat), summary.WeekEnd.Format(dateFormat),
		summary.CommitCount, summary.ProblemCount, summary.NoteCount,
		string(summaryJSON))
	if err != nil {
		return nil, fmt.Errorf("upserting weekly summary: %w", err)
	}
	return s.GetWeeklySummary(ctx, summary.UserID, summary.WeekStart, summary.WeekEnd)
}

func (s *SQLiteStore) SetLLMSummary(ctx context.Context, id, text string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE weekly_summaries SET llm_summary = ?, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now') WHERE id = ?`,
		text, id)
	if err != nil {
		return fmt.Errorf("setting llm summary: %w", err)
	}
	return requireRow(res)
}

// ClearLLMSummary nulls out the generated text ahead of regeneration so a
// concurrent read never serves the previous report as current.
func (s *SQLiteStore) ClearLLMSummary(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE weekly_summaries SET llm_summary = NULL, updated_at = strftime('%Y-%m-%dT%H:%M:%SZ','now') WHERE id = ?`,
		id)
	if err != nil {
		return fmt.Errorf("clearing llm summary: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) WeeklyStats(ctx context.Context, userID string) (*models.WeeklyStats, error) {
	stats := &models.WeeklyStats{}
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(commit_count),0), COALESCE(SUM(problem_count),0), COALESCE(SUM(note_count),0)
		 FROM weekly_summaries WHERE user_id = ?`, userID).
		Scan(&stats.TotalSummaries, &stats.TotalCommits, &stats.TotalProblems, &stats.TotalNotes)
	if err != nil {
		return nil, fmt.Errorf("computing weekly stats: %w", err)
	}
	if stats.TotalSummaries == 0 {
		return stats, nil
	}
	stats.AverageCommitsPerWeek = float64(stats.TotalCommits) / float64(stats.TotalSummaries)

	err = s.db.QueryRowContext(ctx,
		`SELECT week_start FROM weekly_summaries WHERE user_id = ?
		 ORDER BY commit_count + problem_count + note_count DESC, week_start DESC LIMIT 1`, userID).
		Scan(&stats.MostProductiveWeek)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("finding most productive week: %w", err)
	}
	return stats, nil
}

func (s *SQLiteStore) CreateGeneratedContent(ctx context.Context, content *models.GeneratedContent) (*models.GeneratedContent, error) {
	id := content.ID
	if id == "" {
		id = uuid.NewString()
	}
	status := content.Status
	if status == "" {
		status = models.ContentPending
	}
	var metadata any
	if content.Metadata != nil {
		raw, err := json.Marshal(content.Metadata)
		if err != nil {
			return nil, fmt.Errorf("marshaling content metadata: %w", err)
		}
		metadata = string(raw)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO generated_contents (id, user_id, content_type, source_ref, title, content, status, metadata)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, content.UserID, content.ContentType, content.SourceRef,
		content.Title, content.Content, status, metadata)
	if err != nil {
		return nil, fmt.Errorf("creating generated content: %w", err)
	}
	return s.getGeneratedContent(ctx, id)
}

func (s *SQLiteStore) getGeneratedContent(ctx context.Context, id string) (*models.GeneratedContent, error) {
	c := &models.GeneratedContent{}
	var metadata sql.NullString
	var createdAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, content_type, source_ref, title, content, status, error_message, metadata, created_at
		 FROM generated_contents WHERE id = ?`, id).
		Scan(&c.ID, &c.UserID, &c.ContentType, &c.SourceRef, &c.Title, &c.Content,
			&c.Status, &c.ErrorMessage, &metadata, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting generated content: %w", err)
	}
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	if metadata.Valid {
		c.Metadata = &models.ContentMetadata{}
		if err := json.Unmarshal([]byte(metadata.String), c.Metadata); err != nil {
			return nil, fmt.Errorf("parsing content metadata: %w", err)
		}
	}
	return c, nil
}

func (s *SQLiteStore) UpdateGeneratedContentStatus(ctx context.Context, id, status, errorMessage string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE generated_contents SET status = ?, error_message = ? WHERE id = ?`,
		status, errorMessage, id)
	if err != nil {
		return fmt.Errorf("updating generated content status: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) CompleteGeneratedContent(ctx context.Context, id, text string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE generated_contents SET status = ?, content = ?, error_message = '' WHERE id = ?`,
		models.ContentCompleted, text, id)
	if err != nil {
		return fmt.Errorf("completing generated content: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
