package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Lova-clover/DevHistory/internal/models"
	"github.com/google/uuid"
)

// Insert helpers used by the collector side (out of scope here) and by the
// forge-preview tool to seed sample weeks. Not part of the Store interface.

func (s *SQLiteStore) InsertUser(ctx context.Context, user models.User) error {
	id := user.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET email = excluded.email`,
		id, user.Email)
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertCommit(ctx context.Context, commit models.Commit) error {
	id := commit.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO commits (id, user_id, repo_full_name, sha, message, committed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, commit.UserID, commit.RepoFullName, commit.SHA, commit.Message,
		commit.CommittedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting commit: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertProblem(ctx context.Context, problem models.Problem) error {
	id := problem.ID
	if id == "" {
		id = uuid.NewString()
	}
	tags := problem.Tags
	if tags == nil {
		tags = []string{}
	}
	raw, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("marshaling tags: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO problems (id, user_id, problem_id, title, level, tags, solved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, problem.UserID, problem.ProblemID, problem.Title, problem.Level,
		string(raw), problem.SolvedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting problem: %w", err)
	}
	return nil
}

func (s *SQLiteStore) InsertNote(ctx context.Context, note models.Note) error {
	id := note.ID
	if id == "" {
		id = uuid.NewString()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, title, created_at) VALUES (?, ?, ?, ?)`,
		id, note.UserID, note.Title, note.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("inserting note: %w", err)
	}
	return nil
}

func (s *SQLiteStore) SetStyleProfile(ctx context.Context, profile models.StyleProfile) error {
	structure := profile.ReportStructure
	if structure == nil {
		structure = []string{}
	}
	raw, err := json.Marshal(structure)
	if err != nil {
		return fmt.Errorf("marshaling report structure: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO style_profiles (user_id, language, tone, report_structure, extra_instructions)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		     language = excluded.language,
		     tone = excluded.tone,
		     report_structure = excluded.report_structure,
		     extra_instructions = excluded.extra_instructions`,
		profile.UserID, profile.Language, profile.Tone, string(raw), profile.ExtraInstructions)
	if err != nil {
		return fmt.Errorf("setting style profile: %w", err)
	}
	return nil
}
