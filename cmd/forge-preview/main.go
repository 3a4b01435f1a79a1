// forge-preview runs a synthetic week through the real build pipeline and
// prints the prompts the report generator would send, plus the generated
// report itself when OPENAI_API_KEY is set. Useful for iterating on prompt
// wording without touching production data.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Lova-clover/DevHistory/internal/forge"
	"github.com/Lova-clover/DevHistory/internal/llm"
	"github.com/Lova-clover/DevHistory/internal/models"
	"github.com/Lova-clover/DevHistory/internal/store"
	"github.com/Lova-clover/DevHistory/internal/timeline"
)

const previewUser = "preview-user"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "forge-preview: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	dir, err := os.MkdirTemp("", "forge-preview")
	if err != nil {
		return err
	}
	defer os.RemoveAll(dir)

	db, err := store.Open(filepath.Join(dir, "preview.db"))
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := context.Background()
	weekStart := timeline.WeekStart(time.Now())

	if err := seedSampleWeek(ctx, db, weekStart); err != nil {
		return fmt.Errorf("seeding sample week: %w", err)
	}

	builder := timeline.NewBuilder(db)
	result, err := builder.Build(ctx, previewUser, weekStart)
	if err != nil {
		return fmt.Errorf("building weekly summary: %w", err)
	}

	summary, err := db.GetWeeklySummaryByID(ctx, result.SummaryID)
	if err != nil {
		return err
	}

	profile := models.DefaultStyleProfile(previewUser)
	profile.Language = "en"
	systemPrompt, userPrompt := forge.BuildWeeklyPrompts(summary, profile)

	section("SYSTEM PROMPT")
	fmt.Println(systemPrompt)
	section("USER PROMPT")
	fmt.Println(userPrompt)

	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		fmt.Println("\nOPENAI_API_KEY not set; skipping generation.")
		return nil
	}

	client, err := llm.NewOpenAIClient("https://api.openai.com/v1", apiKey, "gpt-4o-mini", 120*time.Second)
	if err != nil {
		return err
	}
	report, err := forge.NewGenerator(client).GenerateWeeklyReport(ctx, summary, profile)
	if err != nil {
		return err
	}

	section("GENERATED REPORT")
	fmt.Println(report)
	return nil
}

func section(title string) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	fmt.Println(title)
	fmt.Println(strings.Repeat("=", 70))
}

// seedSampleWeek writes a believable medium-activity week: a few days of
// commits across two repos, a handful of tagged problems, one note.
func seedSampleWeek(ctx context.Context, db *store.SQLiteStore, weekStart time.Time) error {
	if err := db.InsertUser(ctx, models.User{ID: previewUser, Email: "preview@example.com"}); err != nil {
		return err
	}

	commits := []struct {
		day  int
		repo string
		msg  string
	}{
		{0, "preview/api-server", "Add weekly summary endpoint"},
		{0, "preview/api-server", "Fix date range filter"},
		{1, "preview/api-server", "Refactor upsert query"},
		{2, "preview/algo-practice", "Solve graph traversal set"},
		{4, "preview/api-server", "Add report polling handler"},
		{4, "preview/api-server", "Tighten error messages"},
	}
	for i, c := range commits {
		err := db.InsertCommit(ctx, models.Commit{
			UserID:       previewUser,
			RepoFullName: c.repo,
			SHA:          fmt.Sprintf("%040x", i+1),
			Message:      c.msg,
			CommittedAt:  weekStart.AddDate(0, 0, c.day).Add(14 * time.Hour),
		})
		if err != nil {
			return err
		}
	}

	problems := []struct {
		day  int
		id   int
		tags []string
	}{
		{1, 1260, []string{"graph", "bfs"}},
		{2, 11053, []string{"dp"}},
		{2, 2579, []string{"dp"}},
		{5, 1753, []string{"graph", "dijkstra"}},
	}
	for _, p := range problems {
		err := db.InsertProblem(ctx, models.Problem{
			UserID:    previewUser,
			ProblemID: p.id,
			Tags:      p.tags,
			SolvedAt:  weekStart.AddDate(0, 0, p.day).Add(21 * time.Hour),
		})
		if err != nil {
			return err
		}
	}

	return db.InsertNote(ctx, models.Note{
		UserID:    previewUser,
		Title:     "Dijkstra revisited",
		CreatedAt: weekStart.AddDate(0, 0, 5).Add(22 * time.Hour),
	})
}
