package forge

import (
	"context"
	"fmt"
	"strings"

	"github.com/Lova-clover/DevHistory/internal/llm"
	"github.com/Lova-clover/DevHistory/internal/models"
	"github.com/Lova-clover/DevHistory/internal/timeline"
	"github.com/sirupsen/logrus"
)

// Generator turns a built weekly summary into report text through the
// text-generation capability. Signal quality is recomputed at generation
// time from the stored aggregate, never cached from build time.
type Generator struct {
	generator llm.TextGenerator
}

// NewGenerator creates a report generator.
func NewGenerator(g llm.TextGenerator) *Generator {
	return &Generator{generator: g}
}

// GenerateWeeklyReport builds the prompt pair for the summary and invokes
// the text generator. Generation failures propagate as errors.
func (g *Generator) GenerateWeeklyReport(ctx context.Context, summary *models.WeeklySummary, profile *models.StyleProfile) (string, error) {
	systemPrompt, userPrompt := BuildWeeklyPrompts(summary, profile)

	logrus.Debugf("Generating weekly report for summary %s (%s ~ %s)",
		summary.ID, formatDate(summary.WeekStart), formatDate(summary.WeekEnd))

	text, err := g.generator.Generate(ctx, systemPrompt, userPrompt)
	if err != nil {
		return "", fmt.Errorf("generating weekly report for summary %s: %w", summary.ID, err)
	}
	return text, nil
}

// BuildWeeklyPrompts constructs the system and user prompts for a weekly
// report. The system prompt pins language/tone/structure from the style
// profile and the data-quality constraints; the user prompt carries the
// evidence tables and the quality assessment.
func BuildWeeklyPrompts(summary *models.WeeklySummary, profile *models.StyleProfile) (string, string) {
	if profile == nil {
		profile = models.DefaultStyleProfile(summary.UserID)
	}

	aggregate := summary.Summary
	if aggregate == nil {
		aggregate = &models.WeeklyAggregate{}
	}

	quality := timeline.AssessSignalQuality(
		summary.CommitCount, summary.ProblemCount, summary.NoteCount,
		aggregate.ByDay, aggregate.ProblemsByTag)

	return buildSystemPrompt(profile, quality), buildUserPrompt(summary, aggregate, quality)
}

func buildSystemPrompt(profile *models.StyleProfile, quality models.SignalQuality) string {
	language := profile.Language
	if language == "" {
		language = "ko"
	}
	tone := profile.Tone
	if tone == "" {
		tone = "technical"
	}
	structure := profile.ReportStructure
	if len(structure) == 0 {
		structure = []string{"Summary", "What I did", "Learned", "Next"}
	}

	lines := []string{
		"You are a factual engineering writing assistant.",
		"Output language: " + language,
		"Tone: " + tone,
		"Output format: Markdown",
		"Do not invent activities, numbers, tools, or outcomes.",
		"Use only the evidence in the input data.",
		"When evidence is weak, explicitly state uncertainty instead of guessing.",
		"Always include a short 'Data Confidence' section with confidence labels for commits/problems/notes.",
		"Confidence labels must be one of: high, medium, low, none.",
		"Important constraint for problems data: solved_at may represent sync time, not exact solve time.",
		"If problem confidence is low/medium, avoid date-level claims about problem solving pace.",
		"If notes confidence is none/low, avoid inferring deep learning outcomes from notes.",
		"Prefer concrete, measurable wording over generic praise.",
		"Recommended section order: " + strings.Join(structure, " > "),
	}

	if profile.ExtraInstructions != "" {
		lines = append(lines, "Extra instruction: "+profile.ExtraInstructions)
	}

	lines = append(lines, fmt.Sprintf("Current quality hints: commits=%s, problems=%s, notes=%s.",
		quality.Commits.Level, quality.Problems.Level, quality.Notes.Level))

	return strings.Join(lines, "\n")
}

func buildUserPrompt(summary *models.WeeklySummary, aggregate *models.WeeklyAggregate, quality models.SignalQuality) string {
	return fmt.Sprintf(`Weekly window: %s ~ %s

[Aggregated counts]
- commits: %d
- problems: %d
- notes: %d

[Daily activity]
%s

[Problem tags]
%s

[Commits by repository]
%s

[Data quality assessment]
- commits: %s (%s)
- problems: %s (%s)
- notes: %s (%s)
- guidance: %s

Write a weekly retrospective using only this evidence.
Required constraints:
1) Start with one-paragraph summary.
2) Include what was done, what was learned, what was difficult, and concrete next actions.
3) Include a 'Data Confidence' section that explains which conclusions are strong vs weak.
4) Do not overstate problems/notes if their confidence is not high.
5) End with 3-5 actionable tasks for next week.
`,
		formatDate(summary.WeekStart), formatDate(summary.WeekEnd),
		summary.CommitCount, summary.ProblemCount, summary.NoteCount,
		formatDailyActivities(aggregate.ByDay),
		formatTagDistribution(aggregate.ProblemsByTag),
		formatRepoDistribution(aggregate.CommitsByRepo),
		quality.Commits.Level, quality.Commits.Reason,
		quality.Problems.Level, quality.Problems.Reason,
		quality.Notes.Level, quality.Notes.Reason,
		quality.GlobalGuidance)
}
