package forge

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Lova-clover/DevHistory/internal/models"
)

const (
	tagLimit  = 15
	repoLimit = 20
)

func formatDate(t time.Time) string {
	return t.Format("2006-01-02")
}

func formatDailyActivities(byDay map[string]models.DayActivity) string {
	if len(byDay) == 0 {
		return "(no daily activity data)"
	}
	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	lines := make([]string, 0, len(days))
	for _, day := range days {
		counts := byDay[day]
		lines = append(lines, fmt.Sprintf("- %s: commits %d, problems %d, notes %d",
			day, counts.Commits, counts.Problems, counts.Notes))
	}
	return strings.Join(lines, "\n")
}

func formatTagDistribution(tags map[string]int) string {
	if len(tags) == 0 {
		return "(no problem tags)"
	}
	sorted := sortByCount(tags)
	if len(sorted) > tagLimit {
		sorted = sorted[:tagLimit]
	}
	parts := make([]string, 0, len(sorted))
	for _, entry := range sorted {
		parts = append(parts, fmt.Sprintf("%s(%d)", entry.key, entry.count))
	}
	return strings.Join(parts, ", ")
}

func formatRepoDistribution(repos map[string]int) string {
	if len(repos) == 0 {
		return "(no repository commit split)"
	}
	sorted := sortByCount(repos)
	if len(sorted) > repoLimit {
		sorted = sorted[:repoLimit]
	}
	lines := make([]string, 0, len(sorted))
	for _, entry := range sorted {
		lines = append(lines, fmt.Sprintf("- %s: %d", entry.key, entry.count))
	}
	return strings.Join(lines, "\n")
}

type countEntry struct {
	key   string
	count int
}

// sortByCount orders descending by count, ties broken by key so prompt
// output is stable across runs.
func sortByCount(m map[string]int) []countEntry {
	entries := make([]countEntry, 0, len(m))
	for key, count := range m {
		entries = append(entries, countEntry{key, count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].key < entries[j].key
	})
	return entries
}
