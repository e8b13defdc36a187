// Package stats derives presentation statistics from stored commits.
// Everything here is a pure function of its input: no store or network
// access, recomputed on every read.
package stats

import (
	"sort"
	"strings"
	"time"

	"gitstatviewer/models"
)

// Aggregate computes the daily cumulative line-count series and the
// per-author contribution summary for a set of commits. The input
// order only matters for same-timestamp commits, where it is preserved.
func Aggregate(commits []models.Commit) models.Report {
	report := models.Report{
		DailySeries: []models.DailyPoint{},
		Authors:     []models.AuthorSummary{},
	}
	if len(commits) == 0 {
		return report
	}

	sorted := make([]models.Commit, len(commits))
	copy(sorted, commits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	report.TotalCommits = len(sorted)
	for _, commit := range sorted {
		report.TotalLines += commit.Additions - commit.Deletions
	}
	report.DailySeries = dailySeries(sorted)
	report.Authors = authorSummaries(sorted)

	return report
}

// dailySeries walks every calendar day from the first to the last
// commit date, carrying the cumulative total forward over days with no
// activity.
func dailySeries(sorted []models.Commit) []models.DailyPoint {
	first := day(sorted[0].Date)
	last := day(sorted[len(sorted)-1].Date)

	var series []models.DailyPoint
	cumulative := 0
	i := 0
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		for i < len(sorted) && day(sorted[i].Date).Equal(d) {
			cumulative += sorted[i].Additions - sorted[i].Deletions
			i++
		}
		series = append(series, models.DailyPoint{
			Date:  d.Format("2006-01-02"),
			Lines: cumulative,
		})
	}

	return series
}

// authorSummaries groups commits by a normalized author key so that
// near-duplicate spellings ("Jane Doe" / "janedoe") merge into one
// entry, keeping the first-seen spelling as the display name.
func authorSummaries(sorted []models.Commit) []models.AuthorSummary {
	type group struct {
		displayName string
		commits     int
		additions   int
		deletions   int
	}

	groups := make(map[string]*group)
	var order []string
	for _, commit := range sorted {
		key := normalizeAuthor(commit.AuthorName)
		g, ok := groups[key]
		if !ok {
			g = &group{displayName: commit.AuthorName}
			groups[key] = g
			order = append(order, key)
		}
		g.commits++
		g.additions += commit.Additions
		g.deletions += commit.Deletions
	}

	totalCommits := len(sorted)
	totalChanged := 0
	for _, g := range groups {
		totalChanged += g.additions + g.deletions
	}

	summaries := make([]models.AuthorSummary, 0, len(groups))
	for _, key := range order {
		g := groups[key]
		changed := g.additions + g.deletions

		summary := models.AuthorSummary{
			AuthorName: g.displayName,
			Commits:    g.commits,
			Additions:  g.additions,
			Deletions:  g.deletions,
		}
		if g.commits > 0 {
			summary.AvgLinesChanged = float64(changed) / float64(g.commits)
		}
		if totalCommits > 0 {
			summary.CommitShare = float64(g.commits) / float64(totalCommits) * 100
		}
		if totalChanged > 0 {
			summary.LineShare = float64(changed) / float64(totalChanged) * 100
		}
		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].Commits > summaries[j].Commits
	})

	return summaries
}

// normalizeAuthor strips all whitespace and case-folds a display name
func normalizeAuthor(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), ""))
}

// day truncates a timestamp to its UTC calendar day
func day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
