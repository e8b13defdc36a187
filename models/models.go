// Package models defines the core data structures used throughout the application.
package models

import "time"

// Commit represents a single commit stored for a tracked repository.
// A commit is immutable once stored and is never re-attributed to a
// different repository.
type Commit struct {
	ID            int       `db:"id" json:"id"`
	SHA           string    `db:"sha" json:"sha"`
	RepositoryKey string    `db:"repository_key" json:"repository_key"`
	AuthorName    string    `db:"author_name" json:"author_name"`
	Date          time.Time `db:"date" json:"date"`
	Additions     int       `db:"additions" json:"additions"`
	Deletions     int       `db:"deletions" json:"deletions"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// DailyPoint is one entry of the cumulative line-count series: the net
// line count of the repository at the end of the given calendar day.
type DailyPoint struct {
	Date  string `json:"date"`
	Lines int    `json:"lines"`
}

// AuthorSummary represents aggregated contribution statistics for a
// single author. Near-duplicate display names are merged under the
// first-seen spelling.
type AuthorSummary struct {
	AuthorName      string  `json:"author_name"`
	Commits         int     `json:"commits"`
	Additions       int     `json:"additions"`
	Deletions       int     `json:"deletions"`
	AvgLinesChanged float64 `json:"avg_lines_changed"`
	CommitShare     float64 `json:"commit_share"`
	LineShare       float64 `json:"line_share"`
}

// Report is the full set of derived statistics for a repository. It is
// recomputed from stored commits on every read and never persisted.
type Report struct {
	TotalCommits int             `json:"total_commits"`
	TotalLines   int             `json:"total_lines"`
	DailySeries  []DailyPoint    `json:"daily_series"`
	Authors      []AuthorSummary `json:"authors"`
}
