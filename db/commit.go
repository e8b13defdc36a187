package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"gitstatviewer/logger"
	"gitstatviewer/models"
)

// Exists reports whether a commit with the given sha is already stored
func (db *DB) Exists(ctx context.Context, sha string) (bool, error) {
	if sha == "" {
		return false, fmt.Errorf("%w: sha cannot be empty", ErrInvalidInput)
	}

	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM commits WHERE sha = $1)`

	if err := db.conn.GetContext(ctx, &exists, query, sha); err != nil {
		return false, fmt.Errorf("failed to check commit %s: %w", sha, err)
	}

	return exists, nil
}

// Insert stores a commit. Inserting a sha that is already present is a
// no-op, which makes retries and overlapping sync runs safe.
func (db *DB) Insert(ctx context.Context, commit models.Commit) error {
	if commit.SHA == "" || commit.RepositoryKey == "" {
		return fmt.Errorf("%w: commit sha and repository key cannot be empty", ErrInvalidInput)
	}

	query := `
		INSERT INTO commits (sha, repository_key, author_name, date, additions, deletions)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (sha) DO NOTHING
	`

	if _, err := db.conn.ExecContext(ctx, query,
		commit.SHA,
		commit.RepositoryKey,
		commit.AuthorName,
		commit.Date,
		commit.Additions,
		commit.Deletions,
	); err != nil {
		return fmt.Errorf("failed to insert commit %s: %w", commit.SHA, err)
	}

	logger.Debug("Commit stored",
		zap.String("sha", commit.SHA),
		zap.String("repository_key", commit.RepositoryKey))
	return nil
}

// ListByRepository returns all stored commits for a repository, ordered
// by commit date with insertion order breaking ties.
func (db *DB) ListByRepository(ctx context.Context, repositoryKey string) ([]models.Commit, error) {
	if repositoryKey == "" {
		return nil, fmt.Errorf("%w: repository key cannot be empty", ErrInvalidInput)
	}

	var commits []models.Commit
	query := `
		SELECT id, sha, repository_key, author_name, date, additions, deletions, created_at
		FROM commits
		WHERE repository_key = $1
		ORDER BY date ASC, id ASC
	`

	if err := db.conn.SelectContext(ctx, &commits, query, repositoryKey); err != nil {
		return nil, fmt.Errorf("failed to list commits for %s: %w", repositoryKey, err)
	}

	return commits, nil
}
