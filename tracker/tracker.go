// Package tracker implements the synchronization core: it reconciles a
// remote repository's commit history against the local store and owns
// the single tracked-target slot.
package tracker

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"gitstatviewer/github"
	"gitstatviewer/logger"
	"gitstatviewer/models"
)

// CommitStore abstracts the store operations needed by the tracker
// (for testability)
type CommitStore interface {
	Exists(ctx context.Context, sha string) (bool, error)
	Insert(ctx context.Context, commit models.Commit) error
}

// CommitSource abstracts the remote adapter operations needed by the
// tracker (for testability)
type CommitSource interface {
	ListCommits(ctx context.Context, owner, name string, page, perPage int) ([]github.CommitSummary, error)
	GetCommitDetail(ctx context.Context, owner, name, sha string) (*github.CommitDetail, error)
}

// Mode describes which synchronization path a tracking request took
type Mode string

const (
	// ModeBackfill means the full remote history was paged in from the start
	ModeBackfill Mode = "backfill"
	// ModeTopup means only the commits missing from the probe window were inserted
	ModeTopup Mode = "topup"
	// ModeNoop means every probed commit was already stored
	ModeNoop Mode = "noop"
)

// Tracker reconciles one repository's remote history against the local
// store. The mutex guards the tracked-target slot and every
// fetch/insert phase, so a tracking request and a poll tick never
// interleave their store mutations.
type Tracker struct {
	store  CommitStore
	source CommitSource

	probeSize int
	pageSize  int

	mu    sync.Mutex
	owner string
	name  string
}

// New creates a Tracker. probeSize is the size of the recent-commits
// window used to pick a sync mode; pageSize is the page size used
// during backfill.
func New(store CommitStore, source CommitSource, probeSize, pageSize int) *Tracker {
	return &Tracker{
		store:     store,
		source:    source,
		probeSize: probeSize,
		pageSize:  pageSize,
	}
}

// Tracked returns the repository key currently being tracked, or the
// empty string if none is.
func (t *Tracker) Tracked() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.owner == "" {
		return ""
	}
	return t.owner + "/" + t.name
}

// Track starts tracking owner/name. It probes the most recent commits
// to classify overlap with the store: zero overlap triggers a full
// backfill, partial overlap a top-up, full overlap nothing. The target
// is registered for polling only after the sync succeeds, so a failed
// call is safe to retry.
//
// The probe is a heuristic: a window with zero overlap is the only
// cheap local signal that the store has never seen this repository.
func (t *Tracker) Track(ctx context.Context, owner, name string) (Mode, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := owner + "/" + name
	if t.owner != "" && (t.owner != owner || t.name != name) {
		return "", fmt.Errorf("%w: tracking %s/%s, refusing %s", ErrConflict, t.owner, t.name, key)
	}

	probe, err := t.source.ListCommits(ctx, owner, name, 1, t.probeSize)
	if err != nil {
		return "", fmt.Errorf("%w: probe fetch: %v", ErrSync, err)
	}

	var missing []github.CommitSummary
	for _, summary := range probe {
		exists, err := t.store.Exists(ctx, summary.SHA)
		if err != nil {
			return "", fmt.Errorf("%w: membership check: %v", ErrSync, err)
		}
		if !exists {
			missing = append(missing, summary)
		}
	}

	var mode Mode
	switch {
	case len(missing) == 0 && len(probe) > 0:
		mode = ModeNoop
	case len(missing) == len(probe):
		// Includes an empty probe (brand-new repo): the backfill
		// terminates on its first short page.
		mode = ModeBackfill
		if err := t.backfill(ctx, owner, name, key); err != nil {
			return "", fmt.Errorf("%w: backfill: %v", ErrSync, err)
		}
	default:
		mode = ModeTopup
		if err := t.insertAbsent(ctx, owner, name, key, missing); err != nil {
			return "", fmt.Errorf("%w: top-up: %v", ErrSync, err)
		}
	}

	t.owner = owner
	t.name = name

	logger.Info("Repository tracked",
		zap.String("repository_key", key),
		zap.String("mode", string(mode)))
	return mode, nil
}

// Poll runs the incremental path against the tracked target: probe the
// recent window and insert whatever is absent. It never backfills. A
// nil return with no tracked target is a no-op.
func (t *Tracker) Poll(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.owner == "" {
		return nil
	}
	key := t.owner + "/" + t.name

	probe, err := t.source.ListCommits(ctx, t.owner, t.name, 1, t.probeSize)
	if err != nil {
		return fmt.Errorf("probe fetch for %s: %w", key, err)
	}

	var missing []github.CommitSummary
	for _, summary := range probe {
		exists, err := t.store.Exists(ctx, summary.SHA)
		if err != nil {
			return fmt.Errorf("membership check for %s: %w", key, err)
		}
		if !exists {
			missing = append(missing, summary)
		}
	}

	if len(missing) == 0 {
		return nil
	}

	logger.Info("Poll found new commits",
		zap.String("repository_key", key),
		zap.Int("count", len(missing)))
	return t.insertAbsent(ctx, t.owner, t.name, key, missing)
}

// backfill pages through the entire remote history from the beginning,
// inserting every commit not already stored. It stops on a page
// shorter than the page size, or on an empty page when the history
// length is an exact multiple of it.
func (t *Tracker) backfill(ctx context.Context, owner, name, key string) error {
	for page := 1; ; page++ {
		summaries, err := t.source.ListCommits(ctx, owner, name, page, t.pageSize)
		if err != nil {
			return fmt.Errorf("page %d fetch: %w", page, err)
		}
		if len(summaries) == 0 {
			break
		}

		var absent []github.CommitSummary
		for _, summary := range summaries {
			exists, err := t.store.Exists(ctx, summary.SHA)
			if err != nil {
				return fmt.Errorf("membership check: %w", err)
			}
			if !exists {
				absent = append(absent, summary)
			}
		}

		if err := t.insertAbsent(ctx, owner, name, key, absent); err != nil {
			return err
		}

		if len(summaries) < t.pageSize {
			break
		}
	}

	return nil
}

// insertAbsent fetches statistics for each summary and stores the
// resulting commit, in discovery order. Detail fetches are sequential
// to bound the upstream request rate. A failed detail fetch skips that
// one commit; a store failure aborts the run.
func (t *Tracker) insertAbsent(ctx context.Context, owner, name, key string, summaries []github.CommitSummary) error {
	for _, summary := range summaries {
		detail, err := t.source.GetCommitDetail(ctx, owner, name, summary.SHA)
		if err != nil {
			logger.Warn("Skipping commit, detail fetch failed",
				zap.Error(err),
				zap.String("repository_key", key),
				zap.String("sha", summary.SHA))
			continue
		}

		commit := models.Commit{
			SHA:           summary.SHA,
			RepositoryKey: key,
			AuthorName:    detail.AuthorName,
			Date:          detail.Date,
			Additions:     detail.Additions,
			Deletions:     detail.Deletions,
		}
		if err := t.store.Insert(ctx, commit); err != nil {
			return fmt.Errorf("store insert for %s: %w", summary.SHA, err)
		}
	}

	return nil
}
