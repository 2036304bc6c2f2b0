package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/twosync/internal/client/client"
	"github.com/dmitrijs2005/twosync/internal/client/models"
	"github.com/dmitrijs2005/twosync/internal/client/repositories/entries"
	"github.com/dmitrijs2005/twosync/internal/client/repositories/posts"
	"github.com/dmitrijs2005/twosync/internal/client/state"
	"github.com/dmitrijs2005/twosync/internal/common"
	"github.com/dmitrijs2005/twosync/internal/dbx"
	"github.com/dmitrijs2005/twosync/internal/logging"
	"github.com/google/uuid"
)

// CacheSyncResult summarizes one ReplaceAll call.
type CacheSyncResult struct {
	Success bool   `json:"success"`
	Entries int    `json:"entries"`
	Posts   int    `json:"posts"`
	Error   string `json:"error,omitempty"`
}

// CacheService mirrors the Twos export into the local database.
//
// Contract:
//   - ReplaceAll: fetch the snapshot and replace the whole cache in one
//     transaction. On failure the result has Success=false and the error is
//     returned as well; nothing is committed.
//   - GetAll: every cached entry with its posts, in insertion order.
//   - GetByID: one entry with its posts, or common.ErrNotFound.
//   - Search: case-insensitive containment over titles and post texts.
//   - Counts: number of cached entries and posts, without publishing.
//
// GetAll, Search and a successful ReplaceAll publish their result to Tasks.
type CacheService interface {
	ReplaceAll(ctx context.Context, userID, token string) (*CacheSyncResult, error)
	GetAll(ctx context.Context) ([]models.Task, error)
	GetByID(ctx context.Context, id string) (*models.Task, error)
	Search(ctx context.Context, query string) ([]models.Task, error)
	Counts(ctx context.Context) (entries, posts int, err error)
	Status() *state.Cell[state.Status]
	Tasks() *state.Cell[[]models.Task]
}

type cacheService struct {
	client client.Client
	db     *sql.DB
	log    logging.Logger

	// mu serializes ReplaceAll calls.
	mu     sync.Mutex
	status *state.Cell[state.Status]
	tasks  *state.Cell[[]models.Task]
}

// NewCacheService constructs a CacheService bound to the given API client and DB.
func NewCacheService(client client.Client, db *sql.DB, log logging.Logger) CacheService {
	return &cacheService{
		client: client,
		db:     db,
		log:    log,
		status: state.NewCell(state.StatusIdle),
		tasks:  state.NewCell([]models.Task{}),
	}
}

func (s *cacheService) Status() *state.Cell[state.Status] { return s.status }

func (s *cacheService) Tasks() *state.Cell[[]models.Task] { return s.tasks }

func (s *cacheService) ReplaceAll(ctx context.Context, userID, token string) (*CacheSyncResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	log := s.log.With("pipeline", "cache", "run_id", uuid.NewString())

	if userID == "" || token == "" {
		return &CacheSyncResult{Error: common.ErrMissingCredentials.Error()}, common.ErrMissingCredentials
	}

	s.status.Set(state.StatusSyncing)
	log.Info(ctx, "cache sync started")

	fail := func(err error) (*CacheSyncResult, error) {
		s.status.Set(state.StatusError)
		log.Error(ctx, "cache sync failed", "error", err)
		return &CacheSyncResult{Error: err.Error()}, err
	}

	snap, err := s.client.Export(ctx, userID, token)
	if err != nil {
		return fail(err)
	}
	log.Debug(ctx, "snapshot received", "entries", len(snap.Entries), "posts", len(snap.Posts))

	if err := s.replace(ctx, snap); err != nil {
		return fail(err)
	}

	if _, err := s.GetAll(ctx); err != nil {
		return fail(err)
	}

	s.status.Set(state.StatusSuccess)
	log.Info(ctx, "cache sync finished", "entries", len(snap.Entries), "posts", len(snap.Posts))

	return &CacheSyncResult{Success: true, Entries: len(snap.Entries), Posts: len(snap.Posts)}, nil
}

// replace swaps the cache content for snap atomically.
func (s *cacheService) replace(ctx context.Context, snap *models.Snapshot) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		entryRepo := entries.NewSQLiteRepository(tx)
		postRepo := posts.NewSQLiteRepository(tx)

		if err := entryRepo.Clear(ctx); err != nil {
			return err
		}
		if err := postRepo.Clear(ctx); err != nil {
			return err
		}
		for i := range snap.Entries {
			if err := entryRepo.Insert(ctx, &snap.Entries[i]); err != nil {
				return err
			}
		}
		for i := range snap.Posts {
			if err := postRepo.Insert(ctx, &snap.Posts[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrStorage, err)
	}
	return nil
}

// readAll loads both tables inside one read transaction so the pair is
// consistent with a concurrent ReplaceAll.
func (s *cacheService) readAll(ctx context.Context) ([]models.Entry, []models.Post, error) {
	var es []models.Entry
	var ps []models.Post

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if es, err = dbx.Collect(entries.NewSQLiteRepository(tx).All(ctx)); err != nil {
			return err
		}
		ps, err = dbx.Collect(posts.NewSQLiteRepository(tx).All(ctx))
		return err
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read cache: %w", common.ErrStorage, err)
	}
	return es, ps, nil
}

func (s *cacheService) Counts(ctx context.Context) (int, int, error) {
	var ne, np int
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if ne, err = entries.NewSQLiteRepository(tx).Count(ctx); err != nil {
			return err
		}
		np, err = posts.NewSQLiteRepository(tx).Count(ctx)
		return err
	})
	if err != nil {
		return 0, 0, fmt.Errorf("%w: count cache: %w", common.ErrStorage, err)
	}
	return ne, np, nil
}

func (s *cacheService) GetAll(ctx context.Context) ([]models.Task, error) {
	es, ps, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	tasks := models.MergeTasks(es, ps)
	s.tasks.Set(tasks)
	return tasks, nil
}

func (s *cacheService) GetByID(ctx context.Context, id string) (*models.Task, error) {
	entry, err := entries.NewSQLiteRepository(s.db).GetByID(ctx, id)
	if errors.Is(err, common.ErrNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorage, err)
	}

	ps, err := posts.NewSQLiteRepository(s.db).GetByEntryID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrStorage, err)
	}

	return &models.Task{Entry: *entry, Posts: ps}, nil
}

// Search attaches to each entry the posts whose text or owning title
// contains query, and keeps the entries left with at least one post. An
// entry whose title matches but which has no posts is therefore dropped.
func (s *cacheService) Search(ctx context.Context, query string) ([]models.Task, error) {
	if strings.TrimSpace(query) == "" {
		return s.GetAll(ctx)
	}

	es, ps, err := s.readAll(ctx)
	if err != nil {
		return nil, err
	}

	q := strings.ToLower(query)
	byEntry := models.GroupPosts(ps)

	result := make([]models.Task, 0)
	for _, e := range es {
		titleMatch := strings.Contains(strings.ToLower(e.Title), q)

		matched := make([]models.Post, 0)
		for _, p := range byEntry[e.ID] {
			if titleMatch || strings.Contains(strings.ToLower(p.Text), q) {
				matched = append(matched, p)
			}
		}
		if len(matched) == 0 {
			continue
		}
		result = append(result, models.Task{Entry: e, Posts: matched})
	}

	s.tasks.Set(result)
	return result, nil
}
